// Package main is the entry point for pomo, a pomodoro timer that logs
// finished focus intervals into a folder of Markdown notes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pomo/internal/config"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	vault      string
	logLevel   string
}

// path returns the config file in use.
func (o *globalOptions) path() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultPath()
}

// load reads the config file and applies flag overrides.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.LoadFrom(o.path())
	if err != nil {
		return nil, err
	}
	if o.vault != "" {
		cfg.Vault = o.vault
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// loadSettings reloads only the timer settings, validated.
func (o *globalOptions) loadSettings() (config.Settings, error) {
	cfg, err := o.load()
	if err != nil {
		return config.Settings{}, err
	}
	if err := cfg.Timer.Validate(); err != nil {
		return config.Settings{}, err
	}
	return cfg.Timer, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pomo",
		Short: "Pomodoro timer that logs to your notes",
		Long: `pomo runs focus and break intervals and, after each focus interval,
writes a log entry to a note in your vault (a folder of Markdown notes).

Running pomo with no command opens the terminal UI.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&opts.vault, "vault", "", "vault directory (default: config value or working directory)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newLogCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newSyncCmd(opts))
	rootCmd.AddCommand(newBackupCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}
