package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/config"
	"pomo/internal/logentry"
	"pomo/internal/vault"
)

// errNeedsDescription is returned when the log template has a description
// placeholder and none was given.
var errNeedsDescription = errors.New("log text contains {DESC}: pass --desc")

// entryOptions are the flags shared by the log subcommands.
type entryOptions struct {
	desc string
	note string
}

func newLogCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Preview or write pomodoro log entries",
		Long: `Renders the configured log text the way the timer does after a focus
interval. "preview" prints the entry and its target note; "add" writes it.`,
	}
	cmd.AddCommand(newLogPreviewCmd(opts))
	cmd.AddCommand(newLogAddCmd(opts))
	return cmd
}

func newLogPreviewCmd(opts *globalOptions) *cobra.Command {
	eo := &entryOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the entry the next focus interval would log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, v, settings, err := openLogWriter(opts)
			if err != nil {
				return err
			}
			text, err := renderEntry(v, settings, eo, time.Now())
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), w, settings, text)
		},
	}
	eo.bind(cmd)
	return cmd
}

func newLogAddCmd(opts *globalOptions) *cobra.Command {
	eo := &entryOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Write a log entry now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, v, settings, err := openLogWriter(opts)
			if err != nil {
				return err
			}
			text, err := renderEntry(v, settings, eo, time.Now())
			if err != nil {
				return err
			}
			target, err := w.Target()
			if err != nil {
				return err
			}
			if err := w.WriteEntry(cmd.Context(), text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged to %s\n", target)
			return nil
		},
	}
	eo.bind(cmd)
	return cmd
}

func (eo *entryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&eo.desc, "desc", "d", "", "description for {DESC}")
	cmd.Flags().StringVarP(&eo.note, "note", "n", "", "vault-relative note for {LINK} (default: most recently modified note)")
}

func openLogWriter(opts *globalOptions) (*vault.LogWriter, *vault.Vault, config.Settings, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, nil, config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Timer.Validate(); err != nil {
		return nil, nil, config.Settings{}, err
	}
	v, err := vault.Open(cfg.GetVaultDir(), cfg.Daily)
	if err != nil {
		return nil, nil, config.Settings{}, fmt.Errorf("open vault: %w", err)
	}
	settings := cfg.Timer
	w := vault.NewLogWriter(v, func() config.Settings { return settings })
	return w, v, settings, nil
}

// renderEntry renders the log template for now.
func renderEntry(v *vault.Vault, s config.Settings, eo *entryOptions, now time.Time) (string, error) {
	if logentry.RequiresDescription(s.LogText) && eo.desc == "" {
		return "", errNeedsDescription
	}
	var link string
	if eo.note != "" {
		link = v.MarkdownLink(eo.note)
	} else if s.LogActiveNote {
		if rel, ok := v.ActiveNote(); ok {
			link = v.MarkdownLink(rel)
		}
	}
	return logentry.Render(s.LogText, now, link, eo.desc), nil
}

func printPreview(out io.Writer, w *vault.LogWriter, s config.Settings, text string) error {
	target, err := w.Target()
	if err != nil {
		return err
	}
	if !s.Logging {
		fmt.Fprintln(out, "Logging:  disabled (entries are not written by the timer)")
	}
	fmt.Fprintf(out, "Target:   %s\n", target)
	if ph := logentry.Placeholders(s.LogText); len(ph) > 0 {
		fmt.Fprintf(out, "Uses:     %s\n", strings.Join(ph, " "))
	}
	fmt.Fprintln(out, "Entry:")
	fmt.Fprintln(out, text)
	return nil
}

