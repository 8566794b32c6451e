package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pomo/internal/console"
	"pomo/internal/logging"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var logFormat string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timer on a plain line-oriented console",
		Long: `Runs the timer without the full-screen UI. Commands are read one per line:
s (start), p (toggle pause), q (quit timer), r (start or toggle), h (help)
and x (exit).
When asked for a description, the next line answers it and an empty line
dismisses it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Init(logging.Config{Level: cfg.Log.Level, Format: logFormat, Output: os.Stderr})

			c := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
			rt, err := newRuntime(cmd.Context(), opts, cfg, c, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer rt.Close()

			c.Attach(rt.session)
			return c.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log output format: console or json")
	return cmd
}
