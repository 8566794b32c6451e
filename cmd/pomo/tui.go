package main

import (
	"context"
	"fmt"
	"os"

	"pomo/internal/logging"
	"pomo/internal/ui"
)

// runTUI opens the terminal UI. The UI owns the terminal, so logs go to the
// log file.
func runTUI(ctx context.Context, opts *globalOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer, err := logging.InitFile(cfg.Log.Level, cfg.GetLogFile())
	if err != nil {
		return err
	}
	defer closer.Close()

	bridge := ui.NewBridge()
	rt, err := newRuntime(ctx, opts, cfg, bridge, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := ui.NewApp(rt.session, bridge, ui.NewStyles(cfg), &ui.AppConfig{
		Keys:  &cfg.Keys,
		Stats: rt.stats(),
	})
	return ui.Run(app)
}
