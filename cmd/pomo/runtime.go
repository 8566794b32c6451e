package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"

	"pomo/internal/audio"
	"pomo/internal/config"
	"pomo/internal/history"
	"pomo/internal/logging"
	"pomo/internal/notify"
	"pomo/internal/reports"
	"pomo/internal/schedule"
	"pomo/internal/session"
	"pomo/internal/sync"
	"pomo/internal/timer"
	"pomo/internal/vault"
)

// host is what a front end supplies to the timer.
type host interface {
	timer.Notifier
	timer.Prompter
	timer.StatusSink
}

// runtime is a timer wired to a vault and its supporting services.
type runtime struct {
	session *session.Session
	vault   *vault.Vault
	history *history.Store
	sync    *sync.GitSync
	player  *audio.Player
	cancel  context.CancelFunc
	logger  zerolog.Logger

	// settings mirrors the timer's settings for the log writer, which runs
	// while the timer holds its lock.
	settings atomic.Pointer[config.Settings]
}

// newRuntime opens the vault and wires the timer. History and sync are
// optional: failures there are logged and the timer runs without them.
func newRuntime(ctx context.Context, opts *globalOptions, cfg *config.Config, h host, bell io.Writer) (*runtime, error) {
	if err := cfg.Timer.Validate(); err != nil {
		return nil, err
	}

	v, err := vault.Open(cfg.GetVaultDir(), cfg.Daily)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	rt := &runtime{
		vault:  v,
		cancel: cancel,
		logger: logging.Component("main"),
	}
	settings := cfg.Timer
	rt.settings.Store(&settings)

	var observer timer.Observer
	if store, err := history.Open(cfg.GetHistoryPath()); err != nil {
		rt.logger.Warn().Err(err).Msg("history disabled")
	} else {
		rt.history = store
		observer = history.NewRecorder(store)
	}

	rt.sync = startSync(v, cfg.Sync, rt.logger)

	rt.player = audio.New(cfg.Sounds, bell)

	t := timer.New(settings, timer.Deps{
		Notifier:  notify.NewMirror(h, nil, cfg.Notifications),
		Prompter:  h,
		Entries:   vault.NewLogWriter(v, rt.currentSettings),
		Notes:     v,
		Player:    rt.player,
		Scheduler: schedule.New(ctx),
		Status:    h,
		Observer:  observer,
	})
	rt.session = session.New(t, true, func() (config.Settings, error) {
		s, err := opts.loadSettings()
		if err != nil {
			return s, err
		}
		rt.settings.Store(&s)
		return s, nil
	})

	rt.logger.Info().
		Str("vault", v.Root()).
		Bool("history", rt.history != nil).
		Bool("sync", rt.sync != nil).
		Msg("timer ready")
	return rt, nil
}

// startSync sets up git auto-commit of the vault when enabled.
func startSync(v *vault.Vault, cfg config.SyncConfig, logger zerolog.Logger) *sync.GitSync {
	if !cfg.Enabled {
		return nil
	}
	if !sync.IsGitInstalled() {
		logger.Warn().Msg("sync enabled but git is not installed")
		return nil
	}
	gs := sync.New(v.Root(), cfg)
	if !gs.IsRepo() {
		logger.Warn().Err(sync.ErrNotRepo).Msg("sync disabled")
		return nil
	}

	// Pull on startup if configured; local notes are still valid on failure
	if cfg.PullOnStartup {
		if err := gs.Pull(); err != nil {
			logger.Warn().Err(err).Msg("sync pull failed")
		}
	}
	if cfg.AutoCommit {
		v.SetOnSave(gs.OnNoteSaved)
	}
	return gs
}

func (rt *runtime) currentSettings() config.Settings {
	return *rt.settings.Load()
}

// stats returns a report generator over the history, or nil without one.
func (rt *runtime) stats() *reports.Generator {
	if rt.history == nil {
		return nil
	}
	return reports.NewGenerator(rt.history)
}

// Close stops the timer and flushes pending commits.
func (rt *runtime) Close() {
	rt.session.Close()
	rt.cancel()
	if err := rt.player.StopAmbient(); err != nil {
		rt.logger.Debug().Err(err).Msg("stop ambient")
	}
	if rt.sync != nil {
		rt.sync.Flush()
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			rt.logger.Warn().Err(err).Msg("close history")
		}
	}
}
