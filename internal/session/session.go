// Package session exposes the user commands of a running timer: start,
// pause toggle, quit and the ribbon action. Each command is a
// check-callback that reports whether it applies in the current state.
package session

import (
	"context"

	"github.com/rs/zerolog"

	"pomo/internal/config"
	"pomo/internal/logging"
	"pomo/internal/timer"
)

// Command is a user-invocable action.
type Command struct {
	ID   string
	Name string
	// Run performs the command when checking is false and reports whether
	// it applies. With checking true it only reports.
	Run func(checking bool) bool
}

// Session binds a Timer to an open vault.
type Session struct {
	timer     *timer.Timer
	vaultOpen bool
	reload    func() (config.Settings, error)
	logger    zerolog.Logger
}

// New creates a Session. vaultOpen reports whether a vault was opened;
// without one no command applies. reload is called after quitting so the
// next start sees current settings; it may be nil.
func New(t *timer.Timer, vaultOpen bool, reload func() (config.Settings, error)) *Session {
	return &Session{
		timer:     t,
		vaultOpen: vaultOpen,
		reload:    reload,
		logger:    logging.Component("session"),
	}
}

// Timer returns the underlying timer.
func (s *Session) Timer() *timer.Timer {
	return s.timer
}

// StartFocus starts a focus interval.
func (s *Session) StartFocus(checking bool) bool {
	if !s.vaultOpen {
		return false
	}
	if checking {
		return true
	}
	if err := s.timer.Start(timer.Focus); err != nil {
		s.logger.Error().Err(err).Msg("start focus")
	}
	return true
}

// TogglePause pauses or resumes the running interval.
func (s *Session) TogglePause(checking bool) bool {
	if !s.vaultOpen || s.timer.Snapshot().Mode == timer.Idle {
		return false
	}
	if !checking {
		s.timer.TogglePause()
	}
	return true
}

// Quit stops the timer and reloads settings.
func (s *Session) Quit(checking bool) bool {
	if !s.vaultOpen || s.timer.Snapshot().Mode == timer.Idle {
		return false
	}
	if checking {
		return true
	}
	s.timer.Quit()
	s.ReloadSettings()
	return true
}

// Ribbon starts a focus interval when idle, prompting for a description
// first if the log template uses one, and toggles pause otherwise. It blocks
// while the prompt is open, so hosts must not call it from the goroutine
// that answers prompts.
func (s *Session) Ribbon(ctx context.Context, checking bool) bool {
	if !s.vaultOpen || !s.timer.Settings().RibbonIcon {
		return false
	}
	if !checking {
		s.timer.StartOrToggle(ctx)
	}
	return true
}

// StatusClick toggles pause from the status indicator. It applies only
// while logging is enabled and an interval is active.
func (s *Session) StatusClick(checking bool) bool {
	if !s.timer.Settings().Logging {
		return false
	}
	return s.TogglePause(checking)
}

// ReloadSettings replaces the timer settings with freshly loaded ones.
// Invalid or unreadable settings are logged and the current ones kept.
func (s *Session) ReloadSettings() {
	if s.reload == nil {
		return
	}
	settings, err := s.reload()
	if err != nil {
		s.logger.Warn().Err(err).Msg("reload settings")
		return
	}
	s.timer.SetSettings(settings)
	s.logger.Debug().Msg("settings reloaded")
}

// Close stops the timer at program exit.
func (s *Session) Close() {
	s.timer.Quit()
}

// Commands lists the palette commands in display order.
func (s *Session) Commands() []Command {
	return []Command{
		{ID: "start-pomo", Name: "Start pomodoro", Run: s.StartFocus},
		{ID: "pause-pomo", Name: "Toggle timer pause", Run: s.TogglePause},
		{ID: "quit-pomo", Name: "Quit timer", Run: s.Quit},
	}
}
