// Package notify mirrors timer notices as desktop notifications. It uses
// osascript on macOS and notify-send on Linux.
package notify

import (
	"time"

	"github.com/rs/zerolog"

	"pomo/internal/config"
	"pomo/internal/logging"
	"pomo/internal/timer"
)

// AppName is the application name reported to the notification daemon.
const AppName = "pomo"

// Notification is one desktop notification.
type Notification struct {
	Title   string
	Message string
	Sound   bool
	// Timeout is a hint for how long the notification stays visible. Zero
	// leaves it to the daemon.
	Timeout time.Duration
}

// Notifier sends desktop notifications.
type Notifier interface {
	Send(n Notification) error

	// IsSupported returns true if notifications are supported on this platform.
	IsSupported() bool
}

type noopNotifier struct{}

func (noopNotifier) Send(Notification) error { return nil }

func (noopNotifier) IsSupported() bool { return false }

// New creates a platform-specific notifier.
// Returns a no-op notifier if the platform doesn't support notifications.
func New() Notifier {
	n := newPlatformNotifier()
	if n == nil || !n.IsSupported() {
		return noopNotifier{}
	}
	return n
}

// Mirror forwards notices to the host and, when enabled, to the desktop.
type Mirror struct {
	next    timer.Notifier
	desktop Notifier
	cfg     config.NotificationConfig
	logger  zerolog.Logger
	// send runs a desktop notification; tests replace it to run inline.
	send func(fn func())
}

// NewMirror wraps next. desktop may be nil, in which case the platform
// notifier is used.
func NewMirror(next timer.Notifier, desktop Notifier, cfg config.NotificationConfig) *Mirror {
	if desktop == nil {
		desktop = New()
	}
	return &Mirror{
		next:    next,
		desktop: desktop,
		cfg:     cfg,
		logger:  logging.Component("notify"),
		send:    func(fn func()) { go fn() },
	}
}

// Notice implements timer.Notifier. Desktop delivery is asynchronous and
// failures are only logged.
func (m *Mirror) Notice(message string, d time.Duration) {
	if m.next != nil {
		m.next.Notice(message, d)
	}
	if !m.cfg.Desktop || !m.desktop.IsSupported() {
		return
	}

	n := Notification{Title: AppName, Message: message, Sound: m.cfg.Sound, Timeout: d}
	m.send(func() {
		if err := m.desktop.Send(n); err != nil {
			m.logger.Warn().Err(err).Msg("desktop notification failed")
		}
	})
}
