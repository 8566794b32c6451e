package timer

import (
	"errors"
	"fmt"
	"time"

	"pomo/internal/config"
)

// Mode is the kind of interval the timer is running.
type Mode int

const (
	// Idle means no interval is active. It is the initial state.
	Idle Mode = iota
	Focus
	ShortBreak
	LongBreak
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Focus:
		return "focus"
	case ShortBreak:
		return "short break"
	case LongBreak:
		return "long break"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsBreak reports whether m is one of the break modes.
func (m Mode) IsBreak() bool {
	return m == ShortBreak || m == LongBreak
}

// noun is the word used for the mode in notices.
func (m Mode) noun() string {
	if m == Focus {
		return "pomodoro"
	}
	return "break"
}

// DebugInterval replaces any interval configured as exactly one minute.
const DebugInterval = 2 * time.Second

var (
	// ErrNoDuration is returned when an interval length is requested for Idle.
	ErrNoDuration = errors.New("idle mode has no interval length")

	// ErrUnknownMode is returned for values outside the Mode constants.
	ErrUnknownMode = errors.New("unknown timer mode")
)

// IntervalLength returns how long an interval of the given mode lasts.
// A configured length of exactly one minute yields DebugInterval.
func IntervalLength(s config.Settings, mode Mode) (time.Duration, error) {
	var minutes float64
	switch mode {
	case Focus:
		minutes = s.Pomo
	case ShortBreak:
		minutes = s.ShortBreak
	case LongBreak:
		minutes = s.LongBreak
	case Idle:
		return 0, ErrNoDuration
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	if minutes == 1 {
		return DebugInterval, nil
	}
	return time.Duration(minutes * float64(time.Minute)), nil
}

// NextAfterFocus picks the break that follows the n-th completed focus
// interval: a long break every longBreakInterval completions.
func NextAfterFocus(focusCompleted, longBreakInterval int) Mode {
	if longBreakInterval > 0 && focusCompleted%longBreakInterval == 0 {
		return LongBreak
	}
	return ShortBreak
}
