package timer

import (
	"fmt"
	"time"
)

// BreakPrefix marks break countdowns in the status text.
const BreakPrefix = "B: "

// FormatRemaining renders a countdown as mm:ss, or HH:mm:ss from one hour up.
// Partial seconds are truncated and negative values render as 00:00.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if d >= time.Hour {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// StatusText renders the status indicator for a mode and remaining time.
func StatusText(mode Mode, remaining time.Duration) string {
	switch {
	case mode == Idle:
		return ""
	case mode.IsBreak():
		return BreakPrefix + FormatRemaining(remaining)
	default:
		return FormatRemaining(remaining)
	}
}

// startingMessage is the notice shown when an interval starts.
func startingMessage(mode Mode, length time.Duration) string {
	n, unit := int64(length/time.Second), "second"
	if length >= time.Minute {
		n, unit = int64(length/time.Minute), "minute"
	}
	return fmt.Sprintf("Starting %d %s %s.", n, unit, mode.noun())
}

// resumingMessage is the notice shown when a paused interval resumes.
func resumingMessage(mode Mode) string {
	if mode == Focus {
		return "Resuming pomodoro timer"
	}
	return "Resuming break"
}
