package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"pomo/internal/config"
	"pomo/internal/reports"
	"pomo/internal/timer"
)

// TimerPane renders the current interval, cycle progress and today's totals.
type TimerPane struct {
	styles *Styles
	keys   KeyMap
	width  int
	height int
}

// NewTimerPane creates a new timer pane.
func NewTimerPane(styles *Styles, keys KeyMap) *TimerPane {
	return &TimerPane{styles: styles, keys: keys}
}

// SetSize sets the pane dimensions.
func (p *TimerPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the pane for a timer state.
func (p *TimerPane) View(st timer.State, settings config.Settings, today *reports.DailyReport) string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("🍅 POMODORO"))
	b.WriteString("\n")

	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n\n")

	b.WriteString("  " + p.modeLabel(st))
	b.WriteString("\n")
	if st.Mode == timer.Idle {
		b.WriteString("\n")
		b.WriteString("  " + p.styles.StatLabelStyle.Render(fmt.Sprintf("Press %s to start", p.keys.Start.Help().Key)))
		b.WriteString("\n")
	} else {
		b.WriteString("    " + p.styles.ClockStyle.Render(timer.FormatRemaining(st.Remaining)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Cycle: ") + p.cycle(st, settings))
	b.WriteString("\n")
	if st.Mode != timer.Idle || st.AwaitingPrompt {
		b.WriteString("  " + p.styles.StatLabelStyle.Render("Next:  ") + p.styles.StatValueStyle.Render(p.next(st, settings)))
		b.WriteString("\n")
	}
	if st.ActiveNote != "" {
		b.WriteString("  " + p.styles.StatLabelStyle.Render("Note:  ") + p.styles.NoteStyle.Render(p.truncate(st.ActiveNote, 9)))
		b.WriteString("\n")
	}
	if st.PendingDescription != "" {
		b.WriteString("  " + p.styles.StatLabelStyle.Render("Doing: ") + p.truncate(st.PendingDescription, 9))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	count, total := 0, "0s"
	if today != nil {
		count = today.Focus.Count
		total = reports.FormatDuration(today.Focus.Total)
	}
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Today: ") +
		p.styles.StatValueStyle.Render(fmt.Sprintf("%d %s", count, plural(count, "pomodoro", "pomodoros"))) +
		p.styles.StatLabelStyle.Render(" · ") +
		p.styles.StatValueStyle.Render(total))
	b.WriteString("\n")

	style := p.styles.PaneStyle
	if p.width > 0 {
		style = style.Width(p.width)
	}
	if p.height > 0 {
		style = style.Height(p.height)
	}
	return style.Render(b.String())
}

// modeLabel renders the mode and run state, e.g. "FOCUS ▶" or "SHORT BREAK ⏸".
func (p *TimerPane) modeLabel(st timer.State) string {
	if st.AwaitingPrompt {
		return p.styles.PausedStyle.Render("WAITING FOR DESCRIPTION")
	}
	if st.Mode == timer.Idle {
		return p.styles.IdleStyle.Render("■ Not running")
	}
	label := strings.ToUpper(st.Mode.String())
	if st.Paused {
		return p.styles.PausedStyle.Render(label + " ⏸ paused")
	}
	if st.Mode.IsBreak() {
		return p.styles.BreakStyle.Render(label + " ▶")
	}
	return p.styles.FocusStyle.Render(label + " ▶")
}

// cycle renders one dot per focus interval in the current long-break cycle.
func (p *TimerPane) cycle(st timer.State, settings config.Settings) string {
	n := settings.LongBreakInterval
	if n <= 0 {
		n = 1
	}
	done := st.FocusCompleted % n
	if st.FocusCompleted > 0 && done == 0 && st.Mode == timer.LongBreak {
		done = n
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i < done {
			b.WriteString(p.styles.CycleDoneIcon)
		} else {
			b.WriteString(p.styles.CyclePendingIcon)
		}
	}
	return b.String()
}

// next names the interval that follows the current one.
func (p *TimerPane) next(st timer.State, settings config.Settings) string {
	if st.Mode == timer.Focus {
		return timer.NextAfterFocus(st.FocusCompleted+1, settings.LongBreakInterval).String()
	}
	return timer.Focus.String()
}

// truncate shortens s to the pane's content width minus a label.
func (p *TimerPane) truncate(s string, label int) string {
	width := p.width - 4 - 2 - label
	if width < 8 {
		width = 30
	}
	return runewidth.Truncate(s, width, "…")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
