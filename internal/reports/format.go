package reports

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormatDailyJSON formats a daily report as JSON.
func FormatDailyJSON(report *DailyReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatWeeklyJSON formats a weekly report as JSON.
func FormatWeeklyJSON(report *WeeklyReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatDailyMarkdown renders a daily report as Markdown.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pomodoro Report: %s\n\n", r.Date.Format("Monday, January 2, 2006"))

	writeTotals(&b, r.Focus, r.Breaks)
	writeNotes(&b, r.Focus.ByNote)

	if len(r.Intervals) > 0 {
		b.WriteString("\n## Intervals\n\n")
		for _, iv := range r.Intervals {
			fmt.Fprintf(&b, "- %s %s (%s)", iv.EndedAt.Format("15:04"), iv.Mode, FormatDuration(iv.Duration))
			if iv.Description != "" {
				fmt.Fprintf(&b, ": %s", iv.Description)
			}
			if iv.Note != "" {
				fmt.Fprintf(&b, " in %s", iv.Note)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatWeeklyMarkdown renders a weekly report as Markdown.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Pomodoro Report: %s to %s\n\n",
		r.StartDate.Format("Jan 2"), r.EndDate.Format("Jan 2, 2006"))

	writeTotals(&b, r.Focus, r.Breaks)
	fmt.Fprintf(&b, "- Daily average: %s\n", FormatDuration(r.DailyAverage))
	if r.BestDay != "" {
		fmt.Fprintf(&b, "- Best day: %s\n", r.BestDay)
	}

	b.WriteString("\n## By day\n\n")
	b.WriteString("| Day | Pomodoros | Focus | Breaks |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, d := range r.ByDay {
		fmt.Fprintf(&b, "| %s %s | %d | %s | %d |\n",
			d.DayOfWeek[:3], d.Date, d.FocusCount, FormatDuration(d.FocusTime), d.BreakCount)
	}

	writeNotes(&b, r.Focus.ByNote)
	return b.String()
}

func writeTotals(b *strings.Builder, f FocusSummary, br BreakSummary) {
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- Pomodoros: %d\n", f.Count)
	fmt.Fprintf(b, "- Focus time: %s\n", FormatDuration(f.Total))
	fmt.Fprintf(b, "- Breaks: %d short, %d long (%s)\n", br.Short, br.Long, FormatDuration(br.Total))
}

func writeNotes(b *strings.Builder, notes []NoteTime) {
	if len(notes) == 0 {
		return
	}
	b.WriteString("\n## By note\n\n")
	b.WriteString("| Note | Pomodoros | Time | Share |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, n := range notes {
		fmt.Fprintf(b, "| %s | %d | %s | %.0f%% |\n", n.Note, n.Count, FormatDuration(n.Duration), n.Percentage)
	}
}

// FormatDuration renders d as "1h 15m", "25m" or "40s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
