// Package reports summarizes interval history into daily and weekly
// reports.
package reports

import "time"

// DailyReport contains aggregated data for a single day.
type DailyReport struct {
	Date        time.Time       `json:"date"`
	Focus       FocusSummary    `json:"focus"`
	Breaks      BreakSummary    `json:"breaks"`
	Intervals   []IntervalEntry `json:"intervals"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// WeeklyReport contains aggregated data for a week.
type WeeklyReport struct {
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Focus        FocusSummary  `json:"focus"`
	Breaks       BreakSummary  `json:"breaks"`
	DailyAverage time.Duration `json:"daily_average"`
	ByDay        []DaySummary  `json:"by_day"`
	BestDay      string        `json:"best_day,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// FocusSummary contains focus statistics for a period.
type FocusSummary struct {
	Count        int           `json:"count"`
	Total        time.Duration `json:"total"`
	ByNote       []NoteTime    `json:"by_note"`
	Descriptions []string      `json:"descriptions,omitempty"`
}

// NoteTime is focus time attributed to one note.
type NoteTime struct {
	Note       string        `json:"note"`
	Count      int           `json:"count"`
	Duration   time.Duration `json:"duration"`
	Percentage float64       `json:"percentage"`
}

// BreakSummary counts breaks taken in a period.
type BreakSummary struct {
	Short int           `json:"short"`
	Long  int           `json:"long"`
	Total time.Duration `json:"total"`
}

// IntervalEntry is one completed interval in a daily report.
type IntervalEntry struct {
	EndedAt     time.Time     `json:"ended_at"`
	Mode        string        `json:"mode"`
	Duration    time.Duration `json:"duration"`
	Description string        `json:"description,omitempty"`
	Note        string        `json:"note,omitempty"`
}

// DaySummary provides a quick overview of a single day within a week.
type DaySummary struct {
	Date       string        `json:"date"`
	DayOfWeek  string        `json:"day_of_week"`
	FocusCount int           `json:"focus_count"`
	FocusTime  time.Duration `json:"focus_time"`
	BreakCount int           `json:"break_count"`
}
