package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"pomo/internal/history"
)

// noNote groups focus intervals that were not attributed to a note.
const noNote = "(no note)"

// Source lists completed intervals that ended in [from, to).
type Source interface {
	List(ctx context.Context, from, to time.Time) ([]history.Record, error)
}

// Generator creates reports from interval history.
type Generator struct {
	src Source
	now func() time.Time
}

// NewGenerator creates a new report generator.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src, now: time.Now}
}

// GenerateDaily generates a report for the day containing date.
func (g *Generator) GenerateDaily(ctx context.Context, date time.Time) (*DailyReport, error) {
	date = startOfDay(date)
	end := date.AddDate(0, 0, 1)

	records, err := g.src.List(ctx, date, end)
	if err != nil {
		return nil, err
	}

	intervals := make([]IntervalEntry, 0, len(records))
	for _, r := range records {
		intervals = append(intervals, IntervalEntry{
			EndedAt:     r.EndedAt,
			Mode:        r.Mode,
			Duration:    r.Planned,
			Description: r.Description,
			Note:        r.Note,
		})
	}

	return &DailyReport{
		Date:        date,
		Focus:       summarizeFocus(records),
		Breaks:      summarizeBreaks(records),
		Intervals:   intervals,
		GeneratedAt: g.now(),
	}, nil
}

// GenerateWeekly generates a report for the week (Sunday to Saturday)
// containing startDate.
func (g *Generator) GenerateWeekly(ctx context.Context, startDate time.Time) (*WeeklyReport, error) {
	startDate = startOfWeekSunday(startDate)
	endDate := startDate.AddDate(0, 0, 7)

	records, err := g.src.List(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	byDay := make([]DaySummary, 7)
	for i := range byDay {
		day := startDate.AddDate(0, 0, i)
		byDay[i] = DaySummary{
			Date:      day.Format("2006-01-02"),
			DayOfWeek: day.Weekday().String(),
		}
	}
	for _, r := range records {
		i := dayIndexInRange(r.EndedAt, startDate, 7)
		if i < 0 {
			continue
		}
		if r.IsFocus() {
			byDay[i].FocusCount++
			byDay[i].FocusTime += r.Planned
		} else {
			byDay[i].BreakCount++
		}
	}

	focus := summarizeFocus(records)
	best := ""
	var bestTime time.Duration
	activeDays := 0
	for _, d := range byDay {
		if d.FocusCount > 0 {
			activeDays++
		}
		if d.FocusTime > bestTime {
			best, bestTime = d.DayOfWeek, d.FocusTime
		}
	}
	var avg time.Duration
	if activeDays > 0 {
		avg = focus.Total / time.Duration(activeDays)
	}

	return &WeeklyReport{
		StartDate:    startDate,
		EndDate:      endDate.Add(-time.Nanosecond), // End of last day
		Focus:        focus,
		Breaks:       summarizeBreaks(records),
		DailyAverage: avg,
		ByDay:        byDay,
		BestDay:      best,
		GeneratedAt:  g.now(),
	}, nil
}

func summarizeFocus(records []history.Record) FocusSummary {
	var sum FocusSummary
	notes := make(map[string]*NoteTime)
	for _, r := range records {
		if !r.IsFocus() {
			continue
		}
		sum.Count++
		sum.Total += r.Planned
		if d := strings.TrimSpace(r.Description); d != "" {
			sum.Descriptions = append(sum.Descriptions, d)
		}

		note := r.Note
		if note == "" {
			note = noNote
		}
		nt, ok := notes[note]
		if !ok {
			nt = &NoteTime{Note: note}
			notes[note] = nt
		}
		nt.Count++
		nt.Duration += r.Planned
	}

	sum.ByNote = make([]NoteTime, 0, len(notes))
	for _, nt := range notes {
		if sum.Total > 0 {
			nt.Percentage = float64(nt.Duration) / float64(sum.Total) * 100
		}
		sum.ByNote = append(sum.ByNote, *nt)
	}
	sort.Slice(sum.ByNote, func(i, j int) bool {
		if sum.ByNote[i].Duration != sum.ByNote[j].Duration {
			return sum.ByNote[i].Duration > sum.ByNote[j].Duration
		}
		return sum.ByNote[i].Note < sum.ByNote[j].Note
	})
	return sum
}

func summarizeBreaks(records []history.Record) BreakSummary {
	var sum BreakSummary
	for _, r := range records {
		switch r.Mode {
		case history.ModeShortBreak:
			sum.Short++
		case history.ModeLongBreak:
			sum.Long++
		default:
			continue
		}
		sum.Total += r.Planned
	}
	return sum
}

// startOfDay returns the start of the day (midnight).
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeekSunday returns the start of the week (Sunday).
func startOfWeekSunday(t time.Time) time.Time {
	t = startOfDay(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func dayIndexInRange(t time.Time, start time.Time, days int) int {
	for i := 0; i < days; i++ {
		dayStart := start.AddDate(0, 0, i)
		dayEnd := start.AddDate(0, 0, i+1)
		if !t.Before(dayStart) && t.Before(dayEnd) {
			return i
		}
	}
	return -1
}
