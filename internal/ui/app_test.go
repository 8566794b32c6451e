// Package ui provides the terminal user interface for pomo.
// This file contains tests for the main App model: commands, the ribbon,
// the description prompt and toasts.
package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"pomo/internal/config"
	"pomo/internal/history"
	"pomo/internal/reports"
	"pomo/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDescription(s *config.Settings) {
	s.LogText = "[🍅] {DATE} {TIME}"
}

func runResult(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestApp_StartKey(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, nil)

	_, cmd := app.Update(keyRunes("s"))
	msg := runResult(t, cmd)
	assert.Equal(t, commandResultMsg{name: "start-pomo", applied: true}, msg)
	app.Update(msg)

	assert.Equal(t, timer.Focus, tm.Snapshot().Mode)

	drain(app)
	assert.Contains(t, app.status, "Starting 25 minute")
	assert.False(t, app.statusErr)
}

func TestApp_UnavailableCommand(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, nil)

	_, cmd := app.Update(keyRunes("p"))
	assert.Nil(t, cmd)
	assert.Equal(t, unavailable, app.status)

	_, cmd = app.Update(keyRunes("x"))
	assert.Nil(t, cmd)
	assert.Equal(t, timer.Idle, tm.Snapshot().Mode)
}

func TestApp_TogglePauseAndQuit(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, nil)
	require.NoError(t, tm.Start(timer.Focus))

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	runResult(t, cmd)
	assert.True(t, tm.Snapshot().Paused)

	_, cmd = app.Update(keyRunes("p"))
	runResult(t, cmd)
	assert.False(t, tm.Snapshot().Paused)

	_, cmd = app.Update(keyRunes("x"))
	runResult(t, cmd)
	assert.Equal(t, timer.Idle, tm.Snapshot().Mode)

	drain(app)
	assert.Equal(t, "Quitting pomodoro timer.", app.status)
}

func TestApp_CustomKeys(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, &AppConfig{Keys: &config.KeysConfig{Start: "n"}})

	_, cmd := app.Update(keyRunes("s"))
	assert.Nil(t, cmd)

	_, cmd = app.Update(keyRunes("n"))
	runResult(t, cmd)
	assert.Equal(t, timer.Focus, tm.Snapshot().Mode)
}

func TestApp_RibbonPrompt(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	req := awaitPrompt(t, app)
	assert.Equal(t, timer.DescriptionPlaceholder, req.placeholder)
	app.Update(req)
	require.True(t, app.prompt.IsOpen())
	assert.Contains(t, app.View(), "What are you working on?")
	assert.True(t, tm.Snapshot().AwaitingPrompt)

	app.Update(keyRunes("write docs"))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, app.prompt.IsOpen())

	select {
	case msg := <-done:
		assert.Equal(t, commandResultMsg{name: "ribbon", applied: true}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("ribbon command did not finish")
	}

	st := tm.Snapshot()
	assert.Equal(t, timer.Focus, st.Mode)
	assert.Equal(t, "write docs", st.PendingDescription)
}

func TestApp_RibbonPromptCancel(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	app.Update(awaitPrompt(t, app))
	app.Update(keyRunes("abandoned"))
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, app.prompt.IsOpen())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ribbon command did not finish")
	}
	assert.Equal(t, timer.Idle, tm.Snapshot().Mode)
}

func TestApp_PromptClosedWhenCallerGivesUp(t *testing.T) {
	app, _, _ := newTestApp(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	type answer struct {
		text string
		ok   bool
	}
	done := make(chan answer, 1)
	go func() {
		text, ok := app.bridge.PromptForText(ctx, "placeholder")
		done <- answer{text, ok}
	}()

	app.Update(awaitPrompt(t, app))
	require.True(t, app.prompt.IsOpen())

	cancel()
	select {
	case got := <-done:
		assert.Equal(t, answer{}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt did not return")
	}

	select {
	case msg := <-app.bridge.events:
		app.Update(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no cancel event")
	}
	assert.False(t, app.prompt.IsOpen())
}

func TestApp_ExitDismissesPrompt(t *testing.T) {
	app, _, _ := newTestApp(t, nil, nil)

	done := make(chan bool, 1)
	go func() {
		_, ok := app.bridge.PromptForText(context.Background(), "placeholder")
		done <- ok
	}()
	app.Update(awaitPrompt(t, app))

	// q types into the prompt
	app.Update(keyRunes("q"))
	assert.True(t, app.prompt.IsOpen())
	assert.False(t, app.quitting)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	_, isQuit := runResult(t, cmd).(tea.QuitMsg)
	assert.True(t, isQuit)

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt did not return")
	}
	assert.Error(t, app.ctx.Err())
	assert.Contains(t, app.View(), "See you later!")
}

func TestApp_RibbonClick(t *testing.T) {
	app, tm, _ := newTestApp(t, noDescription, nil)

	ribbon, _ := app.titleRegions()
	require.Greater(t, ribbon.end, ribbon.start)
	assert.Contains(t, app.renderTitleBar(), ribbonIcon)

	_, cmd := app.Update(click(ribbon.start, 0))
	runResult(t, cmd)
	assert.Equal(t, timer.Focus, tm.Snapshot().Mode)

	// A second click pauses.
	_, cmd = app.Update(click(ribbon.start, 0))
	runResult(t, cmd)
	assert.True(t, tm.Snapshot().Paused)

	// Clicks elsewhere do nothing.
	_, cmd = app.Update(click(ribbon.start, 3))
	assert.Nil(t, cmd)
}

func TestApp_RibbonDisabled(t *testing.T) {
	app, tm, _ := newTestApp(t, func(s *config.Settings) {
		noDescription(s)
		s.RibbonIcon = false
	}, nil)

	ribbon, _ := app.titleRegions()
	assert.Equal(t, region{}, ribbon)
	assert.NotContains(t, app.renderTitleBar(), ribbonIcon)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, unavailable, app.status)
	assert.Equal(t, timer.Idle, tm.Snapshot().Mode)
}

func TestApp_StatusClick(t *testing.T) {
	app, tm, _ := newTestApp(t, func(s *config.Settings) {
		s.Logging = true
	}, nil)
	require.NoError(t, tm.Start(timer.ShortBreak))
	tm.PollTick(context.Background())
	drain(app)
	assert.Equal(t, "B: 05:00", app.countdown)
	assert.Contains(t, app.renderTitleBar(), "B: 05:00")

	_, countdown := app.titleRegions()
	require.Equal(t, len("B: 05:00"), countdown.end-countdown.start)

	_, cmd := app.Update(click(countdown.start+2, 0))
	assert.Equal(t, commandResultMsg{name: "status", applied: true}, runResult(t, cmd))
	assert.True(t, tm.Snapshot().Paused)
}

func TestApp_StatusClickNeedsLogging(t *testing.T) {
	app, tm, _ := newTestApp(t, nil, nil)
	require.NoError(t, tm.Start(timer.Focus))
	tm.PollTick(context.Background())
	drain(app)

	_, countdown := app.titleRegions()
	_, cmd := app.Update(click(countdown.start, 0))
	assert.Nil(t, cmd)
	assert.False(t, tm.Snapshot().Paused)
}

func TestApp_NoticeExpires(t *testing.T) {
	app, _, clock := newTestApp(t, nil, nil)

	app.Update(noticeMsg{text: "hello", duration: timer.NoticeDuration})
	assert.Equal(t, "hello", app.status)
	assert.Contains(t, app.View(), "hello")

	clock.Advance(4 * time.Second)
	app.Update(tickMsg(clock.Now()))
	assert.Equal(t, "hello", app.status)

	clock.Advance(2 * time.Second)
	app.Update(tickMsg(clock.Now()))
	assert.Empty(t, app.status)
}

func TestApp_ErrorNotice(t *testing.T) {
	app, _, _ := newTestApp(t, nil, nil)

	app.Update(noticeMsg{text: "Failed to write pomodoro log: disk full", duration: timer.ErrorNoticeDuration})
	assert.True(t, app.statusErr)
}

func TestApp_HelpOverlay(t *testing.T) {
	app, _, _ := newTestApp(t, nil, nil)

	app.Update(keyRunes("?"))
	require.True(t, app.showHelp)

	view := app.View()
	for _, want := range []string{"Keyboard Shortcuts", "Start pomodoro", "Toggle timer pause", "Quit timer", "start-pomo", "Description Prompt"} {
		assert.Contains(t, view, want)
	}

	// Keys other than close are swallowed.
	_, cmd := app.Update(keyRunes("s"))
	assert.Nil(t, cmd)
	assert.True(t, app.showHelp)

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, app.showHelp)
}

func TestApp_ViewIdle(t *testing.T) {
	app, _, _ := newTestApp(t, nil, nil)

	view := app.View()
	for _, want := range []string{"pomo", "Not running", "Press s to start", "[s] start", "Tue Mar 5"} {
		assert.Contains(t, view, want)
	}
}

func TestApp_ViewRunning(t *testing.T) {
	app, tm, clock := newTestApp(t, nil, nil)
	require.NoError(t, tm.Start(timer.Focus))
	clock.Advance(90 * time.Second)

	view := app.View()
	for _, want := range []string{"FOCUS ▶", "23:30", "Next:", "short break", "○○○○", "[p/space] pause"} {
		assert.Contains(t, view, want)
	}

	tm.Pause()
	view = app.View()
	assert.Contains(t, view, "FOCUS ⏸ paused")
	assert.Contains(t, view, "[p/space] resume")
}

func TestApp_Stats(t *testing.T) {
	end := time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)
	gen := reports.NewGenerator(stubSource{records: []history.Record{
		{Mode: history.ModeFocus, StartedAt: end.Add(-25 * time.Minute), EndedAt: end, Planned: 25 * time.Minute},
	}})
	app, _, _ := newTestApp(t, nil, &AppConfig{Stats: gen})

	msg := runResult(t, app.loadStats())
	app.Update(msg)
	require.NotNil(t, app.today)
	assert.Contains(t, app.View(), "Today: 1 pomodoro · 25m")

	app.Update(keyRunes("q"))
	assert.Contains(t, app.View(), "Pomodoros: 1 (25m)")
}

func TestApp_StatsDisabled(t *testing.T) {
	app, _, _ := newTestApp(t, nil, nil)
	assert.Nil(t, app.loadStats())
	assert.Contains(t, app.View(), "Today: 0 pomodoros · 0s")
}

type stubSource struct {
	records []history.Record
}

func (s stubSource) List(_ context.Context, from, to time.Time) ([]history.Record, error) {
	var out []history.Record
	for _, r := range s.records {
		if !r.EndedAt.Before(from) && (to.IsZero() || r.EndedAt.Before(to)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestTimerPane_TruncatesNote(t *testing.T) {
	setupTest(t)
	pane := NewTimerPane(NewStylesFromTheme(&config.ThemeConfig{}), DefaultKeyMap())
	pane.SetSize(30, 20)

	view := pane.View(timer.State{
		Mode:       timer.Focus,
		Remaining:  time.Minute,
		ActiveNote: strings.Repeat("Projects/", 10) + "Plan.md",
	}, config.DefaultSettings(), nil)

	assert.Contains(t, view, "Projects/Proje…")
	assert.NotContains(t, view, "Plan.md")
}

func TestTimerPane_Cycle(t *testing.T) {
	setupTest(t)
	pane := NewTimerPane(NewStylesFromTheme(&config.ThemeConfig{}), DefaultKeyMap())
	settings := config.DefaultSettings()

	assert.Equal(t, "●●○○", pane.cycle(timer.State{Mode: timer.ShortBreak, FocusCompleted: 2}, settings))
	assert.Equal(t, "●●●●", pane.cycle(timer.State{Mode: timer.LongBreak, FocusCompleted: 4}, settings))
	assert.Equal(t, "○○○○", pane.cycle(timer.State{Mode: timer.Focus, FocusCompleted: 4}, settings))
	assert.Equal(t, "long break", pane.next(timer.State{Mode: timer.Focus, FocusCompleted: 3}, settings))
}

func TestBridge_DropsWhenFull(t *testing.T) {
	b := NewBridge()
	for i := 0; i < eventBuffer+10; i++ {
		b.Notice("n", time.Second)
	}
	assert.Len(t, b.events, eventBuffer)
}

func TestBridge_PromptWithDoneContext(t *testing.T) {
	b := NewBridge()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < eventBuffer; i++ {
		b.SetText("x")
	}
	_, ok := b.PromptForText(ctx, "p")
	assert.False(t, ok)
}
