package ui

import (
	"sync"
	"testing"
	"time"

	"pomo/internal/config"
	"pomo/internal/session"
	"pomo/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// setupTest prepares the test environment for deterministic rendering.
func setupTest(t *testing.T) {
	t.Helper()
	// Use ASCII profile to disable all color codes in output
	lipgloss.SetColorProfile(termenv.Ascii)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestApp wires an App to a real timer with no scheduler, so intervals
// only advance through explicit PollTick calls.
func newTestApp(t *testing.T, edit func(*config.Settings), cfg *AppConfig) (*App, *timer.Timer, *fakeClock) {
	t.Helper()
	setupTest(t)

	settings := config.DefaultSettings()
	if edit != nil {
		edit(&settings)
	}
	clock := &fakeClock{now: time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)}
	bridge := NewBridge()
	tm := timer.New(settings, timer.Deps{
		Clock:    clock,
		Notifier: bridge,
		Prompter: bridge,
		Status:   bridge,
	})
	s := session.New(tm, true, nil)

	app := NewApp(s, bridge, NewStylesFromTheme(&config.ThemeConfig{}), cfg)
	app.now = clock.Now
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	t.Cleanup(tm.Quit)
	return app, tm, clock
}

// drain feeds every queued timer event to the app.
func drain(a *App) {
	for {
		select {
		case msg := <-a.bridge.events:
			a.Update(msg)
		default:
			return
		}
	}
}

// awaitPrompt feeds timer events to the app until a prompt request arrives.
func awaitPrompt(t *testing.T, a *App) promptMsg {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-a.bridge.events:
			if req, ok := msg.(promptMsg); ok {
				return req
			}
			a.Update(msg)
		case <-deadline:
			t.Fatal("no prompt request")
			return promptMsg{}
		}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}
