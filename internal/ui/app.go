// Package ui provides the terminal user interface for pomo.
// This file contains the main App model which routes keys, mouse clicks and
// timer events using the Bubble Tea architecture.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pomo/internal/config"
	"pomo/internal/logging"
	"pomo/internal/reports"
	"pomo/internal/session"
	"pomo/internal/timer"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const (
	ribbonIcon  = "⏲"
	unavailable = "Command not available right now"
)

// AppConfig holds user configuration for the app behavior.
type AppConfig struct {
	Keys *config.KeysConfig

	// Stats generates today's totals; nil hides history.
	Stats *reports.Generator
}

// App is the main application model.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	session     *session.Session
	bridge      *Bridge
	styles      *Styles
	config      *AppConfig
	timerPane   *TimerPane
	prompt      *PromptOverlay
	helpOverlay *HelpOverlay
	logger      zerolog.Logger
	now         func() time.Time

	showHelp    bool
	width       int
	height      int
	countdown   string
	today       *reports.DailyReport
	statsDay    string
	status      string
	statusErr   bool
	statusUntil time.Time
	quitting    bool

	// Key bindings
	keys      KeyMap
	inputKeys InputKeyMap
	helpKeys  HelpKeyMap
}

// region is a horizontal span of the title bar.
type region struct {
	start, end int
}

func (r region) contains(x int) bool {
	return x >= r.start && x < r.end
}

// NewApp creates a new application. bridge must be the one passed to the
// session's timer as notifier, prompter and status sink.
func NewApp(s *session.Session, bridge *Bridge, styles *Styles, cfg *AppConfig) *App {
	if cfg == nil {
		cfg = &AppConfig{}
	}
	if cfg.Keys == nil {
		cfg.Keys = &config.KeysConfig{}
	}
	keys := NewKeyMap(cfg.Keys)
	inputKeys := NewInputKeyMap(cfg.Keys)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:         ctx,
		cancel:      cancel,
		session:     s,
		bridge:      bridge,
		styles:      styles,
		config:      cfg,
		timerPane:   NewTimerPane(styles, keys),
		prompt:      NewPromptOverlay(styles, inputKeys),
		helpOverlay: NewHelpOverlay(styles, keys, inputKeys),
		logger:      logging.Component("ui"),
		now:         time.Now,
		keys:        keys,
		inputKeys:   inputKeys,
		helpKeys:    DefaultHelpKeyMap(),
	}
}

// Init starts the clock, the timer event pump and the first stats load.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		a.bridge.Wait(),
		a.loadStats(),
	)
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Timer events re-arm the bridge pump.
	switch msg := msg.(type) {
	case noticeMsg:
		a.setStatusFor(msg.text, msg.duration, msg.duration >= timer.ErrorNoticeDuration)
		return a, tea.Batch(a.bridge.Wait(), a.loadStats())

	case statusTextMsg:
		a.countdown = msg.text
		return a, a.bridge.Wait()

	case promptMsg:
		var cmd tea.Cmd
		if msg.ctx.Err() == nil {
			a.showHelp = false
			cmd = a.prompt.Open(msg)
		}
		return a, tea.Batch(cmd, a.bridge.Wait())

	case promptCanceledMsg:
		a.prompt.Close(msg.id)
		return a, a.bridge.Wait()
	}

	switch msg := msg.(type) {
	case commandResultMsg:
		if !msg.applied {
			a.SetStatus(unavailable, false)
		}
		return a, nil

	case statsLoadedMsg:
		if msg.err != nil {
			a.logger.Warn().Err(msg.err).Msg("load stats")
			a.SetStatus("Stats: "+msg.err.Error(), true)
			return a, nil
		}
		a.today = msg.report
		return a, nil

	case tickMsg:
		now := a.now()
		if a.status != "" && !a.statusUntil.IsZero() && now.After(a.statusUntil) {
			a.status = ""
			a.statusErr = false
			a.statusUntil = time.Time{}
		}
		if a.statsDay != "" && a.statsDay != now.Format("2006-01-02") {
			return a, tea.Batch(tickCmd(), a.loadStats())
		}
		return a, tickCmd()

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)
	}

	if a.prompt.IsOpen() {
		return a, a.prompt.Update(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	// The prompt owns the keyboard; only ctrl+c escapes it.
	if a.prompt.IsOpen() {
		if msg.Type == tea.KeyCtrlC {
			return a.exit()
		}
		return a.prompt.Update(msg)
	}

	if a.showHelp {
		if key.Matches(msg, a.helpKeys.Close) {
			a.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, a.keys.Exit):
		return a.exit()

	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
		return nil

	case key.Matches(msg, a.keys.Start):
		return a.command("start-pomo", a.session.StartFocus)

	case key.Matches(msg, a.keys.Toggle):
		return a.command("pause-pomo", a.session.TogglePause)

	case key.Matches(msg, a.keys.Quit):
		return a.command("quit-pomo", a.session.Quit)

	case key.Matches(msg, a.keys.Ribbon):
		return a.ribbon()
	}
	return nil
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	if a.prompt.IsOpen() {
		return nil
	}
	// Any click closes help
	if a.showHelp {
		a.showHelp = false
		return nil
	}
	if msg.Y != 0 {
		return nil
	}

	ribbon, countdown := a.titleRegions()
	switch {
	case ribbon.contains(msg.X):
		return a.ribbon()
	case countdown.contains(msg.X):
		return a.command("status", a.session.StatusClick)
	}
	return nil
}

// command runs a check-callback command off the event loop if it applies.
func (a *App) command(name string, run func(checking bool) bool) tea.Cmd {
	if !run(true) {
		a.SetStatus(unavailable, false)
		return nil
	}
	return runCmd(name, run)
}

func (a *App) ribbon() tea.Cmd {
	if !a.session.Ribbon(a.ctx, true) {
		a.SetStatus(unavailable, false)
		return nil
	}
	return ribbonCmd(a.ctx, a.session)
}

func (a *App) exit() tea.Cmd {
	a.prompt.Dismiss()
	a.quitting = true
	a.cancel()
	return tea.Quit
}

func (a *App) loadStats() tea.Cmd {
	now := a.now()
	a.statsDay = now.Format("2006-01-02")
	return loadStatsCmd(a.config.Stats, now)
}

// updateLayout recalculates component sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// Leave room for title bar (1) and help bar (1) plus the pane border
	contentHeight := a.height - 4
	if contentHeight < 12 {
		contentHeight = 12
	}
	paneWidth := min(a.width-2, 60)
	if paneWidth < 20 {
		paneWidth = 20
	}
	a.timerPane.SetSize(paneWidth, contentHeight)
	a.prompt.SetSize(a.width, a.height)
	a.helpOverlay.SetSize(a.width, a.height)
}

// View renders the entire app.
func (a *App) View() string {
	if a.quitting {
		return a.renderGoodbye()
	}

	if a.prompt.IsOpen() {
		return a.prompt.View()
	}

	if a.showHelp {
		return a.helpOverlay.View(a.session.Commands())
	}

	t := a.session.Timer()

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")
	b.WriteString(a.timerPane.View(t.Snapshot(), t.Settings(), a.today))
	b.WriteString("\n")
	b.WriteString(a.renderHelpBar())
	return b.String()
}

// titleParts returns the rendered title, ribbon icon and countdown. The
// ribbon is empty when disabled and the countdown is empty while idle.
func (a *App) titleParts() (title, ribbon, countdown string) {
	title = a.styles.TitleStyle.Render(" pomo ")
	if a.session.Timer().Settings().RibbonIcon {
		ribbon = a.styles.RibbonStyle.Render(ribbonIcon)
	}
	if a.countdown != "" {
		countdown = a.styles.CountdownStyle.Render(a.countdown)
	}
	return title, ribbon, countdown
}

// titleRegions returns the clickable spans of the ribbon icon and the
// countdown. It mirrors the layout of renderTitleBar.
func (a *App) titleRegions() (ribbon, countdown region) {
	title, r, c := a.titleParts()
	x := lipgloss.Width(title) + 1
	if r != "" {
		ribbon = region{start: x, end: x + lipgloss.Width(r)}
		x = ribbon.end + 1
	}
	countdown = region{start: x, end: x + lipgloss.Width(c)}
	return ribbon, countdown
}

// renderTitleBar creates the top bar: title, ribbon icon, countdown, date.
func (a *App) renderTitleBar() string {
	title, ribbon, countdown := a.titleParts()
	date := a.styles.DateStyle.Render(a.now().Format("Mon Jan 2 · 15:04"))

	left := title + " "
	if ribbon != "" {
		left += ribbon + " "
	}
	left += countdown

	spacerWidth := a.width - lipgloss.Width(left) - lipgloss.Width(date)
	if spacerWidth < 2 {
		spacerWidth = 2
	}
	return left + strings.Repeat(" ", spacerWidth) + date
}

// renderHelpBar creates the bottom help bar with context-sensitive hints.
func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}

	st := a.session.Timer().Snapshot()
	if st.Mode == timer.Idle {
		return a.styles.RenderHelp(
			a.keys.Start.Help().Key, "start",
			a.keys.Help.Help().Key, "help",
			a.keys.Exit.Help().Key, "exit",
		)
	}

	toggle := "pause"
	if st.Paused {
		toggle = "resume"
	}
	return a.styles.RenderHelp(
		a.keys.Toggle.Help().Key, toggle,
		a.keys.Quit.Help().Key, "quit timer",
		a.keys.Help.Help().Key, "help",
		a.keys.Exit.Help().Key, "exit",
	)
}

// renderGoodbye shows an exit message with today's progress.
func (a *App) renderGoodbye() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  See you later!\n")
	b.WriteString("\n")

	if a.today != nil && a.today.Focus.Count > 0 {
		b.WriteString("  Today's progress:\n")
		b.WriteString(fmt.Sprintf("     Pomodoros: %d (%s)\n",
			a.today.Focus.Count, reports.FormatDuration(a.today.Focus.Total)))
		b.WriteString("\n")
	}

	return b.String()
}

// SetStatus sets a status message to display to the user.
func (a *App) SetStatus(msg string, isErr bool) {
	ttl := timer.NoticeDuration
	if isErr {
		ttl = timer.ErrorNoticeDuration
	}
	a.setStatusFor(msg, ttl, isErr)
}

func (a *App) setStatusFor(msg string, ttl time.Duration, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	a.statusUntil = a.now().Add(ttl)
}

// Run starts the Bubble Tea program and blocks until the user exits.
func Run(app *App) error {
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(), // Enable mouse support
	)
	_, err := p.Run()
	app.cancel()
	return err
}
