// Package ui provides the terminal user interface for pomo.
// This file contains tea.Cmd factories that wrap session commands and stats
// loading. Commands run off the event loop so a blocking prompt or a slow
// settings reload never freezes the screen. Each command returns a message
// type defined in messages.go.
package ui

import (
	"context"
	"time"

	"pomo/internal/reports"
	"pomo/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// Session Commands
// =============================================================================

// runCmd returns a command that runs a check-callback command for real.
func runCmd(name string, run func(checking bool) bool) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{name: name, applied: run(false)}
	}
}

// ribbonCmd returns a command that performs the ribbon action. It blocks
// while the description prompt is open.
func ribbonCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{name: "ribbon", applied: s.Ribbon(ctx, false)}
	}
}

// =============================================================================
// Stats Commands
// =============================================================================

// loadStatsCmd returns a command that generates today's report.
// Returns nil command if gen is nil (history disabled).
func loadStatsCmd(gen *reports.Generator, now time.Time) tea.Cmd {
	if gen == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		report, err := gen.GenerateDaily(ctx, now)
		return statsLoadedMsg{report: report, err: err}
	}
}

// =============================================================================
// Ticks
// =============================================================================

// tickCmd returns a command that sends a tick every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
