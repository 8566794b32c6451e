// Package ui provides the terminal user interface for pomo.
// This file defines message types. Timer callbacks reach the event loop
// through the Bridge; session commands and stats loading run as commands
// and report back with the result messages below.
package ui

import (
	"context"
	"time"

	"pomo/internal/reports"
)

// =============================================================================
// Bridge Messages
// =============================================================================

// noticeMsg carries a timer notice to show as a toast.
type noticeMsg struct {
	text     string
	duration time.Duration
}

// statusTextMsg carries the countdown text for the title bar.
type statusTextMsg struct {
	text string
}

// promptMsg asks the UI to open the description prompt.
type promptMsg struct {
	id          uint64
	ctx         context.Context
	placeholder string
	reply       chan<- promptReply
}

// promptReply is the user's answer to a promptMsg.
type promptReply struct {
	text string
	ok   bool
}

// promptCanceledMsg closes a prompt whose caller stopped waiting.
type promptCanceledMsg struct {
	id uint64
}

// =============================================================================
// Command Messages
// =============================================================================

// commandResultMsg is sent when a session command finishes.
type commandResultMsg struct {
	name    string
	applied bool
}

// statsLoadedMsg is sent when today's report has been generated.
type statsLoadedMsg struct {
	report *reports.DailyReport
	err    error
}

// tickMsg is sent periodically for time updates.
type tickMsg time.Time
