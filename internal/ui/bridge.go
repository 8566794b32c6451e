package ui

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"pomo/internal/logging"
)

// eventBuffer bounds the timer events waiting for the event loop.
const eventBuffer = 256

// Bridge implements timer.Notifier, timer.StatusSink and timer.Prompter by
// posting messages to the Bubble Tea event loop. Notices and status updates
// never block; when the buffer is full they are dropped.
type Bridge struct {
	events chan tea.Msg
	nextID atomic.Uint64
	logger zerolog.Logger
}

// NewBridge creates a Bridge. It must be created before the timer so it can
// be passed in the timer's dependencies.
func NewBridge() *Bridge {
	return &Bridge{
		events: make(chan tea.Msg, eventBuffer),
		logger: logging.Component("ui"),
	}
}

// Notice queues a toast.
func (b *Bridge) Notice(message string, d time.Duration) {
	b.post(noticeMsg{text: message, duration: d})
}

// SetText queues a countdown update.
func (b *Bridge) SetText(text string) {
	b.post(statusTextMsg{text: text})
}

// PromptForText opens the description prompt and waits for the answer.
// It returns ok false when the prompt is dismissed or ctx is done.
func (b *Bridge) PromptForText(ctx context.Context, placeholder string) (string, bool) {
	reply := make(chan promptReply, 1)
	req := promptMsg{
		id:          b.nextID.Add(1),
		ctx:         ctx,
		placeholder: placeholder,
		reply:       reply,
	}

	select {
	case b.events <- req:
	case <-ctx.Done():
		return "", false
	}

	select {
	case r := <-reply:
		return r.text, r.ok
	case <-ctx.Done():
		b.post(promptCanceledMsg{id: req.id})
		return "", false
	}
}

// Wait returns a command that delivers the next queued event. The App
// re-arms it after every event.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}

func (b *Bridge) post(msg tea.Msg) {
	select {
	case b.events <- msg:
	default:
		b.logger.Warn().Msgf("event buffer full, dropping %T", msg)
	}
}
