package timer

import (
	"context"
	"time"
)

// Clock provides the current time. Tests inject a fake.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Notifier shows short fire-and-forget messages to the user.
type Notifier interface {
	Notice(message string, d time.Duration)
}

// Prompter asks the user for a line of free text. ok is false when the
// prompt was dismissed or ctx was canceled.
type Prompter interface {
	PromptForText(ctx context.Context, placeholder string) (text string, ok bool)
}

// EntryWriter stores a rendered log entry in the configured note.
type EntryWriter interface {
	WriteEntry(ctx context.Context, text string) error
}

// NoteSource reports the note the user is working in and renders links to it.
type NoteSource interface {
	ActiveNote() (path string, ok bool)
	MarkdownLink(path string) string
}

// Player plays the ambient loop and the end-of-interval chime.
// StartAmbient must be a no-op while the loop is already playing.
type Player interface {
	StartAmbient() error
	StopAmbient() error
	Chime() error
}

// Handle is a revocable periodic callback.
type Handle interface {
	Cancel()
}

// Scheduler runs fn every interval until the returned handle is canceled.
// ctx passed to fn is canceled together with the handle.
type Scheduler interface {
	Every(interval time.Duration, fn func(ctx context.Context)) Handle
}

// StatusSink displays the countdown text.
type StatusSink interface {
	SetText(text string)
}

// Interval describes a finished interval.
type Interval struct {
	Mode        Mode
	StartedAt   time.Time
	EndedAt     time.Time
	Planned     time.Duration
	Description string
	Note        string
}

// Observer is told about every interval that runs to completion.
type Observer interface {
	IntervalCompleted(iv Interval)
}

// Deps are the collaborators a Timer talks to. Any of them may be nil
// except Clock, which defaults to SystemClock.
type Deps struct {
	Clock     Clock
	Notifier  Notifier
	Prompter  Prompter
	Entries   EntryWriter
	Notes     NoteSource
	Player    Player
	Scheduler Scheduler
	Status    StatusSink
	Observer  Observer
}
