// Package timer implements the pomodoro state machine: focus and break
// intervals against a wall-clock deadline, polled periodically, with hooks
// for notices, log entries, sounds and a description prompt.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomo/internal/config"
	"pomo/internal/logentry"
	"pomo/internal/logging"
)

const (
	// PollInterval is how often a running timer re-samples the clock.
	PollInterval = 500 * time.Millisecond

	NoticeDuration      = 5 * time.Second
	ErrorNoticeDuration = 8 * time.Second

	// DescriptionPlaceholder is shown in the empty description prompt.
	DescriptionPlaceholder = "Enter a short description for what you are working on..."
)

// State is a read-only copy of the timer's fields.
type State struct {
	Mode               Mode
	StartTime          time.Time
	EndTime            time.Time
	Paused             bool
	Remaining          time.Duration
	FocusCompleted     int
	BreaksCompleted    int
	PendingDescription string
	AwaitingPrompt     bool
	ActiveNote         string
	Polling            bool
}

// Timer is the pomodoro state machine. It is safe for concurrent use: user
// commands and poll ticks serialize on one mutex. Collaborators are invoked
// only after that mutex is released.
type Timer struct {
	mu       sync.Mutex
	settings config.Settings
	deps     Deps
	log      zerolog.Logger

	mode               Mode
	startTime          time.Time
	endTime            time.Time
	paused             bool
	remaining          time.Duration
	focusCompleted     int
	breaksCompleted    int
	pendingDescription string
	awaitingPrompt     bool
	activeNote         string

	poll   Handle
	pollID uint64
	// epoch changes on Quit and on explicit starts; a prompt that resolves
	// in a different epoch is discarded.
	epoch uint64
	// promptCancel closes the open description prompt.
	promptCancel context.CancelFunc

	effects []func()
}

// New creates an idle timer.
func New(settings config.Settings, deps Deps) *Timer {
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	return &Timer{
		settings: settings,
		deps:     deps,
		log:      logging.Component("timer"),
	}
}

// Settings returns the settings currently in effect.
func (t *Timer) Settings() config.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// SetSettings replaces the settings. A running interval keeps its deadline;
// the new values apply from the next transition.
func (t *Timer) SetSettings(s config.Settings) {
	t.mu.Lock()
	t.settings = s
	t.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Mode:               t.mode,
		StartTime:          t.startTime,
		EndTime:            t.endTime,
		Paused:             t.paused,
		Remaining:          t.remainingLocked(t.deps.Clock.Now()),
		FocusCompleted:     t.focusCompleted,
		BreaksCompleted:    t.breaksCompleted,
		PendingDescription: t.pendingDescription,
		AwaitingPrompt:     t.awaitingPrompt,
		ActiveNote:         t.activeNote,
		Polling:            t.poll != nil,
	}
}

// Start begins an interval of the given mode from now. Any running interval
// is replaced. Start(Idle) returns ErrNoDuration and leaves state unchanged.
func (t *Timer) Start(mode Mode) error {
	t.mu.Lock()
	defer t.unlock()

	err := t.startLocked(mode)
	if err == nil {
		t.epoch++
		t.awaitingPrompt = false
		t.cancelPromptLocked()
	}
	return err
}

// TogglePause resumes a paused timer or pauses a running one. It does
// nothing while idle or while the description prompt is open.
func (t *Timer) TogglePause() {
	t.mu.Lock()
	defer t.unlock()

	if t.paused {
		t.resumeLocked()
		return
	}
	t.pauseLocked("Timer paused.")
}

// Pause freezes the remaining time. It reports whether the timer was paused.
func (t *Timer) Pause() bool {
	t.mu.Lock()
	defer t.unlock()
	return t.pauseLocked("Timer paused.")
}

// Resume restarts a paused interval with its frozen remaining time. It
// reports whether the timer was resumed.
func (t *Timer) Resume() bool {
	t.mu.Lock()
	defer t.unlock()
	return t.resumeLocked()
}

// Quit stops polling and returns the timer to its initial state. A pending
// description prompt is canceled and its result discarded.
func (t *Timer) Quit() {
	t.mu.Lock()
	wasActive := t.mode != Idle || t.awaitingPrompt
	handle := t.poll
	t.poll = nil
	t.pollID++
	t.epoch++
	t.cancelPromptLocked()

	t.mode = Idle
	t.startTime = time.Time{}
	t.endTime = time.Time{}
	t.paused = false
	t.remaining = 0
	t.focusCompleted = 0
	t.breaksCompleted = 0
	t.pendingDescription = ""
	t.awaitingPrompt = false
	t.activeNote = ""

	t.stopAmbientLocked()
	if wasActive {
		t.noticeLocked("Quitting pomodoro timer.", NoticeDuration)
	}
	t.publishLocked("")
	t.unlock()

	if handle != nil {
		handle.Cancel()
	}
}

// PollTick samples the clock, runs the elapsed-interval transition when the
// deadline has passed, and returns the status text, which is also pushed to
// the status sink.
func (t *Timer) PollTick(ctx context.Context) string {
	t.mu.Lock()
	defer t.unlock()
	return t.pollLocked(ctx)
}

// StartOrToggle starts a focus interval when idle, asking for a description
// first if the log template uses one, and toggles pause otherwise. A
// dismissed prompt leaves the timer idle. It blocks while the prompt is open.
func (t *Timer) StartOrToggle(ctx context.Context) {
	t.mu.Lock()
	defer t.unlock()

	if t.mode != Idle || t.awaitingPrompt {
		if t.paused {
			t.resumeLocked()
		} else {
			t.pauseLocked("Timer paused.")
		}
		return
	}

	if logentry.RequiresDescription(t.settings.LogText) {
		desc, ok, current := t.promptLocked(ctx)
		if !current || !ok {
			return
		}
		t.pendingDescription = desc
	}

	if err := t.startLocked(Focus); err != nil {
		t.log.Error().Err(err).Msg("start focus")
		return
	}
	t.epoch++
}

func (t *Timer) pollLocked(ctx context.Context) string {
	if t.awaitingPrompt || t.mode == Idle {
		return ""
	}

	if !t.paused && !t.deps.Clock.Now().Before(t.endTime) {
		if err := t.onIntervalElapsed(ctx); err != nil {
			t.log.Error().Err(err).Msg("interval transition")
		}
		if t.awaitingPrompt || t.mode == Idle {
			return ""
		}
	}

	text := StatusText(t.mode, t.remainingLocked(t.deps.Clock.Now()))
	t.publishLocked(text)
	return text
}

// onIntervalElapsed runs the end-of-interval transition: counters and the
// log entry, the chime, then the next interval and the auto-stop check.
// Called with t.mu held; the lock is released while the prompt is open.
func (t *Timer) onIntervalElapsed(ctx context.Context) error {
	completed := t.mode
	now := t.deps.Clock.Now()

	var errs []error
	description := t.pendingDescription
	switch {
	case completed == Focus:
		t.focusCompleted++
		if t.settings.Logging {
			if err := t.writeEntryLocked(ctx, now); err != nil {
				errs = append(errs, err)
			}
		}
	case completed.IsBreak():
		t.breaksCompleted++
	}
	t.recordLocked(completed, now, description)

	if t.settings.NotificationSound {
		t.chimeLocked()
	}

	if completed == Focus {
		next := NextAfterFocus(t.focusCompleted, t.settings.LongBreakInterval)
		if err := t.startLocked(next); err != nil {
			return errors.Join(append(errs, err)...)
		}
	} else {
		if logentry.RequiresDescription(t.settings.LogText) {
			desc, ok, current := t.promptLocked(ctx)
			if !current {
				return errors.Join(errs...)
			}
			if ok {
				t.pendingDescription = desc
			}
			t.breaksCompleted = 0
		}
		if err := t.startLocked(Focus); err != nil {
			return errors.Join(append(errs, err)...)
		}
	}

	if !t.settings.AutostartTimer && t.breaksCompleted >= t.settings.NumAutoCycles {
		t.pauseLocked("Auto-cycle complete. Timer paused.")
		t.breaksCompleted = 0
	}
	return errors.Join(errs...)
}

// promptLocked opens the description prompt with t.mu released. current is
// false when the timer was quit or restarted while the prompt was open.
func (t *Timer) promptLocked(ctx context.Context) (desc string, ok, current bool) {
	epoch := t.epoch
	ctx, cancel := context.WithCancel(ctx)
	t.promptCancel = cancel
	t.awaitingPrompt = true
	t.publishLocked("")
	prompter := t.deps.Prompter
	t.unlock()

	if prompter != nil {
		desc, ok = prompter.PromptForText(ctx, DescriptionPlaceholder)
	}
	cancel()

	t.mu.Lock()
	if t.epoch != epoch {
		t.log.Debug().Msg("description prompt superseded")
		return "", false, false
	}
	t.promptCancel = nil
	t.awaitingPrompt = false
	return desc, ok, true
}

// cancelPromptLocked closes an open description prompt, if any.
func (t *Timer) cancelPromptLocked() {
	if t.promptCancel != nil {
		t.promptCancel()
		t.promptCancel = nil
	}
}

func (t *Timer) startLocked(mode Mode) error {
	length, err := IntervalLength(t.settings, mode)
	if err != nil {
		t.log.Error().Err(err).Str("mode", mode.String()).Msg("start")
		return err
	}

	t.mode = mode
	t.paused = false
	t.remaining = 0
	t.ensurePollLocked()

	if mode == Focus {
		t.activeNote = ""
		if t.settings.LogActiveNote && t.deps.Notes != nil {
			if note, ok := t.deps.Notes.ActiveNote(); ok {
				t.activeNote = note
			}
		}
	}

	now := t.deps.Clock.Now()
	t.startTime = now
	t.endTime = now.Add(length)
	t.log.Info().Str("mode", mode.String()).Dur("length", length).Msg("interval started")

	t.noticeLocked(startingMessage(mode, length), NoticeDuration)
	if t.settings.WhiteNoise {
		t.startAmbientLocked()
	}
	return nil
}

func (t *Timer) pauseLocked(notice string) bool {
	if t.mode == Idle || t.paused || t.awaitingPrompt {
		return false
	}
	t.remaining = t.remainingLocked(t.deps.Clock.Now())
	t.paused = true
	t.stopAmbientLocked()
	t.noticeLocked(notice, NoticeDuration)
	t.publishLocked(StatusText(t.mode, t.remaining))
	t.log.Info().Str("mode", t.mode.String()).Dur("remaining", t.remaining).Msg("paused")
	return true
}

func (t *Timer) resumeLocked() bool {
	if t.mode == Idle || !t.paused {
		return false
	}
	now := t.deps.Clock.Now()
	t.startTime = now
	t.endTime = now.Add(t.remaining)
	t.paused = false
	t.remaining = 0
	t.ensurePollLocked()

	t.noticeLocked(resumingMessage(t.mode), NoticeDuration)
	if t.settings.WhiteNoise {
		t.startAmbientLocked()
	}
	t.log.Info().Str("mode", t.mode.String()).Msg("resumed")
	return true
}

func (t *Timer) remainingLocked(now time.Time) time.Duration {
	if t.mode == Idle {
		return 0
	}
	if t.paused {
		return t.remaining
	}
	d := t.endTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (t *Timer) ensurePollLocked() {
	if t.poll != nil || t.deps.Scheduler == nil {
		return
	}
	t.pollID++
	id := t.pollID
	t.poll = t.deps.Scheduler.Every(PollInterval, func(ctx context.Context) {
		t.tick(ctx, id)
	})
}

func (t *Timer) tick(ctx context.Context, id uint64) {
	t.mu.Lock()
	defer t.unlock()
	if id != t.pollID {
		return
	}
	t.pollLocked(ctx)
}

func (t *Timer) writeEntryLocked(ctx context.Context, now time.Time) error {
	link := ""
	if t.settings.LogActiveNote && t.activeNote != "" && t.deps.Notes != nil {
		link = t.deps.Notes.MarkdownLink(t.activeNote)
	}
	text := logentry.Render(t.settings.LogText, now, link, t.pendingDescription)
	t.pendingDescription = ""

	if t.deps.Entries == nil {
		return nil
	}
	if err := t.deps.Entries.WriteEntry(ctx, text); err != nil {
		err = fmt.Errorf("write log entry: %w", err)
		t.log.Error().Err(err).Msg("log write failed")
		t.noticeLocked("Failed to write pomodoro log: "+err.Error(), ErrorNoticeDuration)
		return err
	}
	t.log.Debug().Str("entry", text).Msg("log entry written")
	return nil
}

func (t *Timer) recordLocked(mode Mode, now time.Time, description string) {
	obs := t.deps.Observer
	if obs == nil || mode == Idle {
		return
	}
	iv := Interval{
		Mode:      mode,
		StartedAt: t.startTime,
		EndedAt:   now,
		Planned:   t.endTime.Sub(t.startTime),
		Note:      t.activeNote,
	}
	if mode == Focus {
		iv.Description = description
	}
	t.effects = append(t.effects, func() { obs.IntervalCompleted(iv) })
}

func (t *Timer) noticeLocked(msg string, d time.Duration) {
	if n := t.deps.Notifier; n != nil {
		t.effects = append(t.effects, func() { n.Notice(msg, d) })
	}
}

func (t *Timer) publishLocked(text string) {
	if s := t.deps.Status; s != nil {
		t.effects = append(t.effects, func() { s.SetText(text) })
	}
}

func (t *Timer) startAmbientLocked() {
	if p := t.deps.Player; p != nil {
		log := t.log
		t.effects = append(t.effects, func() {
			if err := p.StartAmbient(); err != nil {
				log.Warn().Err(err).Msg("start ambient sound")
			}
		})
	}
}

func (t *Timer) stopAmbientLocked() {
	if p := t.deps.Player; p != nil {
		log := t.log
		t.effects = append(t.effects, func() {
			if err := p.StopAmbient(); err != nil {
				log.Warn().Err(err).Msg("stop ambient sound")
			}
		})
	}
}

func (t *Timer) chimeLocked() {
	if p := t.deps.Player; p != nil {
		log := t.log
		t.effects = append(t.effects, func() {
			if err := p.Chime(); err != nil {
				log.Warn().Err(err).Msg("play chime")
			}
		})
	}
}

// unlock releases t.mu and then runs the collaborator calls queued while it
// was held, in order.
func (t *Timer) unlock() {
	effects := t.effects
	t.effects = nil
	t.mu.Unlock()
	for _, fn := range effects {
		fn()
	}
}
