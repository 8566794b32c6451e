package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/config"
)

type harness struct {
	timer    *Timer
	clock    *fakeClock
	notifier *recordingNotifier
	writer   *memWriter
	player   *fakePlayer
	sched    *fakeScheduler
	status   *statusRecorder
	observer *intervalRecorder
}

func newHarness(t *testing.T, prompter Prompter, mutate func(s *config.Settings)) *harness {
	t.Helper()
	s := config.DefaultSettings()
	s.LogText = "{DATE} {TIME}"
	if mutate != nil {
		mutate(&s)
	}
	h := &harness{
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
		writer:   &memWriter{},
		player:   &fakePlayer{},
		sched:    &fakeScheduler{},
		status:   &statusRecorder{},
		observer: &intervalRecorder{},
	}
	h.timer = New(s, Deps{
		Clock:     h.clock,
		Notifier:  h.notifier,
		Prompter:  prompter,
		Entries:   h.writer,
		Notes:     fakeNotes{path: "Plan"},
		Player:    h.player,
		Scheduler: h.sched,
		Status:    h.status,
		Observer:  h.observer,
	})
	return h
}

// finish advances the clock to the current deadline and polls once.
func (h *harness) finish(t *testing.T) string {
	t.Helper()
	st := h.timer.Snapshot()
	require.NotEqual(t, Idle, st.Mode)
	require.False(t, st.Paused)
	h.clock.Advance(st.EndTime.Sub(h.clock.Now()))
	return h.timer.PollTick(context.Background())
}

func TestStart_Focus(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.timer.Start(Focus))

	st := h.timer.Snapshot()
	assert.Equal(t, Focus, st.Mode)
	assert.False(t, st.Paused)
	assert.Equal(t, 25*time.Minute, st.EndTime.Sub(st.StartTime))
	assert.True(t, st.Polling)
	assert.Equal(t, []string{"Starting 25 minute pomodoro."}, h.notifier.Messages())
	assert.Equal(t, "25:00", h.timer.PollTick(context.Background()))
	assert.Equal(t, "25:00", h.status.Last())
}

func TestStart_OneMinuteSettingRunsTwoSeconds(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) { s.Pomo = 1 })

	require.NoError(t, h.timer.Start(Focus))

	assert.Equal(t, "Starting 2 second pomodoro.", h.notifier.Last())
	assert.Equal(t, "00:02", h.timer.PollTick(context.Background()))
}

func TestStart_IdleIsRejected(t *testing.T) {
	h := newHarness(t, nil, nil)

	err := h.timer.Start(Idle)
	require.ErrorIs(t, err, ErrNoDuration)

	st := h.timer.Snapshot()
	assert.Equal(t, Idle, st.Mode)
	assert.False(t, st.Polling)
	assert.Empty(t, h.notifier.Messages())
}

func TestStart_ReplacesRunningInterval(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.timer.Start(Focus))
	h.clock.Advance(5 * time.Minute)
	require.NoError(t, h.timer.Start(LongBreak))

	st := h.timer.Snapshot()
	assert.Equal(t, LongBreak, st.Mode)
	assert.Equal(t, 15*time.Minute, st.Remaining)
	assert.Len(t, h.sched.handles, 1)
	assert.Equal(t, "Starting 15 minute break.", h.notifier.Last())
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, h.timer.Start(Focus))
	h.clock.Advance(10 * time.Minute)
	require.True(t, h.timer.Pause())
	assert.False(t, h.timer.Pause())

	h.clock.Advance(time.Hour)
	assert.Equal(t, "15:00", h.timer.PollTick(ctx))
	assert.Equal(t, Focus, h.timer.Snapshot().Mode)

	require.True(t, h.timer.Resume())
	assert.False(t, h.timer.Resume())
	st := h.timer.Snapshot()
	assert.Equal(t, h.clock.Now().Add(15*time.Minute), st.EndTime)
	assert.Equal(t, h.clock.Now(), st.StartTime)

	h.clock.Advance(15 * time.Minute)
	assert.Equal(t, "B: 05:00", h.timer.PollTick(ctx))

	assert.Equal(t, []string{
		"Starting 25 minute pomodoro.",
		"Timer paused.",
		"Resuming pomodoro timer",
		"Starting 5 minute break.",
	}, h.notifier.Messages())
}

func TestTogglePause(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.timer.TogglePause()
	assert.Equal(t, Idle, h.timer.Snapshot().Mode)
	assert.Empty(t, h.notifier.Messages())

	require.NoError(t, h.timer.Start(ShortBreak))
	h.timer.TogglePause()
	assert.True(t, h.timer.Snapshot().Paused)
	h.timer.TogglePause()
	assert.False(t, h.timer.Snapshot().Paused)
	assert.Equal(t, "Resuming break", h.notifier.Last())
}

func TestLongBreakEveryInterval(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) { s.LongBreakInterval = 2 })

	require.NoError(t, h.timer.Start(Focus))

	var modes []Mode
	for i := 0; i < 6; i++ {
		h.finish(t)
		modes = append(modes, h.timer.Snapshot().Mode)
	}

	assert.Equal(t, []Mode{ShortBreak, Focus, LongBreak, Focus, ShortBreak, Focus}, modes)
	assert.Equal(t, 3, h.timer.Snapshot().FocusCompleted)
}

func TestAutoStop_AfterConfiguredCycles(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) {
		s.AutostartTimer = false
		s.NumAutoCycles = 1
	})
	ctx := context.Background()

	require.NoError(t, h.timer.Start(Focus))

	assert.Equal(t, "B: 05:00", h.finish(t))
	assert.False(t, h.timer.Snapshot().Paused)

	assert.Equal(t, "25:00", h.finish(t))
	st := h.timer.Snapshot()
	assert.Equal(t, Focus, st.Mode)
	assert.True(t, st.Paused)
	assert.Equal(t, 25*time.Minute, st.Remaining)
	assert.Equal(t, 0, st.BreaksCompleted)
	assert.Equal(t, "Auto-cycle complete. Timer paused.", h.notifier.Last())

	h.clock.Advance(time.Hour)
	assert.Equal(t, "25:00", h.timer.PollTick(ctx))
}

func TestAutoStop_TwoCycles(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) {
		s.AutostartTimer = false
		s.NumAutoCycles = 2
	})

	require.NoError(t, h.timer.Start(Focus))
	h.finish(t)
	h.finish(t)
	assert.False(t, h.timer.Snapshot().Paused)
	h.finish(t)
	h.finish(t)
	assert.True(t, h.timer.Snapshot().Paused)
}

func TestQuit_ThenStartMatchesFreshSession(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.timer.Start(Focus))
	h.finish(t)
	h.finish(t)
	handle := h.sched.Latest()

	h.timer.Quit()
	assert.True(t, handle.canceled)
	assert.Equal(t, "Quitting pomodoro timer.", h.notifier.Last())
	assert.Equal(t, "", h.status.Last())

	st := h.timer.Snapshot()
	assert.Equal(t, State{}, st)

	n := len(h.notifier.Messages())
	h.timer.Quit()
	assert.Len(t, h.notifier.Messages(), n, "second quit must not notify")

	fresh := newHarness(t, nil, nil)
	fresh.clock.Advance(h.clock.Now().Sub(fresh.clock.Now()))

	require.NoError(t, h.timer.Start(Focus))
	require.NoError(t, fresh.timer.Start(Focus))
	assert.Equal(t, fresh.timer.Snapshot(), h.timer.Snapshot())
}

func TestQuit_IgnoresStaleTick(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.timer.Start(Focus))
	stale := h.sched.Latest()
	h.timer.Quit()
	require.NoError(t, h.timer.Start(Focus))

	h.clock.Advance(25 * time.Minute)
	stale.Fire()
	assert.Equal(t, Focus, h.timer.Snapshot().Mode)
	assert.Equal(t, 0, h.timer.Snapshot().FocusCompleted)

	h.sched.Latest().Fire()
	assert.Equal(t, ShortBreak, h.timer.Snapshot().Mode)
}

func TestLogging_WritesEntryOnFocusEnd(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) {
		s.Logging = true
		s.LogText = "[🍅] {DATE} {TIME}"
	})

	require.NoError(t, h.timer.Start(Focus))
	h.finish(t)

	// 14:30 + 25m
	assert.Equal(t, []string{"[🍅] 2024-03-05 02:55 PM"}, h.writer.Entries())

	h.finish(t)
	assert.Len(t, h.writer.Entries(), 1, "breaks are not logged")
}

func TestLogging_Disabled(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.timer.Start(Focus))
	h.finish(t)
	assert.Empty(t, h.writer.Entries())
}

func TestLogging_ActiveNoteLink(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) {
		s.Logging = true
		s.LogActiveNote = true
		s.LogText = "{LINK}"
	})

	require.NoError(t, h.timer.Start(Focus))
	assert.Equal(t, "Plan", h.timer.Snapshot().ActiveNote)
	h.finish(t)

	assert.Equal(t, []string{"[[Plan]]"}, h.writer.Entries())
}

func TestLogging_WriteFailureContinues(t *testing.T) {
	p := &instantPrompter{text: "refactor", ok: true}
	h := newHarness(t, p, func(s *config.Settings) {
		s.Logging = true
		s.LogText = "{DESC}"
	})
	h.writer.err = errDisk

	h.timer.StartOrToggle(context.Background())
	require.Equal(t, "refactor", h.timer.Snapshot().PendingDescription)

	h.finish(t)

	st := h.timer.Snapshot()
	assert.Equal(t, ShortBreak, st.Mode)
	assert.Equal(t, "", st.PendingDescription)
	assert.Contains(t, h.notifier.Messages(), "Failed to write pomodoro log: write log entry: disk full")
}

func TestPrompt_SubmitStartsFocusWithDescription(t *testing.T) {
	p := newChanPrompter()
	h := newHarness(t, p, func(s *config.Settings) {
		s.Logging = true
		s.LogText = "{DESC}"
	})

	require.NoError(t, h.timer.Start(ShortBreak))
	h.clock.Advance(5 * time.Minute)

	done := make(chan struct{})
	go func() {
		h.sched.Latest().Fire()
		close(done)
	}()
	waitAsked(t, p)

	st := h.timer.Snapshot()
	assert.True(t, st.AwaitingPrompt)
	assert.Equal(t, ShortBreak, st.Mode)
	assert.Equal(t, "", h.timer.PollTick(context.Background()))

	h.timer.TogglePause()
	assert.False(t, h.timer.Snapshot().Paused, "pause is ignored while prompting")

	p.reply <- promptReply{text: "write docs", ok: true}
	waitDone(t, done)

	st = h.timer.Snapshot()
	assert.Equal(t, Focus, st.Mode)
	assert.False(t, st.AwaitingPrompt)
	assert.Equal(t, "write docs", st.PendingDescription)

	h.finish(t)
	assert.Equal(t, []string{"write docs"}, h.writer.Entries())
	assert.Equal(t, "", h.timer.Snapshot().PendingDescription)
}

func TestPrompt_DismissStartsFocusWithoutDescription(t *testing.T) {
	p := newChanPrompter()
	h := newHarness(t, p, func(s *config.Settings) { s.LogText = "{DESC}" })

	require.NoError(t, h.timer.Start(LongBreak))
	h.clock.Advance(15 * time.Minute)

	done := make(chan struct{})
	go func() {
		h.sched.Latest().Fire()
		close(done)
	}()
	waitAsked(t, p)
	p.reply <- promptReply{}
	waitDone(t, done)

	st := h.timer.Snapshot()
	assert.Equal(t, Focus, st.Mode)
	assert.Equal(t, "", st.PendingDescription)
}

func TestPrompt_QuitAbandonsTransition(t *testing.T) {
	p := newChanPrompter()
	h := newHarness(t, p, func(s *config.Settings) { s.LogText = "{DESC}" })

	require.NoError(t, h.timer.Start(ShortBreak))
	h.clock.Advance(5 * time.Minute)

	done := make(chan struct{})
	go func() {
		h.sched.Latest().Fire()
		close(done)
	}()
	waitAsked(t, p)

	h.timer.Quit()
	waitDone(t, done)

	st := h.timer.Snapshot()
	assert.Equal(t, Idle, st.Mode)
	assert.False(t, st.AwaitingPrompt)
	assert.Equal(t, "Quitting pomodoro timer.", h.notifier.Last())
}

func TestPrompt_ExplicitStartClosesPrompt(t *testing.T) {
	p := newChanPrompter()
	h := newHarness(t, p, func(s *config.Settings) { s.LogText = "{DESC}" })

	require.NoError(t, h.timer.Start(ShortBreak))
	h.clock.Advance(5 * time.Minute)

	done := make(chan struct{})
	go func() {
		h.sched.Latest().Fire()
		close(done)
	}()
	waitAsked(t, p)

	require.NoError(t, h.timer.Start(Focus))
	waitDone(t, done)

	st := h.timer.Snapshot()
	assert.Equal(t, Focus, st.Mode)
	assert.False(t, st.AwaitingPrompt)
	assert.Equal(t, "", st.PendingDescription)
	assert.Equal(t, 25*time.Minute, st.Remaining)
}

func TestStartOrToggle(t *testing.T) {
	t.Run("starts focus without template description", func(t *testing.T) {
		h := newHarness(t, nil, nil)
		ctx := context.Background()

		h.timer.StartOrToggle(ctx)
		assert.Equal(t, Focus, h.timer.Snapshot().Mode)

		h.timer.StartOrToggle(ctx)
		assert.True(t, h.timer.Snapshot().Paused)
		h.timer.StartOrToggle(ctx)
		assert.False(t, h.timer.Snapshot().Paused)
	})

	t.Run("prompts before first focus", func(t *testing.T) {
		p := &instantPrompter{text: "plan sprint", ok: true}
		h := newHarness(t, p, func(s *config.Settings) { s.LogText = "{DESC}" })

		h.timer.StartOrToggle(context.Background())

		st := h.timer.Snapshot()
		assert.Equal(t, 1, p.calls)
		assert.Equal(t, Focus, st.Mode)
		assert.Equal(t, "plan sprint", st.PendingDescription)
	})

	t.Run("dismissed prompt stays idle", func(t *testing.T) {
		p := &instantPrompter{}
		h := newHarness(t, p, func(s *config.Settings) { s.LogText = "{DESC}" })

		h.timer.StartOrToggle(context.Background())

		assert.Equal(t, Idle, h.timer.Snapshot().Mode)
		assert.Empty(t, h.notifier.Messages())
	})
}

func TestSounds(t *testing.T) {
	h := newHarness(t, nil, func(s *config.Settings) {
		s.WhiteNoise = true
		s.NotificationSound = true
	})

	require.NoError(t, h.timer.Start(Focus))
	assert.Equal(t, 1, h.player.ambientStarts)

	h.timer.Pause()
	assert.Equal(t, 1, h.player.ambientStops)
	h.timer.Resume()
	assert.Equal(t, 2, h.player.ambientStarts)

	h.finish(t)
	assert.Equal(t, 1, h.player.chimes)
	assert.Equal(t, 1, h.player.ambientStops, "mode change keeps ambient running")

	h.timer.Quit()
	assert.Equal(t, 2, h.player.ambientStops)
}

func TestSounds_ChimeFailureDoesNotStopTransition(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.player.chimeErr = errDisk

	require.NoError(t, h.timer.Start(Focus))
	h.finish(t)

	assert.Equal(t, ShortBreak, h.timer.Snapshot().Mode)
}

func TestObserver_ReceivesCompletedIntervals(t *testing.T) {
	h := newHarness(t, nil, nil)
	started := h.clock.Now()

	require.NoError(t, h.timer.Start(Focus))
	h.finish(t)
	h.finish(t)

	require.Len(t, h.observer.intervals, 2)
	focus := h.observer.intervals[0]
	assert.Equal(t, Focus, focus.Mode)
	assert.Equal(t, started, focus.StartedAt)
	assert.Equal(t, started.Add(25*time.Minute), focus.EndedAt)
	assert.Equal(t, 25*time.Minute, focus.Planned)
	assert.Equal(t, ShortBreak, h.observer.intervals[1].Mode)
}

func TestSetSettings_AppliesToNextInterval(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.timer.Start(Focus))
	s := h.timer.Settings()
	s.ShortBreak = 10
	h.timer.SetSettings(s)

	assert.Equal(t, 25*time.Minute, h.timer.Snapshot().Remaining)
	assert.Equal(t, "B: 10:00", h.finish(t))
}

func waitAsked(t *testing.T, p *chanPrompter) {
	t.Helper()
	select {
	case placeholder := <-p.asked:
		assert.Equal(t, DescriptionPlaceholder, placeholder)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt was not opened")
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("transition did not finish")
	}
}
