package timer

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)}
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

type notice struct {
	msg string
	d   time.Duration
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notice(msg string, d time.Duration) {
	n.mu.Lock()
	n.notices = append(n.notices, notice{msg, d})
	n.mu.Unlock()
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notices))
	for i, x := range n.notices {
		out[i] = x.msg
	}
	return out
}

func (n *recordingNotifier) Last() string {
	msgs := n.Messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type memWriter struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (w *memWriter) WriteEntry(_ context.Context, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.entries = append(w.entries, text)
	return nil
}

func (w *memWriter) Entries() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.entries...)
}

// chanPrompter blocks until the test answers on reply or ctx is canceled.
type chanPrompter struct {
	asked chan string
	reply chan promptReply
}

type promptReply struct {
	text string
	ok   bool
}

func newChanPrompter() *chanPrompter {
	return &chanPrompter{asked: make(chan string, 4), reply: make(chan promptReply)}
}

func (p *chanPrompter) PromptForText(ctx context.Context, placeholder string) (string, bool) {
	p.asked <- placeholder
	select {
	case r := <-p.reply:
		return r.text, r.ok
	case <-ctx.Done():
		return "", false
	}
}

// instantPrompter answers immediately.
type instantPrompter struct {
	text  string
	ok    bool
	calls int
}

func (p *instantPrompter) PromptForText(context.Context, string) (string, bool) {
	p.calls++
	return p.text, p.ok
}

type fakePlayer struct {
	mu                          sync.Mutex
	ambientStarts, ambientStops int
	chimes                      int
	chimeErr                    error
}

func (p *fakePlayer) StartAmbient() error {
	p.mu.Lock()
	p.ambientStarts++
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) StopAmbient() error {
	p.mu.Lock()
	p.ambientStops++
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) Chime() error {
	p.mu.Lock()
	p.chimes++
	p.mu.Unlock()
	return p.chimeErr
}

type fakeHandle struct {
	ctx      context.Context
	cancel   context.CancelFunc
	fn       func(ctx context.Context)
	canceled bool
}

func (h *fakeHandle) Cancel() {
	h.canceled = true
	h.cancel()
}

// Fire runs one tick the way the scheduler would.
func (h *fakeHandle) Fire() { h.fn(h.ctx) }

type fakeScheduler struct {
	mu      sync.Mutex
	handles []*fakeHandle
}

func (s *fakeScheduler) Every(_ time.Duration, fn func(ctx context.Context)) Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &fakeHandle{ctx: ctx, cancel: cancel, fn: fn}
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
	return h
}

func (s *fakeScheduler) Latest() *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return nil
	}
	return s.handles[len(s.handles)-1]
}

type statusRecorder struct {
	mu   sync.Mutex
	last string
	n    int
}

func (s *statusRecorder) SetText(text string) {
	s.mu.Lock()
	s.last = text
	s.n++
	s.mu.Unlock()
}

func (s *statusRecorder) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type intervalRecorder struct {
	mu        sync.Mutex
	intervals []Interval
}

func (r *intervalRecorder) IntervalCompleted(iv Interval) {
	r.mu.Lock()
	r.intervals = append(r.intervals, iv)
	r.mu.Unlock()
}

type fakeNotes struct {
	path string
}

func (n fakeNotes) ActiveNote() (string, bool) { return n.path, n.path != "" }

func (n fakeNotes) MarkdownLink(path string) string { return "[[" + path + "]]" }

var errDisk = errors.New("disk full")
