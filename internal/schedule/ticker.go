// Package schedule runs periodic callbacks on their own goroutines.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomo/internal/logging"
	"pomo/internal/timer"
)

// Ticker creates periodic callbacks. The zero value is not usable; call New.
type Ticker struct {
	ctx    context.Context
	logger zerolog.Logger
}

// New creates a Ticker whose callbacks all stop when ctx is canceled.
func New(ctx context.Context) *Ticker {
	return &Ticker{
		ctx:    ctx,
		logger: logging.Component("schedule"),
	}
}

// Every runs fn every interval on a new goroutine until the handle is
// canceled. Ticks never overlap: a slow fn delays the next one.
func (t *Ticker) Every(interval time.Duration, fn func(ctx context.Context)) timer.Handle {
	ctx, cancel := context.WithCancel(t.ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	t.logger.Debug().Dur("interval", interval).Msg("periodic callback started")
	go h.run(ctx, interval, fn, t.logger)
	return h
}

// Handle controls one periodic callback.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (h *Handle) run(ctx context.Context, interval time.Duration, fn func(ctx context.Context), logger zerolog.Logger) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("periodic callback stopped")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			h.invoke(ctx, fn, logger)
		}
	}
}

func (h *Handle) invoke(ctx context.Context, fn func(ctx context.Context), logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("periodic callback panicked")
		}
	}()
	fn(ctx)
}

// Cancel stops future ticks and cancels the context of a running one. It
// does not wait, so it is safe to call from inside the callback. Calling it
// more than once is a no-op.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Wait blocks until the callback goroutine has exited.
func (h *Handle) Wait() {
	<-h.done
}

// Done is closed when the callback goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
