// Package jobs runs review and deploy work in the background and keeps track
// of it for graceful shutdown.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// Tracker runs background jobs under a root context owned by the service,
// never by the request that scheduled them.
type Tracker struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup // Tracks running jobs for graceful shutdown.
	active  atomic.Int64
	logger  *slog.Logger
}

// NewTracker creates a Tracker with its own root context.
func NewTracker(logger *slog.Logger) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{ctx: ctx, cancel: cancel, logger: logger}
}

// Go runs fn on a new goroutine. It returns core.ErrShuttingDown once Stop has
// been called.
func (t *Tracker) Go(name string, fn func(ctx context.Context)) error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return core.ErrShuttingDown
	}
	t.wg.Add(1)
	t.mu.Unlock()

	t.active.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.active.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("background job panicked", "job", name, "panic", r)
			}
		}()
		fn(t.ctx)
	}()
	return nil
}

// Active returns the number of running jobs.
func (t *Tracker) Active() int {
	return int(t.active.Load())
}

// Stop refuses new jobs and waits for running ones. If ctx ends first, the
// root context is cancelled, which terminates every child process, and Stop
// waits for the jobs to wind down before returning ctx's error.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()

	t.logger.Info("stopping job tracker and waiting for jobs to finish", "active", t.Active())

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		t.logger.Info("all background jobs have finished")
		return nil
	case <-ctx.Done():
		t.logger.Warn("shutdown deadline reached, cancelling running jobs", "active", t.Active())
		t.cancel()
		<-done
		return ctx.Err()
	}
}
