package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/signalcall/internal/types"
)

// Dialer runs detached dial tasks with a global concurrency bound. The
// bound protects the provider API from bursts of simultaneous call
// creations; it imposes no deadline on the tasks themselves, since
// provider-side call duration is outside this system's control.
type Dialer struct {
	sem *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDialer creates a Dialer allowing up to maxConcurrent simultaneous
// dial tasks.
func NewDialer(maxConcurrent int64) *Dialer {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Dialer{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Start initialises the dialer's context. Must be called before Dispatch.
func (d *Dialer) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
}

// Stop cancels the dialer context and waits for in-flight tasks to finish.
func (d *Dialer) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// Dispatch runs fn on its own goroutine once a semaphore slot frees up.
// Dispatch never blocks the caller.
func (d *Dialer) Dispatch(id types.SessionID, fn func(context.Context, types.SessionID)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			return // shutting down
		}
		defer d.sem.Release(1)
		fn(d.ctx, id)
	}()
}

// WaitIdle blocks until all dispatched tasks finish, or the timeout
// expires. Returns true if idle, false if timed out.
func (d *Dialer) WaitIdle(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
