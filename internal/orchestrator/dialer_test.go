package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/signalcall/internal/types"
)

func TestDialerConcurrencyBound(t *testing.T) {
	dialer := NewDialer(2)
	dialer.Start(context.Background())
	defer dialer.Stop()

	var running int32
	var maxSeen int32

	for i := 0; i < 6; i++ {
		dialer.Dispatch(types.NewSessionID(), func(ctx context.Context, id types.SessionID) {
			current := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if current <= old || atomic.CompareAndSwapInt32(&maxSeen, old, current) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
	}

	if !dialer.WaitIdle(2 * time.Second) {
		t.Fatal("dialer did not drain")
	}
	if m := atomic.LoadInt32(&maxSeen); m > 2 {
		t.Errorf("expected max 2 concurrent dials, saw %d", m)
	}
}

func TestDialerStopCancelsPending(t *testing.T) {
	dialer := NewDialer(1)
	dialer.Start(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	var ran int32

	dialer.Dispatch(types.NewSessionID(), func(ctx context.Context, id types.SessionID) {
		close(started)
		<-release
	})
	<-started

	// Queued behind the blocked slot; should be dropped on Stop.
	dialer.Dispatch(types.NewSessionID(), func(ctx context.Context, id types.SessionID) {
		atomic.AddInt32(&ran, 1)
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	dialer.Stop()

	if atomic.LoadInt32(&ran) != 0 {
		t.Error("expected pending dial to be cancelled on stop")
	}
}
