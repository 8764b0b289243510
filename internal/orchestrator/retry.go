package orchestrator

import (
	"errors"
	"math"
	"time"

	"github.com/user/signalcall/internal/voice"
)

// RetryPolicy controls whether failed dial attempts are retried with
// exponential backoff. The default performs a single attempt: a call that
// was created but whose response was lost cannot be deduplicated against
// later webhooks, so retrying is opt-in.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns a RetryPolicy that dials once, with a 1s/2x/30s
// backoff schedule should MaxAttempts be raised.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  1,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

// retryable classifies dial errors. Only transport-level failures are worth
// a second attempt; provider rejections and configuration problems are
// permanent.
func (p *RetryPolicy) retryable(err error) bool {
	return errors.Is(err, voice.ErrUnavailable)
}

// NextDelay returns the backoff delay for the given attempt number
// (1-indexed), capped at MaxDelay.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Execute runs fn up to MaxAttempts times, sleeping between retries.
// Returns nil on success, or the last error if attempts are exhausted or
// the error is not retryable.
func (p *RetryPolicy) Execute(fn func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.retryable(err) {
			return err
		}
		if attempt < maxAttempts {
			time.Sleep(p.NextDelay(attempt))
		}
	}
	return lastErr
}
