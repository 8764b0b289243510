// Package sweep periodically reports sessions stuck mid-call. It is purely
// observational: provider-side call duration is unbounded, so a stale
// session is an operator signal, never something to time out.
package sweep

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/signalcall/internal/state"
	"github.com/user/signalcall/internal/types"
)

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Sweeper scans the session store on a schedule and logs calls that have
// been dialing or in progress for longer than the stale threshold.
type Sweeper struct {
	store      *state.Store
	staleAfter time.Duration
	cron       *cron.Cron
}

func New(store *state.Store, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		staleAfter: staleAfter,
		cron:       cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the sweep on the given cron schedule and starts the
// ticker.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("register sweep schedule: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron ticker. Does not wait for a running sweep.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.staleAfter)
	for _, sess := range s.Stale(cutoff) {
		slog.Warn("call still open past stale threshold",
			"session_id", string(sess.ID),
			"status", string(sess.Status),
			"company", sess.Company,
			"created_at", sess.CreatedAt,
		)
	}
}

// Stale returns sessions that are still dialing or mid-call and were
// created before the cutoff.
func (s *Sweeper) Stale(cutoff time.Time) []types.Session {
	var out []types.Session
	s.store.Each(func(sess types.Session) bool {
		if !sess.Status.Terminal() && sess.CreatedAt.Before(cutoff) {
			out = append(out, sess)
		}
		return true
	})
	return out
}
