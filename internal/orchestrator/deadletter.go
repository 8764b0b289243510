package orchestrator

import (
	"sync"
	"time"

	"github.com/user/signalcall/internal/types"
)

// DeadLetter records one failed dial attempt for operator inspection.
type DeadLetter struct {
	SessionID types.SessionID `json:"session_id"`
	Error     string          `json:"error"`
	At        time.Time       `json:"at"`
}

// DeadLetterLog is a bounded in-memory record of failed dials, so
// background failures land somewhere an operator can query besides the log
// stream. Oldest entries are dropped past the bound.
type DeadLetterLog struct {
	mu      sync.Mutex
	letters []DeadLetter
	max     int
}

func NewDeadLetterLog(max int) *DeadLetterLog {
	if max <= 0 {
		max = 256
	}
	return &DeadLetterLog{max: max}
}

func (l *DeadLetterLog) Record(id types.SessionID, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.letters = append(l.letters, DeadLetter{
		SessionID: id,
		Error:     err.Error(),
		At:        time.Now().UTC(),
	})
	if len(l.letters) > l.max {
		l.letters = l.letters[len(l.letters)-l.max:]
	}
}

// All returns a copy of the recorded failures, oldest first.
func (l *DeadLetterLog) All() []DeadLetter {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]DeadLetter, len(l.letters))
	copy(out, l.letters)
	return out
}
