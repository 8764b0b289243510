package state

import (
	"fmt"
	"sync"

	"github.com/user/signalcall/internal/types"
)

// Store is a concurrent session store with per-record locking. The map-level
// lock is held only long enough to look up or insert an entry; all field
// access goes through the entry's own mutex, so mutations on different
// sessions never contend while mutations on the same session serialize.
type Store struct {
	mu      sync.RWMutex
	entries map[types.SessionID]*entry
}

type entry struct {
	mu      sync.Mutex
	session types.Session
}

func NewStore() *Store {
	return &Store{entries: make(map[types.SessionID]*entry)}
}

// Insert adds a new session record.
func (s *Store) Insert(sess types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[sess.ID]; ok {
		return fmt.Errorf("%w: %s", types.ErrDuplicateID, sess.ID)
	}
	s.entries[sess.ID] = &entry{session: sess}
	return nil
}

// Get returns a snapshot of the session as it is at call time.
func (s *Store) Get(id types.SessionID) (types.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return types.Session{}, fmt.Errorf("%w: %s", types.ErrSessionNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, nil
}

// Mutate runs fn under the record's exclusive lock, so no reader observes a
// partially updated session. Mutating a missing id is a no-op; callers that
// need to distinguish re-read with Get. fn must not call back into the
// store for the same id.
func (s *Store) Mutate(id types.SessionID, fn func(*types.Session)) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
}

// Each visits a snapshot of every session until fn returns false. The
// traversal is consistent per record, not across the whole map: sessions
// inserted mid-traversal may or may not be visited.
func (s *Store) Each(fn func(types.Session) bool) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		snap := e.session
		e.mu.Unlock()
		if !fn(snap) {
			return
		}
	}
}

// Len reports the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
