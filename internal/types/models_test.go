package types

import "testing"

func TestAdvanceStatusForward(t *testing.T) {
	s := &Session{ID: NewSessionID(), Status: StatusNotStarted}

	if !s.AdvanceStatus(StatusCalling) {
		t.Error("expected not_started -> calling to apply")
	}
	if !s.AdvanceStatus(StatusCompleted) {
		t.Error("expected calling -> completed to apply")
	}
	if s.AdvanceStatus(StatusCompleted) {
		t.Error("expected duplicate terminal transition to be a no-op")
	}
	if s.AdvanceStatus(StatusCalling) {
		t.Error("expected terminal status to freeze")
	}
	if s.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", s.Status)
	}
}

func TestAdvanceStatusFailedFreezes(t *testing.T) {
	s := &Session{Status: StatusFailed}
	if s.AdvanceStatus(StatusCompleted) {
		t.Error("expected failed session to stay failed")
	}
}

func TestSetProviderCallIDOnce(t *testing.T) {
	s := &Session{}
	if !s.SetProviderCallID("call-1") {
		t.Error("expected first write to apply")
	}
	if s.SetProviderCallID("call-2") {
		t.Error("expected second write to be rejected")
	}
	if s.ProviderCallID != "call-1" {
		t.Errorf("expected call-1, got %s", s.ProviderCallID)
	}
	if (&Session{}).SetProviderCallID("") {
		t.Error("expected empty call id to be rejected")
	}
}

func TestEventSessionID(t *testing.T) {
	id := NewSessionID()

	ev := NormalizedCallEvent{Metadata: map[string]any{"session_id": string(id)}}
	got, ok := ev.SessionID()
	if !ok || got != id {
		t.Errorf("expected %s, got %s (ok=%v)", id, got, ok)
	}

	ev = NormalizedCallEvent{Metadata: map[string]any{"session_id": "not-a-uuid"}}
	if _, ok := ev.SessionID(); ok {
		t.Error("expected malformed session_id to be rejected")
	}

	ev = NormalizedCallEvent{Metadata: map[string]any{"session_id": 42}}
	if _, ok := ev.SessionID(); ok {
		t.Error("expected non-string session_id to be rejected")
	}

	ev = NormalizedCallEvent{Metadata: map[string]any{}}
	if _, ok := ev.SessionID(); ok {
		t.Error("expected missing session_id to be rejected")
	}
}
