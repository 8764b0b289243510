package types

import "time"

// CallStatus is the lifecycle state of a call session.
type CallStatus string

const (
	StatusNotStarted CallStatus = "not_started"
	StatusCalling    CallStatus = "calling"
	StatusCompleted  CallStatus = "completed"
	StatusFailed     CallStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s CallStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CallRequest describes a prospect and the intent signal that justifies
// calling them.
type CallRequest struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Signal    string `json:"signal"`
	PainPoint string `json:"pain_point,omitempty"`
	Persona   string `json:"persona,omitempty"`
}

// Session is one tracked outbound-call attempt and its accumulated state.
// Prospect fields and the prompt are immutable after creation; everything
// else is written only through the store's per-record Mutate.
type Session struct {
	ID        SessionID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name      string `json:"name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Signal    string `json:"signal"`
	PainPoint string `json:"pain_point,omitempty"`
	Persona   string `json:"persona,omitempty"`

	Status         CallStatus `json:"status"`
	ProviderCallID string     `json:"provider_call_id,omitempty"`

	Prompt     string `json:"prompt"`
	Transcript string `json:"transcript,omitempty"`

	IntentScore *int   `json:"intent_score,omitempty"`
	Summary     string `json:"summary,omitempty"`
	NextStep    string `json:"next_step,omitempty"`
}

// AdvanceStatus moves the session to next unless it has already reached a
// terminal state. Terminal statuses freeze: the first terminal event wins,
// and a delayed provider confirmation can never stamp "calling" over a
// finished call. Returns true if the status changed.
func (s *Session) AdvanceStatus(next CallStatus) bool {
	if s.Status.Terminal() || s.Status == next {
		return false
	}
	s.Status = next
	return true
}

// SetProviderCallID records the provider-assigned call identifier. The
// first write wins; the id is never cleared or replaced.
func (s *Session) SetProviderCallID(id string) bool {
	if s.ProviderCallID != "" || id == "" {
		return false
	}
	s.ProviderCallID = id
	return true
}

// NormalizedCallEvent is the provider-agnostic shape every webhook payload
// is converted into. Ephemeral; applied to a session and discarded.
type NormalizedCallEvent struct {
	Provider       string         `json:"provider"`
	ProviderCallID string         `json:"provider_call_id"`
	Status         string         `json:"status"`
	Transcript     string         `json:"transcript,omitempty"`
	Metadata       map[string]any `json:"metadata"`
}

// SessionID extracts a well-formed session identifier from the event's
// correlation metadata, if one is present.
func (e NormalizedCallEvent) SessionID() (SessionID, bool) {
	raw, ok := e.Metadata["session_id"].(string)
	if !ok {
		return "", false
	}
	id, err := ParseSessionID(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

// AnalysisResult is the outcome of scoring a call transcript.
type AnalysisResult struct {
	IntentScore int    `json:"intent_score"`
	Summary     string `json:"summary"`
	NextStep    string `json:"next_step"`
}

// CallResponse is returned to the caller that started a call.
type CallResponse struct {
	SessionID SessionID  `json:"session_id"`
	Status    CallStatus `json:"status"`
	Message   string     `json:"message"`
}

// SessionView is the read-only projection of a session exposed to callers.
type SessionView struct {
	SessionID   SessionID  `json:"session_id"`
	Status      CallStatus `json:"status"`
	IntentScore *int       `json:"intent_score,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	NextStep    string     `json:"next_step,omitempty"`
}
