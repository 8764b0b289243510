// Package orchestrator drives the call-session lifecycle: it creates
// sessions, dispatches detached dial tasks against the voice provider, and
// applies normalized webhook events back onto sessions via correlation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/signalcall/internal/analysis"
	"github.com/user/signalcall/internal/prompt"
	"github.com/user/signalcall/internal/state"
	"github.com/user/signalcall/internal/types"
	"github.com/user/signalcall/internal/voice"
)

// Orchestrator owns the lifecycle state machine
// not_started -> calling -> {completed, failed}.
type Orchestrator struct {
	store       *state.Store
	provider    voice.Provider
	analyzer    analysis.Analyzer
	dialer      *Dialer
	retry       *RetryPolicy
	deadLetters *DeadLetterLog
}

// New creates an Orchestrator wired to the given store, provider, and
// analyzer. maxDials bounds concurrent outbound call initiations; a nil
// retry policy means a single dial attempt.
func New(store *state.Store, provider voice.Provider, analyzer analysis.Analyzer, maxDials int64, retry *RetryPolicy) *Orchestrator {
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	return &Orchestrator{
		store:       store,
		provider:    provider,
		analyzer:    analyzer,
		dialer:      NewDialer(maxDials),
		retry:       retry,
		deadLetters: NewDeadLetterLog(0),
	}
}

// Start initialises the dialer's context. Must be called before StartCall.
func (o *Orchestrator) Start(ctx context.Context) {
	o.dialer.Start(ctx)
}

// Stop cancels pending dials and waits for in-flight ones to finish.
func (o *Orchestrator) Stop() {
	o.dialer.Stop()
}

// StartCall creates a session for the prospect and dispatches the dial task.
// It returns immediately with status "calling"; provider confirmation (or
// failure) lands on the session asynchronously.
func (o *Orchestrator) StartCall(req types.CallRequest) (types.CallResponse, error) {
	sess := types.Session{
		ID:        types.NewSessionID(),
		CreatedAt: time.Now().UTC(),

		Name:      req.Name,
		Company:   req.Company,
		Phone:     req.Phone,
		Signal:    req.Signal,
		PainPoint: req.PainPoint,
		Persona:   req.Persona,

		Status: types.StatusNotStarted,
		Prompt: prompt.BuildSDRPrompt(req),
	}

	if err := o.store.Insert(sess); err != nil {
		return types.CallResponse{}, err
	}

	o.dialer.Dispatch(sess.ID, o.dial)

	return types.CallResponse{
		SessionID: sess.ID,
		Status:    types.StatusCalling,
		Message:   "Call started (or queued)",
	}, nil
}

// dial runs detached from the request that created the session, so its
// failures never surface to a caller: they are logged, dead-lettered, and
// the session moves to failed so the projection shows a terminal outcome.
func (o *Orchestrator) dial(ctx context.Context, id types.SessionID) {
	sess, err := o.store.Get(id)
	if err != nil {
		slog.Error("dial: session vanished", "session_id", string(id), "error", err)
		return
	}

	call := voice.Call{
		ToPhone:      sess.Phone,
		FirstMessage: prompt.OpeningMessage(sess.Name, sess.Signal),
		SystemPrompt: sess.Prompt,
		Metadata:     map[string]any{"session_id": string(id)},
	}

	var callID string
	err = o.retry.Execute(func() error {
		var callErr error
		callID, callErr = o.provider.CreateCall(ctx, call)
		return callErr
	})
	if err != nil {
		slog.Error("dial failed", "session_id", string(id), "error", err)
		o.deadLetters.Record(id, err)
		o.store.Mutate(id, func(s *types.Session) {
			s.AdvanceStatus(types.StatusFailed)
		})
		return
	}

	o.store.Mutate(id, func(s *types.Session) {
		s.SetProviderCallID(callID)
		s.AdvanceStatus(types.StatusCalling)
	})
	slog.Info("started provider call", "session_id", string(id), "provider_call_id", callID)
}

// HandleEvent correlates a normalized webhook event to a session and applies
// it. The metadata-embedded session id is preferred: it is present even
// when the webhook beats the dial flow's provider_call_id write. The scan
// over provider call ids is the fallback.
func (o *Orchestrator) HandleEvent(ev types.NormalizedCallEvent) error {
	id, ok := ev.SessionID()
	if !ok {
		id, ok = o.findByProviderCallID(ev.ProviderCallID)
	}
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrUnknownCall, ev.ProviderCallID)
	}

	o.store.Mutate(id, func(s *types.Session) {
		applyEvent(s, ev)
	})
	return nil
}

func (o *Orchestrator) findByProviderCallID(callID string) (types.SessionID, bool) {
	if callID == "" {
		return "", false
	}
	var found types.SessionID
	var ok bool
	o.store.Each(func(s types.Session) bool {
		if s.ProviderCallID == callID {
			found, ok = s.ID, true
			return false
		}
		return true
	})
	return found, ok
}

// applyEvent maps the provider's free-text status onto the state machine.
// The provider's status vocabulary is not contractually fixed, so this
// matches keywords rather than exact values.
func applyEvent(s *types.Session, ev types.NormalizedCallEvent) {
	st := strings.ToLower(ev.Status)
	switch {
	case strings.Contains(st, "end") || strings.Contains(st, "complete"):
		s.AdvanceStatus(types.StatusCompleted)
	case strings.Contains(st, "fail"):
		s.AdvanceStatus(types.StatusFailed)
	}

	if ev.Transcript != "" {
		// Last write wins. Transcripts arrive whole, never as deltas, and
		// a later end-of-call event usually carries the richer one.
		s.Transcript = ev.Transcript
	}
}

// Project returns the read-only view of a session.
func (o *Orchestrator) Project(id types.SessionID) (types.SessionView, error) {
	sess, err := o.store.Get(id)
	if err != nil {
		return types.SessionView{}, err
	}
	return types.SessionView{
		SessionID:   sess.ID,
		Status:      sess.Status,
		IntentScore: sess.IntentScore,
		Transcript:  sess.Transcript,
		Summary:     sess.Summary,
		NextStep:    sess.NextStep,
	}, nil
}

// Analyze scores the session's transcript and persists the result. The
// three analysis fields are always written together.
func (o *Orchestrator) Analyze(ctx context.Context, id types.SessionID) (types.AnalysisResult, error) {
	sess, err := o.store.Get(id)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	result, err := o.analyzer.Analyze(ctx, sess.Transcript)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("analyze transcript: %w", err)
	}

	o.store.Mutate(id, func(s *types.Session) {
		score := result.IntentScore
		s.IntentScore = &score
		s.Summary = result.Summary
		s.NextStep = result.NextStep
	})
	return result, nil
}

// DeadLetters lists recorded dial failures, newest last.
func (o *Orchestrator) DeadLetters() []DeadLetter {
	return o.deadLetters.All()
}

// WaitIdle blocks until no dial tasks are in flight, or the timeout
// expires. Test helper.
func (o *Orchestrator) WaitIdle(timeout time.Duration) bool {
	return o.dialer.WaitIdle(timeout)
}
