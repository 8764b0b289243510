// Package analysis scores completed call transcripts. Analyzers are
// stateless: the caller owns writing the result back onto the session.
package analysis

import (
	"context"
	"strings"

	"github.com/user/signalcall/internal/types"
)

// Analyzer scores a call transcript for prospect intent.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error)
}

const (
	noTranscriptSummary = "No transcript yet. Unable to assess intent."
	engagedSummary      = "Prospect engaged briefly, confirmed role context, and showed openness to next steps based on the conversation."
	highIntentNextStep  = "Send a short follow-up with 2 time options and a 1-paragraph value recap tied to the original intent signal."
	lowIntentNextStep   = "Ask 1 clarifying question via follow-up (role + current tooling) and offer a low-friction next step."
)

// Heuristic is the deterministic local analyzer used when no LLM credential
// is configured. Keyword-weighted, clamped to 0..100.
type Heuristic struct{}

var _ Analyzer = Heuristic{}

func (Heuristic) Analyze(_ context.Context, transcript string) (types.AnalysisResult, error) {
	t := strings.ToLower(transcript)
	score := 20

	if strings.Contains(t, "sure") || strings.Contains(t, "sounds good") || strings.Contains(t, "send") {
		score += 35
	}
	if strings.Contains(t, "meeting") || strings.Contains(t, "calendar") || strings.Contains(t, "this week") {
		score += 25
	}
	// A hard rejection trumps any positive signal.
	if strings.Contains(t, "not interested") || strings.Contains(t, "stop") {
		score = 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	summary := engagedSummary
	if transcript == "" {
		summary = noTranscriptSummary
	}

	nextStep := lowIntentNextStep
	if score >= 60 {
		nextStep = highIntentNextStep
	}

	return types.AnalysisResult{
		IntentScore: score,
		Summary:     summary,
		NextStep:    nextStep,
	}, nil
}
