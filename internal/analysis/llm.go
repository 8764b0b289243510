package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/signalcall/internal/types"
	"github.com/user/signalcall/pkg/llm"
)

const analysisSystemPrompt = "You are an expert SDR analyst. Given a call transcript, output JSON only."

const analysisUserPrompt = `Analyze this outbound SDR call transcript and output a strict JSON object with:
- intent_score: integer 0..100
- summary: short paragraph (max 80 words)
- next_step: one concrete next action

Transcript:
%s`

// LLMAnalyzer asks a chat-completion model for the three analysis fields as
// a strict JSON object. Failures surface to the caller; once a credential
// is configured there is no silent fallback to the heuristic.
type LLMAnalyzer struct {
	provider llm.Provider
}

var _ Analyzer = (*LLMAnalyzer)(nil)

func NewLLM(provider llm.Provider) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error) {
	messages := []llm.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(analysisUserPrompt, transcript)},
	}

	resp, err := a.provider.Complete(ctx, messages, llm.FormatJSON)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("completion: %w", err)
	}

	// Keys the model leaves out default to zero values; valid JSON with
	// missing fields is still a usable answer.
	var out struct {
		IntentScore int    `json:"intent_score"`
		Summary     string `json:"summary"`
		NextStep    string `json:"next_step"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &out); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("parsing analysis payload: %w", err)
	}

	return types.AnalysisResult{
		IntentScore: out.IntentScore,
		Summary:     out.Summary,
		NextStep:    out.NextStep,
	}, nil
}
