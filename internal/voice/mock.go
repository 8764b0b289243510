package voice

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/user/signalcall/internal/types"
)

// MockProvider fabricates call identifiers without touching the network, so
// the full session lifecycle can be exercised locally by posting webhooks
// by hand.
type MockProvider struct{}

var _ Provider = MockProvider{}

func (MockProvider) CreateCall(_ context.Context, _ Call) (string, error) {
	return "mock-" + uuid.New().String(), nil
}

// NormalizeWebhook expects hand-written payloads that already carry the
// canonical top-level fields. Anything missing degrades to defaults.
func (MockProvider) NormalizeWebhook(raw json.RawMessage) types.NormalizedCallEvent {
	var doc struct {
		CallID     string         `json:"callId"`
		Status     string         `json:"status"`
		Transcript string         `json:"transcript"`
		Metadata   map[string]any `json:"metadata"`
	}
	_ = json.Unmarshal(raw, &doc)

	ev := types.NormalizedCallEvent{
		Provider:       "mock",
		ProviderCallID: doc.CallID,
		Status:         doc.Status,
		Transcript:     doc.Transcript,
		Metadata:       doc.Metadata,
	}
	if ev.Status == "" {
		ev.Status = "unknown"
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}
	return ev
}
