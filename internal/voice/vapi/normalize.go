package vapi

import (
	"encoding/json"

	"github.com/user/signalcall/internal/types"
)

// NormalizeWebhook converts a Vapi webhook payload into the canonical
// event. Vapi sends different shapes depending on event type and the call
// id field name has drifted over time, so this decodes into a generic
// document and probes the known locations. It never fails: anything
// missing or malformed degrades to a default.
func (c *Client) NormalizeWebhook(raw json.RawMessage) types.NormalizedCallEvent {
	return Normalize(raw)
}

// Normalize is the package-level normalization used by NormalizeWebhook.
func Normalize(raw json.RawMessage) types.NormalizedCallEvent {
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)

	ev := types.NormalizedCallEvent{
		Provider: "vapi",
		Status:   "unknown",
		Metadata: map[string]any{},
	}

	// Historically used call id field names, newest first.
	ev.ProviderCallID = firstString(doc, "callId", "call_id", "id")

	// Prefer an explicit status, else infer from the event type.
	if s := stringField(doc, "status"); s != "" {
		ev.Status = s
	} else if t := stringField(doc, "event"); t != "" {
		ev.Status = t
	}

	call, _ := doc["call"].(map[string]any)

	// Transcript can live top-level or inside the call object; a nested
	// summary is the last resort when no transcript field exists at all.
	if t := stringField(doc, "transcript"); t != "" {
		ev.Transcript = t
	} else if t := stringField(call, "transcript"); t != "" {
		ev.Transcript = t
	} else if s := stringField(call, "summary"); s != "" {
		ev.Transcript = s
	}

	if m, ok := doc["metadata"].(map[string]any); ok {
		ev.Metadata = m
	} else if m, ok := call["metadata"].(map[string]any); ok {
		ev.Metadata = m
	}

	return ev
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func firstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(doc, k); s != "" {
			return s
		}
	}
	return ""
}
