// Package voice defines the capability boundary for external calling
// providers. The orchestrator only ever talks to the Provider interface, so
// a second provider can be added without touching lifecycle logic.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/signalcall/internal/types"
)

// Call describes one outbound call to place.
type Call struct {
	ToPhone      string
	FirstMessage string
	SystemPrompt string

	// Metadata is embedded in the outbound request and echoed back
	// verbatim on provider webhooks. It always carries the originating
	// session id, which is the reliable correlation path.
	Metadata map[string]any
}

// Provider places calls and normalizes the provider's webhook payloads.
type Provider interface {
	// CreateCall issues an outbound call-creation request and returns the
	// provider-assigned call identifier.
	CreateCall(ctx context.Context, call Call) (string, error)

	// NormalizeWebhook converts a raw provider webhook payload into the
	// canonical event shape. It is total: malformed or missing fields
	// degrade to defaults, they never produce an error. Webhook payload
	// shape is outside this system's control.
	NormalizeWebhook(raw json.RawMessage) types.NormalizedCallEvent
}

var (
	// ErrUnavailable wraps transport-level failures reaching the provider.
	ErrUnavailable = errors.New("voice provider unreachable")

	// ErrMalformedResponse means the provider accepted the call but its
	// response carried no call identifier.
	ErrMalformedResponse = errors.New("voice provider response missing call id")

	// ErrMissingCredentials means real call initiation was attempted
	// without provider credentials configured.
	ErrMissingCredentials = errors.New("voice provider credentials not configured")
)

// RejectedError reports a non-success provider response, keeping the status
// code and body for diagnostics.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("voice provider rejected call (status %d): %s", e.StatusCode, e.Body)
}
