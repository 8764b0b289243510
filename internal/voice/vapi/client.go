// Package vapi implements the voice.Provider interface against the Vapi
// calling API.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/signalcall/internal/voice"
)

// Client places outbound calls through Vapi.
type Client struct {
	config     *Config
	httpClient *http.Client
}

var _ voice.Provider = (*Client)(nil)

// Config holds Vapi credentials and assistant defaults.
type Config struct {
	APIKey        string
	PhoneNumberID string

	// WebhookURL is this service's externally reachable webhook endpoint,
	// handed to Vapi so it can deliver call events back.
	WebhookURL string

	// BaseURL defaults to the public Vapi API.
	BaseURL string

	// Assistant model and voice. Reasonable defaults are applied in New.
	Model string
	Voice string
}

// New creates a Vapi client. The HTTP timeout bounds the call-creation
// request only; it says nothing about how long the phone call itself runs.
func New(config *Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.vapi.ai"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Voice == "" {
		config.Voice = "Zayd"
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// createCallRequest is the Vapi outbound call payload.
type createCallRequest struct {
	PhoneNumberID string         `json:"phoneNumberId"`
	Customer      customer       `json:"customer"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Assistant     assistant      `json:"assistant"`
	WebhookURL    string         `json:"webhookUrl"`
}

type customer struct {
	Number string `json:"number"`
}

type assistant struct {
	FirstMessage string         `json:"firstMessage"`
	SystemPrompt string         `json:"systemPrompt"`
	Model        assistantModel `json:"model"`
	Voice        assistantVoice `json:"voice"`
}

type assistantModel struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type assistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// CreateCall issues the outbound call-creation request and returns the
// provider-assigned call id.
func (c *Client) CreateCall(ctx context.Context, call voice.Call) (string, error) {
	if c.config.APIKey == "" || c.config.PhoneNumberID == "" {
		return "", voice.ErrMissingCredentials
	}

	payload := createCallRequest{
		PhoneNumberID: c.config.PhoneNumberID,
		Customer:      customer{Number: call.ToPhone},
		Metadata:      call.Metadata,
		Assistant: assistant{
			FirstMessage: call.FirstMessage,
			SystemPrompt: call.SystemPrompt,
			Model:        assistantModel{Provider: "openai", Model: c.config.Model},
			Voice:        assistantVoice{Provider: "11labs", VoiceID: c.config.Voice},
		},
		WebhookURL: c.config.WebhookURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", voice.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &voice.RejectedError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil || created.ID == "" {
		return "", voice.ErrMalformedResponse
	}
	return created.ID, nil
}
