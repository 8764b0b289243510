package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/signalcall/internal/analysis"
	"github.com/user/signalcall/internal/orchestrator"
	"github.com/user/signalcall/internal/state"
	"github.com/user/signalcall/internal/types"
	"github.com/user/signalcall/internal/voice"
)

func setupServer(t *testing.T) (*Server, *orchestrator.Orchestrator, *state.Store) {
	t.Helper()
	store := state.NewStore()
	provider := voice.MockProvider{}
	orch := orchestrator.New(store, provider, analysis.Heuristic{}, 2, nil)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, provider, store), orch, store
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func startCall(t *testing.T, srv *Server) types.SessionID {
	t.Helper()
	body := `{"name":"Dana","company":"Acme","phone":"+15551234567","signal":"raised a round"}`
	w := doJSON(t, srv, http.MethodPost, "/call", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.CallResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	srv, _, _ := setupServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestHome(t *testing.T) {
	srv, _, _ := setupServer(t)
	w := doJSON(t, srv, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "AI SDR") {
		t.Errorf("unexpected banner %q", w.Body.String())
	}
}

func TestStartCallAndProjection(t *testing.T) {
	srv, orch, _ := setupServer(t)
	id := startCall(t, srv)
	if !orch.WaitIdle(2 * time.Second) {
		t.Fatal("dial did not finish")
	}

	w := doJSON(t, srv, http.MethodGet, "/session/"+string(id), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view types.SessionView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.SessionID != id {
		t.Errorf("expected session %s, got %s", id, view.SessionID)
	}
	if view.Status != types.StatusCalling {
		t.Errorf("expected calling, got %s", view.Status)
	}
}

func TestStartCallValidation(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := doJSON(t, srv, http.MethodPost, "/call", `{"name":"Dana"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/call", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", w.Code)
	}
}

func TestGetSessionErrors(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := doJSON(t, srv, http.MethodGet, "/session/"+string(types.NewSessionID()), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodGet, "/session/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestWebhookCompletesSession(t *testing.T) {
	srv, orch, store := setupServer(t)
	id := startCall(t, srv)
	if !orch.WaitIdle(2 * time.Second) {
		t.Fatal("dial did not finish")
	}

	payload := fmt.Sprintf(`{"callId":"whatever","status":"call.ended","transcript":"sounds good","metadata":{"session_id":%q}}`, string(id))
	w := doJSON(t, srv, http.MethodPost, "/webhook/vapi", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp["ok"] {
		t.Error("expected ok acknowledgment")
	}

	sess, err := store.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != types.StatusCompleted {
		t.Errorf("expected completed, got %s", sess.Status)
	}
	if sess.Transcript != "sounds good" {
		t.Errorf("expected transcript stored, got %q", sess.Transcript)
	}
}

func TestWebhookUnknownCall(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := doJSON(t, srv, http.MethodPost, "/webhook/vapi", `{"callId":"nobody","status":"call.ended"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for uncorrelated webhook, got %d", w.Code)
	}

	// Garbage payloads degrade to an uncorrelatable event, never a crash.
	w = doJSON(t, srv, http.MethodPost, "/webhook/vapi", `garbage`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for garbage payload, got %d", w.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, _, store := setupServer(t)
	id := startCall(t, srv)
	store.Mutate(id, func(s *types.Session) {
		s.Transcript = "sure, book a meeting this week"
	})

	w := doJSON(t, srv, http.MethodPost, "/session/"+string(id)+"/analyze", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result types.AnalysisResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.IntentScore < 80 {
		t.Errorf("expected high intent, got %d", result.IntentScore)
	}

	// Persisted onto the session.
	view := doJSON(t, srv, http.MethodGet, "/session/"+string(id), "")
	var projected types.SessionView
	if err := json.NewDecoder(view.Body).Decode(&projected); err != nil {
		t.Fatal(err)
	}
	if projected.IntentScore == nil || *projected.IntentScore != result.IntentScore {
		t.Error("expected analysis persisted on projection")
	}

	w = doJSON(t, srv, http.MethodPost, "/session/"+string(types.NewSessionID())+"/analyze", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/session/"+string(id)+"/bogus", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown action, got %d", w.Code)
	}
}

func TestAPISessionsList(t *testing.T) {
	srv, _, _ := setupServer(t)
	id := startCall(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 session, got %d", len(result))
	}
	if result[0]["session_id"] != string(id) {
		t.Errorf("expected session_id %s, got %v", id, result[0]["session_id"])
	}
}

func TestAPIDeadLettersEmpty(t *testing.T) {
	srv, _, _ := setupServer(t)
	w := doJSON(t, srv, http.MethodGet, "/api/deadletters", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}
