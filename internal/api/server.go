// Package api exposes the HTTP surface: call start, session projection,
// on-demand analysis, and the provider webhook endpoint.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/user/signalcall/internal/orchestrator"
	"github.com/user/signalcall/internal/state"
	"github.com/user/signalcall/internal/types"
	"github.com/user/signalcall/internal/voice"
)

// Server is the HTTP handler for the call-orchestration API.
type Server struct {
	orch     *orchestrator.Orchestrator
	provider voice.Provider
	store    *state.Store
	mux      *http.ServeMux
}

// NewServer creates a Server wired to the given orchestrator, provider, and
// store. The provider is only used for webhook normalization; everything
// stateful goes through the orchestrator.
func NewServer(orch *orchestrator.Orchestrator, provider voice.Provider, store *state.Store) *Server {
	s := &Server{
		orch:     orch,
		provider: provider,
		store:    store,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /call", s.handleStartCall)
	s.mux.HandleFunc("GET /session/", s.handleGetSession)
	s.mux.HandleFunc("POST /session/", s.handleAnalyze)
	s.mux.HandleFunc("POST /webhook/vapi", s.handleWebhook)
	s.mux.HandleFunc("GET /api/sessions", s.handleAPISessions)
	s.mux.HandleFunc("GET /api/deadletters", s.handleAPIDeadLetters)
	s.mux.HandleFunc("GET /", s.handleHome)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("Your AI SDR that turns intent signals into real-time sales calls is alive!\n"))
}

func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	var req types.CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Company == "" || req.Phone == "" || req.Signal == "" {
		http.Error(w, `{"error":"name, company, phone, and signal are required"}`, http.StatusBadRequest)
		return
	}

	resp, err := s.orch.StartCall(req)
	if err != nil {
		slog.Error("start call failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// sessionID parses the id segment out of /session/{id}[...].
func sessionID(path string) (types.SessionID, string, error) {
	rest := strings.TrimPrefix(path, "/session/")
	parts := strings.SplitN(rest, "/", 2)
	id, err := types.ParseSessionID(parts[0])
	if err != nil {
		return "", "", err
	}
	if len(parts) == 2 {
		return id, parts[1], nil
	}
	return id, "", nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, rest, err := sessionID(r.URL.Path)
	if err != nil || rest != "" {
		http.Error(w, `{"error":"invalid session id"}`, http.StatusBadRequest)
		return
	}

	view, err := s.orch.Project(id)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}
		slog.Error("project session failed", "session_id", string(id), "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, rest, err := sessionID(r.URL.Path)
	if err != nil {
		http.Error(w, `{"error":"invalid session id"}`, http.StatusBadRequest)
		return
	}
	if rest != "analyze" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	result, err := s.orch.Analyze(r.Context(), id)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}
		slog.Error("analyze failed", "session_id", string(id), "error", err)
		http.Error(w, `{"error":"analysis failed"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"unreadable body"}`, http.StatusBadRequest)
		return
	}

	// Normalization is total; correlation is where unknown calls fail.
	ev := s.provider.NormalizeWebhook(body)
	if err := s.orch.HandleEvent(ev); err != nil {
		slog.Warn("webhook not correlated", "provider_call_id", ev.ProviderCallID, "status", ev.Status, "error", err)
		http.Error(w, `{"error":"unknown call"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// sessionSummary is the debug-API row for one session.
type sessionSummary struct {
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
	Company        string `json:"company"`
	ProviderCallID string `json:"provider_call_id,omitempty"`
	CreatedAt      string `json:"created_at"`
	HasTranscript  bool   `json:"has_transcript"`
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	result := make([]sessionSummary, 0, s.store.Len())
	s.store.Each(func(sess types.Session) bool {
		result = append(result, sessionSummary{
			SessionID:      string(sess.ID),
			Status:         string(sess.Status),
			Company:        sess.Company,
			ProviderCallID: sess.ProviderCallID,
			CreatedAt:      sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			HasTranscript:  sess.Transcript != "",
		})
		return true
	})

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleAPIDeadLetters(w http.ResponseWriter, r *http.Request) {
	letters := s.orch.DeadLetters()
	if letters == nil {
		letters = []orchestrator.DeadLetter{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(letters)
}
