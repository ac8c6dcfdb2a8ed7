package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/aretw0/unicorn"
	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/session"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions is the per-client composition service behind the API.
// *session.Manager implements it.
type Sessions interface {
	ProcessKey(ctx context.Context, sessionID string, c rune) (session.Result, error)
	Candidates(ctx context.Context, sessionID string) ([]string, int, error)
	Select(ctx context.Context, sessionID string, i int) (bool, domain.Composition, error)
	Deactivate(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	Trie() *trie.Trie
}

// Server serves the composition API.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithGatherer exposes the registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// KeyRequest is the body of POST /sessions/{id}/keys.
type KeyRequest struct {
	Code *uint32 `json:"code"`
}

// SelectRequest is the body of POST /sessions/{id}/select.
type SelectRequest struct {
	Index *int `json:"index"`
}

// CandidatesResponse is returned by GET /sessions/{id}/candidates.
type CandidatesResponse struct {
	Candidates []string `json:"candidates"`
	Selected   int      `json:"selected"`
}

// SelectResponse is returned by POST /sessions/{id}/select.
type SelectResponse struct {
	OK          bool               `json:"ok"`
	Composition domain.Composition `json:"composition"`
}

// NewHandler creates a new HTTP handler over sessions.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/mnemonics", server.GetMnemonics)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/keys", server.ProcessKey)
			r.Get("/candidates", server.GetCandidates)
			r.Post("/select", server.SelectCandidate)
			r.Get("/events", server.SubscribeEvents)
			r.Delete("/", server.DeleteSession)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProcessKey handles POST /sessions/{id}/keys.
func (s *Server) ProcessKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == nil {
		http.Error(w, "Invalid request body: expected {\"code\": <code point>}", http.StatusBadRequest)
		s.logger.Warn("ProcessKey: Invalid request body", "session_id", id, "err", err)
		return
	}

	code := *body.Code
	if code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
		// Not a key the engine can see; the session is untouched.
		writeJSON(w, s.logger, session.Result{Actions: []domain.Action{domain.Reject()}})
		return
	}

	res, err := s.Sessions.ProcessKey(r.Context(), id, rune(code))
	if err != nil {
		s.writeError(w, "ProcessKey", id, err)
		return
	}

	if bytes, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(id, string(bytes))
	}
	writeJSON(w, s.logger, res)
}

// GetCandidates handles GET /sessions/{id}/candidates.
func (s *Server) GetCandidates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	candidates, selected, err := s.Sessions.Candidates(r.Context(), id)
	if err != nil {
		s.writeError(w, "GetCandidates", id, err)
		return
	}
	writeJSON(w, s.logger, CandidatesResponse{Candidates: candidates, Selected: selected})
}

// SelectCandidate handles POST /sessions/{id}/select.
func (s *Server) SelectCandidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		http.Error(w, "Invalid request body: expected {\"index\": <n>}", http.StatusBadRequest)
		s.logger.Warn("SelectCandidate: Invalid request body", "session_id", id, "err", err)
		return
	}

	ok, comp, err := s.Sessions.Select(r.Context(), id, *body.Index)
	if err != nil {
		s.writeError(w, "SelectCandidate", id, err)
		return
	}
	writeJSON(w, s.logger, SelectResponse{OK: ok, Composition: comp})
}

// DeleteSession handles DELETE /sessions/{id}: the composition is abandoned and
// the session forgotten.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Deactivate(r.Context(), id); err != nil {
		s.writeError(w, "DeleteSession", id, err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, "DeleteSession", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", "", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, s.logger, map[string][]string{"sessions": ids})
}

// GetMnemonics handles GET /mnemonics.
func (s *Server) GetMnemonics(w http.ResponseWriter, r *http.Request) {
	entries := s.Sessions.Trie().Entries()
	if entries == nil {
		entries = []trie.Entry{}
	}
	writeJSON(w, s.logger, entries)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	stats := s.Sessions.Trie().Stats()
	writeJSON(w, s.logger, map[string]string{
		"app":        "unicorn-http",
		"version":    unicorn.Version,
		"nodes":      strconv.Itoa(stats.Nodes),
		"candidates": strconv.Itoa(stats.Candidates),
	})
}

func (s *Server) writeError(w http.ResponseWriter, op, sessionID string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
		s.logger.Warn(op+" cancelled", "session_id", sessionID, "err", err)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
		s.logger.Error(op+" failed", "session_id", sessionID, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
