package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/storage"
)

// Runner executes debates. Satisfied by *debate.Engine.
type Runner interface {
	Debate(ctx context.Context, question string) (*model.Session, error)
	Ask(ctx context.Context, providerName, question string) (*model.Session, error)
}

// Server exposes the debate engine and stored sessions over HTTP.
type Server struct {
	runner Runner
	store  storage.Store
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an API server. store may be nil, in which case sessions
// are not persisted and the sessions endpoints report not found.
func NewServer(runner Runner, store storage.Store, logger *slog.Logger) *Server {
	s := &Server{
		runner: runner,
		store:  store,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type chatRequest struct {
	Question string `json:"question"`
	Provider string `json:"provider"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	var (
		sess *model.Session
		err  error
	)
	if req.Provider == "" || req.Provider == "all" {
		sess, err = s.runner.Debate(r.Context(), req.Question)
	} else {
		sess, err = s.runner.Ask(r.Context(), req.Provider, req.Question)
	}
	if sess == nil {
		s.logger.Error("run chat", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err != nil {
		s.logger.Warn("chat finished with error", "session_id", sess.ID, "status", sess.Status, "error", err)
	}

	// Snapshot even when the client went away mid-debate.
	s.persist(context.WithoutCancel(r.Context()), sess)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	sess, err := s.store.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		s.logger.Error("get session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]model.SessionSummary{})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	summaries, err := s.store.ListSessions(r.Context(), limit)
	if err != nil {
		s.logger.Error("list sessions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []model.SessionSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

func (s *Server) persist(ctx context.Context, sess *model.Session) {
	if s.store == nil || !sess.Status.Terminal() {
		return
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		s.logger.Error("save session", "session_id", sess.ID, "error", err)
	}
}
