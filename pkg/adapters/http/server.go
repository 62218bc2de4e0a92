// Package http exposes conversations over a small REST and SSE surface.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/skein/internal/logging"
	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/session"
	"github.com/aretw0/skein/pkg/worker"
)

// Engine runs one conversation exchange. *worker.Worker satisfies it.
type Engine interface {
	Run(ctx context.Context, history []*domain.Message, events worker.Events) ([]*domain.Message, error)
}

// Server serves sessions over HTTP. Message submission streams the
// run's progress back as server-sent events.
type Server struct {
	engine   Engine
	sessions *session.Manager
	logger   *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler builds the HTTP handler over an engine and session store.
func NewHandler(engine Engine, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/sessions", s.listSessions)
	r.Get("/sessions/{id}", s.getSession)
	r.Delete("/sessions/{id}", s.deleteSession)
	r.Post("/sessions/{id}/messages", s.postMessage)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list sessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.sessions.Load(r.Context(), id)
	if err == domain.ErrSessionNotFound {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "load session", err)
		return
	}
	if history == nil {
		history = []*domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "messages": history})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postMessageBody struct {
	Content string `json:"content"`
}

// postMessage appends a user message and streams the run back as SSE.
// Event names: "notification", "message", and a terminal "done" or
// "error".
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body postMessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		http.Error(w, "body must be {\"content\": \"...\"}", http.StatusBadRequest)
		return
	}

	sess, err := session.Open(r.Context(), s.sessions, id)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "open session", err)
		return
	}
	sess.Append(domain.NewHumanMessage(body.Content))

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	events := &sseEvents{w: w, flusher: flusher}
	produced, err := s.engine.Run(r.Context(), sess.Messages(), events)
	if err != nil {
		s.logger.Error("run failed", "session_id", id, "err", err)
		events.send("error", map[string]any{"error": err.Error()})
		return
	}

	sess.Append(produced...)
	if err := sess.Save(r.Context()); err != nil {
		s.logger.Error("session save failed", "session_id", id, "err", err)
		events.send("error", map[string]any{"error": "failed to persist session"})
		return
	}
	events.send("done", map[string]any{"messages": len(produced)})
}

func (s *Server) fail(w http.ResponseWriter, status int, op string, err error) {
	s.logger.Error(op+" failed", "err", err)
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sseEvents renders run output as server-sent events, flushing after
// each frame so clients see progress live.
type sseEvents struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e *sseEvents) Notify(n domain.Notification) {
	e.send("notification", n)
}

func (e *sseEvents) RecordUsage(model string, usage domain.TokenUsage) {
	e.send("usage", map[string]any{"model": model, "usage": usage})
}

func (e *sseEvents) Message(m *domain.Message) {
	e.send("message", m)
}

func (e *sseEvents) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data)
	e.flusher.Flush()
}
