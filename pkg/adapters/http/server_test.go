package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skein/pkg/adapters/memory"
	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/session"
	"github.com/aretw0/skein/pkg/worker"
)

// fakeEngine answers every run with one assistant message.
type fakeEngine struct {
	reply string
	err   error
}

func (f *fakeEngine) Run(_ context.Context, history []*domain.Message, events worker.Events) ([]*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	events.Notify(domain.ThinkingStart())
	msg := domain.NewAssistantMessage(f.reply)
	events.Message(msg)
	events.Notify(domain.ThinkingEnd())
	return []*domain.Message{msg}, nil
}

func newTestHandler(engine Engine) (http.Handler, *session.Manager) {
	manager := session.NewManager(memory.NewStore())
	return NewHandler(engine, manager), manager
}

func TestPostMessage(t *testing.T) {
	t.Run("Streams Run And Persists Session", func(t *testing.T) {
		handler, manager := newTestHandler(&fakeEngine{reply: "hello there"})

		req := httptest.NewRequest(http.MethodPost, "/sessions/s1/messages",
			strings.NewReader(`{"content": "hi"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.Contains(t, body, "event: notification")
		assert.Contains(t, body, `"thinking_start"`)
		assert.Contains(t, body, "event: message")
		assert.Contains(t, body, "hello there")
		assert.Contains(t, body, "event: done")

		history, err := manager.Load(context.Background(), "s1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.RoleHuman, history[0].Role)
		assert.Equal(t, domain.RoleAssistant, history[1].Role)
	})

	t.Run("Rejects Empty Body", func(t *testing.T) {
		handler, _ := newTestHandler(&fakeEngine{reply: "x"})

		req := httptest.NewRequest(http.MethodPost, "/sessions/s1/messages", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Engine Failure Surfaces As Error Event", func(t *testing.T) {
		handler, _ := newTestHandler(&fakeEngine{err: errors.New("model offline")})

		req := httptest.NewRequest(http.MethodPost, "/sessions/s1/messages",
			strings.NewReader(`{"content": "hi"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Contains(t, rec.Body.String(), "event: error")
		assert.Contains(t, rec.Body.String(), "model offline")
	})
}

func TestSessionEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Session", func(t *testing.T) {
		handler, manager := newTestHandler(&fakeEngine{})
		require.NoError(t, manager.Save(ctx, "known", []*domain.Message{domain.NewHumanMessage("hi")}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/known", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var payload struct {
			ID       string            `json:"id"`
			Messages []*domain.Message `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "known", payload.ID)
		require.Len(t, payload.Messages, 1)
	})

	t.Run("Get Missing Session", func(t *testing.T) {
		handler, _ := newTestHandler(&fakeEngine{})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/ghost", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("List And Delete", func(t *testing.T) {
		handler, manager := newTestHandler(&fakeEngine{})
		require.NoError(t, manager.Save(ctx, "a", nil))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"a"`)

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/a", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := manager.Load(ctx, "a")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
