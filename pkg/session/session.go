package session

import (
	"context"

	"github.com/aretw0/skein/pkg/domain"
)

// Session is one conversation's accumulated history, attached to a
// manager for persistence. It is not safe for concurrent use; the
// manager's locking covers the store, not the in-memory history.
type Session struct {
	ID      string
	manager *Manager
	history []*domain.Message
}

// Open loads the session with the given ID, creating it when absent.
func Open(ctx context.Context, manager *Manager, id string) (*Session, error) {
	history, err := manager.LoadOrStart(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, manager: manager, history: history}, nil
}

// Messages returns the current history. The slice is shared; callers
// must not mutate it.
func (s *Session) Messages() []*domain.Message {
	return s.history
}

// Len returns the number of messages in the history.
func (s *Session) Len() int { return len(s.history) }

// Append adds messages to the history.
func (s *Session) Append(msgs ...*domain.Message) {
	s.history = append(s.history, msgs...)
}

// Rewind drops history back to and including the most recent human
// message and returns its text, so the user can edit and resubmit it.
// It reports false when the history holds no human message.
func (s *Session) Rewind() (string, bool) {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role != domain.RoleHuman {
			continue
		}
		text := s.history[i].Text()
		s.history = s.history[:i]
		return text, true
	}
	return "", false
}

// Clear empties the history, keeping a leading system message if one
// is present.
func (s *Session) Clear() {
	if len(s.history) > 0 && s.history[0].Role == domain.RoleSystem {
		s.history = s.history[:1]
		return
	}
	s.history = nil
}

// Save persists the current history.
func (s *Session) Save(ctx context.Context) error {
	return s.manager.Save(ctx, s.ID, s.history)
}

// Delete removes the session from the store.
func (s *Session) Delete(ctx context.Context) error {
	return s.manager.Delete(ctx, s.ID)
}
