// Package memory provides an in-memory history store, used as the
// default persistence backend and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/skein/pkg/domain"
)

// Store implements ports.HistoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]*domain.Message
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]*domain.Message),
	}
}

// Save persists the history in memory. Messages are cloned so the
// caller cannot mutate stored state through shared pointers.
func (s *Store) Save(ctx context.Context, sessionID string, history []*domain.Message) error {
	copied := cloneHistory(history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the history from memory.
func (s *Store) Load(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	return cloneHistory(history), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

func cloneHistory(history []*domain.Message) []*domain.Message {
	out := make([]*domain.Message, len(history))
	for i, m := range history {
		out[i] = m.Clone()
	}
	return out
}
