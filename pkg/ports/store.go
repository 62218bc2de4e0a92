package ports

import (
	"context"
	"time"

	"github.com/aretw0/skein/pkg/domain"
)

// HistoryStore persists conversation histories. This enables "stop and
// resume" chat sessions across process restarts.
type HistoryStore interface {
	// Save persists the history for a given session ID.
	Save(ctx context.Context, sessionID string, history []*domain.Message) error

	// Load retrieves the history for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) ([]*domain.Message, error)

	// Delete removes the history for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a held distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes session access across replicas. The lock
// expires after ttl even if never released.
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
