package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract verifies that a HistoryStore implementation
// honors the interface semantics. Adapter test suites call it against
// their concrete store.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		history := []*domain.Message{
			domain.NewHumanMessage("hello"),
			domain.NewAssistantMessage("hi there"),
		}
		history[1].Usage = &domain.TokenUsage{Input: 10, Output: 5}

		err := store.Save(ctx, sessionID, history)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 2)
		assert.Equal(t, domain.RoleHuman, loaded[0].Role)
		assert.Equal(t, "hello", loaded[0].Text())
		assert.Equal(t, "hi there", loaded[1].Text())
		require.NotNil(t, loaded[1].Usage)
		assert.Equal(t, 10, loaded[1].Usage.Input)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		err := store.Save(ctx, sessionID, []*domain.Message{domain.NewHumanMessage("only")})
		require.NoError(t, err)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, loaded, 1)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, []*domain.Message{domain.NewHumanMessage("still here")}))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, sessionID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, []*domain.Message{domain.NewHumanMessage("bye")}))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
