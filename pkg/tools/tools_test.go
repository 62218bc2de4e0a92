package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

func TestReadFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("remember this"), 0o644))
	tool := NewReadFile(dir)

	t.Run("Reads Relative Path", func(t *testing.T) {
		result, err := tool.Invoke(ctx, map[string]any{"path": "note.txt"}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, "remember this", result)
	})

	t.Run("Missing File Is Tool Visible", func(t *testing.T) {
		_, err := tool.Invoke(ctx, map[string]any{"path": "absent.txt"}, ports.NopSink{})
		var te *domain.ToolError
		require.ErrorAs(t, err, &te)
	})

	t.Run("Schema Requires Path", func(t *testing.T) {
		schema := tool.InputSchema()
		assert.Equal(t, "object", schema["type"])
		assert.Contains(t, schema["required"], "path")
	})

	t.Run("UI Hint Names The File", func(t *testing.T) {
		assert.Equal(t, "Reading note.txt", tool.UIHint(map[string]any{"path": "note.txt"}))
	})
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes And Creates Directories", func(t *testing.T) {
		dir := t.TempDir()
		tool := NewWriteFile(dir)
		result, err := tool.Invoke(ctx, map[string]any{
			"path":    "sub/out.txt",
			"content": "hello",
		}, ports.NopSink{})
		require.NoError(t, err)
		assert.Contains(t, result, "Wrote 5 bytes")

		data, err := os.ReadFile(filepath.Join(dir, "sub", "out.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("Requires Confirmation", func(t *testing.T) {
		tool := NewWriteFile(t.TempDir())
		assert.True(t, tool.NeedsConfirmation(nil))

		req := tool.ConfirmationRequest(map[string]any{"path": "a.txt", "content": "body"})
		require.NotNil(t, req)
		assert.Equal(t, "Write file a.txt", req.Action)
		require.Len(t, req.Params, 2)
		assert.Equal(t, "markdown", req.Params[1].Format)
	})
}

func TestUserInput(t *testing.T) {
	ctx := context.Background()

	t.Run("Forwards Question And Answer", func(t *testing.T) {
		var asked string
		tool := NewUserInput(func(_ context.Context, question string) (string, error) {
			asked = question
			return "blue", nil
		})
		result, err := tool.Invoke(ctx, map[string]any{"question": "favorite color?"}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, "favorite color?", asked)
		assert.Equal(t, "blue", result)
	})

	t.Run("No Prompter Is Tool Visible", func(t *testing.T) {
		tool := NewUserInput(nil)
		_, err := tool.Invoke(ctx, map[string]any{"question": "anyone there?"}, ports.NopSink{})
		var te *domain.ToolError
		require.ErrorAs(t, err, &te)
	})
}
