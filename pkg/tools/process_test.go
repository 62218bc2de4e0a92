package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

func TestProcessInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("Captures Stdout", func(t *testing.T) {
		p := NewProcess("hello", "Prints a greeting", "sh", []string{"-c", "echo hello"})
		result, err := p.Invoke(ctx, nil, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, "hello", result)
	})

	t.Run("Arguments As Environment", func(t *testing.T) {
		p := NewProcess("greet", "Greets by name", "sh", []string{"-c", `echo "hi $SKEIN_ARG_NAME"`})
		result, err := p.Invoke(ctx, map[string]any{"name": "ada"}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, "hi ada", result)
	})

	t.Run("JSON Output Is Structured", func(t *testing.T) {
		p := NewProcess("stats", "Emits stats", "sh", []string{"-c", `echo '{"count": 3}'`})
		result, err := p.Invoke(ctx, nil, ports.NopSink{})
		require.NoError(t, err)
		m, ok := result.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(3), m["count"])
	})

	t.Run("Failure Is Tool Visible", func(t *testing.T) {
		p := NewProcess("boom", "Always fails", "sh", []string{"-c", "echo nope >&2; exit 3"})
		_, err := p.Invoke(ctx, nil, ports.NopSink{})
		require.Error(t, err)
		var te *domain.ToolError
		require.ErrorAs(t, err, &te)
		assert.Contains(t, te.Error(), "nope")
	})
}

func TestProcessConfirmation(t *testing.T) {
	p := NewProcess("deploy", "Deploys", "sh", []string{"-c", "true"})
	assert.True(t, p.NeedsConfirmation(nil))

	req := p.ConfirmationRequest(map[string]any{"env": "prod"})
	require.NotNil(t, req)
	assert.Contains(t, req.Action, "Run command sh")

	quiet := NewProcess("date", "Prints the date", "date", nil, WithoutConfirmation())
	assert.False(t, quiet.NeedsConfirmation(nil))
}
