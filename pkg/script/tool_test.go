package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/expr"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/registry"
)

func calcToolConfig() ToolConfig {
	return ToolConfig{
		Name:        "calc",
		Description: "Adds two numbers",
		Input: []ParamConfig{
			{Name: "a", Type: "number"},
			{Name: "b", Type: "number", Default: float64(1)},
		},
		Body: map[string]any{"eval": "${a + b}"},
	}
}

func TestBuildTool(t *testing.T) {
	root := expr.NewContext(nil).Freeze()

	t.Run("Schema Reflects Parameters", func(t *testing.T) {
		tool, err := BuildTool(calcToolConfig(), registry.New(), root)
		require.NoError(t, err)
		schema := tool.InputSchema()
		assert.Equal(t, "object", schema["type"])
		props, ok := schema["properties"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, props, "a")
		assert.Contains(t, props, "b")
		assert.Equal(t, []string{"a"}, schema["required"])
	})

	t.Run("Requires Name And Body", func(t *testing.T) {
		_, err := BuildTool(ToolConfig{Body: map[string]any{"eval": "x"}}, registry.New(), root)
		require.Error(t, err)
		_, err = BuildTool(ToolConfig{Name: "empty"}, registry.New(), root)
		require.Error(t, err)
	})

	t.Run("Rejects Unknown Parameter Type", func(t *testing.T) {
		cfg := calcToolConfig()
		cfg.Input[0].Type = "integer"
		_, err := BuildTool(cfg, registry.New(), root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown type")
	})

	t.Run("Flags Carry Through", func(t *testing.T) {
		cfg := calcToolConfig()
		cfg.ReturnDirect = true
		cfg.Confidential = true
		cfg.RequireConfirmation = true
		tool, err := BuildTool(cfg, registry.New(), root)
		require.NoError(t, err)
		assert.True(t, tool.ReturnDirect())
		assert.True(t, tool.Confidential())
		assert.True(t, tool.NeedsConfirmation(nil))
	})
}

func TestToolInvoke(t *testing.T) {
	ctx := context.Background()
	root := expr.NewContext(nil).Freeze()

	t.Run("Binds Arguments", func(t *testing.T) {
		tool, err := BuildTool(calcToolConfig(), registry.New(), root)
		require.NoError(t, err)
		result, err := tool.Invoke(ctx, map[string]any{"a": float64(13), "b": float64(29)}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, float64(42), result)
	})

	t.Run("Applies Defaults", func(t *testing.T) {
		tool, err := BuildTool(calcToolConfig(), registry.New(), root)
		require.NoError(t, err)
		result, err := tool.Invoke(ctx, map[string]any{"a": float64(41)}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, float64(42), result)
	})

	t.Run("Missing Required Parameter", func(t *testing.T) {
		tool, err := BuildTool(calcToolConfig(), registry.New(), root)
		require.NoError(t, err)
		_, err = tool.Invoke(ctx, map[string]any{"b": float64(2)}, ports.NopSink{})
		var te *domain.ToolError
		require.ErrorAs(t, err, &te)
		assert.Contains(t, err.Error(), "missing required parameter")
	})

	t.Run("Wrong Type Rejected", func(t *testing.T) {
		tool, err := BuildTool(calcToolConfig(), registry.New(), root)
		require.NoError(t, err)
		_, err = tool.Invoke(ctx, map[string]any{"a": "not a number"}, ports.NopSink{})
		var te *domain.ToolError
		require.ErrorAs(t, err, &te)
	})

	t.Run("Unexpected Parameter Rejected", func(t *testing.T) {
		tool, err := BuildTool(calcToolConfig(), registry.New(), root)
		require.NoError(t, err)
		_, err = tool.Invoke(ctx, map[string]any{"a": float64(1), "c": float64(2)}, ports.NopSink{})
		var te *domain.ToolError
		require.ErrorAs(t, err, &te)
	})

	t.Run("Invocations Are Isolated", func(t *testing.T) {
		cfg := ToolConfig{
			Name:  "remember",
			Input: []ParamConfig{{Name: "v", Type: "number"}},
			Body: []any{
				map[string]any{"eval": "${v}", "store_as": "kept"},
				map[string]any{"eval": "${kept}"},
			},
		}
		tool, err := BuildTool(cfg, registry.New(), root)
		require.NoError(t, err)
		first, err := tool.Invoke(ctx, map[string]any{"v": float64(1)}, ports.NopSink{})
		require.NoError(t, err)
		second, err := tool.Invoke(ctx, map[string]any{"v": float64(2)}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, float64(1), first)
		assert.Equal(t, float64(2), second)
	})

	t.Run("Sees Script Scope", func(t *testing.T) {
		scoped := expr.NewContext(map[string]any{"greeting": "hello"}).Freeze()
		cfg := ToolConfig{
			Name: "greet",
			Body: map[string]any{"eval": "${greeting}"},
		}
		tool, err := BuildTool(cfg, registry.New(), scoped)
		require.NoError(t, err)
		result, err := tool.Invoke(ctx, map[string]any{}, ports.NopSink{})
		require.NoError(t, err)
		assert.Equal(t, "hello", result)
	})

	t.Run("Nested Tool Runs Link To Parent", func(t *testing.T) {
		reg := registry.New()
		reg.Register(sumTool())
		inner, err := BuildTool(ToolConfig{
			Name: "twice",
			Input: []ParamConfig{
				{Name: "n", Type: "number"},
			},
			Body: map[string]any{"call": "sum", "params": map[string]any{"a": "${n}", "b": "${n}"}},
		}, reg, root)
		require.NoError(t, err)
		reg.Register(inner)

		outer, err := BuildTool(ToolConfig{
			Name: "quad",
			Input: []ParamConfig{
				{Name: "n", Type: "number"},
			},
			Body: []any{
				map[string]any{"call": "twice", "params": map[string]any{"n": "${n}"}, "store_as": "d"},
				map[string]any{"call": "twice", "params": map[string]any{"n": "${d}"}},
			},
		}, reg, root)
		require.NoError(t, err)

		sink := &recordingSink{}
		result, err := ports.RunTool(ctx, outer, map[string]any{"n": float64(2)}, sink)
		require.NoError(t, err)
		assert.Equal(t, float64(8), result)

		types := make([]domain.NotificationType, 0, len(sink.notes))
		for _, n := range sink.notes {
			types = append(types, n.Type)
		}
		assert.Equal(t, []domain.NotificationType{
			domain.NotifyToolStart, // quad
			domain.NotifyToolStart, // twice
			domain.NotifyToolStart, // sum
			domain.NotifyToolEnd,
			domain.NotifyToolEnd,
			domain.NotifyToolStart, // twice again
			domain.NotifyToolStart, // sum
			domain.NotifyToolEnd,
			domain.NotifyToolEnd,
			domain.NotifyToolEnd, // quad
		}, types)

		outerStart := sink.notes[0]
		firstTwice := sink.notes[1]
		firstSum := sink.notes[2]
		assert.Empty(t, outerStart.ParentRunID)
		assert.Equal(t, outerStart.RunID, firstTwice.ParentRunID)
		assert.Equal(t, firstTwice.RunID, firstSum.ParentRunID)
	})
}
