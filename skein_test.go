package skein

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/worker"
)

const calculatorScript = `
models:
  - name: main
    provider: anthropic
    model: claude-sonnet-4-20250514

shared:
  greeting: Hello

tools:
  - name: sum
    description: Add two numbers
    input:
      - name: a
        type: number
      - name: b
        type: number
    body:
      eval: ${a + b}

chat:
  model: main
  system_message: ${greeting}, you are a calculator.
  default_prompt: What can you do?
`

type scriptedModel struct {
	responses []*domain.Message
	histories [][]*domain.Message
	specs     []ports.ToolSpec
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Invoke(_ context.Context, history []*domain.Message) (*domain.Message, error) {
	m.histories = append(m.histories, append([]*domain.Message(nil), history...))
	if len(m.responses) == 0 {
		return nil, nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func (m *scriptedModel) Stream(ctx context.Context, history []*domain.Message) (<-chan ports.StreamChunk, error) {
	msg, err := m.Invoke(ctx, history)
	if err != nil {
		return nil, err
	}
	ch := make(chan ports.StreamChunk, 1)
	ch <- ports.StreamChunk{Message: msg}
	close(ch)
	return ch, nil
}

func (m *scriptedModel) BindTools(tools []ports.ToolSpec) ports.ChatModel {
	m.specs = tools
	return m
}

func TestEngineRun(t *testing.T) {
	model := &scriptedModel{responses: []*domain.Message{
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
			{ID: "c1", Name: "sum", Args: map[string]any{"a": 13, "b": 29}},
		}},
		domain.NewAssistantMessage("The answer is 42."),
	}}

	eng, err := Parse([]byte(calculatorScript), WithModel(model))
	require.NoError(t, err)

	produced, err := eng.Run(context.Background(), []*domain.Message{
		domain.NewHumanMessage("What is 13 + 29?"),
	}, worker.NopEvents{})
	require.NoError(t, err)

	require.Len(t, produced, 3)
	assert.Equal(t, domain.RoleAssistant, produced[0].Role)
	assert.Equal(t, domain.RoleTool, produced[1].Role)
	assert.Equal(t, "42", produced[1].Text())
	assert.Equal(t, "The answer is 42.", produced[2].Text())

	// The system message is rendered against the script scope and
	// prepended without being part of the caller's history.
	require.NotEmpty(t, model.histories)
	first := model.histories[0]
	require.NotEmpty(t, first)
	assert.Equal(t, domain.RoleSystem, first[0].Role)
	assert.Equal(t, "Hello, you are a calculator.", first[0].Text())
}

func TestEngineAccessors(t *testing.T) {
	eng, err := Parse([]byte(calculatorScript), WithModel(&scriptedModel{}))
	require.NoError(t, err)

	assert.Equal(t, "Hello, you are a calculator.", eng.SystemMessage())
	assert.Equal(t, "What can you do?", eng.DefaultPrompt())

	names := eng.Registry().Names()
	assert.Contains(t, names, "sum")
	assert.Contains(t, names, "read_file")
	assert.Contains(t, names, "write_file")
}

func TestEngineUnknownProvider(t *testing.T) {
	bad := `
models:
  - name: main
    provider: acme
    model: acme-1
chat:
  model: main
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestEngineBadScript(t *testing.T) {
	_, err := Parse([]byte("tools: {not: a list}"))
	require.Error(t, err)
}
