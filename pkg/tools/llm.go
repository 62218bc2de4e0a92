package tools

import (
	"context"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/worker"
)

type llmArgs struct {
	Prompt string `json:"prompt" jsonschema:"required,description=Prompt for the model"`
}

// LLM exposes a chat model as a tool: the caller's prompt becomes a
// fresh one-shot conversation and the final assistant text is the tool
// result. Nested notifications and token usage flow up through the
// sink, so callers see the inner run's progress in order.
type LLM struct {
	ports.ToolBase
	worker *worker.Worker
	system string
}

// LLMOption configures an LLM tool.
type LLMOption func(*LLM)

// WithSystemPrompt prefixes every nested conversation with a system
// message.
func WithSystemPrompt(system string) LLMOption {
	return func(t *LLM) { t.system = system }
}

// WithConfidential marks the tool's results confidential.
func WithConfidential() LLMOption {
	return func(t *LLM) { t.Secret = true }
}

// NewLLM creates a model-as-tool over the given model and nested tool
// set. The nested worker shares nothing with the outer conversation.
func NewLLM(name, description string, model ports.ChatModel, nested []ports.Tool, opts ...LLMOption) *LLM {
	t := &LLM{
		ToolBase: ports.ToolBase{
			ToolName:        name,
			ToolDescription: description,
			Schema:          schemaFor(&llmArgs{}),
		},
		worker: worker.New(model, nested),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *LLM) Invoke(ctx context.Context, args map[string]any, sink ports.RunSink) (any, error) {
	var in llmArgs
	if err := decodeArgs(t.Name(), args, &in); err != nil {
		return nil, err
	}

	var history []*domain.Message
	if t.system != "" {
		history = append(history, domain.NewSystemMessage(t.system))
	}
	history = append(history, domain.NewHumanMessage(in.Prompt))

	produced, err := t.worker.Run(ctx, history, sinkEvents{sink})
	if err != nil {
		return nil, err
	}
	for i := len(produced) - 1; i >= 0; i-- {
		if produced[i].Role == domain.RoleAssistant {
			return produced[i].Text(), nil
		}
	}
	return nil, domain.ErrNoModelResponse
}

// sinkEvents forwards a nested run's notifications and usage to the
// outer sink; the inner messages themselves stay internal.
type sinkEvents struct {
	ports.RunSink
}

func (sinkEvents) Message(*domain.Message) {}
