// Package anthropic adapts the Anthropic Messages API to the engine's
// chat-model port.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

const defaultMaxTokens = 4096

// Model implements ports.ChatModel over the Anthropic SDK.
type Model struct {
	client      *sdk.Client
	model       string
	maxTokens   int64
	temperature *float64
	tools       []ports.ToolSpec
}

// Option configures a Model.
type Option func(*Model)

// WithMaxTokens overrides the response token limit.
func WithMaxTokens(n int64) Option {
	return func(m *Model) { m.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(m *Model) { m.temperature = &t }
}

// New creates a model client for the given Anthropic model name.
func New(apiKey, model string, opts ...Option) *Model {
	m := &Model{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name identifies the underlying model for usage accounting.
func (m *Model) Name() string { return m.model }

// BindTools returns a copy advertising the given tools.
func (m *Model) BindTools(tools []ports.ToolSpec) ports.ChatModel {
	bound := *m
	bound.tools = tools
	return &bound
}

// Invoke runs one completion over the history.
func (m *Model) Invoke(ctx context.Context, history []*domain.Message) (*domain.Message, error) {
	params, err := m.buildParams(history)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return convertResponse(resp)
}

// Stream satisfies the port by delivering the completed message as a
// single chunk. Incremental SSE decoding is not implemented for this
// provider yet.
func (m *Model) Stream(ctx context.Context, history []*domain.Message) (<-chan ports.StreamChunk, error) {
	ch := make(chan ports.StreamChunk, 1)
	go func() {
		defer close(ch)
		msg, err := m.Invoke(ctx, history)
		if err != nil {
			ch <- ports.StreamChunk{Err: err}
			return
		}
		ch <- ports.StreamChunk{Message: msg}
	}()
	return ch, nil
}

func (m *Model) buildParams(history []*domain.Message) (sdk.MessageNewParams, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.F(m.model),
		MaxTokens: sdk.Int(m.maxTokens),
	}
	if m.temperature != nil {
		params.Temperature = sdk.Float(*m.temperature)
	}

	var system []sdk.TextBlockParam
	var msgs []sdk.MessageParam
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
			system = append(system, sdk.NewTextBlock(msg.Text()))
		case domain.RoleHuman:
			msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(msg.Text())))
		case domain.RoleAssistant:
			msgs = append(msgs, assistantParam(msg))
		case domain.RoleTool:
			msgs = append(msgs, sdk.MessageParam{
				Role: sdk.F(sdk.MessageParamRoleUser),
				Content: sdk.F([]sdk.ContentBlockParamUnion{
					sdk.NewToolResultBlock(msg.ToolCallID, msg.Text(), false),
				}),
			})
		}
	}
	if len(system) > 0 {
		params.System = sdk.F(system)
	}
	params.Messages = sdk.F(msgs)

	if len(m.tools) > 0 {
		tools := make([]sdk.ToolUnionUnionParam, 0, len(m.tools))
		for _, t := range m.tools {
			tools = append(tools, sdk.ToolParam{
				Name:        sdk.F(t.Name),
				Description: sdk.F(t.Description),
				InputSchema: sdk.F[interface{}](t.InputSchema),
			})
		}
		params.Tools = sdk.F(tools)
	}
	return params, nil
}

func assistantParam(msg *domain.Message) sdk.MessageParam {
	var blocks []sdk.ContentBlockParamUnion
	if text := msg.Text(); text != "" {
		blocks = append(blocks, sdk.NewTextBlock(text))
	}
	for _, call := range msg.ToolCalls {
		blocks = append(blocks, sdk.ToolUseBlockParam{
			Type:  sdk.F(sdk.ToolUseBlockParamTypeToolUse),
			ID:    sdk.F(call.ID),
			Name:  sdk.F(call.Name),
			Input: sdk.F[interface{}](call.Args),
		})
	}
	return sdk.MessageParam{
		Role:    sdk.F(sdk.MessageParamRoleAssistant),
		Content: sdk.F(blocks),
	}
}

func convertResponse(resp *sdk.Message) (*domain.Message, error) {
	out := &domain.Message{
		ID:   resp.ID,
		Role: domain.RoleAssistant,
	}
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case sdk.TextBlock:
			out.Blocks = append(out.Blocks, domain.ContentBlock{Type: domain.BlockText, Text: b.Text})
		case sdk.ThinkingBlock:
			out.Blocks = append(out.Blocks, domain.ContentBlock{Type: domain.BlockReasoning, Text: b.Thinking})
		case sdk.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(b.Input, &args); err != nil {
				return nil, fmt.Errorf("anthropic: tool call %s has invalid arguments: %w", b.Name, err)
			}
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{ID: b.ID, Name: b.Name, Args: args})
		}
	}
	out.Usage = &domain.TokenUsage{
		Input:  int(resp.Usage.InputTokens),
		Output: int(resp.Usage.OutputTokens),
	}
	return out, nil
}
