package domain

import (
	"encoding/json"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Block kinds for assistant content.
const (
	BlockText      = "text"
	BlockReasoning = "reasoning"
)

// RedactedContent replaces the content of confidential assistant messages
// in the copy of the history sent to the model.
const RedactedContent = "[CONFIDENTIAL]"

// ContentBlock is one piece of assistant content. Assistant messages may
// interleave visible text with model reasoning; other roles carry a single
// text block.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCall is a request by the model to invoke a named tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is a role-tagged conversation item. Assistant messages may carry
// tool calls and usage metadata; tool messages reference the call they
// answer via ToolCallID.
type Message struct {
	ID           string         `json:"id,omitempty"`
	Role         Role           `json:"role"`
	Blocks       []ContentBlock `json:"blocks,omitempty"`
	ToolCalls    []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID   string         `json:"tool_call_id,omitempty"`
	ToolName     string         `json:"tool_name,omitempty"`
	Usage        *TokenUsage    `json:"usage,omitempty"`
	Confidential bool           `json:"confidential,omitempty"`
}

// NewSystemMessage builds a system message.
func NewSystemMessage(text string) *Message {
	return &Message{Role: RoleSystem, Blocks: textBlocks(text)}
}

// NewHumanMessage builds a human message.
func NewHumanMessage(text string) *Message {
	return &Message{Role: RoleHuman, Blocks: textBlocks(text)}
}

// NewAssistantMessage builds an assistant message with a single text block.
func NewAssistantMessage(text string) *Message {
	return &Message{Role: RoleAssistant, Blocks: textBlocks(text)}
}

// NewToolMessage builds a tool-result message answering the given call.
func NewToolMessage(content, toolCallID, toolName string) *Message {
	return &Message{
		Role:       RoleTool,
		Blocks:     textBlocks(content),
		ToolCallID: toolCallID,
		ToolName:   toolName,
	}
}

func textBlocks(text string) []ContentBlock {
	return []ContentBlock{{Type: BlockText, Text: text}}
}

// Text concatenates the message's visible text blocks, skipping reasoning.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, b := range m.Blocks {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Clone returns a shallow copy with independent block and tool-call slices.
func (m *Message) Clone() *Message {
	out := *m
	out.Blocks = append([]ContentBlock(nil), m.Blocks...)
	out.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	if m.Usage != nil {
		u := *m.Usage
		out.Usage = &u
	}
	return &out
}

// Redacted returns a copy whose content is replaced by the redaction marker.
// The copy keeps role, id, and tool calls so the conversation shape replayed
// to the model stays valid.
func (m *Message) Redacted() *Message {
	out := m.Clone()
	out.Blocks = textBlocks(RedactedContent)
	return out
}

// Merge folds a streamed partial message into m. Content is merged
// additively: a block with the same index as the last block of the same type
// is concatenated, otherwise the block is appended. The message id is
// carried from the first chunk that has one. Tool calls and usage are taken
// from whichever chunk supplies them.
func (m *Message) Merge(chunk *Message) {
	if chunk == nil {
		return
	}
	if m.ID == "" {
		m.ID = chunk.ID
	}
	if m.Role == "" {
		m.Role = chunk.Role
	}
	for _, b := range chunk.Blocks {
		n := len(m.Blocks)
		if n > 0 && m.Blocks[n-1].Type == b.Type {
			m.Blocks[n-1].Text += b.Text
			continue
		}
		m.Blocks = append(m.Blocks, b)
	}
	if len(chunk.ToolCalls) > 0 {
		m.ToolCalls = append(m.ToolCalls, chunk.ToolCalls...)
	}
	if chunk.Usage != nil {
		if m.Usage == nil {
			m.Usage = &TokenUsage{}
		}
		m.Usage.Add(*chunk.Usage)
	}
	if chunk.Confidential {
		m.Confidential = true
	}
}

// MarshalContent renders an arbitrary tool result as message content:
// strings pass through, everything else is JSON-encoded.
func MarshalContent(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "<unserializable result>"
	}
	return string(data)
}
