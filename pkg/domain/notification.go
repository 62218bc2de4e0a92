package domain

// NotificationType identifies the kind of a progress notification.
type NotificationType string

const (
	NotifyThinkingStart    NotificationType = "thinking_start"
	NotifyThinkingEnd      NotificationType = "thinking_end"
	NotifyAiOutputChunk    NotificationType = "ai_output_chunk"
	NotifyAiReasoningChunk NotificationType = "ai_reasoning_chunk"
	NotifyToolStart        NotificationType = "tool_start"
	NotifyToolEnd          NotificationType = "tool_end"
)

// Notification is a typed progress event emitted during worker and tool
// execution. Only the fields relevant to the type are populated.
type Notification struct {
	Type        NotificationType `json:"type"`
	MessageID   string           `json:"message_id,omitempty"`
	Index       int              `json:"index,omitempty"`
	Text        string           `json:"text,omitempty"`
	RunID       string           `json:"run_id,omitempty"`
	ParentRunID string           `json:"parent_run_id,omitempty"`
}

// ThinkingStart marks the beginning of a model call.
func ThinkingStart() Notification {
	return Notification{Type: NotifyThinkingStart}
}

// ThinkingEnd marks the completion of a model call.
func ThinkingEnd() Notification {
	return Notification{Type: NotifyThinkingEnd}
}

// AiOutputChunk carries a fragment of streamed assistant output.
func AiOutputChunk(messageID string, index int, text string) Notification {
	return Notification{Type: NotifyAiOutputChunk, MessageID: messageID, Index: index, Text: text}
}

// AiReasoningChunk carries a fragment of streamed model reasoning.
func AiReasoningChunk(messageID string, index int, text string) Notification {
	return Notification{Type: NotifyAiReasoningChunk, MessageID: messageID, Index: index, Text: text}
}

// ToolStart marks the beginning of a tool run. ParentRunID links nested runs
// to the run that spawned them.
func ToolStart(text, runID, parentRunID string) Notification {
	return Notification{Type: NotifyToolStart, Text: text, RunID: runID, ParentRunID: parentRunID}
}

// ToolEnd marks the completion of the tool run with the given id.
func ToolEnd(runID string) Notification {
	return Notification{Type: NotifyToolEnd, RunID: runID}
}
