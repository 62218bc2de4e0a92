package ports

import (
	"context"

	"github.com/aretw0/skein/pkg/domain"
)

// ToolSpec is the shape of a tool advertised to the model.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// StreamChunk is one item of a streamed model response: a partial message
// or a terminal error. A nil Message with a nil Err marks the end of the
// stream.
type StreamChunk struct {
	Message *domain.Message
	Err     error
}

// ChatModel is the external chat-model capability. Retry and timeout
// policy belongs to implementations; the engine adds none of its own.
type ChatModel interface {
	// Name identifies the bound model for usage accounting.
	Name() string

	// Invoke runs a full completion over the history.
	Invoke(ctx context.Context, history []*domain.Message) (*domain.Message, error)

	// Stream runs a completion delivering partial messages on the returned
	// channel. The channel is closed when the response is complete.
	Stream(ctx context.Context, history []*domain.Message) (<-chan StreamChunk, error)

	// BindTools returns a client that advertises the given tools. The
	// receiver is unchanged.
	BindTools(tools []ToolSpec) ChatModel
}
