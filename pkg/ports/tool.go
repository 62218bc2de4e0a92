package ports

import (
	"context"

	"github.com/aretw0/skein/pkg/domain"
)

// RunSink receives progress notifications and usage reports from an
// executing tool. Nested runs (a tool driving another model call) forward
// into the same sink so descendants' notifications surface in order.
type RunSink interface {
	// Notify forwards a progress notification to the caller.
	Notify(domain.Notification)

	// RecordUsage accounts tokens consumed by a nested model call.
	RecordUsage(model string, usage domain.TokenUsage)
}

// Tool is a callable capability exposed to the model and to scripts.
//
// Invoke yields progress through the sink and returns a JSON-compatible
// result or an error. Errors are tool-visible by default: the worker turns
// them into tool-result content rather than aborting the turn.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any

	// ReturnDirect marks tools whose output is shown to the user directly,
	// bypassing the model's context.
	ReturnDirect() bool

	// Confidential marks tools whose direct results yield a confidential
	// assistant message, redacted when history is replayed to the model.
	Confidential() bool

	// NeedsConfirmation reports whether this invocation requires user
	// approval before the batch may execute.
	NeedsConfirmation(args map[string]any) bool

	// ConfirmationRequest builds the approval prompt for an invocation.
	// A nil result makes the worker synthesize a generic request.
	ConfirmationRequest(args map[string]any) *domain.ConfirmationRequest

	Invoke(ctx context.Context, args map[string]any, sink RunSink) (any, error)
}

// ToolBase carries the common metadata of a Tool and supplies no-op
// confirmation behavior. Concrete tools embed it and implement Invoke.
type ToolBase struct {
	ToolName        string
	ToolDescription string
	Schema          map[string]any
	Direct          bool
	Secret          bool
	Confirm         bool
}

func (b *ToolBase) Name() string                { return b.ToolName }
func (b *ToolBase) Description() string         { return b.ToolDescription }
func (b *ToolBase) InputSchema() map[string]any { return b.Schema }
func (b *ToolBase) ReturnDirect() bool          { return b.Direct }
func (b *ToolBase) Confidential() bool          { return b.Secret }

// NeedsConfirmation defaults to the static per-tool flag.
func (b *ToolBase) NeedsConfirmation(map[string]any) bool { return b.Confirm }

// ConfirmationRequest defaults to nil: the worker synthesizes a generic
// request from the call arguments.
func (b *ToolBase) ConfirmationRequest(map[string]any) *domain.ConfirmationRequest { return nil }

// Spec returns the advertised shape of the tool.
func Spec(t Tool) ToolSpec {
	return ToolSpec{Name: t.Name(), Description: t.Description(), InputSchema: t.InputSchema()}
}

// NopSink discards notifications and usage; useful for tests and for
// invoking tools outside a conversation.
type NopSink struct{}

func (NopSink) Notify(domain.Notification)            {}
func (NopSink) RecordUsage(string, domain.TokenUsage) {}
