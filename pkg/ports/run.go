package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/aretw0/skein/pkg/domain"
)

// UIHinter lets a tool customize the text shown while it runs. Tools
// without it are announced by name.
type UIHinter interface {
	UIHint(args map[string]any) string
}

// RunTool invokes a tool bracketed by start and end notifications.
//
// Each run gets a fresh run id. The tool itself sees a sink scoped to
// that id, so any tool it invokes in turn is linked to this run through
// the parent run id. Start and end are emitted even when the tool fails.
func RunTool(ctx context.Context, tool Tool, args map[string]any, sink RunSink) (any, error) {
	hint := tool.Name()
	if h, ok := tool.(UIHinter); ok {
		hint = h.UIHint(args)
	}
	runID := uuid.NewString()
	sink.Notify(domain.ToolStart(hint, runID, ""))
	result, err := tool.Invoke(ctx, args, scopedSink{base: sink, runID: runID})
	sink.Notify(domain.ToolEnd(runID))
	return result, err
}

// scopedSink stamps the enclosing run id onto nested tool-start and
// tool-end notifications that have not been claimed by a deeper run.
type scopedSink struct {
	base  RunSink
	runID string
}

func (s scopedSink) Notify(n domain.Notification) {
	if (n.Type == domain.NotifyToolStart || n.Type == domain.NotifyToolEnd) && n.ParentRunID == "" {
		n.ParentRunID = s.runID
	}
	s.base.Notify(n)
}

func (s scopedSink) RecordUsage(model string, usage domain.TokenUsage) {
	s.base.RecordUsage(model, usage)
}
