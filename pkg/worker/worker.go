package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/skein/internal/logging"
	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/expr"
	"github.com/aretw0/skein/pkg/ports"
)

// Events receives everything a run produces: completed messages plus the
// notification and usage traffic of a RunSink. Implementations are called
// from the run's goroutine only.
type Events interface {
	ports.RunSink

	// Message delivers a completed message in conversation order.
	Message(*domain.Message)
}

// NopEvents discards all run output.
type NopEvents struct{ ports.NopSink }

func (NopEvents) Message(*domain.Message) {}

// Steering messages synthesized for tool calls that never executed.
const (
	cancelledResult  = "Tool call was cancelled by the user."
	directOnlyResult = "This tool presents its result directly to the user and must be called on its own. Call it again in a separate turn without any other tool."
	directShown      = "Result was shown directly to the user."
)

// Worker drives one conversation against a chat model and a tool set.
type Worker struct {
	model     ports.ChatModel
	bound     ports.ChatModel
	tools     map[string]ports.Tool
	toolOrder []ports.Tool
	confirmer ports.Confirmer
	usage     *domain.UsageTracker
	logger    *slog.Logger
	streaming bool
}

// Option configures a Worker.
type Option func(*Worker)

// WithConfirmer installs the approval gate for confirmation-gated tools.
// Without one, every confirmation is treated as approved.
func WithConfirmer(c ports.Confirmer) Option {
	return func(w *Worker) { w.confirmer = c }
}

// WithUsageTracker accumulates per-model token usage across runs.
func WithUsageTracker(t *domain.UsageTracker) Option {
	return func(w *Worker) { w.usage = t }
}

// WithLogger sets the worker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithStreaming toggles streamed model calls. Streaming re-emits partial
// content as output and reasoning chunk notifications.
func WithStreaming(streaming bool) Option {
	return func(w *Worker) { w.streaming = streaming }
}

// New creates a worker over the given model and tools. The model is
// bound to the tool set immediately.
func New(model ports.ChatModel, tools []ports.Tool, opts ...Option) *Worker {
	w := &Worker{
		tools:     make(map[string]ports.Tool, len(tools)),
		toolOrder: tools,
		confirmer: ports.ApproveAllConfirmer,
		usage:     domain.NewUsageTracker(),
		logger:    logging.NewNop(),
	}
	for _, t := range tools {
		w.tools[t.Name()] = t
	}
	for _, opt := range opts {
		opt(w)
	}
	w.bind(model)
	return w
}

// SetModel hot-swaps the active chat model, rebinding the same tool set
// against the new model. Safe between runs, not during one.
func (w *Worker) SetModel(model ports.ChatModel) {
	w.bind(model)
	w.logger.Info("model swapped", "model", model.Name())
}

// Model returns the currently active (unbound) chat model.
func (w *Worker) Model() ports.ChatModel { return w.model }

// Usage exposes the worker's token usage tracker.
func (w *Worker) Usage() *domain.UsageTracker { return w.usage }

func (w *Worker) bind(model ports.ChatModel) {
	specs := make([]ports.ToolSpec, 0, len(w.toolOrder))
	for _, t := range w.toolOrder {
		specs = append(specs, ports.Spec(t))
	}
	w.model = model
	w.bound = model.BindTools(specs)
}

// Run executes model turns over the history until the model answers
// without tool calls, a direct-return tool ends the turn, or a
// confirmation is denied. It returns the messages produced by this run,
// in order; each is also delivered through events as it completes.
func (w *Worker) Run(ctx context.Context, history []*domain.Message, events Events) ([]*domain.Message, error) {
	if events == nil {
		events = NopEvents{}
	}
	msgs := append([]*domain.Message(nil), history...)
	var produced []*domain.Message

	emit := func(m *domain.Message) {
		produced = append(produced, m)
		msgs = append(msgs, m)
		events.Message(m)
	}

	for {
		if err := ctx.Err(); err != nil {
			return produced, err
		}
		assistant, err := w.think(ctx, msgs, events)
		if err != nil {
			return produced, err
		}
		emit(assistant)

		if !assistant.HasToolCalls() {
			return produced, nil
		}

		outcome, err := w.handleToolCalls(ctx, assistant.ToolCalls, events)
		if err != nil {
			return produced, err
		}
		for _, tm := range outcome.toolMessages {
			emit(tm)
		}
		if outcome.direct != nil {
			emit(outcome.direct)
			return produced, nil
		}
		if outcome.cancelled {
			return produced, nil
		}
	}
}

// think performs one model call over the history, bracketed by thinking
// notifications. Confidential assistant messages are redacted in the
// copy sent to the model.
func (w *Worker) think(ctx context.Context, msgs []*domain.Message, events Events) (*domain.Message, error) {
	events.Notify(domain.ThinkingStart())
	defer events.Notify(domain.ThinkingEnd())

	modelHistory := redactConfidential(msgs)
	var assistant *domain.Message
	var err error
	if w.streaming {
		assistant, err = w.streamModel(ctx, modelHistory, events)
	} else {
		assistant, err = w.bound.Invoke(ctx, modelHistory)
	}
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}
	if assistant == nil || (len(assistant.Blocks) == 0 && !assistant.HasToolCalls()) {
		return nil, domain.ErrNoModelResponse
	}
	if assistant.ID == "" {
		assistant.ID = uuid.NewString()
	}
	assistant.Role = domain.RoleAssistant
	if assistant.Usage != nil {
		w.usage.Record(w.model.Name(), *assistant.Usage)
		events.RecordUsage(w.model.Name(), *assistant.Usage)
	}
	return assistant, nil
}

// streamModel consumes the model's chunk stream, merging partials into
// one message and re-emitting each content fragment as an indexed
// output or reasoning chunk notification.
func (w *Worker) streamModel(ctx context.Context, history []*domain.Message, events Events) (*domain.Message, error) {
	chunks, err := w.bound.Stream(ctx, history)
	if err != nil {
		return nil, err
	}
	merged := &domain.Message{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				if len(merged.Blocks) == 0 && !merged.HasToolCalls() {
					return nil, domain.ErrNoModelResponse
				}
				return merged, nil
			}
			if chunk.Err != nil {
				return nil, chunk.Err
			}
			if chunk.Message == nil {
				continue
			}
			before := len(merged.Blocks)
			merged.Merge(chunk.Message)
			w.notifyChunks(merged, chunk.Message, before, events)
		}
	}
}

func (w *Worker) notifyChunks(merged, chunk *domain.Message, blocksBefore int, events Events) {
	if len(chunk.Blocks) == 0 {
		return
	}
	// The chunk's first fragment may have been folded into the block at
	// blocksBefore-1; every later fragment opened a new block.
	index := blocksBefore - 1
	if index < 0 || len(merged.Blocks) == blocksBefore+len(chunk.Blocks) {
		index = blocksBefore
	}
	for i, b := range chunk.Blocks {
		if b.Text == "" {
			continue
		}
		switch b.Type {
		case domain.BlockReasoning:
			events.Notify(domain.AiReasoningChunk(merged.ID, index+i, b.Text))
		default:
			events.Notify(domain.AiOutputChunk(merged.ID, index+i, b.Text))
		}
	}
}

// batchOutcome is what one tool-call batch produced.
type batchOutcome struct {
	toolMessages []*domain.Message
	// direct is the synthetic assistant message merging every
	// return_direct result, nil when the batch had none.
	direct *domain.Message
	// cancelled is set when a denied confirmation cancelled the batch.
	cancelled bool
}

func (w *Worker) handleToolCalls(ctx context.Context, calls []domain.ToolCall, events Events) (batchOutcome, error) {
	approved, err := w.screenConfirmations(ctx, calls)
	if err != nil {
		return batchOutcome{}, err
	}
	if !approved {
		w.logger.Info("tool batch cancelled by user", "calls", len(calls))
		out := batchOutcome{cancelled: true}
		for _, call := range calls {
			out.toolMessages = append(out.toolMessages, domain.NewToolMessage(cancelledResult, call.ID, call.Name))
		}
		return out, nil
	}

	rejectDirect := mixesDirectAndPlain(calls, w.tools)
	type directResult struct {
		text         string
		confidential bool
	}
	var directs []directResult
	var out batchOutcome

	for _, call := range calls {
		tool, known := w.tools[call.Name]
		if !known {
			w.logger.Warn("model requested unknown tool", "tool", call.Name)
			msg := fmt.Sprintf("Tool error: unknown tool %q.", call.Name)
			out.toolMessages = append(out.toolMessages, domain.NewToolMessage(msg, call.ID, call.Name))
			continue
		}
		if rejectDirect && tool.ReturnDirect() {
			out.toolMessages = append(out.toolMessages, domain.NewToolMessage(directOnlyResult, call.ID, call.Name))
			continue
		}

		collector := &usageCollector{next: events}
		result, err := ports.RunTool(ctx, tool, call.Args, collector)
		if err != nil {
			if !toolVisible(err) || ctx.Err() != nil {
				return batchOutcome{}, err
			}
			w.logger.Warn("tool failed", "tool", call.Name, "err", err)
			result = fmt.Sprintf("Tool error: %s", err)
		}

		var tm *domain.Message
		if tool.ReturnDirect() {
			directs = append(directs, directResult{
				text:         domain.MarshalContent(result),
				confidential: tool.Confidential(),
			})
			tm = domain.NewToolMessage(directShown, call.ID, call.Name)
		} else {
			// A confidential tool only shields the direct-result merge;
			// its plain result must stay visible to the model.
			tm = domain.NewToolMessage(domain.MarshalContent(result), call.ID, call.Name)
		}
		if !collector.total.IsZero() {
			u := collector.total
			tm.Usage = &u
		}
		out.toolMessages = append(out.toolMessages, tm)
	}

	if len(directs) > 0 {
		texts := make([]string, 0, len(directs))
		confidential := false
		for _, d := range directs {
			texts = append(texts, d.text)
			confidential = confidential || d.confidential
		}
		direct := domain.NewAssistantMessage(strings.Join(texts, "\n\n"))
		direct.ID = uuid.NewString()
		direct.Confidential = confidential
		out.direct = direct
	}
	return out, nil
}

// screenConfirmations gathers the confirmation requests of the batch and
// runs one approval round trip. It reports whether the batch may
// execute; any denial cancels every call.
func (w *Worker) screenConfirmations(ctx context.Context, calls []domain.ToolCall) (bool, error) {
	var reqs []domain.ConfirmationRequest
	for _, call := range calls {
		tool, known := w.tools[call.Name]
		if !known || !tool.NeedsConfirmation(call.Args) {
			continue
		}
		req := tool.ConfirmationRequest(call.Args)
		if req == nil {
			req = genericConfirmationRequest(call)
		}
		req.CallID = call.ID
		reqs = append(reqs, *req)
	}
	if len(reqs) == 0 {
		return true, nil
	}
	resp, err := w.confirmer.Confirm(ctx, reqs)
	if err != nil {
		return false, fmt.Errorf("confirmation: %w", err)
	}
	for _, req := range reqs {
		if !resp.Approved(req.CallID) {
			return false, nil
		}
	}
	return true, nil
}

func genericConfirmationRequest(call domain.ToolCall) *domain.ConfirmationRequest {
	req := &domain.ConfirmationRequest{Action: fmt.Sprintf("Run tool %s", call.Name)}
	for name, value := range call.Args {
		req.Params = append(req.Params, domain.ConfirmationParam{Name: name, Value: value})
	}
	return req
}

func mixesDirectAndPlain(calls []domain.ToolCall, tools map[string]ports.Tool) bool {
	direct, plain := false, false
	for _, call := range calls {
		tool, known := tools[call.Name]
		if !known {
			continue
		}
		if tool.ReturnDirect() {
			direct = true
		} else {
			plain = true
		}
	}
	return direct && plain
}

// toolVisible reports whether an error is part of the documented
// tool-error path and may be surfaced to the model as result content.
// Anything else is fatal for the run.
func toolVisible(err error) bool {
	var toolErr *domain.ToolError
	var evalErr *expr.EvalError
	var nameErr *expr.UndefinedNameError
	var unknownErr *domain.UnknownToolError
	return errors.As(err, &toolErr) ||
		errors.As(err, &evalErr) ||
		errors.As(err, &nameErr) ||
		errors.As(err, &unknownErr)
}

// redactConfidential replaces confidential assistant content in the copy
// of the history bound for the model. The caller's messages are left
// untouched.
func redactConfidential(msgs []*domain.Message) []*domain.Message {
	out := make([]*domain.Message, len(msgs))
	for i, m := range msgs {
		if m.Role == domain.RoleAssistant && m.Confidential {
			out[i] = m.Redacted()
		} else {
			out[i] = m
		}
	}
	return out
}

// usageCollector forwards to the run's events while accumulating the
// usage of nested model calls, so it can be attached to the tool message.
type usageCollector struct {
	next  ports.RunSink
	total domain.TokenUsage
}

func (c *usageCollector) Notify(n domain.Notification) { c.next.Notify(n) }

func (c *usageCollector) RecordUsage(model string, usage domain.TokenUsage) {
	c.total.Add(usage)
	c.next.RecordUsage(model, usage)
}
