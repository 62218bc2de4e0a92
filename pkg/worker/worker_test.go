package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

// fakeState is shared between a fake model and its tool-bound copies.
type fakeState struct {
	responses []*domain.Message
	chunks    [][]ports.StreamChunk
	histories [][]*domain.Message
	specs     []ports.ToolSpec
	err       error
}

type fakeModel struct {
	name string
	st   *fakeState
}

func newFakeModel(responses ...*domain.Message) *fakeModel {
	return &fakeModel{name: "fake", st: &fakeState{responses: responses}}
}

func (m *fakeModel) Name() string { return m.name }

func (m *fakeModel) Invoke(_ context.Context, history []*domain.Message) (*domain.Message, error) {
	m.st.histories = append(m.st.histories, append([]*domain.Message(nil), history...))
	if m.st.err != nil {
		return nil, m.st.err
	}
	if len(m.st.responses) == 0 {
		return nil, nil
	}
	next := m.st.responses[0]
	m.st.responses = m.st.responses[1:]
	return next, nil
}

func (m *fakeModel) Stream(_ context.Context, history []*domain.Message) (<-chan ports.StreamChunk, error) {
	m.st.histories = append(m.st.histories, append([]*domain.Message(nil), history...))
	if len(m.st.chunks) == 0 {
		return nil, errors.New("no scripted chunks")
	}
	next := m.st.chunks[0]
	m.st.chunks = m.st.chunks[1:]
	ch := make(chan ports.StreamChunk, len(next))
	for _, c := range next {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (m *fakeModel) BindTools(tools []ports.ToolSpec) ports.ChatModel {
	m.st.specs = tools
	return &fakeModel{name: m.name, st: m.st}
}

// fakeTool is a configurable in-memory tool.
type fakeTool struct {
	ports.ToolBase
	result any
	err    error
	usage  *domain.TokenUsage
	calls  []map[string]any
}

func (t *fakeTool) Invoke(_ context.Context, args map[string]any, sink ports.RunSink) (any, error) {
	t.calls = append(t.calls, args)
	if t.usage != nil {
		sink.RecordUsage("nested", *t.usage)
	}
	return t.result, t.err
}

func echoTool() *fakeTool {
	return &fakeTool{
		ToolBase: ports.ToolBase{ToolName: "echo", Schema: map[string]any{"type": "object"}},
		result:   "echoed",
	}
}

// recorder captures the full ordered output of a run.
type recorder struct {
	messages []*domain.Message
	notes    []domain.Notification
	usage    map[string]domain.TokenUsage
}

func newRecorder() *recorder {
	return &recorder{usage: make(map[string]domain.TokenUsage)}
}

func (r *recorder) Message(m *domain.Message)    { r.messages = append(r.messages, m) }
func (r *recorder) Notify(n domain.Notification) { r.notes = append(r.notes, n) }

func (r *recorder) RecordUsage(model string, u domain.TokenUsage) {
	got := r.usage[model]
	got.Add(u)
	r.usage[model] = got
}

func (r *recorder) noteTypes() []domain.NotificationType {
	types := make([]domain.NotificationType, 0, len(r.notes))
	for _, n := range r.notes {
		types = append(types, n.Type)
	}
	return types
}

func assistantWithCalls(calls ...domain.ToolCall) *domain.Message {
	m := domain.NewAssistantMessage("")
	m.Blocks = nil
	m.ID = "a1"
	m.ToolCalls = calls
	return m
}

func TestRunPlainResponse(t *testing.T) {
	model := newFakeModel(domain.NewAssistantMessage("hello"))
	w := New(model, nil)
	rec := newRecorder()

	produced, err := w.Run(context.Background(), []*domain.Message{domain.NewHumanMessage("hi")}, rec)
	require.NoError(t, err)
	require.Len(t, produced, 1)
	assert.Equal(t, "hello", produced[0].Text())
	assert.Equal(t, domain.RoleAssistant, produced[0].Role)
	assert.NotEmpty(t, produced[0].ID)
	assert.Equal(t, produced, rec.messages)
	assert.Equal(t, []domain.NotificationType{
		domain.NotifyThinkingStart,
		domain.NotifyThinkingEnd,
	}, rec.noteTypes())
}

func TestRunToolCallLoop(t *testing.T) {
	echo := echoTool()
	model := newFakeModel(
		assistantWithCalls(domain.ToolCall{ID: "c1", Name: "echo", Args: map[string]any{"v": "x"}}),
		domain.NewAssistantMessage("done"),
	)
	w := New(model, []ports.Tool{echo})
	rec := newRecorder()

	produced, err := w.Run(context.Background(), []*domain.Message{domain.NewHumanMessage("go")}, rec)
	require.NoError(t, err)
	require.Len(t, produced, 3)
	assert.True(t, produced[0].HasToolCalls())
	assert.Equal(t, domain.RoleTool, produced[1].Role)
	assert.Equal(t, "echoed", produced[1].Text())
	assert.Equal(t, "c1", produced[1].ToolCallID)
	assert.Equal(t, "done", produced[2].Text())
	require.Len(t, echo.calls, 1)
	assert.Equal(t, map[string]any{"v": "x"}, echo.calls[0])

	// Second model call sees the tool result in its history.
	require.Len(t, model.st.histories, 2)
	last := model.st.histories[1]
	assert.Equal(t, domain.RoleTool, last[len(last)-1].Role)

	assert.Equal(t, []domain.NotificationType{
		domain.NotifyThinkingStart,
		domain.NotifyThinkingEnd,
		domain.NotifyToolStart,
		domain.NotifyToolEnd,
		domain.NotifyThinkingStart,
		domain.NotifyThinkingEnd,
	}, rec.noteTypes())
}

func TestRunUnknownTool(t *testing.T) {
	model := newFakeModel(
		assistantWithCalls(domain.ToolCall{ID: "c1", Name: "ghost"}),
		domain.NewAssistantMessage("recovered"),
	)
	w := New(model, nil)

	produced, err := w.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, produced, 3)
	assert.Contains(t, produced[1].Text(), `unknown tool "ghost"`)
	assert.Equal(t, "recovered", produced[2].Text())
}

func TestRunToolError(t *testing.T) {
	t.Run("Tool Visible Error Becomes Content", func(t *testing.T) {
		failing := &fakeTool{
			ToolBase: ports.ToolBase{ToolName: "fragile"},
			err:      &domain.ToolError{Tool: "fragile", Err: errors.New("disk full")},
		}
		model := newFakeModel(
			assistantWithCalls(domain.ToolCall{ID: "c1", Name: "fragile"}),
			domain.NewAssistantMessage("noted"),
		)
		w := New(model, []ports.Tool{failing})

		produced, err := w.Run(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Contains(t, produced[1].Text(), "Tool error:")
		assert.Contains(t, produced[1].Text(), "disk full")
	})

	t.Run("Unexpected Error Is Fatal", func(t *testing.T) {
		boom := errors.New("boom")
		failing := &fakeTool{ToolBase: ports.ToolBase{ToolName: "fragile"}, err: boom}
		model := newFakeModel(assistantWithCalls(domain.ToolCall{ID: "c1", Name: "fragile"}))
		w := New(model, []ports.Tool{failing})

		_, err := w.Run(context.Background(), nil, nil)
		require.ErrorIs(t, err, boom)
	})
}

func TestRunConfirmation(t *testing.T) {
	gated := func() *fakeTool {
		return &fakeTool{
			ToolBase: ports.ToolBase{ToolName: "deploy", Confirm: true},
			result:   "deployed",
		}
	}
	plain := func() *fakeTool {
		return &fakeTool{ToolBase: ports.ToolBase{ToolName: "status"}, result: "ok"}
	}
	batch := assistantWithCalls(
		domain.ToolCall{ID: "c1", Name: "deploy", Args: map[string]any{"env": "prod"}},
		domain.ToolCall{ID: "c2", Name: "status"},
	)

	t.Run("Denied Confirmation Cancels Whole Batch", func(t *testing.T) {
		deploy, status := gated(), plain()
		model := newFakeModel(batch.Clone())
		denier := ports.ConfirmerFunc(func(_ context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error) {
			return domain.ConfirmationResponse{}, nil
		})
		w := New(model, []ports.Tool{deploy, status}, WithConfirmer(denier))

		produced, err := w.Run(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, produced, 3)
		assert.Contains(t, produced[1].Text(), "cancelled")
		assert.Contains(t, produced[2].Text(), "cancelled")
		assert.Empty(t, deploy.calls)
		assert.Empty(t, status.calls)
		// The turn ends without another model call.
		assert.Len(t, model.st.histories, 1)
	})

	t.Run("Approval Executes The Batch", func(t *testing.T) {
		deploy, status := gated(), plain()
		model := newFakeModel(batch.Clone(), domain.NewAssistantMessage("done"))
		var seen []domain.ConfirmationRequest
		approver := ports.ConfirmerFunc(func(_ context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error) {
			seen = reqs
			return domain.ApproveAll(reqs), nil
		})
		w := New(model, []ports.Tool{deploy, status}, WithConfirmer(approver))

		produced, err := w.Run(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, seen, 1)
		assert.Equal(t, "c1", seen[0].CallID)
		require.Len(t, deploy.calls, 1)
		require.Len(t, status.calls, 1)
		assert.Equal(t, "deployed", produced[1].Text())
		assert.Equal(t, "ok", produced[2].Text())
	})

	t.Run("Confirmer Failure Is Fatal", func(t *testing.T) {
		deploy := gated()
		model := newFakeModel(assistantWithCalls(domain.ToolCall{ID: "c1", Name: "deploy"}))
		broken := ports.ConfirmerFunc(func(context.Context, []domain.ConfirmationRequest) (domain.ConfirmationResponse, error) {
			return domain.ConfirmationResponse{}, errors.New("gate offline")
		})
		w := New(model, []ports.Tool{deploy}, WithConfirmer(broken))

		_, err := w.Run(context.Background(), nil, nil)
		require.Error(t, err)
		assert.Empty(t, deploy.calls)
	})
}

func TestRunDirectTools(t *testing.T) {
	direct := func(name, result string, confidential bool) *fakeTool {
		return &fakeTool{
			ToolBase: ports.ToolBase{ToolName: name, Direct: true, Secret: confidential},
			result:   result,
		}
	}

	t.Run("Direct Result Ends The Turn", func(t *testing.T) {
		show := direct("show", "report contents", false)
		model := newFakeModel(assistantWithCalls(domain.ToolCall{ID: "c1", Name: "show"}))
		w := New(model, []ports.Tool{show})

		produced, err := w.Run(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, produced, 3)
		// The model-facing tool result is only a placeholder.
		assert.Contains(t, produced[1].Text(), "shown directly to the user")
		assert.Equal(t, domain.RoleAssistant, produced[2].Role)
		assert.Equal(t, "report contents", produced[2].Text())
		assert.Len(t, model.st.histories, 1)
	})

	t.Run("Multiple Direct Results Merge", func(t *testing.T) {
		a := direct("a", "first", false)
		b := direct("b", "second", true)
		model := newFakeModel(assistantWithCalls(
			domain.ToolCall{ID: "c1", Name: "a"},
			domain.ToolCall{ID: "c2", Name: "b"},
		))
		w := New(model, []ports.Tool{a, b})

		produced, err := w.Run(context.Background(), nil, nil)
		require.NoError(t, err)
		merged := produced[len(produced)-1]
		assert.Equal(t, "first\n\nsecond", merged.Text())
		assert.True(t, merged.Confidential)
	})

	t.Run("Mixed Batch Rejects Direct Call Only", func(t *testing.T) {
		show := direct("show", "report", false)
		echo := echoTool()
		model := newFakeModel(
			assistantWithCalls(
				domain.ToolCall{ID: "c1", Name: "show"},
				domain.ToolCall{ID: "c2", Name: "echo"},
			),
			domain.NewAssistantMessage("done"),
		)
		w := New(model, []ports.Tool{show, echo})

		produced, err := w.Run(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Empty(t, show.calls)
		require.Len(t, echo.calls, 1)
		assert.Contains(t, produced[1].Text(), "called on its own")
		assert.Equal(t, "echoed", produced[2].Text())
		// No direct result was produced, so the loop continues.
		assert.Equal(t, "done", produced[3].Text())
	})
}

func TestRunConfidentiality(t *testing.T) {
	secret := &fakeTool{
		ToolBase: ports.ToolBase{ToolName: "vault", Secret: true},
		result:   "s3cr3t",
	}
	model := newFakeModel(
		assistantWithCalls(domain.ToolCall{ID: "c1", Name: "vault"}),
		domain.NewAssistantMessage("stored"),
	)
	w := New(model, []ports.Tool{secret})
	rec := newRecorder()

	history := []*domain.Message{domain.NewHumanMessage("fetch the secret")}
	confidential := domain.NewAssistantMessage("the keys are 1234")
	confidential.Confidential = true
	history = append(history, confidential)

	produced, err := w.Run(context.Background(), history, rec)
	require.NoError(t, err)

	// The model sees a redacted copy of confidential assistant messages.
	first := model.st.histories[0]
	assert.Equal(t, domain.RedactedContent, first[1].Text())
	// The caller's history is untouched.
	assert.Equal(t, "the keys are 1234", history[1].Text())
	// Redaction covers assistant messages only: the tool's plain result
	// stays visible on the next model call so the model can act on it.
	second := model.st.histories[1]
	var toolMsg *domain.Message
	redacted := 0
	for _, m := range second {
		if m.Role == domain.RoleTool && m.ToolName == "vault" {
			toolMsg = m
		}
		if m.Text() == domain.RedactedContent {
			redacted++
		}
	}
	require.NotNil(t, toolMsg)
	assert.Equal(t, "s3cr3t", toolMsg.Text())
	assert.Equal(t, 1, redacted)
	// The caller receives the real content as well.
	assert.Equal(t, "s3cr3t", produced[1].Text())
}

func TestRunUsageTracking(t *testing.T) {
	resp := domain.NewAssistantMessage("hello")
	resp.Usage = &domain.TokenUsage{Input: 100, Output: 20}
	model := newFakeModel(resp)
	tracker := domain.NewUsageTracker()
	w := New(model, nil, WithUsageTracker(tracker))
	rec := newRecorder()

	_, err := w.Run(context.Background(), nil, rec)
	require.NoError(t, err)
	assert.Equal(t, 120, tracker.Session().Total())
	assert.Equal(t, 120, rec.usage["fake"].Total())
}

func TestRunNestedUsageOnToolMessage(t *testing.T) {
	nested := &fakeTool{
		ToolBase: ports.ToolBase{ToolName: "ask"},
		result:   "answer",
		usage:    &domain.TokenUsage{Input: 7, Output: 3},
	}
	model := newFakeModel(
		assistantWithCalls(domain.ToolCall{ID: "c1", Name: "ask"}),
		domain.NewAssistantMessage("done"),
	)
	w := New(model, []ports.Tool{nested})

	produced, err := w.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, produced[1].Usage)
	assert.Equal(t, 10, produced[1].Usage.Total())
}

func TestRunNoModelResponse(t *testing.T) {
	model := newFakeModel()
	w := New(model, nil)

	_, err := w.Run(context.Background(), nil, nil)
	require.ErrorIs(t, err, domain.ErrNoModelResponse)
}

func TestRunStreaming(t *testing.T) {
	chunk := func(blocks ...domain.ContentBlock) ports.StreamChunk {
		return ports.StreamChunk{Message: &domain.Message{ID: "m1", Role: domain.RoleAssistant, Blocks: blocks}}
	}
	model := newFakeModel()
	model.st.chunks = [][]ports.StreamChunk{{
		chunk(domain.ContentBlock{Type: domain.BlockReasoning, Text: "hmm "}),
		chunk(domain.ContentBlock{Type: domain.BlockReasoning, Text: "ok."}),
		chunk(domain.ContentBlock{Type: domain.BlockText, Text: "Hello"}),
		chunk(domain.ContentBlock{Type: domain.BlockText, Text: " world"}),
	}}
	w := New(model, nil, WithStreaming(true))
	rec := newRecorder()

	produced, err := w.Run(context.Background(), nil, rec)
	require.NoError(t, err)
	require.Len(t, produced, 1)
	msg := produced[0]
	assert.Equal(t, "m1", msg.ID)
	require.Len(t, msg.Blocks, 2)
	assert.Equal(t, "hmm ok.", msg.Blocks[0].Text)
	assert.Equal(t, "Hello world", msg.Blocks[1].Text)

	var reasoning, output string
	for _, n := range rec.notes {
		switch n.Type {
		case domain.NotifyAiReasoningChunk:
			reasoning += n.Text
			assert.Equal(t, 0, n.Index)
			assert.Equal(t, "m1", n.MessageID)
		case domain.NotifyAiOutputChunk:
			output += n.Text
			assert.Equal(t, 1, n.Index)
		}
	}
	assert.Equal(t, "hmm ok.", reasoning)
	assert.Equal(t, "Hello world", output)
}

func TestSetModel(t *testing.T) {
	echo := echoTool()
	first := newFakeModel(domain.NewAssistantMessage("one"))
	w := New(first, []ports.Tool{echo})
	require.Len(t, first.st.specs, 1)
	assert.Equal(t, "echo", first.st.specs[0].Name)

	second := newFakeModel(domain.NewAssistantMessage("two"))
	w.SetModel(second)
	require.Len(t, second.st.specs, 1)
	assert.Equal(t, "echo", second.st.specs[0].Name)

	produced, err := w.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "two", produced[0].Text())
	// The first model received no calls after the swap.
	assert.Empty(t, first.st.histories)
}
