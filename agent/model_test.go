package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/model"
)

func TestModelAgentRunStagesOutputKey(t *testing.T) {
	rc, emit := newStrategyContext(t, 0)

	mock := model.NewMockModel("mock", "test")
	mock.Script("the answer")
	worker := NewModelAgent("worker", mock, func(o *ModelAgentOptions) {
		o.EnableStreaming = false
		o.OutputKey = "draft"
	})

	require.NoError(t, worker.Run(rc))

	events := drainEvents(emit)
	require.Len(t, events, 1)
	assert.Equal(t, "the answer", events[0].Content.Text())
	assert.Equal(t, "the answer", events[0].Actions.StateDelta["draft"])
}

func TestModelAgentRunWithoutOutputKey(t *testing.T) {
	rc, emit := newStrategyContext(t, 0)

	worker := newWorker("worker", "plain response")
	require.NoError(t, worker.Run(rc))

	events := drainEvents(emit)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Actions.StateDelta)
}

func TestModelAgentToolRegistration(t *testing.T) {
	worker := newWorker("worker")

	assert.False(t, worker.HasTool("echo"))
	assert.Empty(t, worker.ListTools())
	assert.Equal(t, 20, worker.MaxHistoryMessages())
	assert.Equal(t, "worker", worker.GetName())
	assert.NotNil(t, worker.GetModel())
}

func TestRunChildCaptureReturnsFinalText(t *testing.T) {
	rc, emit := newStrategyContext(t, 0)

	worker := newWorker("worker", "captured output")
	got, err := runChildCapture(rc, worker, "some prompt", "branch-1")
	require.NoError(t, err)
	assert.Equal(t, "captured output", got)

	// Forwarded event carries the child's branch label.
	events := drainEvents(emit)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Branch)
	assert.Equal(t, "branch-1", *events[0].Branch)
}

// erroringStreamAgent mimics the flow error path: a partial chunk followed by
// a system error event, neither waiting for resume, then a nil return.
type erroringStreamAgent struct{ BaseAgent }

func (a *erroringStreamAgent) Run(runCtx *core.RunContext) error {
	partial := true
	chunk := core.NewMessageEvent(a.Name(), "partial chunk")
	chunk.RunID = runCtx.RunID
	chunk.Partial = &partial
	if err := runCtx.EmitEvent(chunk); err != nil {
		return err
	}

	ev := core.NewEvent(runCtx.RunID, "system")
	msg := "model stream failed"
	ev.ErrorMessage = &msg
	return runCtx.EmitEvent(ev)
}

func TestRunChildCaptureSurfacesBufferedErrorEvent(t *testing.T) {
	// The child's return can race its buffered error event; iterate so a
	// dropped event cannot slip through unnoticed.
	for i := 0; i < 200; i++ {
		rc, _ := newStrategyContext(t, 0)
		child := &erroringStreamAgent{BaseAgent: NewBaseAgent("streamer")}

		_, err := runChildCapture(rc, child, "prompt", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model stream failed")
	}
}

func TestRunChildCaptureSurfacesErrors(t *testing.T) {
	rc, _ := newStrategyContext(t, 1)
	rc.Budget.ConsumeModelCall() // exhaust before the child runs

	worker := newWorker("worker", "unused")
	_, err := runChildCapture(rc, worker, "prompt", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget")
}
