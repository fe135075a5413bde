package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamesh-ai/metamesh/core"
)

type fakeEngine struct {
	lastAgent string
	lastTask  string
	result    string
	err       error
}

func (e *fakeEngine) Register(core.Agent) {}

func (e *fakeEngine) Invoke(context.Context, string, string, core.Content) (string, <-chan core.Event, <-chan error, error) {
	return "", nil, nil, errors.New("not used")
}

func (e *fakeEngine) InvokeSync(_ context.Context, _ string, agentName string, userContent core.Content) (string, []core.Event, error) {
	e.lastAgent = agentName
	e.lastTask = userContent.Text()
	if e.err != nil {
		return "", nil, e.err
	}
	ev := core.NewMessageEvent(agentName, e.result)
	ev.RunID = "run-sub"
	return "run-sub", []core.Event{ev}, nil
}

func TestTaskToolDelegates(t *testing.T) {
	eng := &fakeEngine{result: "subtask done"}
	task := NewTaskTool(eng)
	tc := core.NewToolContext(testRunContext(t), "fc-task")

	res, err := task.Call(tc, map[string]any{"agent": "solution-evaluator", "task": "score this"})
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, "solution-evaluator", eng.lastAgent)
	assert.Equal(t, "score this", eng.lastTask)
	assert.Equal(t, "subtask done", m["result"])
	assert.Equal(t, "run-sub", m["run_id"])
}

func TestTaskToolSubagentError(t *testing.T) {
	eng := &fakeEngine{err: errors.New("agent not found")}
	task := NewTaskTool(eng)
	tc := core.NewToolContext(testRunContext(t), "fc-task")

	_, err := task.Call(tc, map[string]any{"agent": "ghost", "task": "anything"})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "SUBAGENT_ERROR", toolErr.Code)
}

func TestTaskToolArgumentValidation(t *testing.T) {
	task := NewTaskTool(&fakeEngine{})
	tc := core.NewToolContext(testRunContext(t), "fc-task")

	_, err := task.Call(tc, map[string]any{"agent": "", "task": "x"})
	assert.Error(t, err)
	_, err = task.Call(tc, map[string]any{"agent": "a", "task": ""})
	assert.Error(t, err)
}
