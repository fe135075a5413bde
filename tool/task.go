package tool

import (
	"fmt"

	"github.com/metamesh-ai/metamesh/core"
)

// taskTool spawns a named sub-agent run through the engine and returns its
// final response. This is the host "task tool": the calling agent stays in
// control, the sub-agent runs to completion in the same session.
type taskTool struct {
	engine core.Engine
}

// NewTaskTool constructs the task tool bound to an engine.
func NewTaskTool(engine core.Engine) Tool { return &taskTool{engine: engine} }

func (t *taskTool) Name() string { return "task" }

func (t *taskTool) Description() string {
	return "Delegate a task to a named sub-agent and wait for its result. " +
		"Use when another agent is better suited for a subtask."
}

func (t *taskTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent": map[string]any{"type": "string", "description": "Target agent name"},
			"task":  map[string]any{"type": "string", "description": "Task prompt for the sub-agent"},
		},
		"required": []string{"agent", "task"},
	}
}

func (t *taskTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	agentName, ok := args["agent"].(string)
	if !ok || agentName == "" {
		return nil, fmt.Errorf("field 'agent' must be non-empty string")
	}
	task, ok := args["task"].(string)
	if !ok || task == "" {
		return nil, fmt.Errorf("field 'task' must be non-empty string")
	}

	runID, events, err := t.engine.InvokeSync(tc.Context(), tc.SessionID(), agentName, core.NewUserContent(task))
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("sub-agent %q failed: %v", agentName, err), "SUBAGENT_ERROR")
	}

	var result string
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsFinalResponse() && events[i].Content != nil {
			result = events[i].Content.Text()
			break
		}
	}

	return map[string]any{
		"agent":  agentName,
		"run_id": runID,
		"result": result,
	}, nil
}
