package agent

import (
	"fmt"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/flow"
	"github.com/metamesh-ai/metamesh/model"
	"github.com/metamesh-ai/metamesh/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	EnableStreaming    bool
	OutputKey          string
	MaxHistoryMessages int
	Tools              map[string]tool.Tool
}

// ModelAgent drives a language model through the flow pipeline. It supports
// collection-backed system instructions (with {{.key}} session state refs),
// function calling over its registered tools, streaming responses and
// output-key staging into session state.
//
// ModelAgent embeds BaseAgent for lifecycle and hierarchy management and
// satisfies flow.FlowAgent so the flow package can run it.
type ModelAgent struct {
	BaseAgent
	mdl         model.Model
	instruction Instruction
	tools       map[string]tool.Tool
	streaming   bool
	outputKey   string
	maxHistory  int
}

// NewModelAgent creates a model-backed agent. Defaults: generic assistant
// instruction, streaming enabled, 20-message history window, no tools.
func NewModelAgent(name string, mdl model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableStreaming:    true,
		MaxHistoryMessages: 20,
		Tools:              make(map[string]tool.Tool),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		BaseAgent:   NewBaseAgent(name),
		mdl:         mdl,
		instruction: opts.Instruction,
		tools:       opts.Tools,
		streaming:   opts.EnableStreaming,
		outputKey:   opts.OutputKey,
		maxHistory:  opts.MaxHistoryMessages,
	}
}

// RegisterTool adds a tool to the agent's capability set. Registered tools
// become available for the model to call during runs.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools to the agent's capability set.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// ListTools returns the names of all registered tools.
func (a *ModelAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	return names
}

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetModel returns the language model instance.
func (a *ModelAgent) GetModel() model.Model { return a.mdl }

// GetTools returns a copy of the registered tools for function calling.
func (a *ModelAgent) GetTools() map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(a.tools))
	for name, t := range a.tools {
		tools[name] = t
	}
	return tools
}

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.streaming }

// GetOutputKey returns the session state key for saving responses.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages returns the conversation history window size.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistory }

// ResolveInstructions produces the final instruction string (system prompt)
// by resolving static or dynamic instruction sources.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// Run implements core.Agent: it executes the flow pipeline and streams flow
// events to the parent context. When an output key is configured, the final
// response text is staged as a state delta on the final event so the runner
// persists it into session state.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID)

	ctx := runCtx.Context

	fl := flow.NewSingleAgentFlow(a)

	eventChan, err := fl.Execute(runCtx)
	if err != nil {
		runCtx.LogError("agent.flow.execute.error", "agent", a.Name(), "error", err.Error())
		return fmt.Errorf("flow execution failed: %w", err)
	}

	for event := range eventChan {
		if a.outputKey != "" && event.IsFinalResponse() && event.Content != nil {
			if event.Actions.StateDelta == nil {
				event.Actions.StateDelta = map[string]any{}
			}
			event.Actions.StateDelta[a.outputKey] = event.Content.Text()
		}

		select {
		case runCtx.Emit <- event:
			role := ""
			if event.Content != nil {
				role = event.Content.Role
			}
			runCtx.LogDebug(
				"agent.event.forward",
				"agent", a.Name(),
				"event_id", event.ID,
				"role", role,
				"fn_calls", len(event.GetFunctionCalls()),
			)
		case <-ctx.Done():
			runCtx.LogWarn("agent.run.context_done", "agent", a.Name(), "error", ctx.Err())
			return ctx.Err()
		}
	}

	runCtx.LogDebug("agent.flow.execute.complete", "agent", a.Name())

	return nil
}
