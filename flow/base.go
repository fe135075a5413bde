package flow

import (
	"errors"
	"fmt"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/model"
)

// BaseFlow is a minimal single-agent flow implementation that supports a
// request -> model -> (optional tool loop) cycle with pluggable pre/post
// processors. Tool calls are dispatched through a FunctionExecutor.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	executor           FunctionExecutor
}

// NewBaseFlow creates a new basic single-agent flow.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
		executor:           NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true}),
	}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed after each model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// SetFunctionExecutor replaces the default tool call executor.
func (f *BaseFlow) SetFunctionExecutor(executor FunctionExecutor) {
	f.executor = executor
}

// Execute launches the flow asynchronously and returns a channel of Events.
// The channel is closed when a final response is emitted or an unrecoverable
// error occurs. Callers should range over the returned channel.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for {
			last := f.runOnce(runCtx, eventChan)
			if last == nil {
				break
			}
			// A function response means the model gets another turn
			if len(last.GetFunctionResponses()) > 0 {
				continue
			}
			if last.IsPartial() {
				runCtx.LogWarn("flow.unexpected_partial_tail", "agent", f.agent.GetName())
				break
			}
			if last.IsFinalResponse() {
				break
			}
		}
	}()

	return eventChan, nil
}

// emitError converts an internal error to a system Event.
func (f *BaseFlow) emitError(eventChan chan<- core.Event, runID string, err error) {
	ev := core.NewEvent(runID, "system")
	msg := err.Error()
	ev.ErrorMessage = &msg
	eventChan <- ev
}

// runOnce performs one model turn (including any tool executions) and returns
// the last emitted Event (final or intermediate). A nil return signals termination.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	// Refresh session snapshot so request processors see the latest
	// conversation (including tool responses)
	if runCtx.SessionStore != nil {
		if latest, err := runCtx.SessionStore.Get(runCtx.SessionID); err == nil && latest != nil {
			runCtx.Session = latest
		}
	}

	// Every model turn draws from the shared run budget.
	if runCtx.Budget != nil {
		if err := runCtx.Budget.ConsumeModelCall(); err != nil {
			if errors.Is(err, core.ErrBudgetExhausted) {
				runCtx.LogWarn("flow.budget_exhausted", "agent", f.agent.GetName())
			}
			f.emitError(eventChan, runCtx.RunID, err)
			return nil
		}
	}

	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(eventChan, runCtx.RunID, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil
		}
	}

	tools := f.agent.GetTools()
	if len(tools) > 0 {
		toolDefinitions := make([]model.ToolDefinition, 0, len(tools))
		for _, t := range tools {
			toolDefinitions = append(toolDefinitions, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}
		req.Tools = toolDefinitions
	}

	respCh, errCh := f.agent.GetModel().Generate(runCtx.Context, *req)

	var lastEvent *core.Event

loop:
	for {
		select {
		case resp, ok := <-respCh:
			if !ok {
				// Models buffer a terminal error before closing; catch one
				// that lost the select race.
				select {
				case err, ok := <-errCh:
					if ok && err != nil {
						runCtx.LogError("flow.model_error", "agent", f.agent.GetName(), "error", err.Error())
						f.emitError(eventChan, runCtx.RunID, err)
						return nil
					}
				default:
				}
				break loop
			}

			for _, processor := range f.responseProcessors {
				if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
					f.emitError(eventChan, runCtx.RunID, fmt.Errorf("response processor %s failed: %w", processor.Name(), err))
					return nil
				}
			}

			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			ev.Content = &resp.Content
			ev.Partial = &resp.Partial
			if runCtx.Branch != "" {
				branch := runCtx.Branch
				ev.Branch = &branch
			}

			// Mark turn complete if this is a final assistant response with no pending tool calls
			if !resp.Partial && len(ev.GetFunctionCalls()) == 0 {
				complete := true
				ev.TurnComplete = &complete
			}

			lastEvent = &ev

			eventChan <- ev

			// Wait for session persistence (runner sends resume after append)
			if !ev.IsPartial() && runCtx.Resume != nil {
				if err := runCtx.WaitForResume(); err != nil {
					return lastEvent
				}
			}

			if fnCalls := ev.GetFunctionCalls(); len(fnCalls) > 0 {
				f.executor.Execute(runCtx, f.agent, f.agent.GetTools(), fnCalls, func(respEv core.Event) error {
					lastEvent = &respEv
					eventChan <- respEv
					if runCtx.Resume != nil {
						return runCtx.WaitForResume()
					}
					return nil
				})
			}
		case err, ok := <-errCh:
			if ok && err != nil {
				runCtx.LogError("flow.model_error", "agent", f.agent.GetName(), "error", err.Error())
				f.emitError(eventChan, runCtx.RunID, err)
				return nil
			}
			break loop
		}
	}

	return lastEvent
}
