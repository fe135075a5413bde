package engine

import (
	"context"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/logging"
)

// CallbackType names a lifecycle point where callbacks run.
type CallbackType string

const (
	// CallbackBeforeAgent runs before an agent run starts. An error here
	// aborts the run before any model call is made.
	CallbackBeforeAgent CallbackType = "before_agent"

	// CallbackAfterAgent runs after an agent run terminates, successfully
	// or not.
	CallbackAfterAgent CallbackType = "after_agent"

	// CallbackOnError runs when a run terminates with an error.
	CallbackOnError CallbackType = "on_error"

	// CallbackOnStateChange runs when an event carries a state delta,
	// before the delta is applied. An error rejects the change and
	// terminates the run.
	CallbackOnStateChange CallbackType = "on_state_change"
)

// CallbackContext carries the information available at a callback point.
// Event is set for state-change callbacks, Err for error callbacks.
type CallbackContext struct {
	SessionID string
	RunID     string
	AgentName string
	Event     *core.Event
	Err       error
}

// Callback is a lifecycle hook. Returning an error terminates the
// associated operation.
type Callback interface {
	// Type returns the lifecycle point this callback handles.
	Type() CallbackType

	// Execute runs the callback logic.
	Execute(ctx context.Context, cc *CallbackContext) error
}

// FunctionCallback adapts a plain function to the Callback interface.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cc *CallbackContext) error
}

// NewFunctionCallback wraps fn as a callback for the given lifecycle point.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, cc *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type returns the lifecycle point this callback handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function.
func (c *FunctionCallback) Execute(ctx context.Context, cc *CallbackContext) error {
	return c.fn(ctx, cc)
}

// CallbackManager routes lifecycle events to registered callbacks.
//
// Registration is not synchronized; register all callbacks before starting
// runs. Execution is safe for concurrent use once registration is complete.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager returns an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
}

// Register adds a callback. Multiple callbacks for the same type run in
// registration order.
func (cm *CallbackManager) Register(cb Callback) {
	t := cb.Type()
	cm.callbacks[t] = append(cm.callbacks[t], cb)
}

// Execute runs all callbacks registered for the given type. The first
// callback error stops execution and is returned.
func (cm *CallbackManager) Execute(ctx context.Context, t CallbackType, cc *CallbackContext) error {
	for _, cb := range cm.callbacks[t] {
		if err := cb.Execute(ctx, cc); err != nil {
			return err
		}
	}
	return nil
}

// LoggingCallback logs lifecycle events through a logging.Logger. Useful as
// an audit trail during development.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a callback that logs events of the given type.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{callbackType: callbackType, logger: logger}
}

// Type returns the lifecycle point this callback handles.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute logs the lifecycle event with its run coordinates.
func (c *LoggingCallback) Execute(_ context.Context, cc *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	if cc.Err != nil {
		c.logger.Warn("engine.callback", "type", string(c.callbackType),
			"agent", cc.AgentName, "run_id", cc.RunID, "error", cc.Err)
		return nil
	}
	c.logger.Info("engine.callback", "type", string(c.callbackType),
		"agent", cc.AgentName, "run_id", cc.RunID)
	return nil
}

// StateValidationCallback validates state deltas before they are applied.
// Returning an error from the validator rejects the change and terminates
// the run.
type StateValidationCallback struct {
	validator func(delta map[string]any) error
}

// NewStateValidationCallback creates a state-change validator callback.
func NewStateValidationCallback(validator func(delta map[string]any) error) *StateValidationCallback {
	return &StateValidationCallback{validator: validator}
}

// Type returns CallbackOnStateChange.
func (c *StateValidationCallback) Type() CallbackType { return CallbackOnStateChange }

// Execute validates the event's state delta, if any.
func (c *StateValidationCallback) Execute(_ context.Context, cc *CallbackContext) error {
	if c.validator == nil || cc.Event == nil || len(cc.Event.Actions.StateDelta) == 0 {
		return nil
	}
	return c.validator(cc.Event.Actions.StateDelta)
}
