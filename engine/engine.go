package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/metamesh-ai/metamesh/artifact"
	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/logging"
	"github.com/metamesh-ai/metamesh/memory"
	"github.com/metamesh-ai/metamesh/runner"
	"github.com/metamesh-ai/metamesh/session"
)

// Config tunes the engine's operational behavior.
type Config struct {
	// MaxConcurrentRuns limits simultaneous agent runs. Invoke blocks
	// until a slot frees up. Set to 0 for unlimited.
	MaxConcurrentRuns int

	// EventBufferSize sets the channel buffer for event delivery.
	EventBufferSize int

	// MaxModelCalls caps model calls per run. Zero means unlimited.
	MaxModelCalls int
}

// DefaultConfig provides conservative defaults suitable for most setups.
var DefaultConfig = Config{
	MaxConcurrentRuns: 10,
	EventBufferSize:   100,
	MaxModelCalls:     100,
}

// Options holds dependency and configuration overrides passed to New().
// All services default to in-memory implementations.
type Options struct {
	// Config contains operational parameters.
	Config Config
	// SessionStore persists session state and history.
	SessionStore core.SessionStore
	// ArtifactStore persists binary artifacts.
	ArtifactStore core.ArtifactStore
	// MemoryStore provides searchable recall.
	MemoryStore core.MemoryStore
	// Logger receives structured engine logs.
	Logger logging.Logger
}

// Engine is the central coordination point: it keeps the agent registry,
// enforces concurrency limits, fires lifecycle callbacks, and delegates
// per-run execution to a runner. It implements core.Engine and is safe for
// concurrent use.
type Engine struct {
	config Config
	logger logging.Logger

	sessionStore core.SessionStore
	run          *runner.Runner
	callbacks    *CallbackManager

	agents map[string]core.Agent
	mu     sync.RWMutex

	activeRuns map[string]context.CancelFunc
	runsMu     sync.Mutex

	sem chan struct{} // nil when unlimited
}

// New creates an Engine with in-memory service defaults.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:        DefaultConfig,
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		MemoryStore:   memory.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{
		config:       opts.Config,
		logger:       opts.Logger,
		sessionStore: opts.SessionStore,
		callbacks:    NewCallbackManager(),
		agents:       make(map[string]core.Agent),
		activeRuns:   make(map[string]context.CancelFunc),
	}

	if opts.Config.MaxConcurrentRuns > 0 {
		e.sem = make(chan struct{}, opts.Config.MaxConcurrentRuns)
	}

	e.run = runner.New(func(o *runner.Options) {
		o.EventBufferSize = opts.Config.EventBufferSize
		o.MaxModelCalls = opts.Config.MaxModelCalls
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.MemoryStore = opts.MemoryStore
		o.Logger = opts.Logger
		o.OnEvent = e.onEvent
	})

	return e
}

// Register makes an agent available for invocation by name. Registering a
// second agent with the same name replaces the first.
func (e *Engine) Register(a core.Agent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agents[a.Name()] = a
}

// GetAgent retrieves a registered agent by name.
func (e *Engine) GetAgent(name string) (core.Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.agents[name]
	return a, ok
}

// RegisterCallback adds a lifecycle callback. Register all callbacks before
// starting runs.
func (e *Engine) RegisterCallback(cb Callback) {
	e.callbacks.Register(cb)
}

// SetMaxModelCalls changes the per-run model-call budget for subsequent
// runs. Collection profiles apply their budget through this.
func (e *Engine) SetMaxModelCalls(n int) {
	e.run.SetMaxModelCalls(n)
}

// Invoke starts an asynchronous agent run and returns streaming event and
// terminal error channels. Both channels are closed when the run terminates.
// When MaxConcurrentRuns is reached, Invoke blocks until a slot frees up or
// the context is cancelled.
func (e *Engine) Invoke(
	ctx context.Context,
	sessionID string,
	agentName string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	agent, ok := e.GetAgent(agentName)
	if !ok {
		return "", nil, nil, fmt.Errorf("agent %s not found", agentName)
	}

	if e.sem != nil {
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return "", nil, nil, ctx.Err()
		}
	}

	runID := core.NewID()

	cc := &CallbackContext{SessionID: sessionID, RunID: runID, AgentName: agentName}
	if err := e.callbacks.Execute(ctx, CallbackBeforeAgent, cc); err != nil {
		e.release()
		return "", nil, nil, fmt.Errorf("before-agent callback rejected run: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	e.runsMu.Lock()
	e.activeRuns[runID] = cancel
	e.runsMu.Unlock()

	inEvents, inErrors, err := e.run.Launch(runCtx, sessionID, runID, agent, userContent)
	if err != nil {
		e.finishRun(runID, cancel)
		return "", nil, nil, err
	}

	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)

	go e.supervise(runCtx, cc, cancel, inEvents, inErrors, eventsCh, errorsCh)

	e.logger.Debug("engine.run.started", "run_id", runID, "agent", agentName, "session_id", sessionID)

	return runID, eventsCh, errorsCh, nil
}

// supervise forwards run output to the caller and fires terminal callbacks
// once the run completes.
func (e *Engine) supervise(
	ctx context.Context,
	cc *CallbackContext,
	cancel context.CancelFunc,
	inEvents <-chan core.Event,
	inErrors <-chan error,
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	defer func() {
		close(eventsCh)
		close(errorsCh)
		e.finishRun(cc.RunID, cancel)
	}()

	for ev := range inEvents {
		select {
		case <-ctx.Done():
			return
		case eventsCh <- ev:
		}
	}

	// Both runner channels close together; a terminal error, if any, is
	// buffered before the close.
	runErr := <-inErrors
	if runErr != nil {
		cc.Err = runErr
		if cbErr := e.callbacks.Execute(ctx, CallbackOnError, cc); cbErr != nil {
			e.logger.Warn("engine.callback.on_error_failed", "run_id", cc.RunID, "error", cbErr)
		}
		errorsCh <- runErr
	}

	if cbErr := e.callbacks.Execute(ctx, CallbackAfterAgent, cc); cbErr != nil {
		e.logger.Warn("engine.callback.after_agent_failed", "run_id", cc.RunID, "error", cbErr)
	}
}

// InvokeSync executes an agent to completion and returns all emitted events.
func (e *Engine) InvokeSync(
	ctx context.Context,
	sessionID string,
	agentName string,
	userContent core.Content,
) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := e.Invoke(ctx, sessionID, agentName, userContent)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for {
		select {
		case <-ctx.Done():
			return runID, events, ctx.Err()

		case event, ok := <-eventsCh:
			if !ok {
				select {
				case err := <-errorsCh:
					return runID, events, err
				default:
					return runID, events, nil
				}
			}
			events = append(events, event)

		case err := <-errorsCh:
			if err != nil {
				return runID, events, err
			}
		}
	}
}

// Cancel terminates a run by ID.
func (e *Engine) Cancel(runID string) error {
	e.runsMu.Lock()
	cancel, exists := e.activeRuns[runID]
	e.runsMu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()
	return nil
}

// GetSession retrieves a session snapshot by ID.
func (e *Engine) GetSession(sessionID string) (*core.Session, error) {
	return e.sessionStore.Get(sessionID)
}

// onEvent fires state-change callbacks before the runner applies a delta.
func (e *Engine) onEvent(ctx context.Context, sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) == 0 {
		return nil
	}
	cc := &CallbackContext{
		SessionID: sessionID,
		RunID:     ev.RunID,
		AgentName: ev.Author,
		Event:     &ev,
	}
	return e.callbacks.Execute(ctx, CallbackOnStateChange, cc)
}

func (e *Engine) finishRun(runID string, cancel context.CancelFunc) {
	cancel()
	e.runsMu.Lock()
	delete(e.activeRuns, runID)
	e.runsMu.Unlock()
	e.release()
}

func (e *Engine) release() {
	if e.sem != nil {
		<-e.sem
	}
}
