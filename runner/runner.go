package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/metamesh-ai/metamesh/artifact"
	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/logging"
	"github.com/metamesh-ai/metamesh/memory"
	"github.com/metamesh-ai/metamesh/session"
)

// EventHook inspects an event before its actions are applied. A non-nil
// error terminates the run. The engine uses hooks to fire lifecycle
// callbacks without the runner knowing about them.
type EventHook func(ctx context.Context, sessionID string, ev core.Event) error

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for event delivery.
	EventBufferSize int
	// MaxModelCalls caps model calls per run. Zero means unlimited.
	MaxModelCalls int
	// SessionStore persists session state and history.
	SessionStore core.SessionStore
	// ArtifactStore persists binary artifacts.
	ArtifactStore core.ArtifactStore
	// MemoryStore provides searchable recall.
	MemoryStore core.MemoryStore
	// Logger receives structured run logs.
	Logger logging.Logger
	// OnEvent runs for every emitted event before actions are applied.
	OnEvent EventHook
}

// Runner launches agent runs and drives their event loops. It holds no
// per-run state; its methods are safe for concurrent use.
type Runner struct {
	eventBufferSize int

	mu            sync.RWMutex
	maxModelCalls int

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	memoryStore   core.MemoryStore
	logger        logging.Logger
	onEvent       EventHook
}

// New constructs a Runner with in-memory defaults.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		ArtifactStore:   artifact.NewInMemoryStore(),
		MemoryStore:     memory.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		sessionStore:    opts.SessionStore,
		artifactStore:   opts.ArtifactStore,
		memoryStore:     opts.MemoryStore,
		logger:          opts.Logger,
		onEvent:         opts.OnEvent,
	}
}

// SessionStore exposes the store backing this runner's sessions.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// SetMaxModelCalls changes the per-run model-call budget for runs launched
// after the call. Zero means unlimited.
func (r *Runner) SetMaxModelCalls(n int) {
	r.mu.Lock()
	r.maxModelCalls = n
	r.mu.Unlock()
}

func (r *Runner) budget() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxModelCalls
}

// Launch starts a single asynchronous agent run.
//
// It resolves the session, persists the user content as the run's first
// event, and spawns the agent execution and event processing goroutines.
// Both returned channels are closed when the run terminates; a terminal
// error, if any, is buffered on the error channel before close.
func (r *Runner) Launch(
	ctx context.Context,
	sessionID, runID string,
	agent core.Agent,
	userContent core.Content,
) (<-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	resumeCh := make(chan struct{}, 1)

	agentInfo := core.AgentInfo{Name: agent.Name(), Type: "agent"}

	runCtx := core.NewRunContext(
		ctx,
		sessionID,
		runID,
		agentInfo,
		userContent,
		r.budget(),
		agentEmit,
		resumeCh,
		sess,
		r.sessionStore,
		r.artifactStore,
		r.memoryStore,
		r.logger,
	)

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		return nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	go func() {
		defer close(agentEmit)

		if err := r.runAgent(runCtx, agent); err != nil {
			select {
			case <-ctx.Done():
			case errorsCh <- fmt.Errorf("agent execution failed: %w", err):
			}
		}
	}()

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		r.processEvents(ctx, sessionID, agentEmit, resumeCh, eventsCh, errorsCh)
	}()

	return eventsCh, errorsCh, nil
}

func (r *Runner) runAgent(runCtx *core.RunContext, agent core.Agent) error {
	if err := agent.Start(runCtx); err != nil {
		return err
	}
	defer func() {
		if err := agent.Stop(runCtx); err != nil {
			r.logger.Warn("runner.agent.stop_failed", "agent", agent.Name(), "error", err)
		}
	}()

	return agent.Run(runCtx)
}

// processEvents pumps agent events through action application, persistence,
// delivery and resume signaling until the emit channel closes or the run
// context is cancelled. Store errors are terminal.
func (r *Runner) processEvents(
	ctx context.Context,
	sessionID string,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-agentEmit:
			if !ok {
				return
			}

			if r.onEvent != nil {
				if err := r.onEvent(ctx, sessionID, ev); err != nil {
					r.fail(ctx, errorsCh, fmt.Errorf("event hook rejected event: %w", err))
					return
				}
			}

			if err := r.applyEventActions(sessionID, ev); err != nil {
				r.fail(ctx, errorsCh, fmt.Errorf("failed to apply event actions: %w", err))
				return
			}

			if !ev.IsPartial() {
				if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil {
					r.fail(ctx, errorsCh, fmt.Errorf("failed to append event to session: %w", err))
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case eventsCh <- ev:
				r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session_id", sessionID)
			}

			// Non-blocking: strategy agents may never drain the resume
			// channel, a full buffer just means no one is waiting.
			if !ev.IsPartial() {
				select {
				case resumeCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (r *Runner) fail(ctx context.Context, errorsCh chan<- error, err error) {
	select {
	case <-ctx.Done():
	case errorsCh <- err:
	}
}

// applyEventActions applies the side effects encoded in an event's Actions.
func (r *Runner) applyEventActions(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
		r.logger.Debug("runner.event.escalate", "session_id", sessionID)
	}

	return nil
}
