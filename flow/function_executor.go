package flow

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/tool"
)

// FunctionExecutor executes a batch of tool calls and emits one function
// response event per call through the emit callback. Implementations must
// respect runCtx.Context cancellation, recover panics internally, and apply
// ToolContext accumulated actions to the emitted events. The emit callback
// owns persistence synchronization (resume handling).
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agent FlowAgent, toolRegistry map[string]tool.Tool, fnCalls []core.FunctionCall, emit func(core.Event) error)
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // 0 or <1 => unbounded (len(fnCalls))
	PreserveOrder  bool // buffer results and emit in call order
	LogStartEvents bool // log a start line per function
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs the default executor.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
	emit func(core.Event) error,
) {
	n := len(fnCalls)
	if n == 0 {
		return
	}

	// Single call executes inline, no goroutine bookkeeping.
	if n == 1 {
		ev := e.runCall(runCtx, agent, toolRegistry, fnCalls[0])
		if err := emit(ev); err != nil {
			runCtx.LogError("agent.function.emit.error", "function", fnCalls[0].Name, "error", err.Error())
		}
		return
	}

	limit := e.cfg.MaxParallel
	if limit <= 0 || limit > n {
		limit = n
	}

	var (
		g       errgroup.Group
		emitMu  sync.Mutex
		ordered = make([]core.Event, n)
	)
	g.SetLimit(limit)

	batchStart := time.Now()
	for i := range fnCalls {
		if runCtx.Context.Err() != nil {
			break
		}
		g.Go(func() error {
			if runCtx.Context.Err() != nil {
				return nil
			}
			ev := e.runCall(runCtx, agent, toolRegistry, fnCalls[i])
			if e.cfg.PreserveOrder {
				ordered[i] = ev
				return nil
			}
			emitMu.Lock()
			err := emit(ev)
			emitMu.Unlock()
			if err != nil {
				runCtx.LogError("agent.function.emit.error", "function", fnCalls[i].Name, "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	if e.cfg.PreserveOrder {
		for i, ev := range ordered {
			if ev.ID == "" { // cancelled before execution
				continue
			}
			if err := emit(ev); err != nil {
				runCtx.LogError("agent.function.emit.error", "function", fnCalls[i].Name, "error", err.Error())
			}
		}
	}

	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agent.GetName(),
		"count", n,
		"parallelism", limit,
		"preserve_order", e.cfg.PreserveOrder,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
}

// runCall executes one tool call under panic protection and returns the
// function response event with tool context actions applied.
func (e *parallelFunctionExecutor) runCall(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fc core.FunctionCall,
) core.Event {
	toolCtx := core.NewToolContext(runCtx, fc.ID)
	if e.cfg.LogStartEvents {
		runCtx.LogInfo(
			"agent.function.start",
			"agent", agent.GetName(),
			"function", fc.Name,
			"function_call_id", fc.ID,
		)
	}

	start := time.Now()
	result, err := callSafely(runCtx, agent, toolRegistry, toolCtx, fc)

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agent.GetName(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	ev := core.NewFunctionResponseEvent(agent.GetName(), fc.ID, fc.Name, result, err)
	toolCtx.InternalApplyActions(&ev)
	return ev
}

// callSafely looks up and invokes the tool, converting panics into errors so
// a misbehaving tool cannot take down the run.
func callSafely(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	toolCtx *core.ToolContext,
	fc core.FunctionCall,
) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicErr{val: r, stack: debug.Stack()}
			runCtx.LogError("agent.function.panic", "agent", agent.GetName(), "function", fc.Name, "recover", r)
		}
	}()

	impl, ok := toolRegistry[fc.Name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", fc.Name)
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	return impl.Call(toolCtx, args)
}

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }
