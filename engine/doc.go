// Package engine is the coordination layer of Metamesh.
//
// The Engine keeps the agent registry, enforces concurrency limits, fires
// lifecycle callbacks, and delegates per-run execution to the runner
// package. It implements core.Engine:
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Logger = logger
//	})
//	eng.Register(orchestrator)
//
//	runID, events, errs, err := eng.Invoke(ctx, "session-1", "orchestrator", content)
//
// On top of raw invocation the package provides the complexity-routing
// pieces:
//
//   - Router applies the complexity bands (optionally overridden by a
//     collection profile) and maps an assessment to the strategy agent that
//     should execute the task.
//   - Orchestrator is the profile pipeline as an agent: assess → route →
//     execute strategy → final evaluation. It degrades gracefully: whenever
//     at least a partial solution exists, downstream failures add warnings
//     and reduce confidence instead of failing the run.
//
// Lifecycle callbacks hook the run boundary (before/after agent, on error)
// and state changes (validated before a delta is applied). They run
// synchronously; a callback error aborts the associated operation.
package engine
