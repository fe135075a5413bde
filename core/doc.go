// Package core provides the foundational domain types, interfaces and execution
// contexts used by Metamesh. It defines the core abstractions for:
//
//   - Agents (units of autonomous / orchestrated work)
//   - Sessions (stateful task containers with event history)
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - Budget (per-run model call and iteration ceilings)
//   - Pluggable stores for session state, artifacts and memory recall/search
//
// The package intentionally keeps implementation concerns (persistence, engine
// orchestration, concrete strategy agents) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
