package core

// Agent defines the interface implemented by every strategy agent in Metamesh.
//
// Agents are the processing units of the engine. They receive input through a
// RunContext, execute their strategy (assessment, refinement, ensemble
// coordination, ...), and emit events to communicate results and state changes
// back to the Runner.
//
// The interface supports both standalone agents and composed strategies
// through the sub-agent management methods.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Honor the run Budget where they issue model calls
//   - Manage their lifecycle through Start/Stop methods
type Agent interface {
	Name() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
	Description() string
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes the strategy
// (e.g. "assessor", "refiner", "ensemble", "model").
type AgentInfo struct{ Name, Type string }
