// Package metamesh provides a high-level façade over the engine and the
// service abstractions (sessions, artifacts, memory, logging) for building
// complexity-aware agent systems. Most applications interact with this
// package by:
//  1. Creating a Metamesh via New() (optionally overriding in-memory defaults)
//  2. Loading an agent collection with LoadCollection()
//  3. Running tasks through Orchestrate(), or individual agents via
//     Invoke() / InvokeSync()
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable stores and a
// structured logger.
package metamesh

import (
	"context"
	"fmt"
	"strings"

	"github.com/metamesh-ai/metamesh/agent"
	"github.com/metamesh-ai/metamesh/artifact"
	"github.com/metamesh-ai/metamesh/collection"
	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/engine"
	"github.com/metamesh-ai/metamesh/logging"
	"github.com/metamesh-ai/metamesh/memory"
	"github.com/metamesh-ai/metamesh/model"
	"github.com/metamesh-ai/metamesh/model/anthropic"
	"github.com/metamesh-ai/metamesh/model/openai"
	"github.com/metamesh-ai/metamesh/session"
	"github.com/metamesh-ai/metamesh/tool"
)

// Well-known agent names the collection wiring looks for.
const (
	// AssessorAgentName is the collection persona that scores complexity.
	AssessorAgentName = "complexity-assessor"
	// EvaluatorAgentName is the collection persona that reviews solutions.
	EvaluatorAgentName = "solution-evaluator"
	// GeneratorAgentName is the collection persona that produces solutions.
	GeneratorAgentName = "solution-generator"
	// OrchestratorName is the pipeline agent LoadCollection registers.
	OrchestratorName = "orchestrator"
	// StrategyAssessorName is the registered assessment wrapper.
	StrategyAssessorName = "assessor"
	// StrategyEvaluatorName is the registered evaluation wrapper.
	StrategyEvaluatorName = "evaluator"

	// solverSuffix marks collection agents that participate in ensembles.
	solverSuffix = "-solver"
)

// Options configures a Metamesh instance.
type Options struct {
	// EngineConfig tunes concurrency, buffering and the per-run budget.
	EngineConfig engine.Config

	// Stores default to in-memory implementations when nil.
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore

	// Logger defaults to the NoOp logger.
	Logger logging.Logger

	// Providers resolves frontmatter provider modules. Defaults to a
	// registry with the Anthropic and OpenAI adapters.
	Providers *model.Registry

	// Tools resolves frontmatter tool modules. Defaults to a registry with
	// the filesystem, grep, session and task built-ins.
	Tools *tool.Registry

	// WorkspaceRoot scopes the filesystem and grep built-ins. Defaults to
	// the current directory.
	WorkspaceRoot string
}

// Metamesh aggregates the engine, the provider and tool registries, and the
// collection wiring.
type Metamesh struct {
	opts      Options
	engine    *engine.Engine
	providers *model.Registry
	tools     *tool.Registry
	logger    logging.Logger
}

// New creates a Metamesh instance with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Metamesh {
	opts := Options{
		EngineConfig:  engine.DefaultConfig,
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		MemoryStore:   memory.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
		WorkspaceRoot: ".",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.MemoryStore = opts.MemoryStore
		o.Logger = opts.Logger
	})

	m := &Metamesh{
		opts:      opts,
		engine:    eng,
		providers: opts.Providers,
		tools:     opts.Tools,
		logger:    opts.Logger,
	}

	if m.providers == nil {
		m.providers = model.NewRegistry()
		m.providers.Register(model.ModuleAnthropic, anthropic.Factory)
		m.providers.Register(model.ModuleOpenAI, openai.Factory)
	}

	if m.tools == nil {
		m.tools = tool.NewRegistry()
		root := opts.WorkspaceRoot
		m.tools.Register(tool.ModuleFilesystem, func() (tool.Tool, error) {
			return tool.NewFilesystemTool(root), nil
		})
		m.tools.Register(tool.ModuleGrep, func() (tool.Tool, error) {
			return tool.NewGrepTool(root), nil
		})
		m.tools.Register(tool.ModuleSession, func() (tool.Tool, error) {
			return tool.NewSessionTool(), nil
		})
		m.tools.Register(tool.ModuleTask, func() (tool.Tool, error) {
			return tool.NewTaskTool(eng), nil
		})
	}

	return m
}

// Engine exposes the underlying engine for advanced use.
func (m *Metamesh) Engine() *engine.Engine { return m.engine }

// Providers exposes the provider registry for custom factories.
func (m *Metamesh) Providers() *model.Registry { return m.providers }

// Tools exposes the tool registry for custom factories.
func (m *Metamesh) Tools() *tool.Registry { return m.tools }

// RegisterAgent adds an agent to the underlying engine.
func (m *Metamesh) RegisterAgent(a core.Agent) { m.engine.Register(a) }

// RegisterCallback adds a lifecycle callback to the underlying engine.
func (m *Metamesh) RegisterCallback(cb engine.Callback) { m.engine.RegisterCallback(cb) }

// Invoke starts an asynchronous run returning event and error channels.
func (m *Metamesh) Invoke(
	ctx context.Context,
	sessionID string,
	agentName string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	return m.engine.Invoke(ctx, sessionID, agentName, userContent)
}

// InvokeSync executes an agent to completion and returns all emitted events.
func (m *Metamesh) InvokeSync(
	ctx context.Context,
	sessionID string,
	agentName string,
	userContent core.Content,
) (string, []core.Event, error) {
	return m.engine.InvokeSync(ctx, sessionID, agentName, userContent)
}

// OrchestrateOptions tunes a single Orchestrate call.
type OrchestrateOptions struct {
	// Urgent biases routing toward decomposition at high complexity.
	Urgent bool
}

// Orchestrate runs the collection pipeline over a task: assess complexity,
// route to the matching strategy, execute it, and evaluate the outcome.
// LoadCollection must have registered the orchestrator first.
func (m *Metamesh) Orchestrate(ctx context.Context, sessionID, task string, optFns ...func(o *OrchestrateOptions)) (*engine.OrchestrationResult, error) {
	var opts OrchestrateOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Urgent {
		if err := m.opts.SessionStore.ApplyDelta(sessionID, map[string]any{engine.UrgentStateKey: true}); err != nil {
			return nil, fmt.Errorf("mark session urgent: %w", err)
		}
	}

	_, events, err := m.engine.InvokeSync(ctx, sessionID, OrchestratorName, core.NewUserContent(task))
	if err != nil {
		return nil, err
	}
	return engine.DecodeResult(events, OrchestratorName)
}

// GetSession retrieves a session snapshot by ID.
func (m *Metamesh) GetSession(sessionID string) (*core.Session, error) {
	return m.engine.GetSession(sessionID)
}

// LoadCollection loads an agent collection from dir, registers one model
// agent per profiled spec (bound to its declared provider and tools), wires
// the strategy personas into an orchestrator, and applies the profile's
// routing and budget configuration.
func (m *Metamesh) LoadCollection(dir string, opts ...collection.Option) (*collection.Collection, error) {
	opts = append(opts, collection.WithLogger(m.logger))
	col, err := collection.Load(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	workers := make(map[string]*agent.ModelAgent, len(col.AgentNames()))
	for _, name := range col.AgentNames() {
		spec := col.Agent(name)

		mdl, err := m.providers.Resolve(spec.Provider())
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}
		tools, err := m.tools.Resolve(spec.ToolModules())
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}

		ma := agent.NewModelAgent(spec.Name, mdl, func(o *agent.ModelAgentOptions) {
			o.Instruction = agent.NewInstructionFromText(spec.Instructions)
			o.Tools = tools
		})
		ma.SetDescription(spec.Description)

		workers[name] = ma
		m.engine.Register(ma)
		m.logger.Debug("metamesh.collection.agent_loaded",
			"agent", name, "provider", spec.Provider().Module, "tools", len(tools))
	}

	if col.Profile != nil && col.Profile.Budget.MaxModelCalls > 0 {
		m.engine.SetMaxModelCalls(col.Profile.Budget.MaxModelCalls)
	}

	if err := m.wireOrchestrator(col, workers); err != nil {
		return nil, err
	}

	return col, nil
}

// wireOrchestrator composes the strategy pipeline from the collection's
// personas. A collection without an assessor or evaluator loads fine but
// only supports direct invocation.
func (m *Metamesh) wireOrchestrator(col *collection.Collection, workers map[string]*agent.ModelAgent) error {
	assessorWorker, ok := workers[AssessorAgentName]
	if !ok {
		m.logger.Debug("metamesh.collection.no_assessor", "looked_for", AssessorAgentName)
		return nil
	}
	evaluatorWorker, ok := workers[EvaluatorAgentName]
	if !ok {
		m.logger.Debug("metamesh.collection.no_evaluator", "looked_for", EvaluatorAgentName)
		return nil
	}

	// Without a dedicated generator persona, solutions are generated by a
	// bare worker on the evaluator's model.
	generator, ok := workers[GeneratorAgentName]
	if !ok {
		generator = agent.NewModelAgent(GeneratorAgentName, evaluatorWorker.GetModel(), func(o *agent.ModelAgentOptions) {
			o.Instruction = agent.NewInstructionFromText("Solve the given task. Respond with the solution only.")
		})
	}

	assessor := agent.NewAssessorAgent(StrategyAssessorName, assessorWorker)
	evaluator := agent.NewEvaluatorAgent(StrategyEvaluatorName, evaluatorWorker)

	var refinerOpts []agent.RefinerOption
	var routing collection.RoutingConfig
	if col.Profile != nil {
		routing = col.Profile.Routing
		if col.Profile.Budget.MaxIterations > 0 {
			refinerOpts = append(refinerOpts, agent.WithMaxIterations(col.Profile.Budget.MaxIterations))
		}
	}
	refiner := agent.NewRefinerAgent(OrchestratorName+"-refiner", generator, evaluator, refinerOpts...)

	// Solver agents (name suffix "-solver") form the ensemble pool.
	var solvers []core.Agent
	for _, name := range col.AgentNames() {
		if strings.HasSuffix(name, solverSuffix) {
			solvers = append(solvers, workers[name])
		}
	}
	var ensemble *agent.EnsembleAgent
	if len(solvers) >= 2 {
		ensemble = agent.NewEnsembleAgent(OrchestratorName+"-ensemble", evaluator, solvers)
	}

	orchestrator := engine.NewOrchestrator(OrchestratorName, assessor, generator, evaluator,
		func(o *engine.OrchestratorOptions) {
			o.Router = engine.NewRouter(func(ro *engine.RouterOptions) { ro.Routing = routing })
			o.Refiner = refiner
			o.Ensemble = ensemble
		})

	m.engine.Register(assessor)
	m.engine.Register(evaluator)
	m.engine.Register(orchestrator)

	return nil
}
