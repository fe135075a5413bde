package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/metamesh-ai/metamesh/agent"
	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/score"
)

// Orchestration statuses.
const (
	// StatusCompleted means a solution was produced and, where applicable,
	// met the quality bar.
	StatusCompleted = "completed"
	// StatusPartial means a degraded result: a solution exists but the
	// pipeline hit a failure (budget, evaluation, consensus) along the way.
	StatusPartial = "partial"
	// StatusClarificationNeeded means the task did not route to execution;
	// the result carries the assessor's questions.
	StatusClarificationNeeded = "clarification_needed"
	// StatusCannotAssess means the assessor lacked the context to score the
	// task; the result names the missing context.
	StatusCannotAssess = "cannot_assess"
)

// UrgentStateKey is the session state key the orchestrator reads to decide
// urgency-sensitive routing.
const UrgentStateKey = "urgent"

// OrchestrationResult is the outcome of a full assess → route → execute →
// evaluate pipeline run.
type OrchestrationResult struct {
	Task       string           `json:"task"`
	Status     string           `json:"status"`
	Assessment score.Assessment `json:"assessment"`
	Decision   Decision         `json:"decision"`

	Solution   string                  `json:"solution,omitempty"`
	Evaluation *score.Evaluation       `json:"evaluation,omitempty"`
	Refinement *score.RefinementResult `json:"refinement,omitempty"`
	Consensus  *score.Consensus        `json:"consensus,omitempty"`

	Questions       []string `json:"questions,omitempty"`
	RequiredContext []string `json:"required_context,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// OrchestratorOptions overrides the orchestrator's composed strategies.
type OrchestratorOptions struct {
	// Router replaces the default routing bands and agent wiring.
	Router *Router
	// SinglePass replaces the default single-pass composition.
	SinglePass *agent.SinglePassAgent
	// Refiner replaces the default iterative-refinement composition.
	Refiner *agent.RefinerAgent
	// Ensemble wires an ensemble for high-complexity routes. Without one,
	// ensemble routes degrade to iterative refinement with a warning.
	Ensemble *agent.EnsembleAgent
}

// Orchestrator drives the profile pipeline: assess the task, route it by
// complexity, execute the routed strategy, and evaluate the outcome. It
// degrades gracefully: whenever at least a partial solution exists, failures
// downstream reduce confidence and add warnings instead of failing the run.
type Orchestrator struct {
	agent.BaseAgent

	assessor  *agent.AssessorAgent
	generator *agent.ModelAgent
	evaluator *agent.EvaluatorAgent

	singlePass *agent.SinglePassAgent
	refiner    *agent.RefinerAgent
	ensemble   *agent.EnsembleAgent
	router     *Router
}

// NewOrchestrator composes the pipeline from an assessor, a generator worker
// and an evaluator. Single-pass and refiner strategies default to
// compositions over the given workers.
func NewOrchestrator(
	name string,
	assessor *agent.AssessorAgent,
	generator *agent.ModelAgent,
	evaluator *agent.EvaluatorAgent,
	optFns ...func(o *OrchestratorOptions),
) *Orchestrator {
	opts := OrchestratorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Orchestrator{
		BaseAgent:  agent.NewBaseAgent(name),
		assessor:   assessor,
		generator:  generator,
		evaluator:  evaluator,
		singlePass: opts.SinglePass,
		refiner:    opts.Refiner,
		ensemble:   opts.Ensemble,
		router:     opts.Router,
	}

	if o.router == nil {
		o.router = NewRouter()
	}
	if o.singlePass == nil {
		o.singlePass = agent.NewSinglePassAgent(name+"-single-pass", generator, evaluator)
	}
	if o.refiner == nil {
		o.refiner = agent.NewRefinerAgent(name+"-refiner", generator, evaluator)
	}

	o.SetDescription("Routes tasks by assessed complexity and executes the matching strategy")

	subs := []core.Agent{assessor, o.singlePass, o.refiner}
	if o.ensemble != nil {
		subs = append(subs, o.ensemble)
	}
	_ = o.SetSubAgents(subs...)

	return o
}

// Orchestrate runs the full pipeline for one task.
//
// An error is returned only when no result exists at all (assessment failed
// outright, or the routed strategy produced nothing). Every other failure
// degrades: the result carries warnings and a partial status.
func (o *Orchestrator) Orchestrate(runCtx *core.RunContext, task string, urgent bool) (*OrchestrationResult, error) {
	assessment, err := o.assessor.Assess(runCtx, task)
	if err != nil {
		return nil, fmt.Errorf("assessment failed: %w", err)
	}

	result := &OrchestrationResult{Task: task, Assessment: assessment}

	if assessment.LowConfidence() && !assessment.NeedsClarification() {
		result.Warnings = append(result.Warnings, "low-confidence assessment; routing may be off")
	}

	decision := o.router.Route(assessment, urgent)
	result.Decision = decision

	switch decision.Recommendation {
	case score.RecommendCannotAssess:
		result.Status = StatusCannotAssess
		result.RequiredContext = assessment.RequiredContext
		result.Questions = assessment.Questions
		return result, nil
	case score.RecommendClarify:
		result.Status = StatusClarificationNeeded
		result.Questions = assessment.Questions
		result.RequiredContext = assessment.RequiredContext
		return result, nil
	}

	runCtx.LogInfo("orchestrator.routed",
		"strategy", string(decision.Recommendation),
		"agent", decision.Agent,
		"complexity", decision.Complexity)

	if err := o.execute(runCtx, task, decision, result); err != nil {
		return nil, err
	}

	if result.Status == "" {
		result.Status = StatusCompleted
	}
	return result, nil
}

func (o *Orchestrator) execute(runCtx *core.RunContext, task string, decision Decision, result *OrchestrationResult) error {
	switch decision.Recommendation {
	case score.RecommendSolveDirectly:
		return o.runDirect(runCtx, task, result)

	case score.RecommendSinglePass:
		res, err := o.singlePass.Solve(runCtx, task)
		if err != nil {
			return fmt.Errorf("single-pass strategy failed: %w", err)
		}
		result.Solution = res.Solution
		result.Evaluation = &res.Evaluation
		return nil

	case score.RecommendIterative:
		return o.runIterative(runCtx, task, result)

	case score.RecommendDecompose:
		return o.runDecompose(runCtx, task, result)

	case score.RecommendEnsemble:
		return o.runEnsemble(runCtx, task, result)

	default:
		return fmt.Errorf("no strategy wired for recommendation %q", decision.Recommendation)
	}
}

// runDirect solves low-complexity tasks with a single generator pass and a
// follow-up evaluation.
func (o *Orchestrator) runDirect(runCtx *core.RunContext, task string, result *OrchestrationResult) error {
	sol, err := agent.RunCapture(runCtx, o.generator, task, "direct")
	if err != nil {
		if sol == "" {
			return fmt.Errorf("direct solve failed: %w", err)
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("direct solve interrupted: %v", err))
		result.Status = StatusPartial
	}
	result.Solution = sol
	o.finalEvaluation(runCtx, task, result)
	return nil
}

func (o *Orchestrator) runIterative(runCtx *core.RunContext, task string, result *OrchestrationResult) error {
	rr, err := o.refiner.Refine(runCtx, task)
	if err != nil {
		return fmt.Errorf("iterative refinement failed: %w", err)
	}
	result.Solution = rr.Solution
	result.Refinement = &rr

	switch rr.Status {
	case score.StatusBudgetExhausted:
		result.Status = StatusPartial
		result.Warnings = append(result.Warnings, "budget exhausted before the quality bar was met; best attempt returned")
	case score.StatusMaxIterations:
		result.Warnings = append(result.Warnings, "iteration limit reached; best attempt returned")
	case score.StatusPlateauDetected:
		result.Warnings = append(result.Warnings, "refinement plateaued; best attempt returned")
	}
	return nil
}

// runDecompose handles urgent high-complexity tasks: when the assessor
// suggested substeps they are solved in order, each step seeing the results
// of the previous ones; otherwise the task falls back to iterative
// refinement.
func (o *Orchestrator) runDecompose(runCtx *core.RunContext, task string, result *OrchestrationResult) error {
	strategy := result.Assessment.Strategy
	if strategy == nil || len(strategy.Substeps) == 0 {
		result.Warnings = append(result.Warnings, "no substeps suggested; decomposition fell back to iterative refinement")
		return o.runIterative(runCtx, task, result)
	}

	var b strings.Builder
	for i, step := range strategy.Substeps {
		prompt := decomposePrompt(task, step, b.String())
		sol, err := agent.RunCapture(runCtx, o.generator, prompt, fmt.Sprintf("step_%d", i+1))
		if err != nil {
			if b.Len() == 0 {
				return fmt.Errorf("decomposition step %d failed: %w", i+1, err)
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("decomposition stopped at step %d of %d: %v", i+1, len(strategy.Substeps), err))
			result.Status = StatusPartial
			break
		}
		fmt.Fprintf(&b, "## Step %d: %s\n\n%s\n\n", i+1, step, sol)
	}

	result.Solution = strings.TrimSpace(b.String())
	o.finalEvaluation(runCtx, task, result)
	return nil
}

// decomposePrompt frames one substep with the overall task and the results
// produced so far.
func decomposePrompt(task, step, previous string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall task:\n%s\n\n", task)
	if previous != "" {
		fmt.Fprintf(&b, "Results from earlier steps:\n%s\n", previous)
	}
	fmt.Fprintf(&b, "Solve only this step:\n%s\n", step)
	return b.String()
}

// runEnsemble votes over concurrent strategies. Without a wired ensemble, or
// when too few strategies succeed, the route degrades to cheaper strategies
// rather than failing.
func (o *Orchestrator) runEnsemble(runCtx *core.RunContext, task string, result *OrchestrationResult) error {
	if o.ensemble == nil {
		result.Warnings = append(result.Warnings, "no ensemble wired; degraded to iterative refinement")
		return o.runIterative(runCtx, task, result)
	}

	cons, err := o.ensemble.RunEnsemble(runCtx, task)
	if err != nil {
		if !errors.Is(err, score.ErrInsufficientStrategies) {
			return fmt.Errorf("ensemble strategy failed: %w", err)
		}
		result.Warnings = append(result.Warnings, "too few ensemble strategies succeeded; degraded to single pass")
		result.Status = StatusPartial
		res, spErr := o.singlePass.Solve(runCtx, task)
		if spErr != nil {
			return fmt.Errorf("ensemble fallback failed: %w", spErr)
		}
		result.Solution = res.Solution
		result.Evaluation = &res.Evaluation
		return nil
	}

	result.Consensus = cons
	if cons.Selected != nil {
		result.Solution = cons.Selected.Solution
	}
	if cons.Warning != "" {
		result.Warnings = append(result.Warnings, cons.Warning)
	}
	o.finalEvaluation(runCtx, task, result)
	return nil
}

// finalEvaluation scores the solution for routes that did not already carry
// an evaluation. Evaluation failure is never fatal at this point.
func (o *Orchestrator) finalEvaluation(runCtx *core.RunContext, task string, result *OrchestrationResult) {
	if result.Solution == "" {
		return
	}
	eval, err := o.evaluator.Evaluate(runCtx, task, result.Solution)
	if err != nil {
		runCtx.LogWarn("orchestrator.final_evaluation_failed", "error", err)
		result.Warnings = append(result.Warnings, "final evaluation unavailable; solution returned unreviewed")
		return
	}
	result.Evaluation = &eval
}

// Run orchestrates the run's user content as the task and emits the final
// report. Urgency comes from the session state key "urgent".
func (o *Orchestrator) Run(runCtx *core.RunContext) error {
	task := runCtx.UserContent.Text()

	urgent := false
	if v, ok := runCtx.GetState(UrgentStateKey); ok {
		urgent, _ = v.(bool)
	}

	result, err := o.Orchestrate(runCtx, task, urgent)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("%s: routed %s at complexity %.1f",
		result.Status, result.Decision.Recommendation, result.Decision.Complexity)
	ev := core.NewReportEvent(runCtx.RunID, o.Name(), text, resultData(result))
	return runCtx.EmitEvent(ev)
}

// resultData projects the result to the generic map shape of core.DataPart.
func resultData(r *OrchestrationResult) map[string]any {
	raw, err := json.Marshal(r)
	if err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	return out
}

// DecodeResult extracts the orchestration result from the report event the
// named orchestrator emitted, scanning the run's events backwards.
func DecodeResult(events []core.Event, author string) (*OrchestrationResult, error) {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Author != author || ev.Content == nil {
			continue
		}
		for _, part := range ev.Content.Parts {
			dp, ok := part.(core.DataPart)
			if !ok {
				continue
			}
			raw, err := json.Marshal(dp.Data)
			if err != nil {
				return nil, fmt.Errorf("encode report data: %w", err)
			}
			var result OrchestrationResult
			if err := json.Unmarshal(raw, &result); err != nil {
				return nil, fmt.Errorf("decode report data: %w", err)
			}
			return &result, nil
		}
	}
	return nil, fmt.Errorf("no orchestration report from %q found", author)
}
