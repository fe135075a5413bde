package agent

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/score"
)

// EnsembleAgent runs the ensemble-coordination persona: N strategy agents
// attack the same task concurrently under isolated branch contexts, their
// solutions are evaluated, grouped by identity and voted over. The ensemble
// tolerates partial failure: it proceeds when at least score.MinStrategies
// branches produced a solution and fails with
// score.ErrInsufficientStrategies otherwise.
type EnsembleAgent struct {
	BaseAgent
	children    []core.Agent
	evaluator   *EvaluatorAgent
	maxParallel int
}

// EnsembleOption configures an EnsembleAgent.
type EnsembleOption func(*EnsembleAgent)

// WithMaxParallel bounds how many strategy branches run concurrently.
// Zero or negative means unbounded.
func WithMaxParallel(n int) EnsembleOption {
	return func(e *EnsembleAgent) { e.maxParallel = n }
}

// NewEnsembleAgent builds an ensemble over the given strategy agents. The
// evaluator is optional; without it, consensus groups carry zero quality
// scores and ranking relies on votes alone.
func NewEnsembleAgent(name string, evaluator *EvaluatorAgent, children []core.Agent, opts ...EnsembleOption) *EnsembleAgent {
	e := &EnsembleAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
		evaluator: evaluator,
	}
	for _, o := range opts {
		o(e)
	}
	e.SetDescription("Runs multiple strategies concurrently and votes over their solutions")
	subs := make([]core.Agent, 0, len(children)+1)
	subs = append(subs, children...)
	if evaluator != nil {
		subs = append(subs, evaluator)
	}
	_ = e.SetSubAgents(subs...)
	return e
}

// RunEnsemble fans the task out to every child strategy, evaluates the
// collected solutions and builds the consensus.
func (e *EnsembleAgent) RunEnsemble(runCtx *core.RunContext, task string) (*score.Consensus, error) {
	if len(e.children) == 0 {
		return nil, errors.New("ensemble has no strategy agents")
	}

	outcomes := make([]score.StrategyOutcome, len(e.children))

	g, gctx := errgroup.WithContext(runCtx.Context)
	if e.maxParallel > 0 {
		g.SetLimit(e.maxParallel)
	}

	for i, child := range e.children {
		branchCtx := runCtx.Clone()
		branchCtx.Context = gctx

		g.Go(func() error {
			sol, err := runChildCapture(branchCtx, child, task, fmt.Sprintf("%s.%s", e.Name(), child.Name()))
			outcomes[i] = score.StrategyOutcome{Agent: child.Name(), Solution: sol, Err: err}
			if err != nil {
				runCtx.LogWarn(
					"ensemble.branch_failed",
					"ensemble", e.Name(),
					"branch", child.Name(),
					"error", err.Error(),
				)
			}
			// Branch failures are tolerated; consensus math decides whether
			// enough survived.
			return nil
		})
	}

	_ = g.Wait()

	if e.evaluator != nil {
		for i := range outcomes {
			if !outcomes[i].Succeeded() {
				continue
			}
			evaluation, err := e.evaluator.Evaluate(runCtx, task, outcomes[i].Solution)
			if err != nil {
				runCtx.LogWarn(
					"ensemble.quality_evaluation_failed",
					"ensemble", e.Name(),
					"branch", outcomes[i].Agent,
					"error", err.Error(),
				)
				continue
			}
			if overall, ok := evaluation.EffectiveOverall(); ok {
				outcomes[i].Quality = score.Float(overall)
			}
		}
	}

	consensus, err := score.BuildConsensus(outcomes)
	if err != nil {
		return nil, err
	}

	if consensus.Warning != "" {
		runCtx.LogWarn("ensemble.no_consensus", "ensemble", e.Name(), "warning", consensus.Warning)
	}

	return consensus, nil
}

// Run implements core.Agent: run the ensemble over the user content and emit
// the consensus as a report event.
func (e *EnsembleAgent) Run(runCtx *core.RunContext) error {
	consensus, err := e.RunEnsemble(runCtx, runCtx.UserContent.Text())
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"%d/%d strategies produced solutions; selected %s with %d vote(s), confidence %.2f",
		consensus.SolutionsGenerated, consensus.StrategiesTried,
		consensus.Selected.SolutionID, consensus.Selected.VoteCount, consensus.Confidence,
	)
	if consensus.Warning != "" {
		text += "; " + consensus.Warning
	}

	ev := core.NewReportEvent(runCtx.RunID, e.Name(), text, reportData(consensus))
	if runCtx.Branch != "" {
		branch := runCtx.Branch
		ev.Branch = &branch
	}

	return runCtx.EmitEvent(ev)
}
