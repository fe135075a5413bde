package agent

import (
	"fmt"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/score"
)

// SinglePassAgent runs the single-pass-with-review strategy: generate a
// solution, evaluate it, and apply at most one refinement pass when the
// evaluator's verdict is iterate. Accept and reject both stop the pass;
// reject means the approach is flawed and a single revision will not save it.
type SinglePassAgent struct {
	BaseAgent
	generator *ModelAgent
	evaluator *EvaluatorAgent
}

// SinglePassResult carries the reviewed solution and its final evaluation.
type SinglePassResult struct {
	Solution   string           `json:"solution"`
	Evaluation score.Evaluation `json:"evaluation"`
	Revised    bool             `json:"revised"`
}

// NewSinglePassAgent composes a generator worker with an evaluator review.
func NewSinglePassAgent(name string, generator *ModelAgent, evaluator *EvaluatorAgent) *SinglePassAgent {
	s := &SinglePassAgent{
		BaseAgent: NewBaseAgent(name),
		generator: generator,
		evaluator: evaluator,
	}
	s.SetDescription("Generates a solution with a single review-and-revise pass")
	_ = s.SetSubAgents(generator, evaluator)
	return s
}

// Solve generates, reviews and conditionally revises one solution.
func (s *SinglePassAgent) Solve(runCtx *core.RunContext, task string) (SinglePassResult, error) {
	sol, err := runChildCapture(runCtx, s.generator, task, "generate")
	if err != nil {
		return SinglePassResult{}, fmt.Errorf("generation failed: %w", err)
	}

	evaluation, err := s.evaluator.Evaluate(runCtx, task, sol)
	if err != nil {
		// Degrade to the unreviewed solution rather than discarding it.
		runCtx.LogWarn("singlepass.review_failed", "agent", s.Name(), "error", err.Error())
		return SinglePassResult{Solution: sol}, nil
	}

	result := SinglePassResult{Solution: sol, Evaluation: evaluation}
	if evaluation.EffectiveVerdict() != score.VerdictIterate {
		return result, nil
	}

	feedback := renderWeaknesses(evaluation.Weaknesses)
	revised, err := runChildCapture(runCtx, s.generator, refinementPrompt(task, sol, feedback), "revise")
	if err != nil || revised == "" {
		runCtx.LogWarn("singlepass.revision_failed", "agent", s.Name())
		return result, nil
	}

	reEval, err := s.evaluator.Evaluate(runCtx, task, revised)
	if err != nil {
		runCtx.LogWarn("singlepass.re_review_failed", "agent", s.Name(), "error", err.Error())
		return SinglePassResult{Solution: revised, Evaluation: evaluation, Revised: true}, nil
	}

	// Keep whichever attempt scored higher.
	origScore, _ := evaluation.EffectiveOverall()
	revScore, _ := reEval.EffectiveOverall()
	if revScore >= origScore {
		return SinglePassResult{Solution: revised, Evaluation: reEval, Revised: true}, nil
	}
	return result, nil
}

// Run implements core.Agent: solve the run's user content and emit the
// result as a report event.
func (s *SinglePassAgent) Run(runCtx *core.RunContext) error {
	result, err := s.Solve(runCtx, runCtx.UserContent.Text())
	if err != nil {
		return err
	}

	text := "solution generated"
	if overall, ok := result.Evaluation.EffectiveOverall(); ok {
		text = fmt.Sprintf("solution %s (%.2f)", result.Evaluation.EffectiveVerdict(), overall)
	}
	if result.Revised {
		text += ", revised once"
	}

	ev := core.NewReportEvent(runCtx.RunID, s.Name(), text, reportData(result))
	if runCtx.Branch != "" {
		branch := runCtx.Branch
		ev.Branch = &branch
	}

	return runCtx.EmitEvent(ev)
}
