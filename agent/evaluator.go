package agent

import (
	"fmt"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/schema"
	"github.com/metamesh-ai/metamesh/score"
)

// TaskStateKey is the session state key strategies consult for the original
// task when evaluating a candidate standalone.
const TaskStateKey = "task"

// EvaluatorAgent runs the solution-evaluation persona: it scores a candidate
// solution on correctness, completeness, quality and testability, tolerating
// partial evaluations (nil dimensions when e.g. tests could not run) and
// carrying located weakness records for refinement feedback.
type EvaluatorAgent struct {
	BaseAgent
	worker *ModelAgent
}

// NewEvaluatorAgent wraps a model worker as an evaluator strategy.
func NewEvaluatorAgent(name string, worker *ModelAgent) *EvaluatorAgent {
	e := &EvaluatorAgent{
		BaseAgent: NewBaseAgent(name),
		worker:    worker,
	}
	e.SetDescription("Scores candidate solutions across quality dimensions")
	_ = e.SetSubAgents(worker)
	return e
}

// evaluationPrompt frames the task and candidate for the evaluator persona.
func evaluationPrompt(task, candidate string) string {
	return fmt.Sprintf("Task:\n%s\n\nCandidate solution:\n%s\n\nEvaluate the candidate against the task.", task, candidate)
}

// Evaluate scores a candidate solution for the given task.
func (e *EvaluatorAgent) Evaluate(runCtx *core.RunContext, task, candidate string) (score.Evaluation, error) {
	raw, err := runChildCapture(runCtx, e.worker, evaluationPrompt(task, candidate), "evaluate")
	if err != nil {
		return score.Evaluation{}, fmt.Errorf("evaluation run failed: %w", err)
	}

	evaluation, err := schema.DecodeEvaluation(e.Name(), raw)
	if err != nil {
		return score.Evaluation{}, fmt.Errorf("evaluation output: %w", err)
	}

	if evaluation.Scores.Partial() {
		runCtx.LogWarn("evaluator.partial_evaluation", "agent", e.Name())
	}

	return evaluation, nil
}

// Run implements core.Agent: the run's user content is the candidate, the
// original task is read from session state (key "task", falling back to the
// candidate itself). The evaluation is emitted as a report event.
func (e *EvaluatorAgent) Run(runCtx *core.RunContext) error {
	candidate := runCtx.UserContent.Text()

	task := candidate
	if v, ok := runCtx.GetState(TaskStateKey); ok {
		if s, ok := v.(string); ok && s != "" {
			task = s
		}
	}

	evaluation, err := e.Evaluate(runCtx, task, candidate)
	if err != nil {
		return err
	}

	overall, scored := evaluation.EffectiveOverall()
	text := "evaluation produced no usable score"
	if scored {
		text = fmt.Sprintf(
			"%s (%.2f, %s)",
			evaluation.EffectiveVerdict(), overall, score.Interpret(overall),
		)
	}

	ev := core.NewReportEvent(runCtx.RunID, e.Name(), text, reportData(evaluation))
	if runCtx.Branch != "" {
		branch := runCtx.Branch
		ev.Branch = &branch
	}

	return runCtx.EmitEvent(ev)
}
