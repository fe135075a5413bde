package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/score"
)

// RefinerAgent runs the iterative-refinement persona: a generate -> evaluate
// -> refine loop with explicit termination controls. Each iteration's
// candidate is persisted as an artifact, and evaluator weaknesses feed the
// next refinement prompt.
//
// Termination: score at or above score.SuccessThreshold (success), iteration
// limit (max_iterations_reached), identical trailing scores
// (plateau_detected), or run budget exhaustion (budget_exhausted). Whatever
// the cause, the best attempt plus the full iteration history is returned.
type RefinerAgent struct {
	BaseAgent
	generator *ModelAgent
	evaluator *EvaluatorAgent
	maxIters  int
	interval  time.Duration
}

// RefinerOption configures a RefinerAgent.
type RefinerOption func(*RefinerAgent)

// WithMaxIterations caps the number of generate-evaluate-refine cycles.
func WithMaxIterations(n int) RefinerOption {
	return func(r *RefinerAgent) { r.maxIters = n }
}

// WithInterval sets a delay between iterations, for rate limiting against
// provider quotas.
func WithInterval(d time.Duration) RefinerOption {
	return func(r *RefinerAgent) { r.interval = d }
}

// NewRefinerAgent builds a refinement loop around a generator worker and an
// evaluator. Defaults: score.DefaultMaxIterations cycles, no interval.
func NewRefinerAgent(name string, generator *ModelAgent, evaluator *EvaluatorAgent, opts ...RefinerOption) *RefinerAgent {
	r := &RefinerAgent{
		BaseAgent: NewBaseAgent(name),
		generator: generator,
		evaluator: evaluator,
		maxIters:  score.DefaultMaxIterations,
	}
	for _, o := range opts {
		o(r)
	}
	r.SetDescription("Iteratively refines a solution until it meets the quality bar")
	_ = r.SetSubAgents(generator, evaluator)
	return r
}

// refinementPrompt frames the previous attempt and evaluator feedback for the
// next generation cycle.
func refinementPrompt(task, previous, feedback string) string {
	p := fmt.Sprintf("Task:\n%s\n\nPrevious attempt:\n%s\n", task, previous)
	if feedback != "" {
		p += fmt.Sprintf("\nIdentified weaknesses:\n%s\nAddress every weakness in a revised solution.", feedback)
	} else {
		p += "\nImprove the attempt."
	}
	return p
}

// Refine executes the loop and returns the terminal result. The error return
// is reserved for failures before any attempt exists; once at least one
// iteration completed, degradation is expressed through the result status
// instead.
func (r *RefinerAgent) Refine(runCtx *core.RunContext, task string) (score.RefinementResult, error) {
	var (
		history   score.History
		solutions []string
		status    score.RefinementStatus
		feedback  string
	)

	prompt := task

	for i := 1; i <= r.maxIters; i++ {
		select {
		case <-runCtx.Done():
			return score.RefinementResult{}, runCtx.Err()
		default:
		}

		runCtx.LogInfo("refiner.iteration.start", "agent", r.Name(), "iteration", i)

		sol, err := runChildCapture(runCtx, r.generator, prompt, fmt.Sprintf("iteration_%d", i))
		if err != nil || (sol == "" && runCtx.Budget.Exhausted()) {
			if runCtx.Budget.Exhausted() || (err != nil && errors.Is(err, core.ErrBudgetExhausted)) {
				status = score.StatusBudgetExhausted
				break
			}
			if errors.Is(err, ErrEscalated) {
				break
			}
			if len(history) == 0 {
				return score.RefinementResult{}, fmt.Errorf("generation failed at iteration %d: %w", i, err)
			}
			runCtx.LogWarn("refiner.generation_failed", "agent", r.Name(), "iteration", i, "error", err.Error())
			break
		}

		if runCtx.ArtifactStore != nil {
			if err := runCtx.SaveArtifact(fmt.Sprintf("candidate_%d", i), []byte(sol)); err != nil {
				runCtx.LogWarn("refiner.artifact_save_failed", "agent", r.Name(), "iteration", i, "error", err.Error())
			}
		}

		evaluation, err := r.evaluator.Evaluate(runCtx, task, sol)
		if err != nil {
			if runCtx.Budget.Exhausted() {
				// Keep the unscored attempt so the best-attempt bookkeeping
				// still sees it.
				solutions = append(solutions, sol)
				history = append(history, score.IterationRecord{Iteration: i, Score: 0, Approach: "unevaluated"})
				status = score.StatusBudgetExhausted
				break
			}
			runCtx.LogWarn("refiner.evaluation_failed", "agent", r.Name(), "iteration", i, "error", err.Error())
			solutions = append(solutions, sol)
			history = append(history, score.IterationRecord{Iteration: i, Score: 0, Approach: "unevaluated"})
			continue
		}

		overall, _ := evaluation.EffectiveOverall()
		approach := "refinement"
		if i == 1 {
			approach = "initial"
		}
		solutions = append(solutions, sol)
		history = append(history, score.IterationRecord{Iteration: i, Score: overall, Approach: approach})

		runCtx.LogInfo(
			"refiner.iteration.scored",
			"agent", r.Name(),
			"iteration", i,
			"score", overall,
			"verdict", string(evaluation.EffectiveVerdict()),
		)

		if overall >= score.SuccessThreshold {
			status = score.StatusSuccess
			break
		}
		if history.Plateaued() {
			status = score.StatusPlateauDetected
			break
		}

		feedback = renderWeaknesses(evaluation.Weaknesses)
		prompt = refinementPrompt(task, sol, feedback)

		if r.interval > 0 && i < r.maxIters {
			select {
			case <-runCtx.Done():
				return score.RefinementResult{}, runCtx.Err()
			case <-time.After(r.interval):
			}
		}
	}

	if len(history) == 0 {
		return score.RefinementResult{}, errors.New("refinement produced no attempts")
	}
	if status == "" {
		status = score.StatusMaxIterations
	}

	best, _ := history.Best()
	return score.RefinementResult{
		Status:        status,
		Solution:      solutions[best.Iteration-1],
		BestScore:     best.Score,
		BestIteration: best.Iteration,
		History:       history,
	}, nil
}

// Run implements core.Agent: refine the run's user content and emit the
// terminal result as a report event.
func (r *RefinerAgent) Run(runCtx *core.RunContext) error {
	result, err := r.Refine(runCtx, runCtx.UserContent.Text())
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"%s after %d iteration(s); best score %.2f at iteration %d",
		result.Status, len(result.History), result.BestScore, result.BestIteration,
	)
	ev := core.NewReportEvent(runCtx.RunID, r.Name(), text, reportData(result))
	if runCtx.Branch != "" {
		branch := runCtx.Branch
		ev.Branch = &branch
	}

	return runCtx.EmitEvent(ev)
}
