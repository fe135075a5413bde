package score

// RefinementStatus names why an iterative refinement loop terminated.
type RefinementStatus string

const (
	StatusSuccess         RefinementStatus = "success"
	StatusMaxIterations   RefinementStatus = "max_iterations_reached"
	StatusPlateauDetected RefinementStatus = "plateau_detected"
	StatusBudgetExhausted RefinementStatus = "budget_exhausted"
)

// Refinement loop defaults.
const (
	DefaultMaxIterations = 5
	SuccessThreshold     = 0.9

	// PlateauWindow is how many identical trailing scores declare a plateau.
	PlateauWindow = 3
)

// IterationRecord captures one generate-evaluate-refine cycle.
type IterationRecord struct {
	Iteration int     `json:"iteration"`
	Score     float64 `json:"score"`
	Approach  string  `json:"approach,omitempty"`
}

// History is the ordered record of refinement iterations.
type History []IterationRecord

// Plateaued reports whether the trailing PlateauWindow scores are identical,
// meaning further iterations are unlikely to improve the solution.
func (h History) Plateaued() bool {
	if len(h) < PlateauWindow {
		return false
	}
	last := h[len(h)-1].Score
	for _, rec := range h[len(h)-PlateauWindow : len(h)-1] {
		if rec.Score != last {
			return false
		}
	}
	return true
}

// Best returns the highest-scoring iteration. Ties keep the earliest, so the
// cheapest equivalent attempt wins. ok is false on empty history.
func (h History) Best() (rec IterationRecord, ok bool) {
	for i, r := range h {
		if i == 0 || r.Score > rec.Score {
			rec = r
		}
	}
	return rec, len(h) > 0
}

// Scores projects the history to its score sequence.
func (h History) Scores() []float64 {
	out := make([]float64, len(h))
	for i, r := range h {
		out[i] = r.Score
	}
	return out
}

// RefinementResult is the terminal outcome of a refinement loop. Whatever the
// status, it always carries the best attempt seen and the full history.
type RefinementResult struct {
	Status        RefinementStatus `json:"status"`
	Solution      string           `json:"solution"`
	BestScore     float64          `json:"best_score"`
	BestIteration int              `json:"best_iteration"`
	History       History          `json:"history"`
}

// Succeeded reports whether the loop terminated by reaching the success
// threshold rather than running out of iterations, progress or budget.
func (r RefinementResult) Succeeded() bool { return r.Status == StatusSuccess }
