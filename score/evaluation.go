package score

// Severity classifies how serious a reported weakness is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weakness is a concrete, located problem found in a candidate solution.
// Location points at the offending spot (file/function/section).
type Weakness struct {
	Issue      string   `json:"issue"`
	Location   string   `json:"location"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion"`
}

// Dimensions holds per-dimension soft scores for a candidate solution.
// A nil dimension means the evaluator could not score it (e.g. tests could
// not run), which keeps partial evaluations usable.
type Dimensions struct {
	Correctness  *float64 `json:"correctness"`
	Completeness *float64 `json:"completeness"`
	Quality      *float64 `json:"quality"`
	Testability  *float64 `json:"testability"`
}

// Overall returns the mean of the non-nil dimensions, or nil when every
// dimension is nil.
func (d Dimensions) Overall() *float64 {
	var sum float64
	var n int
	for _, v := range []*float64{d.Correctness, d.Completeness, d.Quality, d.Testability} {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// Partial reports whether at least one dimension could not be scored.
func (d Dimensions) Partial() bool {
	return d.Correctness == nil || d.Completeness == nil || d.Quality == nil || d.Testability == nil
}

// Evaluation is the decoded result of scoring one candidate solution.
type Evaluation struct {
	Overall    *float64   `json:"overall_score"`
	Scores     Dimensions `json:"scores"`
	Strengths  []string   `json:"strengths,omitempty"`
	Weaknesses []Weakness `json:"weaknesses,omitempty"`
	Verdict    Verdict    `json:"recommendation"`
}

// EffectiveOverall returns the reported overall score, falling back to the
// mean of the scored dimensions. The bool is false when nothing was scored.
func (e Evaluation) EffectiveOverall() (float64, bool) {
	if e.Overall != nil {
		return *e.Overall, true
	}
	if derived := e.Scores.Overall(); derived != nil {
		return *derived, true
	}
	return 0, false
}

// EffectiveVerdict returns the reported verdict, deriving one from the
// effective overall score when the evaluator omitted it. An evaluation with
// no usable score at all yields reject.
func (e Evaluation) EffectiveVerdict() Verdict {
	if e.Verdict != "" {
		return e.Verdict
	}
	overall, ok := e.EffectiveOverall()
	if !ok {
		return VerdictReject
	}
	return VerdictFor(overall)
}

// HighSeverityWeaknesses filters the weakness list to severity high.
func (e Evaluation) HighSeverityWeaknesses() []Weakness {
	var out []Weakness
	for _, w := range e.Weaknesses {
		if w.Severity == SeverityHigh {
			out = append(out, w)
		}
	}
	return out
}
