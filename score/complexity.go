package score

// Recommendation names the execution strategy suggested for a task.
type Recommendation string

const (
	RecommendSolveDirectly Recommendation = "solve-directly"
	RecommendSinglePass    Recommendation = "single-pass-with-review"
	RecommendIterative     Recommendation = "iterative-refinement"
	RecommendDecompose     Recommendation = "decompose"
	RecommendEnsemble      Recommendation = "ensemble"
	RecommendClarify       Recommendation = "clarify-requirements"
	RecommendCannotAssess  Recommendation = "cannot-assess"
)

// Complexity routing thresholds (scores are 1.0-10.0).
const (
	DirectThreshold     = 3.0
	SinglePassThreshold = 6.0
	IterativeThreshold  = 8.5

	// FallbackComplexity is assumed when the assessor declines to score but
	// the task must still be routed.
	FallbackComplexity = 5.0

	// MinRoutingConfidence is the floor below which an assessment routes to
	// clarification instead of execution.
	MinRoutingConfidence = 0.5
)

// Strategy is the assessor's suggested execution plan.
type Strategy struct {
	Approach            string   `json:"approach"`
	Substeps            []string `json:"substeps,omitempty"`
	EstimatedIterations int      `json:"estimated_iterations,omitempty"`
	DelegateTo          string   `json:"delegate_to,omitempty"`
}

// Assessment is the decoded output of a complexity assessment. Complexity is
// nil when the assessor could not score the task (unclear requirements or
// missing context).
type Assessment struct {
	Complexity      *float64       `json:"complexity_score"`
	Confidence      float64        `json:"confidence"`
	Recommendation  Recommendation `json:"recommendation"`
	Reasoning       string         `json:"reasoning,omitempty"`
	Strategy        *Strategy      `json:"suggested_strategy,omitempty"`
	Questions       []string       `json:"questions,omitempty"`
	RequiredContext []string       `json:"required_context,omitempty"`
}

// EffectiveComplexity returns the assessed complexity, or FallbackComplexity
// when the assessor declined to score.
func (a Assessment) EffectiveComplexity() float64 {
	if a.Complexity == nil {
		return FallbackComplexity
	}
	return *a.Complexity
}

// NeedsClarification reports whether the task cannot be executed as-is: the
// assessor asked for clarification or more context, or scored with confidence
// below the routing floor.
func (a Assessment) NeedsClarification() bool {
	return a.Recommendation == RecommendClarify ||
		a.Recommendation == RecommendCannotAssess ||
		a.Confidence < MinRoutingConfidence
}

// LowConfidence reports a scored assessment that should carry a warning
// downstream even though it still routes.
func (a Assessment) LowConfidence() bool {
	return a.Complexity == nil || a.Confidence < MinRoutingConfidence
}

// Route maps an assessment to the strategy that should execute the task.
//
// Bands: complexity <= 3.0 solve-directly; <= 6.0 single-pass-with-review;
// <= 8.5 iterative-refinement; above that ensemble. Urgent tasks at 8.5 or
// higher decompose instead of running an ensemble (ensembles multiply cost
// and latency). Assessments needing clarification never route to execution.
func Route(a Assessment, urgent bool) Recommendation {
	if a.Recommendation == RecommendCannotAssess {
		return RecommendCannotAssess
	}
	if a.NeedsClarification() {
		return RecommendClarify
	}

	c := a.EffectiveComplexity()

	if urgent && c >= IterativeThreshold {
		return RecommendDecompose
	}

	switch {
	case c <= DirectThreshold:
		return RecommendSolveDirectly
	case c <= SinglePassThreshold:
		return RecommendSinglePass
	case c <= IterativeThreshold:
		return RecommendIterative
	default:
		return RecommendEnsemble
	}
}
