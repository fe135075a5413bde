package engine

import (
	"fmt"

	"github.com/metamesh-ai/metamesh/collection"
	"github.com/metamesh-ai/metamesh/score"
)

// Decision is the result of routing an assessment: the strategy that should
// execute the task and the agent wired to that strategy.
type Decision struct {
	// Recommendation is the routed execution strategy.
	Recommendation score.Recommendation `json:"recommendation"`
	// Agent is the registered strategy agent name, empty when the task
	// routes to clarification instead of execution.
	Agent string `json:"agent,omitempty"`
	// Complexity is the effective complexity the decision was based on.
	Complexity float64 `json:"complexity"`
	// Reason explains the routing in one line.
	Reason string `json:"reason"`
}

// Executable reports whether the decision routes to a strategy agent.
func (d Decision) Executable() bool { return d.Agent != "" }

// RouterOptions configures a Router.
type RouterOptions struct {
	// Routing overrides the default complexity bands. Nil fields keep the
	// built-in thresholds.
	Routing collection.RoutingConfig

	// Agents maps executable recommendations to registered agent names.
	// Missing entries fall back to the default wiring.
	Agents map[score.Recommendation]string
}

// defaultStrategyAgents is the built-in recommendation → agent wiring.
var defaultStrategyAgents = map[score.Recommendation]string{
	score.RecommendSolveDirectly: "direct-solver",
	score.RecommendSinglePass:    "single-pass-solver",
	score.RecommendIterative:     "iterative-refiner",
	score.RecommendDecompose:     "task-decomposer",
	score.RecommendEnsemble:      "ensemble-coordinator",
}

// Router maps assessments to strategy agents using configurable complexity
// bands. The zero thresholds come from the score package; a collection
// profile may override them.
type Router struct {
	direct     float64
	singlePass float64
	iterative  float64

	agents map[score.Recommendation]string
}

// NewRouter builds a Router, applying profile overrides where given.
func NewRouter(optFns ...func(o *RouterOptions)) *Router {
	opts := RouterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Router{
		direct:     score.DirectThreshold,
		singlePass: score.SinglePassThreshold,
		iterative:  score.IterativeThreshold,
		agents:     make(map[score.Recommendation]string, len(defaultStrategyAgents)),
	}

	if opts.Routing.DirectThreshold != nil {
		r.direct = *opts.Routing.DirectThreshold
	}
	if opts.Routing.SinglePassThreshold != nil {
		r.singlePass = *opts.Routing.SinglePassThreshold
	}
	if opts.Routing.IterativeThreshold != nil {
		r.iterative = *opts.Routing.IterativeThreshold
	}

	for rec, name := range defaultStrategyAgents {
		r.agents[rec] = name
	}
	for rec, name := range opts.Agents {
		r.agents[rec] = name
	}

	return r
}

// Route maps an assessment to the strategy that should execute the task.
//
// Assessments needing clarification (explicit clarify / cannot-assess
// recommendations, or confidence below the routing floor) never route to
// execution. Urgent tasks at or above the iterative threshold decompose
// instead of running an ensemble.
func (r *Router) Route(a score.Assessment, urgent bool) Decision {
	if a.Recommendation == score.RecommendCannotAssess {
		return Decision{
			Recommendation: score.RecommendCannotAssess,
			Complexity:     a.EffectiveComplexity(),
			Reason:         "assessor could not score the task with the available context",
		}
	}
	if a.NeedsClarification() {
		return Decision{
			Recommendation: score.RecommendClarify,
			Complexity:     a.EffectiveComplexity(),
			Reason:         "requirements unclear or confidence below routing floor",
		}
	}

	c := a.EffectiveComplexity()

	var rec score.Recommendation
	switch {
	case urgent && c >= r.iterative:
		rec = score.RecommendDecompose
	case c <= r.direct:
		rec = score.RecommendSolveDirectly
	case c <= r.singlePass:
		rec = score.RecommendSinglePass
	case c <= r.iterative:
		rec = score.RecommendIterative
	default:
		rec = score.RecommendEnsemble
	}

	return Decision{
		Recommendation: rec,
		Agent:          r.agents[rec],
		Complexity:     c,
		Reason:         fmt.Sprintf("complexity %.1f routes to %s", c, rec),
	}
}
