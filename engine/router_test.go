package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metamesh-ai/metamesh/collection"
	"github.com/metamesh-ai/metamesh/score"
)

func scored(complexity, confidence float64) score.Assessment {
	return score.Assessment{
		Complexity:     &complexity,
		Confidence:     confidence,
		Recommendation: score.RecommendSinglePass,
	}
}

func TestRouterDefaultBands(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		name       string
		complexity float64
		urgent     bool
		want       score.Recommendation
	}{
		{"trivial", 1.5, false, score.RecommendSolveDirectly},
		{"direct boundary", 3.0, false, score.RecommendSolveDirectly},
		{"moderate", 5.0, false, score.RecommendSinglePass},
		{"single-pass boundary", 6.0, false, score.RecommendSinglePass},
		{"complex", 7.5, false, score.RecommendIterative},
		{"iterative boundary", 8.5, false, score.RecommendIterative},
		{"extreme", 9.4, false, score.RecommendEnsemble},
		{"urgent extreme", 9.4, true, score.RecommendDecompose},
		{"urgent at boundary", 8.5, true, score.RecommendDecompose},
		{"urgent moderate", 5.0, true, score.RecommendSinglePass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(scored(tt.complexity, 0.9), tt.urgent)
			assert.Equal(t, tt.want, d.Recommendation)
			assert.True(t, d.Executable())
			assert.Equal(t, tt.complexity, d.Complexity)
		})
	}
}

func TestRouterClarificationNeverExecutes(t *testing.T) {
	r := NewRouter()

	d := r.Route(score.Assessment{
		Recommendation: score.RecommendClarify,
		Confidence:     0.2,
	}, false)
	assert.Equal(t, score.RecommendClarify, d.Recommendation)
	assert.False(t, d.Executable())

	// Low confidence on a scored assessment also routes to clarification.
	d = r.Route(scored(4.0, 0.3), false)
	assert.Equal(t, score.RecommendClarify, d.Recommendation)
	assert.False(t, d.Executable())
}

func TestRouterCannotAssessPassesThrough(t *testing.T) {
	r := NewRouter()

	d := r.Route(score.Assessment{
		Recommendation: score.RecommendCannotAssess,
		Confidence:     0.2,
	}, false)
	assert.Equal(t, score.RecommendCannotAssess, d.Recommendation)
	assert.False(t, d.Executable())
}

func TestRouterProfileOverridesThresholds(t *testing.T) {
	direct := 5.0
	r := NewRouter(func(o *RouterOptions) {
		o.Routing = collection.RoutingConfig{DirectThreshold: &direct}
	})

	d := r.Route(scored(4.5, 0.9), false)
	assert.Equal(t, score.RecommendSolveDirectly, d.Recommendation)
}

func TestRouterAgentWiringOverride(t *testing.T) {
	r := NewRouter(func(o *RouterOptions) {
		o.Agents = map[score.Recommendation]string{
			score.RecommendSinglePass: "reviewer",
		}
	})

	d := r.Route(scored(5.0, 0.9), false)
	assert.Equal(t, "reviewer", d.Agent)

	// Unmapped recommendations keep the default wiring.
	d = r.Route(scored(7.5, 0.9), false)
	assert.Equal(t, "iterative-refiner", d.Agent)
}

func TestRouterFallbackComplexityRoutesSinglePass(t *testing.T) {
	r := NewRouter()

	// Unscored but confident enough to route: falls back to complexity 5.0.
	d := r.Route(score.Assessment{
		Recommendation: score.RecommendSinglePass,
		Confidence:     0.6,
	}, false)
	assert.Equal(t, score.RecommendSinglePass, d.Recommendation)
	assert.Equal(t, score.FallbackComplexity, d.Complexity)
}
