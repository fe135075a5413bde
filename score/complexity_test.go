package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scored(complexity, confidence float64) Assessment {
	return Assessment{Complexity: Float(complexity), Confidence: confidence}
}

func TestRoute_Bands(t *testing.T) {
	tests := []struct {
		name       string
		assessment Assessment
		urgent     bool
		want       Recommendation
	}{
		{"trivial", scored(1.0, 0.95), false, RecommendSolveDirectly},
		{"exactly direct threshold", scored(3.0, 0.95), false, RecommendSolveDirectly},
		{"moderate", scored(4.5, 0.9), false, RecommendSinglePass},
		{"exactly single pass threshold", scored(6.0, 0.9), false, RecommendSinglePass},
		{"complex", scored(7.5, 0.85), false, RecommendIterative},
		{"exactly iterative threshold", scored(8.5, 0.85), false, RecommendIterative},
		{"extreme", scored(9.5, 0.8), false, RecommendEnsemble},
		{"extreme but urgent decomposes", scored(9.5, 0.8), true, RecommendDecompose},
		{"threshold urgency boundary", scored(8.5, 0.8), true, RecommendDecompose},
		{"urgent moderate unaffected", scored(5.0, 0.9), true, RecommendSinglePass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.assessment, tt.urgent))
		})
	}
}

func TestRoute_ClarificationPaths(t *testing.T) {
	t.Run("low confidence routes to clarification", func(t *testing.T) {
		a := scored(4.0, 0.3)
		assert.Equal(t, RecommendClarify, Route(a, false))
	})

	t.Run("explicit clarify request is honored", func(t *testing.T) {
		a := Assessment{Recommendation: RecommendClarify, Confidence: 0.2, Questions: []string{"which auth system?"}}
		assert.Equal(t, RecommendClarify, Route(a, false))
	})

	t.Run("cannot-assess is passed through", func(t *testing.T) {
		a := Assessment{Recommendation: RecommendCannotAssess, RequiredContext: []string{"schema of the target DB"}}
		assert.Equal(t, RecommendCannotAssess, Route(a, false))
	})
}

func TestAssessment_EffectiveComplexity(t *testing.T) {
	assert.Equal(t, 7.0, scored(7.0, 0.9).EffectiveComplexity())
	assert.Equal(t, FallbackComplexity, Assessment{Confidence: 0.9}.EffectiveComplexity())
}

func TestAssessment_Flags(t *testing.T) {
	assert.True(t, scored(4.0, 0.4).NeedsClarification())
	assert.False(t, scored(4.0, 0.9).NeedsClarification())
	assert.True(t, Assessment{Confidence: 0.9}.LowConfidence(), "nil complexity is low confidence")
	assert.True(t, scored(4.0, 0.4).LowConfidence())
	assert.False(t, scored(4.0, 0.9).LowConfidence())
}
