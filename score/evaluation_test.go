package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensions_Overall(t *testing.T) {
	t.Run("all scored", func(t *testing.T) {
		d := Dimensions{
			Correctness:  Float(0.9),
			Completeness: Float(0.8),
			Quality:      Float(0.7),
			Testability:  Float(0.6),
		}
		overall := d.Overall()
		require.NotNil(t, overall)
		assert.InDelta(t, 0.75, *overall, 1e-9)
		assert.False(t, d.Partial())
	})

	t.Run("partial evaluation averages scored dimensions only", func(t *testing.T) {
		d := Dimensions{
			Correctness:  Float(0.8),
			Completeness: Float(0.6),
			// quality and testability could not be scored
		}
		overall := d.Overall()
		require.NotNil(t, overall)
		assert.InDelta(t, 0.7, *overall, 1e-9)
		assert.True(t, d.Partial())
	})

	t.Run("nothing scored yields nil", func(t *testing.T) {
		assert.Nil(t, Dimensions{}.Overall())
	})
}

func TestEvaluation_EffectiveOverallAndVerdict(t *testing.T) {
	t.Run("reported overall wins", func(t *testing.T) {
		e := Evaluation{
			Overall: Float(0.92),
			Scores:  Dimensions{Correctness: Float(0.5)},
		}
		got, ok := e.EffectiveOverall()
		require.True(t, ok)
		assert.InDelta(t, 0.92, got, 1e-9)
		assert.Equal(t, VerdictAccept, e.EffectiveVerdict())
	})

	t.Run("derived from dimensions when overall missing", func(t *testing.T) {
		e := Evaluation{Scores: Dimensions{Correctness: Float(0.6), Quality: Float(0.8)}}
		got, ok := e.EffectiveOverall()
		require.True(t, ok)
		assert.InDelta(t, 0.7, got, 1e-9)
		assert.Equal(t, VerdictIterate, e.EffectiveVerdict())
	})

	t.Run("unscored evaluation rejects", func(t *testing.T) {
		e := Evaluation{}
		_, ok := e.EffectiveOverall()
		assert.False(t, ok)
		assert.Equal(t, VerdictReject, e.EffectiveVerdict())
	})

	t.Run("explicit verdict is preserved", func(t *testing.T) {
		e := Evaluation{Overall: Float(0.95), Verdict: VerdictIterate}
		assert.Equal(t, VerdictIterate, e.EffectiveVerdict())
	})
}

func TestEvaluation_HighSeverityWeaknesses(t *testing.T) {
	e := Evaluation{Weaknesses: []Weakness{
		{Issue: "no input validation", Location: "handler.go", Severity: SeverityHigh, Suggestion: "validate payload"},
		{Issue: "magic number", Location: "retry.go", Severity: SeverityLow, Suggestion: "name the constant"},
		{Issue: "sql built by concatenation", Location: "store.go", Severity: SeverityHigh, Suggestion: "use placeholders"},
	}}
	high := e.HighSeverityWeaknesses()
	require.Len(t, high, 2)
	assert.Equal(t, "no input validation", high[0].Issue)
	assert.Equal(t, "sql built by concatenation", high[1].Issue)
}
