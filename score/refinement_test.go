package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyFromScores(scores ...float64) History {
	h := make(History, len(scores))
	for i, s := range scores {
		h[i] = IterationRecord{Iteration: i + 1, Score: s}
	}
	return h
}

func TestHistory_Plateaued(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   bool
	}{
		{"steadily improving", []float64{0.60, 0.75, 0.88}, false},
		{"flat tail", []float64{0.70, 0.82, 0.82, 0.82}, true},
		{"exactly the window", []float64{0.82, 0.82, 0.82}, true},
		{"too short", []float64{0.82, 0.82}, false},
		{"plateau broken by final improvement", []float64{0.82, 0.82, 0.82, 0.85}, false},
		{"earlier plateau does not count", []float64{0.82, 0.82, 0.82, 0.85, 0.86}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, historyFromScores(tt.scores...).Plateaued())
		})
	}
}

func TestHistory_Best(t *testing.T) {
	t.Run("highest score wins", func(t *testing.T) {
		h := historyFromScores(0.60, 0.93, 0.78)
		best, ok := h.Best()
		require.True(t, ok)
		assert.Equal(t, 2, best.Iteration)
		assert.Equal(t, 0.93, best.Score)
	})

	t.Run("ties keep earliest iteration", func(t *testing.T) {
		h := historyFromScores(0.70, 0.85, 0.85)
		best, ok := h.Best()
		require.True(t, ok)
		assert.Equal(t, 2, best.Iteration)
	})

	t.Run("empty history", func(t *testing.T) {
		_, ok := History{}.Best()
		assert.False(t, ok)
	})
}

func TestHistory_Scores(t *testing.T) {
	h := historyFromScores(0.60, 0.75)
	assert.Equal(t, []float64{0.60, 0.75}, h.Scores())
}

func TestRefinementResult_Succeeded(t *testing.T) {
	assert.True(t, RefinementResult{Status: StatusSuccess}.Succeeded())
	assert.False(t, RefinementResult{Status: StatusPlateauDetected}.Succeeded())
	assert.False(t, RefinementResult{Status: StatusMaxIterations}.Succeeded())
	assert.False(t, RefinementResult{Status: StatusBudgetExhausted}.Succeeded())
}
