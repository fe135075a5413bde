package score

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConsensus_MajorityAgreement(t *testing.T) {
	outcomes := []StrategyOutcome{
		{Agent: "architect-temp-0.3", Solution: "JWT with Redis session store", Quality: Float(0.9)},
		{Agent: "architect-temp-0.7", Solution: "jwt with redis session store", Quality: Float(0.88)},
		{Agent: "security-expert", Solution: "JWT with Redis session store", Quality: Float(0.92)},
		{Agent: "pragmatist", Solution: "Database-backed opaque tokens", Quality: Float(0.8)},
		{Agent: "minimalist", Solution: "Signed cookies only", Quality: Float(0.6)},
	}

	c, err := BuildConsensus(outcomes)
	require.NoError(t, err)

	assert.Equal(t, 5, c.StrategiesTried)
	assert.Equal(t, 5, c.SolutionsGenerated)
	require.Len(t, c.Groups, 3)

	top := c.Groups[0]
	assert.Equal(t, "s1", top.SolutionID)
	assert.Equal(t, 3, top.VoteCount)
	assert.Len(t, top.Agents, top.VoteCount, "vote count must equal voter list length")
	assert.Equal(t, 0.92, top.Quality, "group quality is its best member score")

	require.NotNil(t, c.Selected)
	assert.Equal(t, top.SolutionID, c.Selected.SolutionID)
	assert.InDelta(t, 0.6, c.Ratio, 1e-9)
	assert.GreaterOrEqual(t, c.Confidence, 0.5, "strong majority should yield high confidence")
	assert.Empty(t, c.Warning)
}

func TestBuildConsensus_GroupingNormalizesWhitespaceAndCase(t *testing.T) {
	outcomes := []StrategyOutcome{
		{Agent: "a", Solution: "Use  event sourcing"},
		{Agent: "b", Solution: "use event   sourcing"},
	}
	c, err := BuildConsensus(outcomes)
	require.NoError(t, err)
	require.Len(t, c.Groups, 1)
	assert.Equal(t, 2, c.Groups[0].VoteCount)
}

func TestBuildConsensus_AllSingletons(t *testing.T) {
	outcomes := []StrategyOutcome{
		{Agent: "a", Solution: "approach one", Quality: Float(0.9)},
		{Agent: "b", Solution: "approach two", Quality: Float(0.7)},
		{Agent: "c", Solution: "approach three", Quality: Float(0.8)},
	}
	c, err := BuildConsensus(outcomes)
	require.NoError(t, err)

	assert.Equal(t, NoConsensusWarning, c.Warning)
	assert.Less(t, c.Confidence, 0.3)
	// Singleton ties rank by quality: diversity-first ordering.
	assert.Equal(t, "approach one", c.Groups[0].Solution)
	assert.Equal(t, "approach three", c.Groups[1].Solution)
	assert.Equal(t, "approach two", c.Groups[2].Solution)
}

func TestBuildConsensus_PartialFailureTolerated(t *testing.T) {
	outcomes := []StrategyOutcome{
		{Agent: "a", Solution: "shared approach", Quality: Float(0.85)},
		{Agent: "b", Solution: "shared approach", Quality: Float(0.82)},
		{Agent: "c", Err: errors.New("model timeout")},
		{Agent: "d", Solution: "   "}, // produced nothing usable
	}
	c, err := BuildConsensus(outcomes)
	require.NoError(t, err)

	assert.Equal(t, 4, c.StrategiesTried)
	assert.Equal(t, 2, c.SolutionsGenerated)
	assert.Equal(t, 1.0, c.Ratio)
	// Confidence is discounted by the failed branches: 1.0 * 2/4.
	assert.InDelta(t, 0.5, c.Confidence, 1e-9)
}

func TestBuildConsensus_InsufficientStrategies(t *testing.T) {
	outcomes := []StrategyOutcome{
		{Agent: "a", Solution: "only one made it"},
		{Agent: "b", Err: errors.New("boom")},
		{Agent: "c", Err: errors.New("boom")},
	}
	_, err := BuildConsensus(outcomes)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStrategies)
}
