package score

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInsufficientStrategies signals that fewer than two ensemble strategies
// produced a solution, so there is nothing to vote over.
var ErrInsufficientStrategies = errors.New("fewer than two strategies succeeded")

// NoConsensusWarning is attached to ensemble results where every solution got
// exactly one vote.
const NoConsensusWarning = "NO CONSENSUS: all solutions received a single vote; manual review recommended"

// MinStrategies is the minimum number of succeeded strategies an ensemble
// needs to produce a result.
const MinStrategies = 2

// StrategyOutcome is one ensemble branch's contribution to the vote.
// A branch succeeded when Err is nil and it produced a non-empty solution.
type StrategyOutcome struct {
	Agent    string
	Solution string
	Quality  *float64 // evaluator score for the solution, if available
	Err      error
}

// Succeeded reports whether this outcome participates in the vote.
func (o StrategyOutcome) Succeeded() bool {
	return o.Err == nil && strings.TrimSpace(o.Solution) != ""
}

// Group is one distinct solution and the agents that voted for it.
// VoteCount always equals len(Agents).
type Group struct {
	SolutionID string   `json:"solution_id"`
	Solution   string   `json:"solution"`
	Agents     []string `json:"agents"`
	VoteCount  int      `json:"vote_count"`
	Quality    float64  `json:"quality_score"`
}

// Consensus is the decoded outcome of an ensemble vote. Groups are ranked
// diversity-first: one entry per distinct solution, ordered by votes then
// quality. Selected points at the winning group.
type Consensus struct {
	StrategiesTried    int     `json:"strategies_tried"`
	SolutionsGenerated int     `json:"solutions_generated"`
	Groups             []Group `json:"consensus_groups"`
	Selected           *Group  `json:"recommendation"`
	Ratio              float64 `json:"consensus_ratio"`
	Confidence         float64 `json:"confidence"`
	Warning            string  `json:"warning,omitempty"`
}

// normalizeSolution canonicalizes a solution for identity grouping:
// case-insensitive, whitespace-collapsed.
func normalizeSolution(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// BuildConsensus groups identical solutions from the succeeded outcomes,
// counts votes, ranks groups, and derives confidence.
//
// It returns ErrInsufficientStrategies (wrapped) when fewer than MinStrategies
// outcomes succeeded. Otherwise a result is always produced; an all-singleton
// vote carries NoConsensusWarning and confidence below 0.3.
func BuildConsensus(outcomes []StrategyOutcome) (*Consensus, error) {
	var succeeded []StrategyOutcome
	for _, o := range outcomes {
		if o.Succeeded() {
			succeeded = append(succeeded, o)
		}
	}
	if len(succeeded) < MinStrategies {
		return nil, fmt.Errorf("%w: %d of %d", ErrInsufficientStrategies, len(succeeded), len(outcomes))
	}

	byKey := map[string]*Group{}
	var order []string
	for _, o := range succeeded {
		key := normalizeSolution(o.Solution)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Solution: o.Solution}
			byKey[key] = g
			order = append(order, key)
		}
		g.Agents = append(g.Agents, o.Agent)
		g.VoteCount = len(g.Agents)
		if o.Quality != nil && *o.Quality > g.Quality {
			g.Quality = *o.Quality
		}
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].VoteCount != groups[j].VoteCount {
			return groups[i].VoteCount > groups[j].VoteCount
		}
		return groups[i].Quality > groups[j].Quality
	})
	for i := range groups {
		groups[i].SolutionID = fmt.Sprintf("s%d", i+1)
	}

	top := groups[0]
	ratio := float64(top.VoteCount) / float64(len(succeeded))
	// Confidence discounts the vote ratio by the fraction of strategies that
	// produced a solution at all.
	confidence := ratio * float64(len(succeeded)) / float64(len(outcomes))

	result := &Consensus{
		StrategiesTried:    len(outcomes),
		SolutionsGenerated: len(succeeded),
		Groups:             groups,
		Selected:           &groups[0],
		Ratio:              ratio,
		Confidence:         confidence,
	}

	if top.VoteCount == 1 {
		result.Warning = NoConsensusWarning
		result.Confidence = math.Min(confidence, 0.25)
	}

	return result, nil
}
