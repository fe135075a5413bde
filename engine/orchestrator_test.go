package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamesh-ai/metamesh/agent"
	"github.com/metamesh-ai/metamesh/artifact"
	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/score"
	"github.com/metamesh-ai/metamesh/session"
)

// newPipelineContext builds a RunContext with a buffered emit channel large
// enough that pipeline tests never need a consumer goroutine.
func newPipelineContext(t *testing.T) (*core.RunContext, chan core.Event) {
	t.Helper()

	emit := make(chan core.Event, 256)
	store := session.NewInMemoryStore()
	sess, err := store.Get("sess-1")
	require.NoError(t, err)

	rc := core.NewRunContext(
		context.Background(),
		"sess-1", "run-1",
		core.AgentInfo{Name: "orchestrator", Type: "strategy"},
		core.NewUserContent("build a parser"),
		0,
		emit, nil,
		sess, store, artifact.NewInMemoryStore(), nil, nil,
	)
	return rc, emit
}

func assessJSON(complexity, confidence float64, rec string) string {
	return fmt.Sprintf(`{
  "complexity_score": %.1f,
  "confidence": %.2f,
  "recommendation": %q,
  "reasoning": "test assessment"
}`, complexity, confidence, rec)
}

func evalJSON(overall float64, verdict string) string {
	return fmt.Sprintf(`{
  "overall_score": %.2f,
  "scores": {"correctness": %.2f, "completeness": %.2f, "quality": %.2f, "testability": %.2f},
  "recommendation": %q
}`, overall, overall, overall, overall, overall, verdict)
}

func newPipeline(t *testing.T, assessment string, generator, evaluator *agent.ModelAgent, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	t.Helper()
	assessor := agent.NewAssessorAgent("assessor", newWorker("assessor-worker", assessment))
	return NewOrchestrator("orchestrator", assessor, generator,
		agent.NewEvaluatorAgent("evaluator", evaluator), optFns...)
}

func TestOrchestratorDirectRoute(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(2.0, 0.9, "solve-directly"),
		newWorker("generator", "quick answer"),
		newWorker("evaluator-worker", evalJSON(0.95, "accept")),
	)

	result, err := o.Orchestrate(rc, "rename a variable", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, score.RecommendSolveDirectly, result.Decision.Recommendation)
	assert.Equal(t, "quick answer", result.Solution)
	require.NotNil(t, result.Evaluation)
	overall, ok := result.Evaluation.EffectiveOverall()
	require.True(t, ok)
	assert.Equal(t, 0.95, overall)
	assert.Empty(t, result.Warnings)
}

func TestOrchestratorClarificationShortCircuits(t *testing.T) {
	rc, _ := newPipelineContext(t)
	clarify := `{
  "complexity_score": null,
  "confidence": 0.2,
  "recommendation": "clarify-requirements",
  "questions": ["Which grammar?", "Streaming or batch?"]
}`
	o := newPipeline(t, clarify,
		newWorker("generator"),
		newWorker("evaluator-worker"),
	)

	result, err := o.Orchestrate(rc, "build a parser", false)
	require.NoError(t, err)

	assert.Equal(t, StatusClarificationNeeded, result.Status)
	assert.Empty(t, result.Solution)
	assert.Len(t, result.Questions, 2)
	assert.False(t, result.Decision.Executable())
}

func TestOrchestratorCannotAssessSurfacesContext(t *testing.T) {
	rc, _ := newPipelineContext(t)
	cannot := `{
  "complexity_score": null,
  "confidence": 0.1,
  "recommendation": "cannot-assess",
  "required_context": ["target schema", "deployment environment"]
}`
	o := newPipeline(t, cannot,
		newWorker("generator"),
		newWorker("evaluator-worker"),
	)

	result, err := o.Orchestrate(rc, "migrate the database", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCannotAssess, result.Status)
	assert.Len(t, result.RequiredContext, 2)
	assert.Empty(t, result.Solution)
}

func TestOrchestratorSinglePassRoute(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(5.0, 0.9, "single-pass-with-review"),
		newWorker("generator", "solution v1"),
		newWorker("evaluator-worker", evalJSON(0.92, "accept")),
	)

	result, err := o.Orchestrate(rc, "add retry logic", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, score.RecommendSinglePass, result.Decision.Recommendation)
	assert.Equal(t, "solution v1", result.Solution)
	require.NotNil(t, result.Evaluation)
}

func TestOrchestratorIterativeRoute(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(7.2, 0.85, "iterative-refinement"),
		newWorker("generator", "parser v1"),
		newWorker("evaluator-worker", evalJSON(0.95, "accept")),
	)

	result, err := o.Orchestrate(rc, "build a parser", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "parser v1", result.Solution)
	require.NotNil(t, result.Refinement)
	assert.Equal(t, score.StatusSuccess, result.Refinement.Status)
	assert.Equal(t, 0.95, result.Refinement.BestScore)
}

func TestOrchestratorEnsembleRoute(t *testing.T) {
	rc, _ := newPipelineContext(t)

	evaluator := agent.NewEvaluatorAgent("evaluator", newWorker("evaluator-worker",
		evalJSON(0.9, "accept"), evalJSON(0.9, "accept"), evalJSON(0.8, "accept"),
		evalJSON(0.9, "accept"), // final evaluation of the selected solution
	))
	children := []core.Agent{
		newWorker("solver-a", "solution alpha"),
		newWorker("solver-b", "solution alpha"),
		newWorker("solver-c", "solution beta"),
	}
	ensemble := agent.NewEnsembleAgent("ensemble", evaluator, children)

	assessor := agent.NewAssessorAgent("assessor", newWorker("assessor-worker",
		assessJSON(9.5, 0.9, "ensemble")))
	o := NewOrchestrator("orchestrator", assessor, newWorker("generator"), evaluator,
		func(opts *OrchestratorOptions) { opts.Ensemble = ensemble })

	result, err := o.Orchestrate(rc, "design a distributed cache", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	require.NotNil(t, result.Consensus)
	assert.Equal(t, "solution alpha", result.Solution)
	assert.Equal(t, 3, result.Consensus.StrategiesTried)
	assert.InDelta(t, 2.0/3.0, result.Consensus.Ratio, 1e-9)
}

func TestOrchestratorEnsembleDegradesWhenUnwired(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(9.5, 0.9, "ensemble"),
		newWorker("generator", "best effort"),
		newWorker("evaluator-worker", evalJSON(0.95, "accept")),
	)

	result, err := o.Orchestrate(rc, "design a distributed cache", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "best effort", result.Solution)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "no ensemble wired")
}

func TestOrchestratorDecomposeRunsSubsteps(t *testing.T) {
	rc, _ := newPipelineContext(t)
	decompose := `{
  "complexity_score": 9.0,
  "confidence": 0.9,
  "recommendation": "ensemble",
  "suggested_strategy": {
    "approach": "split by layer",
    "substeps": ["design the schema", "write the migration"]
  }
}`
	o := newPipeline(t, decompose,
		newWorker("generator", "schema design", "migration script"),
		newWorker("evaluator-worker", evalJSON(0.9, "accept")),
	)

	result, err := o.Orchestrate(rc, "migrate the billing tables", true)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, score.RecommendDecompose, result.Decision.Recommendation)
	assert.Contains(t, result.Solution, "schema design")
	assert.Contains(t, result.Solution, "migration script")
	assert.Contains(t, result.Solution, "Step 2: write the migration")
}

func TestOrchestratorDecomposeWithoutSubstepsFallsBack(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(9.0, 0.9, "ensemble"),
		newWorker("generator", "refined under pressure"),
		newWorker("evaluator-worker", evalJSON(0.95, "accept")),
	)

	result, err := o.Orchestrate(rc, "fix the outage", true)
	require.NoError(t, err)

	assert.Equal(t, score.RecommendDecompose, result.Decision.Recommendation)
	assert.Equal(t, "refined under pressure", result.Solution)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "no substeps")
}

func TestOrchestratorFinalEvaluationFailureDegrades(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(2.0, 0.9, "solve-directly"),
		newWorker("generator", "quick answer"),
		newWorker("evaluator-worker", "not json at all"),
	)

	result, err := o.Orchestrate(rc, "rename a variable", false)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "quick answer", result.Solution)
	assert.Nil(t, result.Evaluation)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "final evaluation unavailable")
}

func TestOrchestratorFallbackAssessmentRoutesToClarification(t *testing.T) {
	rc, _ := newPipelineContext(t)
	o := newPipeline(t,
		"definitely not an assessment", // decode falls back to 5.0 at 0.3 confidence
		newWorker("generator", "fallback solution"),
		newWorker("evaluator-worker", evalJSON(0.9, "accept")),
	)

	result, err := o.Orchestrate(rc, "do the thing", false)
	require.NoError(t, err)

	assert.Equal(t, StatusClarificationNeeded, result.Status)
}

func TestOrchestratorRunEmitsDecodableReport(t *testing.T) {
	rc, emit := newPipelineContext(t)
	o := newPipeline(t,
		assessJSON(2.0, 0.9, "solve-directly"),
		newWorker("generator", "quick answer"),
		newWorker("evaluator-worker", evalJSON(0.95, "accept")),
	)

	require.NoError(t, o.Run(rc))

	var events []core.Event
	for {
		select {
		case ev := <-emit:
			events = append(events, ev)
			continue
		default:
		}
		break
	}

	result, err := DecodeResult(events, "orchestrator")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "quick answer", result.Solution)
	assert.Equal(t, score.RecommendSolveDirectly, result.Decision.Recommendation)
}
