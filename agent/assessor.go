package agent

import (
	"fmt"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/schema"
	"github.com/metamesh-ai/metamesh/score"
)

// FallbackConfidence is the confidence attached to a synthesized fallback
// assessment when the assessor's output could not be decoded.
const FallbackConfidence = 0.3

// AssessorAgent runs the complexity-assessment persona: it sends the task to
// its model worker, validates and decodes the assessment report, and handles
// the degraded paths: clarification requests surface questions, unscorable
// tasks surface required context, and undecodable output falls back to a
// mid-scale assessment with a low-confidence warning.
type AssessorAgent struct {
	BaseAgent
	worker *ModelAgent
}

// NewAssessorAgent wraps a model worker as an assessor strategy.
func NewAssessorAgent(name string, worker *ModelAgent) *AssessorAgent {
	a := &AssessorAgent{
		BaseAgent: NewBaseAgent(name),
		worker:    worker,
	}
	a.SetDescription("Assesses task complexity and recommends an execution strategy")
	_ = a.SetSubAgents(worker)
	return a
}

// Assess runs the worker against the task and returns the decoded assessment.
// A decode failure does not fail the run: the task must still be routed, so a
// fallback assessment (complexity 5.0, low confidence) is synthesized and the
// parse problem recorded in its reasoning.
func (a *AssessorAgent) Assess(runCtx *core.RunContext, task string) (score.Assessment, error) {
	raw, err := runChildCapture(runCtx, a.worker, task, "assess")
	if err != nil {
		return score.Assessment{}, fmt.Errorf("assessment run failed: %w", err)
	}

	assessment, decErr := schema.DecodeAssessment(a.Name(), raw)
	if decErr != nil {
		runCtx.LogWarn(
			"assessor.decode_failed",
			"agent", a.Name(),
			"error", decErr.Error(),
		)
		return fallbackAssessment(decErr), nil
	}

	if assessment.LowConfidence() {
		runCtx.LogWarn(
			"assessor.low_confidence",
			"agent", a.Name(),
			"confidence", assessment.Confidence,
			"scored", assessment.Complexity != nil,
		)
	}

	return assessment, nil
}

// fallbackAssessment synthesizes an assessment when the assessor's report was
// unusable. Its confidence sits below the routing floor, so the router sends
// the task to clarification rather than executing on a guessed complexity.
func fallbackAssessment(cause error) score.Assessment {
	return score.Assessment{
		Complexity:     score.Float(score.FallbackComplexity),
		Confidence:     FallbackConfidence,
		Recommendation: score.RecommendSinglePass,
		Reasoning:      fmt.Sprintf("assessment output could not be decoded (%v); assuming mid-scale complexity", cause),
	}
}

// Run implements core.Agent: assess the run's user content and emit the
// assessment as a report event.
func (a *AssessorAgent) Run(runCtx *core.RunContext) error {
	task := runCtx.UserContent.Text()

	assessment, err := a.Assess(runCtx, task)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"complexity %.1f (confidence %.2f): %s",
		assessment.EffectiveComplexity(), assessment.Confidence, assessment.Recommendation,
	)
	ev := core.NewReportEvent(runCtx.RunID, a.Name(), text, reportData(assessment))
	if runCtx.Branch != "" {
		branch := runCtx.Branch
		ev.Branch = &branch
	}

	return runCtx.EmitEvent(ev)
}
