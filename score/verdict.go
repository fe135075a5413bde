package score

// Verdict is the action an evaluation recommends for a candidate solution.
type Verdict string

const (
	// VerdictAccept means the solution meets the bar and iteration stops.
	VerdictAccept Verdict = "accept"
	// VerdictIterate means the solution is workable but needs refinement.
	VerdictIterate Verdict = "iterate"
	// VerdictReject means the approach is flawed and should be restarted.
	VerdictReject Verdict = "reject"
)

// Soft score thresholds separating the verdict bands.
const (
	AcceptThreshold = 0.9
	RejectThreshold = 0.5
)

// VerdictFor maps an overall soft score to a verdict:
// accept >= 0.9, iterate in [0.5, 0.9), reject < 0.5.
func VerdictFor(overall float64) Verdict {
	switch {
	case overall >= AcceptThreshold:
		return VerdictAccept
	case overall >= RejectThreshold:
		return VerdictIterate
	default:
		return VerdictReject
	}
}

// Interpretation is a human-readable quality band for a soft score.
type Interpretation string

const (
	InterpretationExcellent  Interpretation = "excellent"
	InterpretationGood       Interpretation = "good"
	InterpretationAcceptable Interpretation = "acceptable"
	InterpretationNeedsWork  Interpretation = "needs work"
	InterpretationPoor       Interpretation = "poor"
)

// Interpret maps an overall soft score to its quality band.
func Interpret(overall float64) Interpretation {
	switch {
	case overall >= 0.9:
		return InterpretationExcellent
	case overall >= 0.75:
		return InterpretationGood
	case overall >= 0.6:
		return InterpretationAcceptable
	case overall >= 0.4:
		return InterpretationNeedsWork
	default:
		return InterpretationPoor
	}
}

// Float returns a pointer to v. Convenience for building nullable scores.
func Float(v float64) *float64 { return &v }
