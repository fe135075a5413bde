package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/score"
)

// ErrEscalated is returned when a child agent signals escalation.
var ErrEscalated = errors.New("child agent escalated")

// runChildCapture executes a child agent against a standalone prompt under an
// isolated child context and returns the child's final response text.
//
// The child receives its own emit/resume channels and a branch label derived
// from the parent branch. Session snapshot and store references are detached
// so the child sees exactly the prompt, not the surrounding conversation:
// strategy-internal prompts (refinement feedback, evaluation requests) must
// not leak into or read from session history. The shared run Budget still
// applies.
//
// Events emitted by the child are forwarded to the parent context for
// observability. Escalation events terminate the run with ErrEscalated; error
// events surface as errors.
func runChildCapture(runCtx *core.RunContext, child core.Agent, prompt, branch string) (string, error) {
	interceptChan := make(chan core.Event, 64)
	resumeChan := make(chan struct{}, 64)

	childCtx := runCtx.NewChildContext(interceptChan, resumeChan, buildBranchPath(runCtx.Branch, branch))
	childCtx.UserContent = core.NewUserContent(prompt)
	childCtx.Session = nil
	childCtx.SessionStore = nil

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- child.Run(childCtx)
	}()

	var finalText string
	var runErr error

	// absorb applies a child event's effects: error events become the
	// pending run error, final responses update the captured text, and the
	// event is forwarded to the parent for observability.
	absorb := func(event core.Event) error {
		if event.ErrorMessage != nil {
			runErr = errors.New(*event.ErrorMessage)
		}
		if event.IsFinalResponse() && event.Content != nil {
			finalText = event.Content.Text()
		}
		return runCtx.EmitEvent(event)
	}

	// drainBuffered absorbs events still queued after the child finished.
	// Children emit without waiting for resume on error paths, so the done
	// signal can win the select while an error event sits buffered.
	drainBuffered := func() error {
		for {
			select {
			case event := <-interceptChan:
				if err := absorb(event); err != nil {
					return err
				}
			default:
				return nil
			}
		}
	}

	for {
		select {
		case event, ok := <-interceptChan:
			if !ok {
				if err := <-done; err != nil {
					return finalText, err
				}
				return finalText, runErr
			}

			if event.Actions.Escalate != nil && *event.Actions.Escalate {
				runCtx.LogInfo("agent.child.escalated", "child", child.Name())
				if err := runCtx.EmitEvent(event); err != nil {
					return finalText, err
				}
				<-done
				if err := drainBuffered(); err != nil {
					return finalText, err
				}
				return finalText, ErrEscalated
			}

			if err := absorb(event); err != nil {
				return finalText, err
			}

			// Resume the child; buffered so a completed child never blocks.
			select {
			case resumeChan <- struct{}{}:
			case <-runCtx.Done():
				return finalText, runCtx.Err()
			}

		case err := <-done:
			if drainErr := drainBuffered(); drainErr != nil {
				return finalText, drainErr
			}
			if err != nil {
				return finalText, err
			}
			return finalText, runErr

		case <-runCtx.Done():
			return finalText, runCtx.Err()
		}
	}
}

// RunCapture executes a child agent against a standalone prompt and returns
// its final response text. It is the exported form of runChildCapture for
// composers outside this package that drive workers directly.
func RunCapture(runCtx *core.RunContext, child core.Agent, prompt, branch string) (string, error) {
	return runChildCapture(runCtx, child, prompt, branch)
}

// reportData projects a report struct to the generic map shape carried by
// core.DataPart.
func reportData(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	return out
}

// renderWeaknesses formats evaluator weaknesses as feedback lines for the
// next refinement prompt.
func renderWeaknesses(ws []score.Weakness) string {
	if len(ws) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range ws {
		fmt.Fprintf(&b, "- [%s] %s", w.Severity, w.Issue)
		if w.Location != "" {
			fmt.Fprintf(&b, " (at %s)", w.Location)
		}
		if w.Suggestion != "" {
			fmt.Fprintf(&b, ": %s", w.Suggestion)
		}
		b.WriteString("\n")
	}
	return b.String()
}
