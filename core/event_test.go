package core

import (
	"errors"
	"testing"
)

// Event constructor & helper method tests
func TestEvent_ConstructorsAndMethods(t *testing.T) {
	e := NewEvent("run-123", "authorA")
	if e.Author != "authorA" || e.RunID != "run-123" || e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}

	msg := NewMessageEvent("agent1", "hello world")
	if msg.Content == nil || msg.Content.Role != "assistant" || len(msg.Content.Parts) != 1 {
		t.Fatalf("NewMessageEvent malformed: %+v", msg)
	}

	user := NewUserMessageEvent("run-123", "hi")
	if user.Content == nil || user.Content.Role != "user" {
		t.Fatalf("NewUserMessageEvent malformed: %+v", user)
	}

	callArgs := "test"
	fCall := NewFunctionCallEvent("agent2", "do_stuff", callArgs)
	calls := fCall.GetFunctionCalls()
	if len(calls) != 1 || calls[0].Name != "do_stuff" || calls[0].Arguments != callArgs {
		t.Fatalf("GetFunctionCalls extraction failed: %+v", calls)
	}

	fRespOK := NewFunctionResponseEvent("agent2", "call-1", "do_stuff", 42, nil)
	resps := fRespOK.GetFunctionResponses()
	if len(resps) != 1 || resps[0].Response.(int) != 42 || resps[0].Error != "" {
		t.Fatalf("Function response success extraction failed: %+v", resps)
	}

	fRespErr := NewFunctionResponseEvent("agent2", "call-2", "do_stuff", nil, errors.New("boom"))
	resps = fRespErr.GetFunctionResponses()
	if resps[0].Error == "" {
		t.Fatalf("Expected error message in function response: %+v", resps[0])
	}
}

func TestEvent_ReportEvents(t *testing.T) {
	data := map[string]any{"complexity": 7.5, "recommendation": "decompose"}
	ev := NewReportEvent("run-1", "assessor", "complexity 7.5", data)
	if ev.Content == nil || ev.Content.Role != "assistant" {
		t.Fatalf("report event malformed: %+v", ev)
	}
	report, ok := ev.GetReport()
	if !ok || report["recommendation"].(string) != "decompose" {
		t.Fatalf("GetReport extraction failed: %+v", report)
	}
	if ev.Content.Text() != "complexity 7.5" {
		t.Errorf("expected text rendering alongside data part, got %q", ev.Content.Text())
	}

	// Text-less report still carries the data part.
	bare := NewReportEvent("run-1", "evaluator", "", data)
	if _, ok := bare.GetReport(); !ok {
		t.Error("expected data part on text-less report")
	}

	plain := NewMessageEvent("agent", "no report here")
	if _, ok := plain.GetReport(); ok {
		t.Error("plain message should have no report")
	}
}

func TestEvent_IsFinalResponseLogic(t *testing.T) {
	e := NewEvent("run", "authorA")
	if !e.IsFinalResponse() {
		t.Error("Expected basic event to be final")
	}

	partial := true
	e2 := NewEvent("run", "agent")
	e2.Partial = &partial
	if e2.IsFinalResponse() {
		t.Error("Partial event should not be final")
	}

	e3 := NewFunctionCallEvent("agent", "f", "")
	if e3.IsFinalResponse() {
		t.Error("Event with function call should not be final")
	}

	e4 := NewFunctionResponseEvent("agent", "id", "f", nil, nil)
	if e4.IsFinalResponse() {
		t.Error("Event with function response should not be final")
	}
}

func TestEvent_UnixSeconds(t *testing.T) {
	e := NewEvent("run", "a")
	got := e.UnixSeconds()
	want := float64(e.Timestamp.UnixNano()) / 1e9
	if got != want {
		t.Errorf("UnixSeconds mismatch: got %f want %f", got, want)
	}
}
