package core

import (
	"context"
	"testing"
)

// --- Test helpers ---
type rcMockSessionService struct {
	sessions map[string]*Session
	applied  map[string]map[string]any
}

func (m *rcMockSessionService) Get(id string) (*Session, error) {
	if m.sessions == nil {
		m.sessions = map[string]*Session{}
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := NewSession(id)
	m.sessions[id] = s
	return s, nil
}

func (m *rcMockSessionService) Create(id string) (*Session, error) { return m.Get(id) }

func (m *rcMockSessionService) AppendEvent(id string, ev Event) error {
	s, _ := m.Get(id)
	s.AddEvent(ev)
	return nil
}

func (m *rcMockSessionService) ApplyDelta(id string, delta map[string]any) error {
	if m.applied == nil {
		m.applied = map[string]map[string]any{}
	}
	if _, ok := m.applied[id]; !ok {
		m.applied[id] = map[string]any{}
	}
	for k, v := range delta {
		m.applied[id][k] = v
	}
	s, _ := m.Get(id)
	s.ApplyStateDelta(delta)
	return nil
}

func newRunContextForTest() (*RunContext, chan Event) {
	emitCh := make(chan Event, 8)
	sess := NewSession("sess-1")
	store := &rcMockSessionService{sessions: map[string]*Session{"sess-1": sess}}
	rc := NewRunContext(
		context.Background(),
		"sess-1", "run-1",
		AgentInfo{Name: "agent1", Type: "model"},
		NewUserContent("hello"),
		0,
		emitCh, nil,
		sess, store, nil, nil, nil,
	)
	return rc, emitCh
}

func TestRunContext_EmitEventStateAndArtifacts(t *testing.T) {
	rc, emitCh := newRunContextForTest()
	rc.SetState("foo", "bar")
	rc.AddArtifact("file1")
	ev := NewEvent(rc.RunID, "agent1")
	if err := rc.EmitEvent(ev); err != nil {
		t.Fatalf("EmitEvent error: %v", err)
	}
	received := <-emitCh
	if received.Actions.StateDelta["foo"].(string) != "bar" {
		t.Fatalf("State delta missing: %+v", received.Actions)
	}
	if received.Actions.ArtifactDelta["file1"] != 1 {
		t.Fatalf("Artifact delta missing: %+v", received.Actions)
	}
	if len(rc.StateDelta) != 0 || len(rc.Artifacts) != 0 {
		t.Fatal("StateDelta & Artifacts should clear after emit")
	}
}

func TestRunContext_EmitEventCancelled(t *testing.T) {
	rc, _ := newRunContextForTest()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Context = ctx
	rc.Emit = make(chan Event) // unbuffered, nobody reading
	if err := rc.EmitEvent(NewEvent(rc.RunID, "agent1")); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunContext_CommitStateDelta(t *testing.T) {
	rc, _ := newRunContextForTest()
	sSvc := rc.SessionStore.(*rcMockSessionService)
	rc.SetState("k1", 123)
	if err := rc.CommitStateDelta(); err != nil {
		t.Fatalf("CommitStateDelta error: %v", err)
	}
	if sSvc.applied == nil || sSvc.applied[rc.SessionID]["k1"].(int) != 123 {
		t.Fatalf("State delta not applied: %+v", sSvc.applied)
	}
	if len(rc.StateDelta) != 0 {
		t.Error("StateDelta should be cleared after commit")
	}
}

func TestRunContext_CloneIsolation(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.SetState("a", 1)
	rc.AddArtifact("f1")
	clone := rc.Clone()
	if clone.Session != rc.Session {
		t.Error("Session pointer should be shared")
	}
	if clone.Budget != rc.Budget {
		t.Error("Budget pointer should be shared so parallel strategies draw from one pool")
	}
	clone.SetState("b", 2)
	if _, exists := rc.StateDelta["b"]; exists {
		t.Error("Original should not have clone's new state")
	}
	if v, _ := clone.GetState("a"); v.(int) != 1 {
		t.Error("Clone missing original state")
	}
}

func TestRunContext_WithBranch(t *testing.T) {
	rc, _ := newRunContextForTest()
	branched := rc.WithBranch("Root.Child")
	if branched.Branch != "Root.Child" {
		t.Errorf("Expected branch Root.Child, got %s", branched.Branch)
	}
	if rc.Branch != "" {
		t.Error("Original branch should remain empty")
	}
}

func TestRunContext_NewChildContextFreshBuffers(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.SetState("pending", true)
	childEmit := make(chan Event, 1)
	child := rc.NewChildContext(childEmit, nil, "Root.Strategy1")
	if len(child.StateDelta) != 0 {
		t.Error("child should start with an empty state delta")
	}
	if child.Branch != "Root.Strategy1" {
		t.Errorf("child branch not set: %s", child.Branch)
	}
	// Empty branch inherits the parent's.
	inherited := rc.WithBranch("Root").NewChildContext(childEmit, nil, "")
	if inherited.Branch != "Root" {
		t.Errorf("expected inherited branch Root, got %s", inherited.Branch)
	}
}

func TestRunContext_WaitForResume(t *testing.T) {
	rc, _ := newRunContextForTest()
	if err := rc.WaitForResume(); err != nil {
		t.Fatalf("nil Resume channel should return immediately: %v", err)
	}

	resume := make(chan struct{}, 1)
	rc.Resume = resume
	resume <- struct{}{}
	if err := rc.WaitForResume(); err != nil {
		t.Fatalf("WaitForResume error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Context = ctx
	if err := rc.WaitForResume(); err == nil {
		t.Fatal("expected cancellation error while waiting for resume")
	}
}
