package core

import (
	"testing"
)

type tcMockArtifactService struct{ data map[string]map[string][]byte }

func (a *tcMockArtifactService) Save(sid, aid string, b []byte) error {
	if a.data == nil {
		a.data = map[string]map[string][]byte{}
	}
	if _, ok := a.data[sid]; !ok {
		a.data[sid] = map[string][]byte{}
	}
	a.data[sid][aid] = append([]byte{}, b...)
	return nil
}

func (a *tcMockArtifactService) Get(sid, aid string) ([]byte, error) {
	if m, ok := a.data[sid]; ok {
		return m[aid], nil
	}
	return nil, nil
}

func (a *tcMockArtifactService) List(sid string) ([]string, error) {
	res := []string{}
	for k := range a.data[sid] {
		res = append(res, k)
	}
	return res, nil
}

func (a *tcMockArtifactService) Delete(sid, aid string) error { return nil }

type tcMockMemoryService struct {
	stored []string
}

func (m *tcMockMemoryService) Get(sid string) (map[string]any, error)     { return map[string]any{}, nil }
func (m *tcMockMemoryService) Put(sid string, delta map[string]any) error { return nil }
func (m *tcMockMemoryService) Search(sid, q string, limit int) ([]SearchResult, error) {
	return []SearchResult{{ID: "m1", Content: "prior feedback", Score: 0.9}}, nil
}
func (m *tcMockMemoryService) Store(sid, content string, metadata map[string]any) error {
	m.stored = append(m.stored, content)
	return nil
}
func (m *tcMockMemoryService) Delete(sid, memoryID string) error { return nil }

func newToolContextForTest() (*ToolContext, *RunContext) {
	rc, _ := newRunContextForTest()
	rc.ArtifactStore = &tcMockArtifactService{}
	rc.MemoryStore = &tcMockMemoryService{}
	return NewToolContext(rc, "call-1"), rc
}

func TestToolContext_StateFlowsToRunContextAndActions(t *testing.T) {
	tc, rc := newToolContextForTest()

	tc.SetState("k", "v")
	if v, ok := rc.GetState("k"); !ok || v.(string) != "v" {
		t.Fatalf("state not visible on run context: %v %v", v, ok)
	}
	if tc.Actions().StateDelta["k"].(string) != "v" {
		t.Fatalf("state not recorded in actions: %+v", tc.Actions())
	}

	ev := NewEvent(rc.RunID, "tool")
	tc.InternalApplyActions(&ev)
	if ev.Actions.StateDelta["k"].(string) != "v" {
		t.Fatalf("actions not merged into event: %+v", ev.Actions)
	}
}

func TestToolContext_Escalate(t *testing.T) {
	tc, _ := newToolContextForTest()

	tc.Escalate()
	if tc.Actions().Escalate == nil || !*tc.Actions().Escalate {
		t.Fatal("escalate flag not set")
	}

	ev := NewEvent("run-1", "tool")
	tc.InternalApplyActions(&ev)
	if ev.Actions.Escalate == nil || !*ev.Actions.Escalate {
		t.Fatal("escalate not propagated to event")
	}
}

func TestToolContext_ArtifactsAndMemory(t *testing.T) {
	tc, rc := newToolContextForTest()

	if err := tc.SaveArtifact("sol.txt", []byte("draft")); err != nil {
		t.Fatalf("SaveArtifact error: %v", err)
	}
	if tc.Actions().ArtifactDelta["sol.txt"] != len("draft") {
		t.Fatalf("artifact delta should record size: %+v", tc.Actions())
	}
	data, err := tc.LoadArtifact("sol.txt")
	if err != nil || string(data) != "draft" {
		t.Fatalf("LoadArtifact mismatch: %q %v", data, err)
	}
	ids, err := tc.ListArtifacts()
	if err != nil || len(ids) != 1 {
		t.Fatalf("ListArtifacts mismatch: %v %v", ids, err)
	}

	results, err := tc.SearchMemory("feedback", 5)
	if err != nil || len(results) != 1 || results[0].ID != "m1" {
		t.Fatalf("SearchMemory mismatch: %+v %v", results, err)
	}
	if err := tc.StoreMemory("note", nil); err != nil {
		t.Fatalf("StoreMemory error: %v", err)
	}
	mem := rc.MemoryStore.(*tcMockMemoryService)
	if len(mem.stored) != 1 || mem.stored[0] != "note" {
		t.Fatalf("memory not stored: %+v", mem.stored)
	}
}

func TestToolContext_Validate(t *testing.T) {
	tc, _ := newToolContextForTest()
	if err := tc.Validate(); err != nil {
		t.Fatalf("expected valid context: %v", err)
	}
	if !tc.IsValid() {
		t.Error("IsValid should mirror Validate")
	}

	bad := NewToolContext(tc.InternalRunContext(), "")
	if err := bad.Validate(); err == nil {
		t.Error("empty function call id should be invalid")
	}
}
