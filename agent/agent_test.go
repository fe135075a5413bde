package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metamesh-ai/metamesh/artifact"
	"github.com/metamesh-ai/metamesh/core"
	"github.com/metamesh-ai/metamesh/model"
	"github.com/metamesh-ai/metamesh/session"
)

// newStrategyContext builds a RunContext with a buffered emit channel large
// enough that strategy tests never need a consumer goroutine.
func newStrategyContext(t *testing.T, maxCalls int) (*core.RunContext, chan core.Event) {
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
		maxCalls,
		emit, nil,
		sess, store, artifact.NewInMemoryStore(), nil, nil,
	)
	return rc, emit
}

// newWorker builds a non-streaming ModelAgent whose mock model replays the
// given responses in order.
func newWorker(name string, responses ...string) *ModelAgent {
	mock := model.NewMockModel(name+"-model", "test")
	mock.Script(responses...)
	return NewModelAgent(name, mock, func(o *ModelAgentOptions) {
		o.EnableStreaming = false
	})
}

// drainEvents empties the buffered emit channel.
func drainEvents(emit chan core.Event) []core.Event {
	var events []core.Event
	for {
		select {
		case ev := <-emit:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// reportFrom returns the data payload of the last report event emitted.
func reportFrom(t *testing.T, events []core.Event) map[string]any {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Content == nil {
			continue
		}
		for _, p := range events[i].Content.Parts {
			if dp, ok := p.(core.DataPart); ok {
				return dp.Data
			}
		}
	}
	t.Fatal("no report event found")
	return nil
}

func TestBaseAgentLifecycle(t *testing.T) {
	rc, _ := newStrategyContext(t, 0)

	base := NewBaseAgent("base")
	require.NoError(t, base.Start(rc))
	require.Error(t, base.Start(rc), "double start must fail")
	require.NoError(t, base.Stop(rc))
	require.Error(t, base.Stop(rc), "double stop must fail")
}

func TestBaseAgentHierarchy(t *testing.T) {
	parent := NewBaseAgent("parent")
	childA := newWorker("child-a")
	childB := newWorker("child-b")
	require.NoError(t, parent.SetSubAgents(childA, childB))

	require.Len(t, parent.SubAgents(), 2)
	require.NotNil(t, childA.Parent())
	require.Equal(t, "parent", childA.Parent().Name())

	found := parent.FindAgent("child-b")
	require.NotNil(t, found)
	require.Equal(t, "child-b", found.Name())
	require.Nil(t, parent.FindAgent("missing"))
}

func TestInstructionResolve(t *testing.T) {
	rc, _ := newStrategyContext(t, 0)

	static := NewInstructionFromText("static text")
	require.True(t, static.IsStatic())
	got, err := static.Resolve(rc)
	require.NoError(t, err)
	require.Equal(t, "static text", got)

	dynamic := NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		return "for session " + rc.SessionID, nil
	})
	require.False(t, dynamic.IsStatic())
	got, err = dynamic.Resolve(rc)
	require.NoError(t, err)
	require.Equal(t, "for session sess-1", got)
}

func TestBuildBranchPath(t *testing.T) {
	require.Equal(t, "child", buildBranchPath("", "child"))
	require.Equal(t, "parent", buildBranchPath("parent", ""))
	require.Equal(t, "parent.child", buildBranchPath("parent", "child"))
}
