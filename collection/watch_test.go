package collection

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyCollection clones the valid testdata collection into a temp dir so the
// test can mutate files.
func copyCollection(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	src := filepath.Join("testdata", "valid")

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := copyCollection(t)

	w, err := NewWatcher(dir, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	rubric := filepath.Join(dir, ContextDir, "scoring-rubrics.md")
	require.NoError(t, os.WriteFile(rubric, []byte("# Scoring Rubrics\n\nUpdated guidance.\n"), 0o644))

	select {
	case reload := <-w.Reloads():
		require.NoError(t, reload.Err)
		require.NotNil(t, reload.Collection)
		evaluator := reload.Collection.Agent("solution-evaluator")
		require.NotNil(t, evaluator)
		assert.Contains(t, evaluator.Instructions, "Updated guidance")
	case <-time.After(10 * time.Second):
		t.Fatal("no reload notification after file change")
	}
}

func TestWatcher_SurfacesLoadErrors(t *testing.T) {
	dir := copyCollection(t)

	w, err := NewWatcher(dir, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Remove a profiled agent so the reload fails.
	require.NoError(t, os.Remove(filepath.Join(dir, AgentsDir, "solution-evaluator.md")))

	select {
	case reload := <-w.Reloads():
		assert.Error(t, reload.Err)
	case <-time.After(10 * time.Second):
		t.Fatal("no reload notification after file removal")
	}
}

func TestRelevantEvents(t *testing.T) {
	assert.False(t, relevant(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "agent.md", Op: fsnotify.Write}))
	assert.False(t, relevant(fsnotify.Event{Name: "agent.md", Op: fsnotify.Chmod}))
}
