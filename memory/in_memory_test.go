package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetMerges(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Put("s1", map[string]any{"a": 1, "b": "x"}))
	require.NoError(t, store.Put("s1", map[string]any{"b": "y", "c": true}))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "y", "c": true}, got)
}

func TestGetUnknownSessionIsEmpty(t *testing.T) {
	store := NewInMemoryStore()

	got, err := store.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Put("s1", map[string]any{"a": 1}))

	got, _ := store.Get("s1")
	got["a"] = 99

	again, _ := store.Get("s1")
	assert.Equal(t, 1, again["a"])
}

func TestStoreAndSearch(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Store("s1", "user prefers concise answers", map[string]any{"kind": "preference"}))
	require.NoError(t, store.Store("s1", "deadline is friday", nil))
	require.NoError(t, store.Store("s2", "unrelated session", nil))

	results, err := store.Search("s1", "CONCISE", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user prefers concise answers", results[0].Content)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, "preference", results[0].Metadata["kind"])
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Store("s1", fmt.Sprintf("note %d", i), nil))
	}

	results, err := store.Search("s1", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 5)
	// insertion order
	assert.Equal(t, "note 0", results[0].Content)
	assert.Equal(t, "note 4", results[4].Content)
}

func TestSearchHonorsLimit(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Store("s1", "repeated", nil))
	}

	results, err := store.Search("s1", "repeated", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDelete(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Store("s1", "to be removed", nil))

	results, _ := store.Search("s1", "removed", 10)
	require.Len(t, results, 1)

	require.NoError(t, store.Delete("s1", results[0].ID))

	results, _ = store.Search("s1", "removed", 10)
	assert.Empty(t, results)

	assert.Error(t, store.Delete("s1", "mem_999999"))
	assert.Error(t, store.Delete("nope", "mem_000000"))
}
