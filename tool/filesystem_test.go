package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamesh-ai/metamesh/core"
)

func writeTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# Project\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util.go"), []byte("package main\n\nfunc helper() {}\n"), 0o644))
	return root
}

func TestFilesystemReadFile(t *testing.T) {
	fsTool := NewFilesystemTool(writeTestTree(t))
	tc := core.NewToolContext(testRunContext(t), "fc-fs")

	res, err := fsTool.Call(tc, map[string]any{"operation": "read_file", "path": "README.md"})
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, "# Project\n", m["content"])
	assert.Equal(t, false, m["truncated"])
}

func TestFilesystemReadFileTruncated(t *testing.T) {
	root := writeTestTree(t)
	fsTool := NewFilesystemTool(root, func(o *FilesystemOptions) { o.MaxBytes = 4 })
	tc := core.NewToolContext(testRunContext(t), "fc-fs")

	res, err := fsTool.Call(tc, map[string]any{"operation": "read_file", "path": "README.md"})
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, "# Pr", m["content"])
	assert.Equal(t, true, m["truncated"])
}

func TestFilesystemListDir(t *testing.T) {
	fsTool := NewFilesystemTool(writeTestTree(t))
	tc := core.NewToolContext(testRunContext(t), "fc-fs")

	res, err := fsTool.Call(tc, map[string]any{"operation": "list_dir", "path": "."})
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, 2, m["count"])
	entries := m["entries"].([]map[string]any)
	assert.Equal(t, "README.md", entries[0]["name"])
	assert.Equal(t, "src", entries[1]["name"])
	assert.Equal(t, true, entries[1]["dir"])
}

func TestFilesystemRejectsEscapes(t *testing.T) {
	fsTool := NewFilesystemTool(writeTestTree(t))
	tc := core.NewToolContext(testRunContext(t), "fc-fs")

	for _, path := range []string{"../secrets", "/etc/passwd", "src/../../other"} {
		_, err := fsTool.Call(tc, map[string]any{"operation": "read_file", "path": path})
		require.Error(t, err, "path %q should be rejected", path)
		toolErr, ok := err.(*ToolError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_PATH", toolErr.Code)
	}
}

func TestFilesystemReadDirectoryFails(t *testing.T) {
	fsTool := NewFilesystemTool(writeTestTree(t))
	tc := core.NewToolContext(testRunContext(t), "fc-fs")

	_, err := fsTool.Call(tc, map[string]any{"operation": "read_file", "path": "src"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list_dir")
}

func TestFilesystemUnknownOperation(t *testing.T) {
	fsTool := NewFilesystemTool(writeTestTree(t))
	tc := core.NewToolContext(testRunContext(t), "fc-fs")

	_, err := fsTool.Call(tc, map[string]any{"operation": "write_file", "path": "x"})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_OPERATION", toolErr.Code)
}
