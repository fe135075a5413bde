package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/metamesh-ai/metamesh/core"
)

// DefaultMaxFileBytes bounds how much of a file the filesystem tool returns.
const DefaultMaxFileBytes = 256 * 1024

// FilesystemTool exposes read-only access to files under a configured root.
// Paths are always interpreted relative to the root; escaping attempts
// (absolute paths, ".." traversal) are rejected.
type FilesystemTool struct {
	root     string
	maxBytes int64
}

// FilesystemOptions configures the filesystem tool.
type FilesystemOptions struct {
	// MaxBytes caps the returned file content size. Defaults to
	// DefaultMaxFileBytes when zero.
	MaxBytes int64
}

// NewFilesystemTool creates a read-only filesystem tool rooted at root.
func NewFilesystemTool(root string, optFns ...func(o *FilesystemOptions)) *FilesystemTool {
	opts := FilesystemOptions{MaxBytes: DefaultMaxFileBytes}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FilesystemTool{root: root, maxBytes: opts.MaxBytes}
}

// Name returns the tool identifier.
func (t *FilesystemTool) Name() string { return "filesystem" }

// Description returns the tool description.
func (t *FilesystemTool) Description() string {
	return "Read files and list directories inside the workspace. " +
		"Operations: read_file (returns file content), list_dir (returns entries)."
}

// Parameters returns the JSON schema for tool parameters.
func (t *FilesystemTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"read_file", "list_dir"},
				"description": "The filesystem operation to perform",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path relative to the workspace root ('.' for the root itself)",
			},
		},
		"required": []string{"operation", "path"},
	}
}

// Call implements the Tool interface.
func (t *FilesystemTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	operation, _ := args["operation"].(string)
	rel, _ := args["path"].(string)

	abs, err := t.resolve(rel)
	if err != nil {
		return nil, NewToolError(t.Name(), err.Error(), "INVALID_PATH")
	}

	switch operation {
	case "read_file":
		return t.readFile(abs, rel)
	case "list_dir":
		return t.listDir(abs, rel)
	default:
		return nil, NewToolError(t.Name(), fmt.Sprintf("unknown operation: %s", operation), "INVALID_OPERATION")
	}
}

// resolve maps a caller-supplied relative path onto the root, refusing escapes.
func (t *FilesystemTool) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", rel)
	}
	abs := filepath.Join(t.root, filepath.Clean(rel))
	check, err := filepath.Rel(t.root, abs)
	if err != nil || check == ".." || strings.HasPrefix(check, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the workspace root: %s", rel)
	}
	return abs, nil
}

func (t *FilesystemTool) readFile(abs, rel string) (interface{}, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("stat %s: %v", rel, err), "NOT_FOUND")
	}
	if info.IsDir() {
		return nil, NewToolError(t.Name(), fmt.Sprintf("%s is a directory, use list_dir", rel), "INVALID_PATH")
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("read %s: %v", rel, err), "READ_ERROR")
	}
	truncated := false
	if int64(len(data)) > t.maxBytes {
		data = data[:t.maxBytes]
		truncated = true
	}

	return map[string]interface{}{
		"path":      rel,
		"content":   string(data),
		"size":      info.Size(),
		"truncated": truncated,
	}, nil
}

func (t *FilesystemTool) listDir(abs, rel string) (interface{}, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("list %s: %v", rel, err), "NOT_FOUND")
	}

	names := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		names = append(names, map[string]interface{}{
			"name": e.Name(),
			"dir":  e.IsDir(),
		})
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i]["name"].(string) < names[j]["name"].(string)
	})

	return map[string]interface{}{
		"path":    rel,
		"entries": names,
		"count":   len(names),
	}, nil
}
