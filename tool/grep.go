package tool

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/metamesh-ai/metamesh/core"
)

// DefaultMaxMatches bounds how many matches a single grep call returns.
const DefaultMaxMatches = 100

// GrepTool searches file contents under a configured root with a regular
// expression. Binary-looking files and oversized lines are skipped rather
// than failing the whole search.
type GrepTool struct {
	root       string
	maxMatches int
}

// GrepOptions configures the grep tool.
type GrepOptions struct {
	// MaxMatches caps the number of returned matches. Defaults to
	// DefaultMaxMatches when zero.
	MaxMatches int
}

// NewGrepTool creates a grep tool rooted at root.
func NewGrepTool(root string, optFns ...func(o *GrepOptions)) *GrepTool {
	opts := GrepOptions{MaxMatches: DefaultMaxMatches}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &GrepTool{root: root, maxMatches: opts.MaxMatches}
}

// Name returns the tool identifier.
func (t *GrepTool) Name() string { return "grep" }

// Description returns the tool description.
func (t *GrepTool) Description() string {
	return "Search workspace files by regular expression. " +
		"Returns matching lines with file path and line number."
}

// Parameters returns the JSON schema for tool parameters.
func (t *GrepTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Go (RE2) regular expression to search for",
			},
			"glob": map[string]interface{}{
				"type":        "string",
				"description": "Optional filename glob filter, e.g. *.go",
			},
		},
		"required": []string{"pattern"},
	}
}

// Call implements the Tool interface.
func (t *GrepTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	pattern, _ := args["pattern"].(string)
	glob, _ := args["glob"].(string)

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("invalid pattern: %v", err), "INVALID_PATTERN")
	}

	type match struct {
		File string `json:"file"`
		Line int    `json:"line"`
		Text string `json:"text"`
	}
	var matches []match
	limited := false

	walkErr := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != t.root {
				return filepath.SkipDir
			}
			return nil
		}
		if glob != "" {
			if ok, _ := filepath.Match(glob, d.Name()); !ok {
				return nil
			}
		}
		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return nil // unreadable files are skipped
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if strings.ContainsRune(line, '\x00') {
				return nil // binary file, skip the rest
			}
			if !re.MatchString(line) {
				continue
			}
			matches = append(matches, match{File: rel, Line: lineNo, Text: line})
			if len(matches) >= t.maxMatches {
				limited = true
				return filepath.SkipAll
			}
		}
		return nil // scanner errors (e.g. long binary lines) skip the file
	})
	if walkErr != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("search failed: %v", walkErr), "SEARCH_ERROR")
	}

	return map[string]interface{}{
		"pattern": pattern,
		"matches": matches,
		"count":   len(matches),
		"limited": limited,
	}, nil
}
