package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownParser is stateless and shared across loads.
var markdownParser = goldmark.DefaultParser()

// inspectBody walks the markdown AST of an agent or context body collecting
// headings and link destinations.
func inspectBody(body []byte) (headings int, links []string) {
	root := markdownParser.Parse(text.NewReader(body))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headings++
		case *ast.Link:
			links = append(links, string(node.Destination))
		}
		return ast.WalkContinue, nil
	})
	return headings, links
}

// checkLinks validates link destinations relative to baseDir. Absolute URLs
// are format-checked only; anchors must be non-empty; inclusion directives are
// handled elsewhere; anything else must exist on disk.
func checkLinks(baseDir string, links []string) []error {
	var errs []error
	for _, dest := range links {
		switch {
		case strings.HasPrefix(dest, "http://"), strings.HasPrefix(dest, "https://"):
			if len(dest) <= len("https://") {
				errs = append(errs, fmt.Errorf("malformed URL %q", dest))
			}
		case strings.HasPrefix(dest, "#"):
			if len(dest) == 1 {
				errs = append(errs, fmt.Errorf("empty anchor link"))
			}
		case strings.HasPrefix(dest, "@"):
			// inclusion directive, validated by reference checks
		case strings.HasPrefix(dest, "mailto:"):
			// format only
		default:
			target := filepath.Join(baseDir, dest)
			if _, err := os.Stat(target); err != nil {
				errs = append(errs, fmt.Errorf("broken link to %q", dest))
			}
		}
	}
	return errs
}
