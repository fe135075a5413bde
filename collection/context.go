package collection

import (
	"fmt"
	"regexp"
	"strings"
)

// inclusionRef matches the canonical context inclusion directive:
// @collection:context/<name>.md
var inclusionRef = regexp.MustCompile(`@collection:context/([\w\-]+\.md)`)

// anyCollectionRef matches any @collection: directive so malformed variants
// (path traversal, absolute paths, bare filenames) can be flagged.
var anyCollectionRef = regexp.MustCompile(`@collection:([^\s)\x60]*)`)

// contextReferences returns the context file names referenced by a body.
func contextReferences(body string) []string {
	var out []string
	for _, m := range inclusionRef.FindAllStringSubmatch(body, -1) {
		out = append(out, m[1])
	}
	return out
}

// malformedReferences returns @collection: directives that do not follow the
// canonical context/<name>.md form. Relative-path styles (../context/x.md) and
// bare paths are rejected so inclusion can never escape the collection root.
func malformedReferences(body string) []string {
	var out []string
	for _, m := range anyCollectionRef.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if inclusionRef.MatchString(m[0]) && !strings.Contains(target, "..") {
			continue
		}
		out = append(out, m[0])
	}
	return out
}

// resolveInclusions replaces every @collection:context/<name>.md directive
// with the content of the referenced context document. contexts maps file
// names (e.g. "scoring-rubrics.md") to their content.
func resolveInclusions(body string, contexts map[string]string) (string, error) {
	var missing []string
	resolved := inclusionRef.ReplaceAllStringFunc(body, func(ref string) string {
		name := inclusionRef.FindStringSubmatch(ref)[1]
		content, ok := contexts[name]
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return content
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved context references: %s", strings.Join(missing, ", "))
	}
	if bad := malformedReferences(resolved); len(bad) > 0 {
		return "", fmt.Errorf("malformed context references: %s", strings.Join(bad, ", "))
	}
	return resolved, nil
}
