package collection

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/frontmatter"
)

// Violation is one lint finding, located by file and classified by rule.
type Violation struct {
	File    string
	Rule    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: [%s] %s", v.File, v.Rule, v.Message)
}

// Lint rule identifiers.
const (
	RuleFrontmatter = "frontmatter"
	RuleBody        = "body"
	RuleReference   = "reference"
	RuleLink        = "link"
	RuleProfile     = "profile"
)

// Validate lints an entire collection directory and returns every violation
// found. Unlike Load it does not stop at the first error, and it checks all
// agent files on disk, not just the profiled ones.
func Validate(dir string) []Violation {
	var violations []Violation

	add := func(file, rule, format string, args ...any) {
		violations = append(violations, Violation{File: file, Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	contexts, err := loadContexts(filepath.Join(dir, ContextDir))
	if err != nil {
		add(filepath.Join(dir, ContextDir), RuleReference, "%v", err)
		contexts = map[string]string{}
	}

	profilePath := filepath.Join(dir, ProfileFile)
	profile, err := LoadProfile(profilePath)
	if err != nil {
		add(profilePath, RuleProfile, "%v", err)
	}

	paths, err := agentFiles(filepath.Join(dir, AgentsDir))
	if err != nil {
		add(filepath.Join(dir, AgentsDir), RuleFrontmatter, "%v", err)
		return violations
	}

	seen := map[string]bool{}
	for _, path := range paths {
		name := stem(filepath.Base(path))
		seen[name] = true
		violations = append(violations, validateAgentFile(path, contexts)...)
	}

	if profile != nil {
		for _, name := range profile.Agents {
			if !seen[name] {
				add(profilePath, RuleProfile, "profiled agent %q has no file under %s/", name, AgentsDir)
			}
		}
	}

	return violations
}

// validateAgentFile lints a single agent markdown file, accumulating all
// findings instead of failing fast.
func validateAgentFile(path string, contexts map[string]string) []Violation {
	var violations []Violation
	add := func(rule, format string, args ...any) {
		violations = append(violations, Violation{File: path, Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		add(RuleFrontmatter, "read: %v", err)
		return violations
	}

	var env frontmatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(raw), &env)
	if err != nil {
		add(RuleFrontmatter, "parse: %v", err)
		return violations
	}

	if env.Meta.Name == "" {
		add(RuleFrontmatter, "meta.name is required")
	} else if got := stem(filepath.Base(path)); got != env.Meta.Name {
		add(RuleFrontmatter, "meta.name %q must match file name stem %q", env.Meta.Name, got)
	}
	if env.Meta.Description == "" {
		add(RuleFrontmatter, "meta.description is required")
	}

	for i, t := range env.Tools {
		if err := checkModulePrefix(t.Module, ToolModulePrefix); err != nil {
			add(RuleFrontmatter, "tools[%d]: %v", i, err)
		}
	}

	if len(env.Providers) == 0 {
		add(RuleFrontmatter, "at least one provider is required")
	}
	for i, p := range env.Providers {
		if err := checkModulePrefix(p.Module, ProviderModulePrefix); err != nil {
			add(RuleFrontmatter, "providers[%d]: %v", i, err)
		}
		if p.Config.Model == "" {
			add(RuleFrontmatter, "providers[%d]: config.model is required", i)
		} else if p.Config.Model == "MODEL_NAME" {
			add(RuleFrontmatter, "providers[%d]: config.model is a placeholder", i)
		}
		if p.Config.Temperature != nil {
			if t := *p.Config.Temperature; t < 0.0 || t > 2.0 {
				add(RuleFrontmatter, "providers[%d]: temperature %.2f outside [0.0, 2.0]", i, t)
			}
		}
	}

	text := string(body)
	headings, links := inspectBody(body)
	if len(bytes.TrimSpace(body)) == 0 {
		add(RuleBody, "agent body is empty")
	} else if headings == 0 {
		add(RuleBody, "agent body needs at least one heading")
	}

	for _, ref := range contextReferences(text) {
		if _, ok := contexts[ref]; !ok {
			add(RuleReference, "unresolved context reference %q", ref)
		}
	}
	for _, bad := range malformedReferences(text) {
		add(RuleReference, "malformed context reference %q", bad)
	}

	for _, err := range checkLinks(filepath.Dir(path), links) {
		add(RuleLink, "%v", err)
	}

	return violations
}
