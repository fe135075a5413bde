package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// instructionFuncs are the helpers available inside instruction templates.
var instructionFuncs = template.FuncMap{
	"default": func(fallback any, val any) any {
		if val == nil || val == "" {
			return fallback
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	},
	"join": func(sep string, items []any) string {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, sep)
	},
}

// RenderTemplate expands {{...}} variables in an instruction against session
// state using text/template. Text without template markers passes through
// untouched.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instruction").Funcs(instructionFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse instruction template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("render instruction template: %w", err)
	}
	return buf.String(), nil
}
