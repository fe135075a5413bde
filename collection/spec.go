package collection

import (
	"fmt"
	"strings"
)

// Naming prefixes frontmatter module references must carry.
const (
	ToolModulePrefix     = "tool-"
	ProviderModulePrefix = "provider-"
)

// ToolRef declares a tool module an agent may call.
type ToolRef struct {
	Module string `yaml:"module"`
}

// ProviderConfig tunes the model behind a provider.
type ProviderConfig struct {
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
}

// ProviderRef binds an agent to a model provider.
type ProviderRef struct {
	Module string         `yaml:"module"`
	Config ProviderConfig `yaml:"config"`
}

// meta is the identifying block of agent frontmatter.
type meta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// frontmatterEnvelope mirrors the YAML frontmatter of an agent file.
type frontmatterEnvelope struct {
	Meta      meta          `yaml:"meta"`
	Tools     []ToolRef     `yaml:"tools"`
	Providers []ProviderRef `yaml:"providers"`
}

// AgentSpec is a fully loaded agent definition: parsed frontmatter plus the
// markdown body with all context inclusions resolved.
type AgentSpec struct {
	Name         string
	Description  string
	Tools        []ToolRef
	Providers    []ProviderRef
	Instructions string // body with @collection: references inlined
	Path         string
}

// Provider returns the first provider reference. Loading guarantees at least
// one exists.
func (a *AgentSpec) Provider() ProviderRef {
	if len(a.Providers) == 0 {
		return ProviderRef{}
	}
	return a.Providers[0]
}

// Temperature returns the configured sampling temperature or the given default.
func (a *AgentSpec) Temperature(def float64) float64 {
	p := a.Provider()
	if p.Config.Temperature == nil {
		return def
	}
	return *p.Config.Temperature
}

// ToolModules lists the tool module names the agent declares.
func (a *AgentSpec) ToolModules() []string {
	out := make([]string, len(a.Tools))
	for i, t := range a.Tools {
		out[i] = t.Module
	}
	return out
}

// stem strips the .md suffix from a file name.
func stem(filename string) string {
	return strings.TrimSuffix(filename, ".md")
}

// checkModulePrefix validates a module reference against its required prefix.
func checkModulePrefix(module, prefix string) error {
	if !strings.HasPrefix(module, prefix) {
		return fmt.Errorf("module %q must start with %q", module, prefix)
	}
	if module == prefix {
		return fmt.Errorf("module %q has an empty name after prefix", module)
	}
	return nil
}
