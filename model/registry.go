package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/metamesh-ai/metamesh/collection"
)

// ModuleAnthropic and ModuleOpenAI are the provider module names agent
// frontmatter may declare.
const (
	ModuleAnthropic = "provider-anthropic"
	ModuleOpenAI    = "provider-openai"
)

// Factory builds a Model from the provider configuration declared in an
// agent file. Factories should validate what the collection loader cannot
// (e.g. SDK credentials) and fail fast.
type Factory func(ref collection.ProviderRef) (Model, error)

// Registry resolves frontmatter provider modules to Model instances. One
// registry is shared per engine; registration normally happens once at
// startup, so lookups vastly outnumber writes.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs a factory for a provider module, replacing any prior
// registration under the same name.
func (r *Registry) Register(module string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[module] = factory
}

// Modules returns the registered provider module names, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve builds a Model for the given provider declaration. An unknown
// module is an error so misconfigured collections fail at load time, not
// mid-run.
func (r *Registry) Resolve(ref collection.ProviderRef) (Model, error) {
	r.mu.RLock()
	factory, ok := r.factories[ref.Module]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider module %q (registered: %v)", ref.Module, r.Modules())
	}
	m, err := factory(ref)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", ref.Module, err)
	}
	return m, nil
}
