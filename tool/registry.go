package tool

import (
	"fmt"
	"sort"
	"sync"
)

// Frontmatter module names for the built-in tools.
const (
	ModuleFilesystem = "tool-filesystem"
	ModuleGrep       = "tool-grep"
	ModuleTask       = "tool-task"
	ModuleSession    = "tool-session"
)

// Factory constructs a Tool instance. Factories capture their own
// dependencies (workspace root, engine handle) at registration time.
type Factory func() (Tool, error)

// Registry resolves frontmatter tool modules to Tool instances. Agents
// referencing an unregistered module fail at load time.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs a factory for a tool module, replacing any prior
// registration under the same name.
func (r *Registry) Register(module string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[module] = factory
}

// Modules returns the registered tool module names, sorted.
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

// Resolve builds Tool instances for the given modules, in order. The first
// unknown module aborts resolution.
func (r *Registry) Resolve(modules []string) ([]Tool, error) {
	tools := make([]Tool, 0, len(modules))
	for _, module := range modules {
		r.mu.RLock()
		factory, ok := r.factories[module]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown tool module %q (registered: %v)", module, r.Modules())
		}
		t, err := factory()
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", module, err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}
