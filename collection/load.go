package collection

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/metamesh-ai/metamesh/logging"
)

// Standard collection layout.
const (
	AgentsDir   = "agents"
	ContextDir  = "context"
	ProfileFile = "profile.md"
)

// Collection is a fully loaded agent collection.
type Collection struct {
	Dir      string
	Profile  *Profile
	Agents   []*AgentSpec
	Contexts map[string]string // context file name -> content

	byName map[string]*AgentSpec
}

// Agent returns the named agent spec, or nil.
func (c *Collection) Agent(name string) *AgentSpec { return c.byName[name] }

// AgentNames lists loaded agents in profile order.
func (c *Collection) AgentNames() []string {
	out := make([]string, len(c.Agents))
	for i, a := range c.Agents {
		out[i] = a.Name
	}
	return out
}

// Options configures collection loading.
type Options struct {
	// ProfilePath overrides the default <dir>/profile.md location.
	ProfilePath string
	Logger      logging.Logger
}

// Option mutates loader Options.
type Option func(o *Options)

// WithProfilePath overrides the profile file location.
func WithProfilePath(path string) Option {
	return func(o *Options) { o.ProfilePath = path }
}

// WithLogger sets the loader logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Load reads the profile, context documents and every profiled agent from dir.
// It fails on the first structural error; use Validate for an exhaustive lint.
func Load(dir string, opts ...Option) (*Collection, error) {
	options := Options{Logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(&options)
	}

	profilePath := options.ProfilePath
	if profilePath == "" {
		profilePath = filepath.Join(dir, ProfileFile)
	}

	profile, err := LoadProfile(profilePath)
	if err != nil {
		return nil, err
	}

	contexts, err := loadContexts(filepath.Join(dir, ContextDir))
	if err != nil {
		return nil, err
	}

	c := &Collection{
		Dir:      dir,
		Profile:  profile,
		Contexts: contexts,
		byName:   map[string]*AgentSpec{},
	}

	for _, name := range profile.Agents {
		path := filepath.Join(dir, AgentsDir, name+".md")
		spec, err := loadAgent(path, contexts)
		if err != nil {
			return nil, fmt.Errorf("profile %q agent %q: %w", profile.Name, name, err)
		}
		c.Agents = append(c.Agents, spec)
		c.byName[spec.Name] = spec
	}

	options.Logger.Info("collection loaded",
		"dir", dir,
		"profile", profile.Name,
		"agents", len(c.Agents),
		"contexts", len(contexts),
	)

	return c, nil
}

// loadContexts reads every markdown document under the context directory.
// A missing directory yields an empty map; collections without rubrics are
// legal as long as no agent references one.
func loadContexts(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read context dir: %w", err)
	}

	contexts := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read context %s: %w", e.Name(), err)
		}
		contexts[e.Name()] = string(raw)
	}
	return contexts, nil
}

// loadAgent parses one agent markdown file and resolves its inclusions.
func loadAgent(path string, contexts map[string]string) (*AgentSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent: %w", err)
	}

	var env frontmatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(raw), &env)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	if err := checkEnvelope(path, env, body); err != nil {
		return nil, err
	}

	instructions, err := resolveInclusions(string(body), contexts)
	if err != nil {
		return nil, err
	}

	return &AgentSpec{
		Name:         env.Meta.Name,
		Description:  env.Meta.Description,
		Tools:        env.Tools,
		Providers:    env.Providers,
		Instructions: instructions,
		Path:         path,
	}, nil
}

// checkEnvelope enforces the frontmatter contract on a single agent file.
func checkEnvelope(path string, env frontmatterEnvelope, body []byte) error {
	name := env.Meta.Name
	if name == "" {
		return fmt.Errorf("meta.name is required")
	}
	if got := stem(filepath.Base(path)); got != name {
		return fmt.Errorf("meta.name %q must match file name stem %q", name, got)
	}
	if env.Meta.Description == "" {
		return fmt.Errorf("meta.description is required")
	}

	for i, t := range env.Tools {
		if err := checkModulePrefix(t.Module, ToolModulePrefix); err != nil {
			return fmt.Errorf("tools[%d]: %w", i, err)
		}
	}

	if len(env.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	for i, p := range env.Providers {
		if err := checkModulePrefix(p.Module, ProviderModulePrefix); err != nil {
			return fmt.Errorf("providers[%d]: %w", i, err)
		}
		if p.Config.Model == "" {
			return fmt.Errorf("providers[%d]: config.model is required", i)
		}
		if p.Config.Model == "MODEL_NAME" {
			return fmt.Errorf("providers[%d]: config.model is a placeholder", i)
		}
		if p.Config.Temperature != nil {
			if t := *p.Config.Temperature; t < 0.0 || t > 2.0 {
				return fmt.Errorf("providers[%d]: temperature %.2f outside [0.0, 2.0]", i, t)
			}
		}
	}

	if strings.TrimSpace(string(body)) == "" {
		return fmt.Errorf("agent body is empty")
	}
	headings, _ := inspectBody(body)
	if headings == 0 {
		return fmt.Errorf("agent body needs at least one heading")
	}

	return nil
}

// agentFiles lists agent markdown files under dir in deterministic order.
func agentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read agents dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
