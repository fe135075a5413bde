package collection

import (
	"bytes"
	"fmt"
	"os"

	"github.com/adrg/frontmatter"
)

// RoutingConfig overrides the default complexity routing thresholds.
// Nil fields keep the built-in bands.
type RoutingConfig struct {
	DirectThreshold     *float64 `yaml:"direct_threshold"`
	SinglePassThreshold *float64 `yaml:"single_pass_threshold"`
	IterativeThreshold  *float64 `yaml:"iterative_threshold"`
}

// BudgetConfig sets per-run resource ceilings. Zero means unlimited calls /
// default iterations.
type BudgetConfig struct {
	MaxModelCalls int `yaml:"max_model_calls"`
	MaxIterations int `yaml:"max_iterations"`
}

// Profile configures which agents a collection session loads, in order, plus
// routing and budget defaults. It lives in a markdown file whose frontmatter
// carries the configuration and whose body documents the profile.
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Agents      []string `yaml:"agents"`

	Routing RoutingConfig `yaml:"routing"`
	Budget  BudgetConfig  `yaml:"budget"`

	Body string `yaml:"-"`
	Path string `yaml:"-"`
}

// LoadProfile reads and parses a profile markdown file.
func LoadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	body, err := frontmatter.Parse(bytes.NewReader(raw), &p)
	if err != nil {
		return nil, fmt.Errorf("parse profile frontmatter %s: %w", path, err)
	}

	if p.Name == "" {
		return nil, fmt.Errorf("profile %s: name is required", path)
	}
	if len(p.Agents) == 0 {
		return nil, fmt.Errorf("profile %s: at least one agent is required", path)
	}

	p.Body = string(body)
	p.Path = path

	return &p, nil
}
