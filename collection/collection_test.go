package collection

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidCollection(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "valid"))
	require.NoError(t, err)

	assert.Equal(t, "metacognition", c.Profile.Name)
	assert.Equal(t, []string{"complexity-assessor", "solution-evaluator"}, c.AgentNames())
	assert.Equal(t, 40, c.Profile.Budget.MaxModelCalls)
	require.NotNil(t, c.Profile.Routing.IterativeThreshold)
	assert.Equal(t, 8.5, *c.Profile.Routing.IterativeThreshold)

	assessor := c.Agent("complexity-assessor")
	require.NotNil(t, assessor)
	assert.Equal(t, "Scores task complexity 1-10 and recommends an execution strategy", assessor.Description)
	assert.Equal(t, []string{"tool-filesystem", "tool-grep"}, assessor.ToolModules())
	assert.Equal(t, "provider-anthropic", assessor.Provider().Module)
	assert.Equal(t, "claude-sonnet-4-5", assessor.Provider().Config.Model)
	assert.Equal(t, 0.3, assessor.Temperature(1.0))

	// Context inclusion is resolved into the instructions.
	assert.NotContains(t, assessor.Instructions, "@collection:")
	assert.Contains(t, assessor.Instructions, "Number of components touched")

	evaluator := c.Agent("solution-evaluator")
	require.NotNil(t, evaluator)
	assert.Contains(t, evaluator.Instructions, "Scores of 0.9 and above mean ship it")
	assert.Equal(t, 0.7, AgentSpecDefaultTemp(evaluator))
}

// AgentSpecDefaultTemp exercises the default path of Temperature through an
// agent whose provider sets one; kept as a helper to document the contract.
func AgentSpecDefaultTemp(a *AgentSpec) float64 {
	spec := *a
	spec.Providers = []ProviderRef{{Module: "provider-openai"}}
	return spec.Temperature(0.7)
}

func TestLoad_MissingProfiledAgentFails(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-agent")
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	violations := Validate(filepath.Join("testdata", "broken"))
	require.NotEmpty(t, violations)

	messages := make([]string, len(violations))
	rules := map[string]int{}
	for i, v := range violations {
		messages[i] = v.String()
		rules[v.Rule]++
	}
	joined := ""
	for _, m := range messages {
		joined += m + "\n"
	}

	assert.Contains(t, joined, `meta.name "mismatched-name" must match file name stem "bad-agent"`)
	assert.Contains(t, joined, "meta.description is required")
	assert.Contains(t, joined, `module "filesystem" must start with "tool-"`)
	assert.Contains(t, joined, "config.model is a placeholder")
	assert.Contains(t, joined, "temperature 3.50 outside [0.0, 2.0]")
	assert.Contains(t, joined, "at least one heading")
	assert.Contains(t, joined, `unresolved context reference "missing-rubric.md"`)
	assert.Contains(t, joined, "malformed context reference")
	assert.Contains(t, joined, `broken link to "does-not-exist.md"`)
	assert.Contains(t, joined, `profiled agent "ghost-agent" has no file`)

	// Every rule family fired.
	assert.Positive(t, rules[RuleFrontmatter])
	assert.Positive(t, rules[RuleBody])
	assert.Positive(t, rules[RuleReference])
	assert.Positive(t, rules[RuleLink])
	assert.Positive(t, rules[RuleProfile])
}

func TestValidate_CleanCollection(t *testing.T) {
	assert.Empty(t, Validate(filepath.Join("testdata", "valid")))
}

func TestResolveInclusions(t *testing.T) {
	contexts := map[string]string{"rubric.md": "scored content"}

	t.Run("inlines referenced document", func(t *testing.T) {
		out, err := resolveInclusions("before\n@collection:context/rubric.md\nafter", contexts)
		require.NoError(t, err)
		assert.Equal(t, "before\nscored content\nafter", out)
	})

	t.Run("unresolved reference errors", func(t *testing.T) {
		_, err := resolveInclusions("@collection:context/nope.md", contexts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.md")
	})

	t.Run("relative escape rejected", func(t *testing.T) {
		_, err := resolveInclusions("@collection:../secrets.md", contexts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed")
	})
}

func TestLoadProfile_Requirements(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join("testdata", "nope.md"))
		assert.Error(t, err)
	})

	t.Run("valid profile carries body", func(t *testing.T) {
		p, err := LoadProfile(filepath.Join("testdata", "valid", "profile.md"))
		require.NoError(t, err)
		assert.Contains(t, p.Body, "Metacognition Profile")
	})
}
