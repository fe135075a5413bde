package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/metamesh-ai/metamesh/collection"
)

// agentSummary is the YAML-output shape of one loaded agent.
type agentSummary struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	Tools       []string `yaml:"tools,omitempty"`
}

func newAgentsCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "agents <dir>",
		Short: "List the agents a collection profile loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := collection.Load(args[0], collection.WithLogger(newLogger()))
			if err != nil {
				return err
			}

			if asYAML {
				return printAgentsYAML(cmd, col)
			}
			return printAgentsTable(cmd, col)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "emit YAML instead of a table")
	return cmd
}

func printAgentsYAML(cmd *cobra.Command, col *collection.Collection) error {
	summaries := make([]agentSummary, 0, len(col.AgentNames()))
	for _, name := range col.AgentNames() {
		spec := col.Agent(name)
		ref := spec.Provider()
		summaries = append(summaries, agentSummary{
			Name:        name,
			Description: spec.Description,
			Provider:    ref.Module,
			Model:       ref.Config.Model,
			Temperature: ref.Config.Temperature,
			Tools:       spec.ToolModules(),
		})
	}

	enc, err := yaml.Marshal(summaries)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(enc))
	return nil
}

func printAgentsTable(cmd *cobra.Command, col *collection.Collection) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tMODEL\tTEMP\tTOOLS")
	for _, name := range col.AgentNames() {
		spec := col.Agent(name)
		ref := spec.Provider()

		temp := "-"
		if ref.Config.Temperature != nil {
			temp = fmt.Sprintf("%.1f", *ref.Config.Temperature)
		}
		tools := "-"
		if modules := spec.ToolModules(); len(modules) > 0 {
			tools = strings.Join(modules, ",")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			name, ref.Module, ref.Config.Model, temp, tools)
	}
	return w.Flush()
}
