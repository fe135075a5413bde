package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamesh-ai/metamesh"
	"github.com/metamesh-ai/metamesh/core"
)

func newAssessCmd() *cobra.Command {
	var mock bool

	cmd := &cobra.Command{
		Use:   "assess <dir> <task>",
		Short: "Score a task's complexity with the collection's assessor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMesh(args[0], mock)
			if err != nil {
				return err
			}
			if _, ok := m.Engine().GetAgent(metamesh.StrategyAssessorName); !ok {
				return fmt.Errorf("collection %s has no %q persona", args[0], metamesh.AssessorAgentName)
			}

			_, events, err := m.InvokeSync(cmd.Context(), "cli", metamesh.StrategyAssessorName,
				core.NewUserContent(args[1]))
			if err != nil {
				return err
			}

			return printReport(cmd, events, metamesh.StrategyAssessorName)
		},
	}

	cmd.Flags().BoolVar(&mock, "mock", false, "resolve providers to mock models")
	return cmd
}

// printReport writes the text and data parts of the author's last report
// event, the data part as indented JSON.
func printReport(cmd *cobra.Command, events []core.Event, author string) error {
	out := cmd.OutOrStdout()
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Author != author || ev.Content == nil {
			continue
		}
		for _, part := range ev.Content.Parts {
			switch p := part.(type) {
			case core.TextPart:
				fmt.Fprintln(out, p.Text)
			case core.DataPart:
				enc, err := json.MarshalIndent(p.Data, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(enc))
			}
		}
		return nil
	}
	return fmt.Errorf("no report from %q", author)
}
