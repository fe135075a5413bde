package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamesh-ai/metamesh"
)

func newRunCmd() *cobra.Command {
	var (
		mock   bool
		urgent bool
	)

	cmd := &cobra.Command{
		Use:   "run <dir> <task>",
		Short: "Orchestrate a task: assess, route, execute, evaluate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMesh(args[0], mock)
			if err != nil {
				return err
			}

			result, err := m.Orchestrate(cmd.Context(), "cli", args[1],
				func(o *metamesh.OrchestrateOptions) { o.Urgent = urgent })
			if err != nil {
				return err
			}

			enc, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(enc))
			return nil
		},
	}

	cmd.Flags().BoolVar(&mock, "mock", false, "resolve providers to mock models")
	cmd.Flags().BoolVar(&urgent, "urgent", false, "mark the task urgent (prefers decomposition at high complexity)")
	return cmd
}
