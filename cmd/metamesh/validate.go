package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamesh-ai/metamesh/collection"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Lint an agent collection and report every violation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			violations := collection.Validate(args[0])
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			if n := len(violations); n > 0 {
				return fmt.Errorf("%d violation(s) in %s", n, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
