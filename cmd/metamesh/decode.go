package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/metamesh-ai/metamesh/schema"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <file>",
		Short: "Extract, identify and validate a strategy report from raw model output",
		Long: `Reads raw model output (pass "-" for stdin), extracts the first JSON
object, sniffs which report contract it carries (assessment, evaluation,
refinement or ensemble), validates it, and prints the normalized report.
Useful for debugging persona prompts against their output contracts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args[0])
			if err != nil {
				return err
			}

			obj, err := schema.ExtractObject(raw)
			if err != nil {
				return err
			}

			contract := schema.Sniff(obj)
			if contract == "" {
				return fmt.Errorf("object matches no report contract")
			}

			var report any
			switch contract {
			case schema.ContractAssessment:
				report, err = schema.DecodeAssessment("cli", raw)
			case schema.ContractEvaluation:
				report, err = schema.DecodeEvaluation("cli", raw)
			case schema.ContractRefinement:
				report, err = schema.DecodeRefinement("cli", raw)
			case schema.ContractEnsemble:
				report, err = schema.DecodeConsensus("cli", raw)
			}
			if err != nil {
				return err
			}

			enc, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "contract: %s\n%s\n", contract, string(enc))
			return nil
		},
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
