// Command metamesh is the operator surface for agent collections: lint them,
// inspect their agents, and run tasks through the orchestration pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metamesh-ai/metamesh/logging"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	root := &cobra.Command{
		Use:           "metamesh",
		Short:         "Complexity-aware agent orchestration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json|text)")

	root.AddCommand(
		newValidateCmd(),
		newAgentsCmd(),
		newAssessCmd(),
		newRunCmd(),
		newDecodeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger from the persistent flags.
func newLogger() logging.Logger {
	var level logging.LogLevel
	switch logLevel {
	case "debug":
		level = logging.LogLevelDebug
	case "info":
		level = logging.LogLevelInfo
	case "error":
		level = logging.LogLevelError
	default:
		level = logging.LogLevelWarn
	}
	return logging.NewSlogLogger(level, logFormat, false)
}
