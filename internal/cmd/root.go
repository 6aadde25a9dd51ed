package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for catcensus
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catcensus",
		Short: "Summarize mother cats and their kittens",
		Long: `Catcensus reads census payloads describing mother cats and their
kittens (JSON, YAML or Markdown; from files, stdin or URLs) and prints two
summary lines per payload: the mothers' names and the kitten totals.

Runs can be recorded in a local history database and the same census is
available over HTTP with 'catcensus serve'.`,
		Version: Version,
		// main prints the error; usage is not repeated on failures
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: $CATCENSUS_HOME/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")

	cmd.AddCommand(NewSummarizeCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewServeCommand())

	return cmd
}
