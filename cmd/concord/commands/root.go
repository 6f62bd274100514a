// Package commands implements the concord CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "concord",
	Short: "Concord - concurrent scoring and consensus engine",
	Long: `Concord evaluates an instrument universe once per run, derives
multiple strategy views from each evaluation, and aggregates them into
tiered, risk-filtered consensus recommendations with portfolio weights.

Usage:
  go run ./cmd/concord [command]

Examples:
  go run ./cmd/concord run
  go run ./cmd/concord serve
  go run ./cmd/concord scheduler`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
