/*
Package main is the entry point for the recall CLI.

recall is a local feedback memory for AI coding assistants: it watches
user messages for win/loss feedback, records classified events in
SQLite, and surfaces relevant past experience back into new sessions.

Usage:
  recall [command]

Available Commands:
  init              Create the data directory and default configuration
  observe           Observe a user message for win/loss feedback
  search            Search past feedback for relevant experience
  aggregate         Rebuild pattern, preference, and template rollups
  stats             Show aggregated feedback patterns and preferences
  export-index      Export the flat search index
  template-outcome  Record a win/loss outcome for a project template
  version           Show version information

Examples:
  # One-time setup
  recall init

  # Called by a hook with each user message
  recall observe "that worked"

  # Explicit retrieval
  recall search postgres connection pool
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/cli"
	"github.com/dmvu/recall/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recall",
		Short: "Local feedback memory for AI coding assistants",
		Long: `recall turns short user feedback ("that worked", "still broken") into
a persistent win/loss memory, then brings relevant past experience back
into new sessions - either on explicit search or through a rate-limited
automatic injection gate.

Everything is local: a SQLite database, markdown artifacts, and a
grep-friendly flat index under ~/.recall.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewInitCmd())
	rootCmd.AddCommand(cli.NewObserveCmd())
	rootCmd.AddCommand(cli.NewSearchCmd())
	rootCmd.AddCommand(cli.NewAggregateCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())
	rootCmd.AddCommand(cli.NewExportIndexCmd())
	rootCmd.AddCommand(cli.NewTemplateOutcomeCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
