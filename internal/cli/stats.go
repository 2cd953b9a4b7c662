package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/storage"
)

// NewStatsCmd creates the 'stats' command for inspecting the rollups.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregated feedback patterns and preferences",
		Long: `Display the aggregate rollups: per-pattern win/loss tallies,
derived technology and tool preferences, and template statistics.

Rollups reflect the last 'recall aggregate' run, not live events.`,
		Example: `  recall stats
  recall stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := defaultPaths()
			if err != nil {
				return err
			}
			store := openStore(p)
			defer store.Close()

			return runStats(store, jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStats(store storage.Store, jsonOutput bool, out io.Writer) error {
	patterns, err := store.ListPatterns()
	if err != nil {
		return fmt.Errorf("failed to list patterns: %w", err)
	}
	preferences, err := store.ListPreferences()
	if err != nil {
		return fmt.Errorf("failed to list preferences: %w", err)
	}
	templates, err := store.ListTemplateStats()
	if err != nil {
		return fmt.Errorf("failed to list template stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"patterns":    patterns,
			"preferences": preferences,
			"templates":   templates,
		})
	}

	if len(patterns) == 0 && len(preferences) == 0 && len(templates) == 0 {
		fmt.Fprintln(out, "No aggregates yet. Run 'recall aggregate' after recording feedback.")
		return nil
	}

	if len(patterns) > 0 {
		fmt.Fprintf(out, "Patterns (%d):\n", len(patterns))
		for _, p := range patterns {
			scope := "project"
			if p.GlobalScope {
				scope = "global"
			}
			fmt.Fprintf(out, "  %s %-20q %dW/%dL  rate %.2f  conf %.2f  [%s]\n",
				kindIcon(p.Dominant), p.Pattern, p.WinCount, p.LossCount,
				p.WinRate, p.Confidence, scope)
		}
		fmt.Fprintln(out)
	}

	if len(preferences) > 0 {
		fmt.Fprintf(out, "Preferences (%d):\n", len(preferences))
		for _, pref := range preferences {
			fmt.Fprintf(out, "  %-10s %-15s %s  (rate %.2f over %d mentions)\n",
				pref.Category, pref.Item, pref.Preference,
				pref.WinRate, pref.TotalOccurrences)
		}
		fmt.Fprintln(out)
	}

	if len(templates) > 0 {
		fmt.Fprintf(out, "Templates (%d):\n", len(templates))
		for _, t := range templates {
			fmt.Fprintf(out, "  %-20s used %d  %dW/%dL  rate %.2f  conf %.2f\n",
				t.TemplateID, t.UsageCount, t.WinCount, t.LossCount,
				t.WinRate, t.Confidence)
		}
	}

	return nil
}

func kindIcon(kind storage.Kind) string {
	if kind == storage.KindWin {
		return "✓"
	}
	return "✗"
}
