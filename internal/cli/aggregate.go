package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/aggregate"
	"github.com/dmvu/recall/internal/config"
	"github.com/dmvu/recall/internal/search"
	"github.com/dmvu/recall/internal/storage"
)

// NewAggregateCmd creates the 'aggregate' command, the batch rollup job.
func NewAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Rebuild pattern, preference, and template rollups",
		Long: `Recompute every aggregate table from the raw feedback events.

Each rollup is rebuilt wholesale inside one transaction, so readers
never observe a half-finished table. The job is idempotent; running it
twice in a row produces identical results. Template evolution proposals
and the flat search index are refreshed as part of the same run.

Intended to run periodically (cron) or after a batch of new events.`,
		Example: `  recall aggregate`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			p, err := defaultPaths()
			if err != nil {
				return err
			}
			store := openStore(p)
			defer store.Close()

			return runAggregate(store, cfg, p, cmd.OutOrStdout())
		},
	}

	return cmd
}

// runAggregate runs every rollup job in sequence. Jobs are independent;
// one failing does not stop the others, but the command reports failure
// if any did.
func runAggregate(store storage.Store, cfg *config.Config, p paths, out io.Writer) error {
	var failed bool

	policy := cfg.Aggregation.Confidence

	if err := aggregate.RecomputePatterns(store, policy); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: pattern rollup failed: %v\n", err)
		failed = true
	} else {
		patterns, _ := store.ListPatterns()
		fmt.Fprintf(out, "✓ Patterns: %d rolled up\n", len(patterns))
	}

	if err := aggregate.RecomputePreferences(store, cfg.Preferences); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: preference rollup failed: %v\n", err)
		failed = true
	} else {
		prefs, _ := store.ListPreferences()
		fmt.Fprintf(out, "✓ Preferences: %d classified\n", len(prefs))
	}

	if err := aggregate.RecomputeTemplates(store, policy); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: template rollup failed: %v\n", err)
		failed = true
	} else {
		stats, _ := store.ListTemplateStats()
		fmt.Fprintf(out, "✓ Templates: %d rolled up\n", len(stats))

		if err := writeEvolutionProposals(store, p, stats, out); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: evolution proposals failed: %v\n", err)
			failed = true
		}
	}

	count, err := search.BuildFlatIndex(store, p.indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flat index rebuild failed: %v\n", err)
		failed = true
	} else {
		fmt.Fprintf(out, "✓ Flat index: %d entries\n", count)
	}

	if failed {
		return fmt.Errorf("one or more rollup jobs failed")
	}
	return nil
}

func writeEvolutionProposals(store storage.Store, p paths, stats []storage.TemplateStat, out io.Writer) error {
	mods, err := aggregate.LoadModifications(p.modifications)
	if err != nil {
		return fmt.Errorf("failed to load template modifications: %w", err)
	}

	proposals := aggregate.GenerateProposals(mods, stats, time.Now().UTC())
	if err := aggregate.WriteProposals(proposals, p.proposals); err != nil {
		return fmt.Errorf("failed to write proposals: %w", err)
	}

	fmt.Fprintf(out, "✓ Evolution proposals: %d written to %s\n", len(proposals), p.proposals)
	return nil
}
