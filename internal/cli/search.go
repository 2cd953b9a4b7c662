package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/config"
	"github.com/dmvu/recall/internal/search"
)

// NewSearchCmd creates the 'search' command for explicit retrieval.
//
// Explicit searches bypass the injection gate entirely: the user asked,
// so relevance scoring and rate limiting do not apply.
func NewSearchCmd() *cobra.Command {
	var (
		project    string
		taskType   string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search past feedback for relevant experience",
		Long: `Search recorded feedback events for past experience matching a query.

Retrieval tries the full-text index first, then the pre-built flat
index, then a brute-force scan over the artifact files. The first
strategy with results answers; finding nothing is a normal outcome.`,
		Example: `  recall search postgres connection pool
  recall search "database migration" --project billing-api
  recall search deploy --limit 3 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Settings.SearchLimit
			}

			p, err := defaultPaths()
			if err != nil {
				return err
			}
			store := openStore(p)
			defer store.Close()

			engine := search.NewEngine(store, p.indexPath, p.artifactsDir)
			return runSearch(engine, strings.Join(args, " "), search.Options{
				Project:  project,
				TaskType: taskType,
				Limit:    limit,
			}, jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Restrict results to one project")
	cmd.Flags().StringVar(&taskType, "task-type", "", "Boost flat-index entries of this task type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default 5)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runSearch(engine *search.Engine, query string, opts search.Options, jsonOutput bool, out io.Writer) error {
	results, err := engine.Search(query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results.Items)
	}

	fmt.Fprintln(out, search.Format(results))
	return nil
}
