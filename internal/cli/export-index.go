package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/search"
	"github.com/dmvu/recall/internal/storage"
)

// NewExportIndexCmd creates the export-index command.
func NewExportIndexCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export-index",
		Short: "Export the flat search index for grep/jq and fallback retrieval",
		Long: `Generate the JSONL flat index from all recorded feedback events.

The flat index is retrieval's second tier: it answers searches when the
database's full-text index is unavailable, and doubles as a plain-text
file for offline command-line inspection.

Default output: ~/.recall/index/context-index.jsonl`,
		Example: `  # Export to the default location
  recall export-index

  # Custom output path
  recall export-index --output ./context-index.jsonl

Grep usage examples:
  # Find events mentioning postgres
  grep -i postgres ~/.recall/index/context-index.jsonl | jq -r '.summary'

  # Count wins per project
  jq -r 'select(.kind == "win") | .project' ~/.recall/index/context-index.jsonl | sort | uniq -c`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := defaultPaths()
			if err != nil {
				return err
			}
			store := openStore(p)
			defer store.Close()

			if output == "" {
				output = p.indexPath
			}
			return runExportIndex(store, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: ~/.recall/index/context-index.jsonl)")

	return cmd
}

func runExportIndex(store storage.Store, output string, out io.Writer) error {
	count, err := search.BuildFlatIndex(store, output)
	if err != nil {
		return fmt.Errorf("failed to build flat index: %w", err)
	}

	fmt.Fprintf(out, "✓ Exported %d entries to %s\n", count, output)
	return nil
}
