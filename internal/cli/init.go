package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/config"
	"github.com/dmvu/recall/internal/storage"
)

// NewInitCmd creates the 'init' command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and default configuration",
		Long: `Set up ~/.recall: the SQLite database, the artifacts directory,
and a config.json populated with the default vocabularies.

Safe to rerun; an existing config is never overwritten.`,
		Example: `  recall init`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := defaultPaths()
			if err != nil {
				return err
			}
			return runInit(p, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runInit(p paths, out io.Writer) error {
	if err := os.MkdirAll(p.artifactsDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(p.configPath); os.IsNotExist(err) {
		if err := config.Save(config.Default(), p.configPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote default config to %s\n", p.configPath)
	} else {
		fmt.Fprintf(out, "✓ Config already exists at %s\n", p.configPath)
	}

	store := storage.NewStoreAt(p.dbPath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	fmt.Fprintf(out, "✓ Database ready at %s\n", p.dbPath)
	fmt.Fprintf(out, "✓ Artifacts directory at %s\n", p.artifactsDir)
	fmt.Fprintln(out, "\nNext: wire 'recall observe' into your assistant's message hook.")
	return nil
}
