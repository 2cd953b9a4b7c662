package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/storage"
)

// NewTemplateOutcomeCmd creates the 'template-outcome' command, called
// by the scaffolding tool when a templated project wins or loses.
func NewTemplateOutcomeCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "template-outcome <template-id> <win|loss>",
		Short: "Record a win/loss outcome for a project template",
		Long: `Record that a project scaffolded from a template succeeded or failed.

Outcomes feed the template rollup and, together with recorded structural
modifications, drive template evolution proposals during aggregation.`,
		Example: `  recall template-outcome go-service win --project billing-api
  recall template-outcome cli-starter loss`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := defaultPaths()
			if err != nil {
				return err
			}
			store := openStore(p)
			defer store.Close()

			return runTemplateOutcome(store, args[0], args[1], project, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project label (default: working directory name)")

	return cmd
}

func runTemplateOutcome(store storage.Store, templateID, kindArg, project string, out io.Writer) error {
	kind := storage.Kind(kindArg)
	if !kind.Valid() {
		return fmt.Errorf("outcome must be %q or %q, got %q",
			storage.KindWin, storage.KindLoss, kindArg)
	}

	if project == "" {
		project = deriveProject()
	}

	id, err := store.RecordTemplateOutcome(storage.TemplateOutcome{
		TemplateID: templateID,
		Project:    project,
		Kind:       kind,
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	fmt.Fprintf(out, "%s Recorded %s for template %q (outcome %d)\n",
		kindIcon(kind), kind, templateID, id)
	return nil
}
