package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmvu/recall/internal/artifact"
	"github.com/dmvu/recall/internal/classifier"
	"github.com/dmvu/recall/internal/config"
	"github.com/dmvu/recall/internal/gate"
	"github.com/dmvu/recall/internal/inject"
	"github.com/dmvu/recall/internal/search"
	"github.com/dmvu/recall/internal/storage"
)

// observeRequest is one observed user message with its surrounding activity.
type observeRequest struct {
	Message     string
	Project     string
	SessionID   string
	EditedFiles []string
	ToolOutput  string
	NoInject    bool
}

// NewObserveCmd creates the 'observe' command, the per-message entry
// point an assistant hook calls with each user message.
func NewObserveCmd() *cobra.Command {
	var (
		project     string
		session     string
		editedFiles []string
		toolOutput  string
		noInject    bool
	)

	cmd := &cobra.Command{
		Use:   "observe <message>",
		Short: "Observe a user message for win/loss feedback",
		Long: `Classify a user message against the feedback vocabulary.

Short messages that match a win or loss trigger are recorded as feedback
events with a rendered markdown artifact. Messages that do not classify
are dropped silently; observe is safe to call on every message.

After recording, the injection gate decides whether relevant past
experience should be surfaced. Gated injection is rate limited; use
'recall search' for explicit, ungated retrieval.`,
		Example: `  # Called by a hook with each user message
  recall observe "that worked" --project billing-api

  # Carry recent tool activity for the injection gate
  recall observe "the migration is broken again" \
    --edited-file internal/db/migrate.go \
    --tool-output "$(tail -20 build.log)"`,
		Args: cobra.ExactArgs(1),
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

			return runObserve(store, cfg, p, observeRequest{
				Message:     args[0],
				Project:     project,
				SessionID:   session,
				EditedFiles: editedFiles,
				ToolOutput:  toolOutput,
				NoInject:    noInject,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project label (default: working directory name)")
	cmd.Flags().StringVar(&session, "session", "", "Session id (default: generated UUID)")
	cmd.Flags().StringArrayVar(&editedFiles, "edited-file", nil, "File touched by a recent tool call (repeatable)")
	cmd.Flags().StringVar(&toolOutput, "tool-output", "", "Tail of recent tool output")
	cmd.Flags().BoolVar(&noInject, "no-inject", false, "Skip the automatic injection gate")

	return cmd
}

// runObserve classifies, records, renders, and finally offers the
// message to the injection gate.
func runObserve(store storage.Store, cfg *config.Config, p paths, req observeRequest, out io.Writer) error {
	result := classifier.Classify(req.Message, cfg.Classifier)

	if !result.None() {
		recordFeedback(store, p, req, result, out)
	}

	if req.NoInject {
		return nil
	}

	engine := search.NewEngine(store, p.indexPath, p.artifactsDir)
	limiter := gate.NewLimiter(store, cfg.Gate.MessageWindow)

	injector := inject.New(engine, inject.Config{
		Vocabulary:  cfg.Gate.Vocabulary,
		Threshold:   cfg.Gate.Threshold,
		SearchLimit: cfg.Settings.SearchLimit,
		SoftTimeout: time.Duration(cfg.Settings.SoftTimeoutSeconds) * time.Second,
	}, limiter, func(block string) { fmt.Fprint(out, block) })
	injector.Submit(inject.Request{
		Message: req.Message,
		Project: req.Project,
		Activity: gate.Activity{
			EditedFiles: req.EditedFiles,
			ToolOutput:  req.ToolOutput,
		},
	})
	injector.Stop()

	return nil
}

// recordFeedback persists one classified event and its artifact.
// Every failure here degrades to a warning; the observing hook must
// never see feedback recording take down a message.
func recordFeedback(store storage.Store, p paths, req observeRequest, result classifier.Result, out io.Writer) {
	event := storage.FeedbackEvent{
		Timestamp:      time.Now().UTC(),
		Project:        req.Project,
		MatchedPattern: result.Matched,
		Kind:           result.Kind,
		RawMessage:     req.Message,
		ContextSummary: req.ToolOutput,
		SessionID:      req.SessionID,
	}
	if event.Project == "" {
		event.Project = deriveProject()
	}
	if event.SessionID == "" {
		event.SessionID = uuid.NewString()
	}

	id, err := store.RecordEvent(event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record feedback: %v\n", err)
		return
	}
	event.ID = id

	path, err := artifact.Write(p.artifactsDir, event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write artifact: %v\n", err)
	} else if err := store.SetArtifactPath(id, path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to link artifact: %v\n", err)
	}

	icon := "✓"
	if result.Kind == storage.KindLoss {
		icon = "✗"
	}
	fmt.Fprintf(out, "%s Recorded %s: %q (event %d)\n", icon, result.Kind, result.Matched, id)
}
