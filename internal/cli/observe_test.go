package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dmvu/recall/internal/config"
	"github.com/dmvu/recall/internal/storage"
)

func newTestEnv(t *testing.T) (*storage.SQLiteStore, paths) {
	t.Helper()

	p := pathsIn(t.TempDir())
	store := storage.NewStoreAt(p.dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, p
}

func TestRunObserve_RecordsFeedback(t *testing.T) {
	store, p := newTestEnv(t)
	var out bytes.Buffer

	err := runObserve(store, config.Default(), p, observeRequest{
		Message:  "that worked",
		Project:  "billing-api",
		NoInject: true,
	}, &out)
	if err != nil {
		t.Fatalf("runObserve failed: %v", err)
	}

	if !strings.Contains(out.String(), "Recorded win") {
		t.Errorf("expected a win confirmation, got %q", out.String())
	}

	events, err := store.ListEvents(storage.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Kind != storage.KindWin || event.MatchedPattern != "that worked" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.Project != "billing-api" {
		t.Errorf("expected project label, got %q", event.Project)
	}
	if event.SessionID == "" {
		t.Error("expected a generated session id")
	}
	if event.ArtifactPath == "" {
		t.Fatal("expected artifact path to be back-filled")
	}
	if _, err := os.Stat(event.ArtifactPath); err != nil {
		t.Errorf("artifact file missing: %v", err)
	}
}

func TestRunObserve_NonFeedbackIsSilent(t *testing.T) {
	store, p := newTestEnv(t)
	var out bytes.Buffer

	err := runObserve(store, config.Default(), p, observeRequest{
		Message:  "please walk me through how the billing reconciliation job works",
		NoInject: true,
	}, &out)
	if err != nil {
		t.Fatalf("runObserve failed: %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("expected no output for a non-feedback message, got %q", out.String())
	}

	events, err := store.ListEvents(storage.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestRunObserve_InjectsRelevantExperience(t *testing.T) {
	store, p := newTestEnv(t)

	_, err := store.RecordEvent(storage.FeedbackEvent{
		Timestamp:      time.Now().UTC(),
		Project:        "billing-api",
		MatchedPattern: "that worked",
		Kind:           storage.KindWin,
		RawMessage:     "fixed the database migration ordering issue",
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	cfg := config.Default()
	cfg.Gate.MessageWindow = 1

	var out bytes.Buffer
	err = runObserve(store, cfg, p, observeRequest{
		// Relevant to the gate, but not classifiable feedback.
		Message: "checking the database migration plan",
	}, &out)
	if err != nil {
		t.Fatalf("runObserve failed: %v", err)
	}

	if !strings.Contains(out.String(), "that worked") {
		t.Errorf("expected injected past experience, got %q", out.String())
	}
}

func TestRunObserve_HonorsConfiguredSearchLimit(t *testing.T) {
	store, p := newTestEnv(t)

	for i := 0; i < 4; i++ {
		_, err := store.RecordEvent(storage.FeedbackEvent{
			Timestamp:      time.Now().UTC(),
			Project:        "billing-api",
			MatchedPattern: "that worked",
			Kind:           storage.KindWin,
			RawMessage:     fmt.Sprintf("database migration attempt %d sorted out", i),
		})
		if err != nil {
			t.Fatalf("RecordEvent failed: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Gate.MessageWindow = 1
	cfg.Settings.SearchLimit = 1

	var out bytes.Buffer
	err := runObserve(store, cfg, p, observeRequest{
		Message: "checking the database migration plan",
	}, &out)
	if err != nil {
		t.Fatalf("runObserve failed: %v", err)
	}

	if got := strings.Count(out.String(), "that worked"); got != 1 {
		t.Errorf("expected the configured limit of 1 result, got %d", got)
	}
}

func TestRunObserve_NoInjectSkipsGate(t *testing.T) {
	store, p := newTestEnv(t)

	_, err := store.RecordEvent(storage.FeedbackEvent{
		Timestamp:      time.Now().UTC(),
		MatchedPattern: "that worked",
		Kind:           storage.KindWin,
		RawMessage:     "fixed the database migration ordering issue",
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	cfg := config.Default()
	cfg.Gate.MessageWindow = 1

	var out bytes.Buffer
	err = runObserve(store, cfg, p, observeRequest{
		Message:  "checking the database migration plan",
		NoInject: true,
	}, &out)
	if err != nil {
		t.Fatalf("runObserve failed: %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("expected no injection with --no-inject, got %q", out.String())
	}
}
