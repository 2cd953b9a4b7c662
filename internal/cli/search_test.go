package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dmvu/recall/internal/search"
	"github.com/dmvu/recall/internal/storage"
)

func TestRunSearch_PrintsMatches(t *testing.T) {
	store, p := newTestEnv(t)
	recordTestEvent(t, store, "that worked", storage.KindWin, "postgres pool sizing sorted out")

	engine := search.NewEngine(store, p.indexPath, p.artifactsDir)

	var out bytes.Buffer
	if err := runSearch(engine, "postgres", search.Options{}, false, &out); err != nil {
		t.Fatalf("runSearch failed: %v", err)
	}

	if !strings.Contains(out.String(), "that worked") {
		t.Errorf("expected the matching pattern in output, got %q", out.String())
	}
}

func TestRunSearch_NoResults(t *testing.T) {
	store, p := newTestEnv(t)
	engine := search.NewEngine(store, p.indexPath, p.artifactsDir)

	var out bytes.Buffer
	if err := runSearch(engine, "kubernetes", search.Options{}, false, &out); err != nil {
		t.Fatalf("runSearch failed: %v", err)
	}

	if !strings.Contains(out.String(), "No relevant past experience found.") {
		t.Errorf("expected the no-results message, got %q", out.String())
	}
}

func TestRunSearch_JSONOutput(t *testing.T) {
	store, p := newTestEnv(t)
	recordTestEvent(t, store, "that worked", storage.KindWin, "postgres pool sizing sorted out")

	engine := search.NewEngine(store, p.indexPath, p.artifactsDir)

	var out bytes.Buffer
	if err := runSearch(engine, "postgres", search.Options{}, true, &out); err != nil {
		t.Fatalf("runSearch failed: %v", err)
	}

	var items []search.Result
	if err := json.Unmarshal(out.Bytes(), &items); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
}
