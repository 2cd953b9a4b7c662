package artifact

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

func sampleEvent() storage.FeedbackEvent {
	return storage.FeedbackEvent{
		ID:               42,
		Timestamp:        time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Project:          "recall",
		MatchedPattern:   "great job",
		Kind:             storage.KindWin,
		RawMessage:       "great job",
		ContextSummary:   "edited internal/storage/events.go",
		GeneratedSummary: "Fixed the event insert path.",
	}
}

func TestWriteAndParse_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, sampleEvent())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}

	rec := Parse(path, string(content))

	if rec.Kind != storage.KindWin {
		t.Errorf("expected kind win, got %q", rec.Kind)
	}
	if rec.Project != "recall" {
		t.Errorf("expected project recall, got %q", rec.Project)
	}
	if rec.Pattern != "great job" {
		t.Errorf("expected pattern 'great job', got %q", rec.Pattern)
	}
	if rec.EventID != 42 {
		t.Errorf("expected event id 42, got %d", rec.EventID)
	}
	if !rec.Timestamp.Equal(sampleEvent().Timestamp) {
		t.Errorf("expected timestamp %v, got %v", sampleEvent().Timestamp, rec.Timestamp)
	}
	if !strings.Contains(rec.Body, "Fixed the event insert path.") {
		t.Error("expected body to contain the generated summary")
	}
}

func TestWrite_PathIncludesTimestampAndID(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, sampleEvent())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !strings.Contains(path, "20260314-092653-42.md") {
		t.Errorf("unexpected artifact path: %s", path)
	}
}

func TestReadAll_MissingDirectory(t *testing.T) {
	records, err := ReadAll(t.TempDir() + "/does-not-exist")
	if err != nil {
		t.Fatalf("expected no error for missing directory, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestReadAll_NewestFirst(t *testing.T) {
	dir := t.TempDir()

	older := sampleEvent()
	older.ID = 1
	older.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	newer := sampleEvent()
	newer.ID = 2
	newer.Timestamp = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, err := Write(dir, older); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := Write(dir, newer); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].EventID != 2 {
		t.Errorf("expected newest record first, got event %d", records[0].EventID)
	}
}

func TestParse_MalformedContent(t *testing.T) {
	rec := Parse("x.md", "not really an artifact\nat all")

	if rec.Kind != "" || rec.EventID != 0 {
		t.Errorf("expected zero fields for malformed content, got %+v", rec)
	}
	if rec.Body == "" {
		t.Error("body should still carry the raw content")
	}
}
