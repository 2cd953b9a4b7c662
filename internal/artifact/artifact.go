/*
Package artifact renders and reads the per-event markdown documents.

Every recorded feedback event gets one human-readable markdown file under
the artifacts directory, addressed by timestamp and event id. The files
are written once and never modified. Retrieval's brute-force tier reads
them back when no better index is available.
*/
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

// DefaultDir returns ~/.recall/artifacts.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "artifacts"
	}
	return filepath.Join(home, ".recall", "artifacts")
}

// Write renders an event to a markdown file and returns its path.
//
// The file is written atomically (temp file + rename) so a partially
// written artifact is never observable. The caller back-fills the
// returned path onto the event row; failure here must not invalidate
// the already-committed event.
func Write(dir string, event storage.FeedbackEvent) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	name := fmt.Sprintf("%s-%d.md",
		event.Timestamp.UTC().Format("20060102-150405"), event.ID)
	path := filepath.Join(dir, name)

	content := Render(event)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}

	return path, nil
}

// Render produces the markdown document for an event.
func Render(event storage.FeedbackEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Feedback: %s\n\n", event.MatchedPattern)
	fmt.Fprintf(&b, "- Kind: %s\n", event.Kind)
	fmt.Fprintf(&b, "- Project: %s\n", event.Project)
	fmt.Fprintf(&b, "- Timestamp: %s\n", event.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Pattern: %s\n", event.MatchedPattern)
	fmt.Fprintf(&b, "- Event: %d\n", event.ID)

	b.WriteString("\n## Message\n\n")
	b.WriteString(event.RawMessage)
	b.WriteString("\n")

	if event.ContextSummary != "" {
		b.WriteString("\n## Context\n\n")
		b.WriteString(event.ContextSummary)
		b.WriteString("\n")
	}

	if event.GeneratedSummary != "" {
		b.WriteString("\n## Summary\n\n")
		b.WriteString(event.GeneratedSummary)
		b.WriteString("\n")
	}

	return b.String()
}

// Record is one artifact read back from disk.
type Record struct {
	Path      string
	Kind      storage.Kind
	Project   string
	Timestamp time.Time
	Pattern   string
	EventID   int64
	Body      string
}

// Parse extracts the metadata fields and body from rendered markdown.
// Unknown or missing fields are left zero; Parse never fails on
// malformed content beyond returning what it could read.
func Parse(path string, content string) Record {
	rec := Record{Path: path, Body: content}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "- Kind: "):
			rec.Kind = storage.Kind(strings.TrimPrefix(trimmed, "- Kind: "))
		case strings.HasPrefix(trimmed, "- Project: "):
			rec.Project = strings.TrimPrefix(trimmed, "- Project: ")
		case strings.HasPrefix(trimmed, "- Timestamp: "):
			ts, err := time.Parse(time.RFC3339, strings.TrimPrefix(trimmed, "- Timestamp: "))
			if err == nil {
				rec.Timestamp = ts
			}
		case strings.HasPrefix(trimmed, "- Pattern: "):
			rec.Pattern = strings.TrimPrefix(trimmed, "- Pattern: ")
		case strings.HasPrefix(trimmed, "- Event: "):
			fmt.Sscanf(strings.TrimPrefix(trimmed, "- Event: "), "%d", &rec.EventID)
		}
	}

	return rec
}

// ReadAll loads every markdown artifact under dir, newest first.
// A missing directory is not an error; it returns an empty slice so the
// caller can report "no results" instead of failing.
func ReadAll(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read artifacts directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			// One unreadable artifact should not sink the scan.
			continue
		}

		records = append(records, Parse(path, string(content)))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	return records, nil
}
