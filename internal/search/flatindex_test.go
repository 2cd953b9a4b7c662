package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func entry(id int64, ts string, keywords []string) FlatEntry {
	return FlatEntry{
		EventID:   id,
		Keywords:  keywords,
		Kind:      "win",
		Pattern:   "nice work",
		Timestamp: ts,
	}
}

func TestSearchFlat_KeywordScore(t *testing.T) {
	entries := []FlatEntry{
		entry(1, "2026-01-01T00:00:00Z", []string{"authentication", "jwt"}),
	}

	results := searchFlat(entries, []string{"authentication"}, Options{})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Score < keywordPoints {
		t.Errorf("expected score >= %d, got %f", keywordPoints, results[0].Score)
	}
}

func TestSearchFlat_SummaryAndFilePatternScore(t *testing.T) {
	e := entry(1, "2026-01-01T00:00:00Z", nil)
	e.Summary = "fixed the authentication flow"
	e.FilePatterns = []string{"internal/auth/handler.go"}

	results := searchFlat([]FlatEntry{e}, []string{"authentication", "auth"}, Options{})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// "authentication" in summary (10) + "auth" in file pattern (5);
	// "authentication" also substring-matches the file pattern? No:
	// pattern contains "auth" not "authentication".
	want := float64(summaryPoints + filePatternPoints)
	if results[0].Score != want {
		t.Errorf("expected score %f, got %f", want, results[0].Score)
	}
}

func TestSearchFlat_TaskTypeBonus(t *testing.T) {
	e := entry(1, "2026-01-01T00:00:00Z", []string{"migration"})
	e.TaskType = "refactor"

	plain := searchFlat([]FlatEntry{e}, []string{"migration"}, Options{})
	boosted := searchFlat([]FlatEntry{e}, []string{"migration"}, Options{TaskType: "refactor"})

	if boosted[0].Score != plain[0].Score+taskTypeBonus {
		t.Errorf("expected task type bonus of %d, got %f vs %f",
			taskTypeBonus, boosted[0].Score, plain[0].Score)
	}
}

func TestSearchFlat_ScoreMonotonic(t *testing.T) {
	// Adding one more matching term occurrence never lowers the score.
	base := entry(1, "2026-01-01T00:00:00Z", []string{"cache"})
	richer := entry(2, "2026-01-01T00:00:00Z", []string{"cache"})
	richer.Summary = "rebuilt the cache layer"

	results := searchFlat([]FlatEntry{base, richer}, []string{"cache"}, Options{Limit: 10})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].EventID != 2 {
		t.Errorf("expected richer candidate to rank first, got event %d", results[0].EventID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("expected strictly higher score for extra match, got %f vs %f",
			results[0].Score, results[1].Score)
	}
}

func TestSearchFlat_TieBreaksNewestFirst(t *testing.T) {
	older := entry(1, "2026-01-01T00:00:00Z", []string{"redis"})
	newer := entry(2, "2026-06-01T00:00:00Z", []string{"redis"})

	results := searchFlat([]FlatEntry{older, newer}, []string{"redis"}, Options{Limit: 10})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].EventID != 2 {
		t.Errorf("expected newest entry first on tie, got event %d", results[0].EventID)
	}
}

func TestSearchFlat_ZeroScoreExcluded(t *testing.T) {
	entries := []FlatEntry{entry(1, "2026-01-01T00:00:00Z", []string{"docker"})}

	results := searchFlat(entries, []string{"kubernetes"}, Options{})

	if len(results) != 0 {
		t.Errorf("expected no results for non-matching query, got %d", len(results))
	}
}

func TestSearchFlat_ProjectFilter(t *testing.T) {
	a := entry(1, "2026-01-01T00:00:00Z", []string{"grpc"})
	a.Project = "svc-a"
	b := entry(2, "2026-01-01T00:00:00Z", []string{"grpc"})
	b.Project = "svc-b"

	results := searchFlat([]FlatEntry{a, b}, []string{"grpc"}, Options{Project: "svc-b"})

	if len(results) != 1 || results[0].EventID != 2 {
		t.Fatalf("expected only the svc-b entry, got %+v", results)
	}
}

func TestLoadFlatIndex_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	content := `{"event_id":1,"keywords":["one"],"kind":"win","pattern":"p","timestamp":"2026-01-01T00:00:00Z"}
this is not json
{"event_id":2,"keywords":["two"],"kind":"loss","pattern":"q","timestamp":"2026-01-02T00:00:00Z"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}

	entries, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatalf("LoadFlatIndex failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries (malformed line skipped), got %d", len(entries))
	}
}

func TestLoadFlatIndex_Missing(t *testing.T) {
	_, err := LoadFlatIndex(filepath.Join(t.TempDir(), "missing.jsonl"))
	if !os.IsNotExist(err) {
		t.Errorf("expected os.IsNotExist error, got %v", err)
	}
}

func TestExtractFilePatterns(t *testing.T) {
	patterns := extractFilePatterns("edited internal/auth/handler.go and main.go then ran tests")

	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %v", patterns)
	}
	if patterns[0] != "internal/auth/handler.go" || patterns[1] != "main.go" {
		t.Errorf("unexpected patterns: %v", patterns)
	}
}

func TestExtractKeywords_DedupAndStopwords(t *testing.T) {
	keywords := extractKeywords(eventWithText("the cache cache works", "cache layer fixed"))

	seen := map[string]int{}
	for _, k := range keywords {
		seen[k]++
	}
	if seen["cache"] != 1 {
		t.Errorf("expected 'cache' exactly once, got %d", seen["cache"])
	}
	if seen["the"] != 0 {
		t.Error("stopword 'the' should be excluded")
	}
}

func TestSearchFlat_TimestampParsing(t *testing.T) {
	e := entry(7, "2026-03-14T09:26:53Z", []string{"parser"})

	results := searchFlat([]FlatEntry{e}, []string{"parser"}, Options{})

	want := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if !results[0].Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, results[0].Timestamp)
	}
}
