package search

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dmvu/recall/internal/storage"
)

// Tier-2 scoring weights. Deliberately simple additive points: the flat
// index has no term statistics, so scoring must stay cheap per candidate.
const (
	keywordPoints     = 20
	summaryPoints     = 10
	filePatternPoints = 5
	taskTypeBonus     = 10
)

// FlatEntry is one line of the JSON-lines flat index.
//
// The index is a derived projection of the event table, rebuilt by
// BuildFlatIndex; missing optional fields default to their zero values
// when older index files are read back.
type FlatEntry struct {
	EventID      int64    `json:"event_id"`
	Keywords     []string `json:"keywords"`
	TaskType     string   `json:"task_type,omitempty"`
	Project      string   `json:"project,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	FilePatterns []string `json:"file_patterns,omitempty"`
	Kind         string   `json:"kind"`
	Pattern      string   `json:"pattern"`
	Timestamp    string   `json:"timestamp"`
	ArtifactPath string   `json:"artifact_path,omitempty"`
}

// DefaultIndexPath returns ~/.recall/index/context-index.jsonl.
func DefaultIndexPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("index", "context-index.jsonl")
	}
	return filepath.Join(home, ".recall", "index", "context-index.jsonl")
}

// LoadFlatIndex reads the JSON-lines index. A missing file returns
// os.ErrNotExist so the engine can fall through to the scan tier;
// individual malformed lines are skipped, not fatal.
func LoadFlatIndex(path string) ([]FlatEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []FlatEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry FlatEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Printf("Warning: skipping malformed index line: %v", err)
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to read flat index: %w", err)
	}
	return entries, nil
}

// searchFlat scores flat index entries against the query terms.
//
// Score per entry: 20 per query term found in keywords (whole word),
// 10 per term found in the summary (whole word), 5 per term found in
// file patterns, plus 10 when an explicit task type filter matches.
// Only entries with score > 0 survive; ties break newest first.
func searchFlat(entries []FlatEntry, queryTerms []string, opts Options) []Result {
	type scored struct {
		entry FlatEntry
		score float64
		ts    time.Time
	}

	var matched []scored
	for _, entry := range entries {
		if opts.Project != "" && entry.Project != opts.Project {
			continue
		}

		score := 0.0
		for _, term := range queryTerms {
			for _, kw := range entry.Keywords {
				if strings.EqualFold(kw, term) {
					score += keywordPoints
					break
				}
			}
			if containsWord(entry.Summary, term) {
				score += summaryPoints
			}
			for _, fp := range entry.FilePatterns {
				if strings.Contains(strings.ToLower(fp), term) {
					score += filePatternPoints
					break
				}
			}
		}

		if opts.TaskType != "" && strings.EqualFold(entry.TaskType, opts.TaskType) {
			score += taskTypeBonus
		}

		if score <= 0 {
			continue
		}

		ts, _ := time.Parse(time.RFC3339, entry.Timestamp)
		matched = append(matched, scored{entry: entry, score: score, ts: ts})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].ts.After(matched[j].ts)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	results := make([]Result, 0, len(matched))
	for _, m := range matched {
		results = append(results, Result{
			EventID:      m.entry.EventID,
			Kind:         storage.Kind(m.entry.Kind),
			Project:      m.entry.Project,
			Timestamp:    m.ts,
			Pattern:      m.entry.Pattern,
			Summary:      m.entry.Summary,
			ArtifactPath: m.entry.ArtifactPath,
			Score:        m.score,
		})
	}
	return results
}

// BuildFlatIndex regenerates the JSON-lines index from the event table.
//
// The write is atomic (temp file + rename) so readers never see a
// half-written index. Keywords and file patterns are derived from the
// event's free text.
func BuildFlatIndex(store storage.Store, path string) (int, error) {
	events, err := store.ListEvents(storage.EventFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list events: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create index file: %w", err)
	}

	w := bufio.NewWriter(f)
	count := 0
	for _, event := range events {
		entry := FlatEntry{
			EventID:      event.ID,
			Keywords:     extractKeywords(event),
			Project:      event.Project,
			Summary:      summaryFor(event),
			FilePatterns: extractFilePatterns(event.ContextSummary),
			Kind:         string(event.Kind),
			Pattern:      event.MatchedPattern,
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
			ArtifactPath: event.ArtifactPath,
		}

		line, err := json.Marshal(entry)
		if err != nil {
			log.Printf("Warning: failed to marshal index entry for event %d: %v", event.ID, err)
			continue
		}

		w.Write(line)
		w.WriteByte('\n')
		count++
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to flush index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close index: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("failed to finalize index: %w", err)
	}

	return count, nil
}

// summaryFor prefers the generated summary, falling back to the context excerpt.
func summaryFor(event storage.FeedbackEvent) string {
	if event.GeneratedSummary != "" {
		return event.GeneratedSummary
	}
	return event.ContextSummary
}

// extractKeywords derives the deduplicated keyword set from an event's text.
func extractKeywords(event storage.FeedbackEvent) []string {
	text := strings.ToLower(event.RawMessage + " " + event.MatchedPattern + " " + summaryFor(event))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var keywords []string
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

// extractFilePatterns pulls path-like tokens out of the context summary.
func extractFilePatterns(context string) []string {
	var patterns []string
	for _, field := range strings.Fields(context) {
		cleaned := strings.Trim(field, ".,;:()[]\"'`")
		if strings.ContainsRune(cleaned, '/') || strings.Contains(cleaned, ".go") {
			patterns = append(patterns, cleaned)
		}
	}
	return patterns
}

// stopwords are common words excluded from derived keywords.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "was": true, "are": true, "but": true, "not": true,
	"you": true, "had": true, "has": true, "have": true, "its": true,
}
