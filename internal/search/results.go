/*
Package search implements ranked retrieval over recorded feedback events.

Three strategies are tried in strict order: the SQLite FTS5 index, a
pre-built JSON-lines flat index, and finally a brute-force scan of the
rendered artifact files. The first tier that produces at least one
result wins; finding nothing anywhere is a normal outcome, not an error.
*/
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

// Tier identifies which retrieval strategy produced a result set.
type Tier int

const (
	// TierNone means no tier produced results.
	TierNone Tier = 0

	// TierFullText is the SQLite FTS5 index.
	TierFullText Tier = 1

	// TierFlatIndex is the pre-scored JSON-lines index.
	TierFlatIndex Tier = 2

	// TierScan is the brute-force artifact scan.
	TierScan Tier = 3
)

// Result is one retrieval hit, unified across tiers.
type Result struct {
	EventID      int64
	Kind         storage.Kind
	Project      string
	Timestamp    time.Time
	Pattern      string
	Summary      string
	ArtifactPath string

	// Score is tier-local: FTS rank for tier 1 (lower is better),
	// additive points for tiers 2 and 3 (higher is better).
	Score float64
}

// Results is an ordered result set, most relevant first.
// Empty() reports the explicit "no results" outcome.
type Results struct {
	Tier  Tier
	Items []Result
}

// Empty reports whether no tier found anything.
func (r Results) Empty() bool {
	return len(r.Items) == 0
}

// Options narrows a search.
type Options struct {
	// Project post-filters results to one project label.
	Project string

	// TaskType is an optional tier-2 filter (tier-2 entries carry a task type).
	TaskType string

	// Limit caps the result count; defaults to 5.
	Limit int
}

// synopsisLines is how many lines of the generated summary render per result.
const synopsisLines = 3

// Format renders a result set as a display block. Pure function;
// identical output for identical input regardless of producing tier.
func Format(results Results) string {
	if results.Empty() {
		return "No relevant past experience found."
	}

	var b strings.Builder
	for i, item := range results.Items {
		if i > 0 {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "%s %s | %s | %s | %q\n",
			kindIcon(item.Kind), item.Kind, displayProject(item.Project),
			item.Timestamp.Format("Jan 2, 2006 15:04"), item.Pattern)

		for _, line := range synopsis(item.Summary) {
			fmt.Fprintf(&b, "    %s\n", line)
		}

		if item.ArtifactPath != "" {
			fmt.Fprintf(&b, "    → %s\n", item.ArtifactPath)
		}
	}

	return b.String()
}

func kindIcon(kind storage.Kind) string {
	if kind == storage.KindWin {
		return "✓"
	}
	return "✗"
}

func displayProject(project string) string {
	if project == "" {
		return "(no project)"
	}
	return project
}

// synopsis returns the first few non-empty lines of a summary.
func synopsis(summary string) []string {
	var lines []string
	for _, line := range strings.Split(summary, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) == synopsisLines {
			break
		}
	}
	return lines
}

// terms splits a query into lowercased search terms.
func terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// containsWord reports whether text contains term as a whole word,
// case-insensitive.
func containsWord(text, term string) bool {
	lower := strings.ToLower(text)
	term = strings.ToLower(term)

	idx := 0
	for {
		pos := strings.Index(lower[idx:], term)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(term)

		beforeOK := start == 0 || isBoundary(lower[start-1])
		afterOK := end == len(lower) || isBoundary(lower[end])
		if beforeOK && afterOK {
			return true
		}

		idx = start + 1
		if idx >= len(lower) {
			return false
		}
	}
}

func isBoundary(c byte) bool {
	return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9')
}
