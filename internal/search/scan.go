package search

import (
	"sort"
	"strings"

	"github.com/dmvu/recall/internal/artifact"
)

// Tier-3 scoring weights.
const (
	occurrencePoints = 10
	projectBonus     = 20
)

// searchArtifacts brute-force scores raw artifact records.
//
// Score per record: 10 times the total case-insensitive substring
// occurrences of each query term across the record body, plus 20 when
// the project filter text appears anywhere in the record.
func searchArtifacts(records []artifact.Record, queryTerms []string, opts Options) []Result {
	type scored struct {
		rec   artifact.Record
		score float64
	}

	var matched []scored
	for _, rec := range records {
		lower := strings.ToLower(rec.Body)

		score := 0.0
		for _, term := range queryTerms {
			score += float64(occurrencePoints * strings.Count(lower, term))
		}

		if opts.Project != "" &&
			strings.Contains(lower, strings.ToLower(opts.Project)) {
			score += projectBonus
		}

		if score <= 0 {
			continue
		}
		matched = append(matched, scored{rec: rec, score: score})
	}

	// Records arrive newest first, so a stable sort keeps recency as
	// the implicit tie-break.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
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
			EventID:      m.rec.EventID,
			Kind:         m.rec.Kind,
			Project:      m.rec.Project,
			Timestamp:    m.rec.Timestamp,
			Pattern:      m.rec.Pattern,
			Summary:      bodySynopsis(m.rec.Body),
			ArtifactPath: m.rec.Path,
			Score:        m.score,
		})
	}
	return results
}

// bodySynopsis extracts the summary section from an artifact body,
// falling back to the message section.
func bodySynopsis(body string) string {
	for _, heading := range []string{"## Summary", "## Message"} {
		idx := strings.Index(body, heading)
		if idx < 0 {
			continue
		}
		section := body[idx+len(heading):]
		if end := strings.Index(section, "\n## "); end >= 0 {
			section = section[:end]
		}
		return strings.TrimSpace(section)
	}
	return ""
}
