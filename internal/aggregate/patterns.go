/*
Package aggregate implements the batch rollup jobs over raw feedback events.

Each job is a pure function of the current event table: it reads a
snapshot, computes the rollup wholesale, and replaces the target table's
contents in one transaction. Jobs are idempotent and safe to rerun at
any time; an event written mid-run may simply wait for the next run.
*/
package aggregate

import (
	"fmt"
	"sort"

	"github.com/dmvu/recall/internal/storage"
)

// ConfidencePolicy maps sample counts to confidence scores. The
// thresholds are heuristic policy, not contract; callers may tune them.
type ConfidencePolicy struct {
	LowMax    int     `json:"lowMax"`    // samples <= LowMax    -> Low
	MediumMax int     `json:"mediumMax"` // samples <= MediumMax -> Medium
	HighMax   int     `json:"highMax"`   // samples <= HighMax   -> High, above -> Max
	Low       float64 `json:"low"`
	Medium    float64 `json:"medium"`
	High      float64 `json:"high"`
	Max       float64 `json:"max"`
}

// DefaultConfidencePolicy is the standard step function.
var DefaultConfidencePolicy = ConfidencePolicy{
	LowMax:    2,
	MediumMax: 5,
	HighMax:   10,
	Low:       0.25,
	Medium:    0.5,
	High:      0.75,
	Max:       1.0,
}

// Score returns the confidence for a total sample count.
func (p ConfidencePolicy) Score(samples int) float64 {
	switch {
	case samples <= p.LowMax:
		return p.Low
	case samples <= p.MediumMax:
		return p.Medium
	case samples <= p.HighMax:
		return p.High
	default:
		return p.Max
	}
}

// Global-scope thresholds: a pattern is global once it shows up in two
// projects, or once it has enough near-unanimous samples in one.
const (
	globalMinProjects = 2
	globalMinSamples  = 5
	globalMinWinRate  = 0.95
)

// RecomputePatterns rebuilds the aggregate_patterns table from the full
// event table.
func RecomputePatterns(store storage.Store, policy ConfidencePolicy) error {
	events, err := store.ListEvents(storage.EventFilter{})
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	patterns := RollupPatterns(events, policy)

	if err := store.ReplacePatterns(patterns); err != nil {
		return fmt.Errorf("failed to replace patterns: %w", err)
	}
	return nil
}

// RollupPatterns groups events by matched pattern and computes the rollup.
// Pure function; exposed separately so it is testable without a store.
func RollupPatterns(events []storage.FeedbackEvent, policy ConfidencePolicy) []storage.AggregatePattern {
	type group struct {
		agg      storage.AggregatePattern
		projects map[string]bool
	}

	groups := make(map[string]*group)
	for _, event := range events {
		// A row with no pattern or an unknown kind is corrupt input;
		// skip it and keep the batch going.
		if event.MatchedPattern == "" || !event.Kind.Valid() {
			continue
		}

		g, ok := groups[event.MatchedPattern]
		if !ok {
			g = &group{
				agg: storage.AggregatePattern{
					Pattern:   event.MatchedPattern,
					FirstSeen: event.Timestamp,
					LastSeen:  event.Timestamp,
				},
				projects: make(map[string]bool),
			}
			groups[event.MatchedPattern] = g
		}

		if event.Kind == storage.KindWin {
			g.agg.WinCount++
		} else {
			g.agg.LossCount++
		}

		if event.Timestamp.Before(g.agg.FirstSeen) {
			g.agg.FirstSeen = event.Timestamp
		}
		if event.Timestamp.After(g.agg.LastSeen) {
			g.agg.LastSeen = event.Timestamp
		}

		if event.Project != "" {
			g.projects[event.Project] = true
		}
	}

	patterns := make([]storage.AggregatePattern, 0, len(groups))
	for _, g := range groups {
		total := g.agg.WinCount + g.agg.LossCount
		g.agg.WinRate = float64(g.agg.WinCount) / float64(total)
		g.agg.Confidence = policy.Score(total)

		// Ties go to loss: treating an ambiguous pattern as negative
		// is the conservative default.
		if g.agg.WinCount > g.agg.LossCount {
			g.agg.Dominant = storage.KindWin
		} else {
			g.agg.Dominant = storage.KindLoss
		}

		g.agg.GlobalScope = len(g.projects) >= globalMinProjects ||
			(total >= globalMinSamples && g.agg.WinRate >= globalMinWinRate)

		g.agg.Projects = make([]string, 0, len(g.projects))
		for project := range g.projects {
			g.agg.Projects = append(g.agg.Projects, project)
		}
		sort.Strings(g.agg.Projects)

		patterns = append(patterns, g.agg)
	}

	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].Pattern < patterns[j].Pattern
	})

	return patterns
}
