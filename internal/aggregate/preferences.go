package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmvu/recall/internal/storage"
)

const (
	// preferredThreshold and avoidedThreshold bound the win-rate bands;
	// items between the two are neutral and omitted from the table.
	preferredThreshold = 0.7
	avoidedThreshold   = 0.3

	// confidenceSaturation is the occurrence count at which preference
	// confidence reaches 1.0.
	confidenceSaturation = 10
)

// VocabularyItem is one candidate (category, item) pair scanned for in
// event text.
type VocabularyItem struct {
	Category storage.PreferenceCategory `json:"category"`
	Item     string                     `json:"item"`
}

// DefaultPreferenceVocabulary lists the built-in candidate items.
func DefaultPreferenceVocabulary() []VocabularyItem {
	return []VocabularyItem{
		{storage.CategoryTechnology, "go"},
		{storage.CategoryTechnology, "python"},
		{storage.CategoryTechnology, "typescript"},
		{storage.CategoryTechnology, "sqlite"},
		{storage.CategoryTechnology, "postgres"},
		{storage.CategoryTechnology, "redis"},
		{storage.CategoryTechnology, "docker"},
		{storage.CategoryTechnology, "grpc"},
		{storage.CategoryPattern, "singleton"},
		{storage.CategoryPattern, "middleware"},
		{storage.CategoryPattern, "worker pool"},
		{storage.CategoryPattern, "event sourcing"},
		{storage.CategoryPattern, "migration"},
		{storage.CategoryTool, "git"},
		{storage.CategoryTool, "make"},
		{storage.CategoryTool, "curl"},
		{storage.CategoryTool, "jq"},
	}
}

// RecomputePreferences rebuilds the preference_stats table by scanning
// the free text of all events for the vocabulary items.
func RecomputePreferences(store storage.Store, vocab []VocabularyItem) error {
	events, err := store.ListEvents(storage.EventFilter{})
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	stats := RollupPreferences(events, vocab)

	if err := store.ReplacePreferences(stats); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}

// RollupPreferences counts vocabulary item mentions across event text
// and classifies each item as preferred or avoided by win rate.
// Neutral items (win rate strictly between the thresholds) are omitted.
func RollupPreferences(events []storage.FeedbackEvent, vocab []VocabularyItem) []storage.PreferenceStat {
	var stats []storage.PreferenceStat

	for _, candidate := range vocab {
		item := strings.ToLower(candidate.Item)
		if item == "" {
			continue
		}

		st := storage.PreferenceStat{
			Category: candidate.Category,
			Item:     candidate.Item,
		}

		for _, event := range events {
			if !event.Kind.Valid() {
				continue
			}

			text := strings.ToLower(event.RawMessage + " " +
				event.ContextSummary + " " + event.GeneratedSummary)
			if !strings.Contains(text, item) {
				continue
			}

			st.TotalOccurrences++
			if event.Kind == storage.KindWin {
				st.WinCount++
			} else {
				st.LossCount++
			}
			if event.Timestamp.After(st.LastSeen) {
				st.LastSeen = event.Timestamp
			}
		}

		total := st.WinCount + st.LossCount
		if total == 0 {
			continue
		}

		st.WinRate = float64(st.WinCount) / float64(total)
		st.Confidence = preferenceConfidence(st.TotalOccurrences)

		switch {
		case st.WinRate >= preferredThreshold:
			st.Preference = storage.PreferencePreferred
		case st.WinRate <= avoidedThreshold:
			st.Preference = storage.PreferenceAvoided
		default:
			continue
		}

		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Category != stats[j].Category {
			return stats[i].Category < stats[j].Category
		}
		return stats[i].Item < stats[j].Item
	})

	return stats
}

// preferenceConfidence saturates at confidenceSaturation occurrences.
func preferenceConfidence(occurrences int) float64 {
	c := float64(occurrences) / confidenceSaturation
	if c > 1.0 {
		return 1.0
	}
	return c
}
