package search

import (
	"strings"
	"testing"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

// eventWithText builds a minimal event for keyword extraction tests.
func eventWithText(message, summary string) storage.FeedbackEvent {
	return storage.FeedbackEvent{
		RawMessage:       message,
		MatchedPattern:   "nice work",
		GeneratedSummary: summary,
	}
}

func TestFormat_Empty(t *testing.T) {
	out := Format(Results{Tier: TierNone})

	if out != "No relevant past experience found." {
		t.Errorf("unexpected empty-result message: %q", out)
	}
}

func TestFormat_RendersFields(t *testing.T) {
	results := Results{
		Tier: TierFullText,
		Items: []Result{{
			EventID:      1,
			Kind:         storage.KindWin,
			Project:      "recall",
			Timestamp:    time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC),
			Pattern:      "great job",
			Summary:      "Fixed the insert path.\nSecond line.\nThird line.\nFourth line.",
			ArtifactPath: "/tmp/a.md",
		}},
	}

	out := Format(results)

	for _, want := range []string{"✓", "win", "recall", "great job", "Fixed the insert path.", "/tmp/a.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Fourth line.") {
		t.Error("synopsis should be truncated to the first few lines")
	}
}

func TestFormat_LossIcon(t *testing.T) {
	out := Format(Results{Tier: TierScan, Items: []Result{{
		Kind:      storage.KindLoss,
		Pattern:   "doesn't work",
		Timestamp: time.Now(),
	}}})

	if !strings.Contains(out, "✗") {
		t.Errorf("expected loss icon in output:\n%s", out)
	}
}

func TestFormat_PureAcrossTiers(t *testing.T) {
	item := Result{
		Kind:      storage.KindWin,
		Project:   "p",
		Pattern:   "ok",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	a := Format(Results{Tier: TierFullText, Items: []Result{item}})
	b := Format(Results{Tier: TierScan, Items: []Result{item}})

	if a != b {
		t.Errorf("formatting must not depend on producing tier:\n%q\nvs\n%q", a, b)
	}
}

func TestContainsWord(t *testing.T) {
	cases := []struct {
		text, term string
		want       bool
	}{
		{"the cache layer", "cache", true},
		{"cached results", "cache", false},
		{"Cache it", "cache", true},
		{"use redis-cache here", "cache", true},
		{"", "cache", false},
		{"cache", "cache", true},
	}

	for _, tc := range cases {
		if got := containsWord(tc.text, tc.term); got != tc.want {
			t.Errorf("containsWord(%q, %q) = %v, want %v", tc.text, tc.term, got, tc.want)
		}
	}
}

func TestTerms(t *testing.T) {
	got := terms("  Auth  FLOW ")
	if len(got) != 2 || got[0] != "auth" || got[1] != "flow" {
		t.Errorf("unexpected terms: %v", got)
	}
}
