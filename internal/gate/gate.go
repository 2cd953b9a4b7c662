/*
Package gate decides whether automatic context injection should fire.

Two stages must both pass: an additive relevance score over the incoming
message and recent tool activity, and a fixed-window rate limiter whose
counter is persisted through the storage layer. User-initiated searches
bypass the gate entirely; the gate only guards unsolicited injection.

A missing or empty topic vocabulary scores every message at zero, so
misconfiguration fails closed: no vocabulary, no automatic injection.
*/
package gate

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum relevance score considered "relevant
// enough" for automatic injection.
const DefaultThreshold = 25

// Scoring weights.
const (
	keywordPoints      = 20 // per matched topic keyword (whole word)
	filePathPoints     = 15 // per distinct file path in recent tool calls
	errorTermPoints    = 30 // error-indicating term in recent tool output
	brokenPhrasePoints = 25 // "something is broken" phrasing, counted once
)

// Vocabulary supplies the gate's fixed matching lists.
type Vocabulary struct {
	// TopicKeywords score per whole-word match in the message.
	TopicKeywords []string `json:"topicKeywords"`

	// ErrorTerms indicate failure when present in recent tool output.
	ErrorTerms []string `json:"errorTerms"`

	// BrokenPhrases indicate "something is broken" phrasing in the message.
	BrokenPhrases []string `json:"brokenPhrases"`
}

// Empty reports whether the vocabulary has no matching lists at all.
func (v Vocabulary) Empty() bool {
	return len(v.TopicKeywords) == 0 && len(v.ErrorTerms) == 0 &&
		len(v.BrokenPhrases) == 0
}

// DefaultVocabulary returns the built-in gate vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		TopicKeywords: []string{
			"authentication", "database", "migration", "deploy", "cache",
			"test", "build", "config", "performance", "api", "error",
		},
		ErrorTerms: []string{
			"error", "failed", "panic", "exception", "traceback", "fatal",
		},
		BrokenPhrases: []string{
			"is broken", "doesn't work", "not working", "keeps failing",
			"stopped working",
		},
	}
}

// Activity summarizes recent tool calls, supplied by the orchestrator.
type Activity struct {
	// EditedFiles are file paths referenced by recent file-editing
	// tool calls; duplicates are ignored.
	EditedFiles []string

	// ToolOutput is the tail of recent tool output, scanned for
	// error-indicating terms.
	ToolOutput string
}

// Decision is the outcome of the relevance stage.
type Decision struct {
	Allow           bool
	Score           int
	MatchedKeywords []string
}

// Score computes the relevance score for a message plus recent activity.
// Pure function; the rate limiter is the separate stateful stage.
func Score(message string, activity Activity, vocab Vocabulary, threshold int) Decision {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	// No vocabulary means no basis for judging relevance; activity
	// signals alone must not open the gate.
	if vocab.Empty() {
		return Decision{}
	}

	score := 0
	var matched []string

	lower := strings.ToLower(message)
	words := wordSet(lower)

	for _, keyword := range vocab.TopicKeywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw != "" && words[kw] {
			score += keywordPoints
			matched = append(matched, keyword)
		}
	}

	score += filePathPoints * distinctCount(activity.EditedFiles)

	if containsAnyTerm(activity.ToolOutput, vocab.ErrorTerms) {
		score += errorTermPoints
	}

	// Checked once, not per occurrence.
	if containsAnyPhrase(lower, vocab.BrokenPhrases) {
		score += brokenPhrasePoints
	}

	return Decision{
		Allow:           score >= threshold,
		Score:           score,
		MatchedKeywords: matched,
	}
}

func distinctCount(paths []string) int {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			seen[p] = true
		}
	}
	return len(seen)
}

func containsAnyTerm(text string, terms []string) bool {
	if text == "" {
		return false
	}
	words := wordSet(strings.ToLower(text))
	for _, term := range terms {
		if words[strings.ToLower(strings.TrimSpace(term))] {
			return true
		}
	}
	return false
}

func containsAnyPhrase(lower string, phrases []string) bool {
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func wordSet(lower string) map[string]bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := make(map[string]bool, len(fields))
	for _, f := range fields {
		words[f] = true
	}
	return words
}
