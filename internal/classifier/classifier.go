/*
Package classifier turns short user messages into typed win/loss feedback.

Classification is a pure function over the message and the configured
vocabulary. Multi-word phrases are checked before single words, and win
vocabulary is checked before loss vocabulary; the first match wins.
Long messages are skipped entirely to avoid false positives from
incidental keyword occurrence inside substantive conversation.
*/
package classifier

import (
	"strings"
	"unicode"

	"github.com/dmvu/recall/internal/storage"
)

const (
	// maxWords is the word-count ceiling for classification.
	// Longer messages are conversation, not feedback.
	maxWords = 5

	// maxChars is the character-count ceiling for classification.
	maxChars = 50
)

// Vocabulary supplies the trigger phrases and words per kind.
// Phrases match by containment; words match on word boundaries only.
// All matching is case-insensitive.
type Vocabulary struct {
	WinPhrases  []string `json:"winPhrases"`
	WinWords    []string `json:"winWords"`
	LossPhrases []string `json:"lossPhrases"`
	LossWords   []string `json:"lossWords"`
}

// Empty reports whether the vocabulary has no triggers at all.
func (v Vocabulary) Empty() bool {
	return len(v.WinPhrases) == 0 && len(v.WinWords) == 0 &&
		len(v.LossPhrases) == 0 && len(v.LossWords) == 0
}

// DefaultVocabulary returns the built-in trigger vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		WinPhrases: []string{
			"great job", "nice work", "well done", "that worked",
			"works perfectly", "exactly right", "that's it",
		},
		WinWords: []string{
			"perfect", "excellent", "great", "awesome", "thanks", "nice",
		},
		LossPhrases: []string{
			"that's wrong", "not what i asked", "doesn't work",
			"still broken", "try again", "you broke",
		},
		LossWords: []string{
			"wrong", "broken", "no", "bad", "incorrect", "revert",
		},
	}
}

// Result is the outcome of classifying one message.
type Result struct {
	// Kind is win or loss; empty when the message did not classify.
	Kind storage.Kind

	// Matched is the trigger phrase/word that caused the match.
	Matched string
}

// None reports whether the message did not classify as feedback.
func (r Result) None() bool {
	return r.Kind == ""
}

// Classify classifies a message against the vocabulary.
//
// Priority order, fixed and deliberate: win phrases, win words, loss
// phrases, loss words. A message matching both win and loss vocabulary
// therefore classifies as a win. Returns a none Result for empty
// vocabulary or messages beyond the length gate; never fails on
// malformed text.
func Classify(message string, vocab Vocabulary) Result {
	if vocab.Empty() {
		return Result{}
	}
	if !withinLengthGate(message) {
		return Result{}
	}

	lower := strings.ToLower(message)
	words := tokenize(lower)

	if matched, ok := matchKind(lower, words, vocab.WinPhrases, vocab.WinWords); ok {
		return Result{Kind: storage.KindWin, Matched: matched}
	}
	if matched, ok := matchKind(lower, words, vocab.LossPhrases, vocab.LossWords); ok {
		return Result{Kind: storage.KindLoss, Matched: matched}
	}

	return Result{}
}

// withinLengthGate reports whether the message is short enough to be
// feedback: at most 5 words and at most 50 characters.
func withinLengthGate(message string) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return false
	}
	if len(trimmed) > maxChars {
		return false
	}
	return len(strings.Fields(trimmed)) <= maxWords
}

// matchKind runs the two-pass scan for one kind: phrases first
// (containment), then single words (word-boundary).
func matchKind(lower string, words map[string]bool, phrases, singles []string) (string, bool) {
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p != "" && strings.Contains(lower, p) {
			return phrase, true
		}
	}
	for _, word := range singles {
		w := strings.ToLower(strings.TrimSpace(word))
		if w != "" && words[w] {
			return word, true
		}
	}
	return "", false
}

// tokenize splits a lowercased message into its word set.
// Anything that is not a letter or digit is a boundary, so "great!"
// tokenizes to "great".
func tokenize(lower string) map[string]bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	words := make(map[string]bool, len(fields))
	for _, f := range fields {
		words[strings.Trim(f, "'")] = true
	}
	return words
}
