package classifier

import (
	"testing"

	"github.com/dmvu/recall/internal/storage"
)

func testVocab() Vocabulary {
	return Vocabulary{
		WinPhrases:  []string{"great job", "nice work"},
		WinWords:    []string{"perfect", "thanks"},
		LossPhrases: []string{"doesn't work", "try again"},
		LossWords:   []string{"wrong", "broken"},
	}
}

func TestClassify_WinPhrase(t *testing.T) {
	result := Classify("great job", testVocab())

	if result.Kind != storage.KindWin {
		t.Errorf("expected win, got %q", result.Kind)
	}
	if result.Matched != "great job" {
		t.Errorf("expected matched 'great job', got %q", result.Matched)
	}
}

func TestClassify_WinWord(t *testing.T) {
	result := Classify("perfect!", testVocab())

	if result.Kind != storage.KindWin {
		t.Errorf("expected win, got %q", result.Kind)
	}
	if result.Matched != "perfect" {
		t.Errorf("expected matched 'perfect', got %q", result.Matched)
	}
}

func TestClassify_LossPhrase(t *testing.T) {
	result := Classify("it doesn't work", testVocab())

	if result.Kind != storage.KindLoss {
		t.Errorf("expected loss, got %q", result.Kind)
	}
	if result.Matched != "doesn't work" {
		t.Errorf("expected matched \"doesn't work\", got %q", result.Matched)
	}
}

func TestClassify_LossWord(t *testing.T) {
	result := Classify("that is wrong", testVocab())

	if result.Kind != storage.KindLoss {
		t.Errorf("expected loss, got %q", result.Kind)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	result := Classify("GREAT JOB", testVocab())

	if result.Kind != storage.KindWin {
		t.Errorf("expected win for uppercase message, got %q", result.Kind)
	}
}

func TestClassify_WordBoundary(t *testing.T) {
	// "wrongful" contains "wrong" as a substring but not as a word.
	result := Classify("wrongful", testVocab())

	if !result.None() {
		t.Errorf("expected no match for substring-only occurrence, got %q/%q",
			result.Kind, result.Matched)
	}
}

func TestClassify_PhraseBeforeWord(t *testing.T) {
	// Message contains both a win word and a win phrase; phrase wins.
	result := Classify("thanks great job", testVocab())

	if result.Matched != "great job" {
		t.Errorf("expected phrase match to take priority, got %q", result.Matched)
	}
}

func TestClassify_WinBeforeLoss(t *testing.T) {
	// Matches both vocabularies; win is checked first.
	result := Classify("perfect but wrong", testVocab())

	if result.Kind != storage.KindWin {
		t.Errorf("expected win priority over loss, got %q", result.Kind)
	}
}

func TestClassify_LengthGate_Words(t *testing.T) {
	// >5 words: classification is skipped regardless of vocabulary.
	msg := "this took way too long and I had to fix three separate issues across the whole module"
	result := Classify(msg, testVocab())

	if !result.None() {
		t.Errorf("expected none for long message, got %q/%q", result.Kind, result.Matched)
	}
}

func TestClassify_LengthGate_Chars(t *testing.T) {
	// 5 words but over 50 characters.
	msg := "extraordinarily magnificent wonderful tremendous perfect"
	if len(msg) <= 50 {
		t.Fatalf("test message must exceed 50 chars, has %d", len(msg))
	}

	result := Classify(msg, testVocab())
	if !result.None() {
		t.Errorf("expected none for over-length message, got %q", result.Kind)
	}
}

func TestClassify_EmptyVocabulary(t *testing.T) {
	result := Classify("great job", Vocabulary{})

	if !result.None() {
		t.Errorf("expected none for empty vocabulary, got %q", result.Kind)
	}
}

func TestClassify_EmptyMessage(t *testing.T) {
	result := Classify("", testVocab())

	if !result.None() {
		t.Errorf("expected none for empty message, got %q", result.Kind)
	}
}

func TestClassify_Pure(t *testing.T) {
	first := Classify("nice work", testVocab())
	second := Classify("nice work", testVocab())

	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestDefaultVocabulary_NotEmpty(t *testing.T) {
	if DefaultVocabulary().Empty() {
		t.Error("default vocabulary should not be empty")
	}
}
