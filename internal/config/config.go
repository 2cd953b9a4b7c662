/*
Package config handles loading and saving recall configuration.

Configuration is stored in ~/.recall/config.json. Every field has a
built-in default, so a missing file or a partial file both work: absent
sections fall back to the defaults rather than disabling behavior.

Schema:

	{
	  "classifier": {
	    "winPhrases": ["that worked"], "winWords": ["perfect"],
	    "lossPhrases": ["still broken"], "lossWords": ["wrong"]
	  },
	  "gate": {
	    "topicKeywords": ["database"], "errorTerms": ["panic"],
	    "brokenPhrases": ["is broken"],
	    "threshold": 25, "messageWindow": 10
	  },
	  "preferences": [{"category": "technology", "item": "go"}],
	  "settings": {"searchLimit": 5, "softTimeoutSeconds": 3}
	}
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmvu/recall/internal/aggregate"
	"github.com/dmvu/recall/internal/classifier"
	"github.com/dmvu/recall/internal/gate"
)

// Config is the root configuration structure.
type Config struct {
	// Classifier is the win/loss trigger vocabulary.
	Classifier classifier.Vocabulary `json:"classifier"`

	// Gate controls automatic context injection.
	Gate GateConfig `json:"gate"`

	// Preferences lists the candidate items for preference rollups.
	Preferences []aggregate.VocabularyItem `json:"preferences,omitempty"`

	// Aggregation tunes the rollup jobs.
	Aggregation Aggregation `json:"aggregation"`

	// Settings contains global options.
	Settings Settings `json:"settings"`
}

// Aggregation tunes the batch rollup jobs.
type Aggregation struct {
	// Confidence maps sample counts to confidence scores.
	Confidence aggregate.ConfidencePolicy `json:"confidence"`
}

// GateConfig is the injection gate vocabulary plus its tuning knobs.
type GateConfig struct {
	gate.Vocabulary

	// Threshold is the minimum relevance score for injection.
	Threshold int `json:"threshold,omitempty"`

	// MessageWindow is the number of messages between injections.
	MessageWindow int `json:"messageWindow,omitempty"`
}

// Settings contains global options.
type Settings struct {
	// SearchLimit caps result counts for searches and injections.
	SearchLimit int `json:"searchLimit,omitempty"`

	// SoftTimeoutSeconds bounds background retrieval before the result
	// is discarded.
	SoftTimeoutSeconds int `json:"softTimeoutSeconds,omitempty"`
}

// Default returns the full built-in configuration.
func Default() *Config {
	return &Config{
		Classifier: classifier.DefaultVocabulary(),
		Gate: GateConfig{
			Vocabulary:    gate.DefaultVocabulary(),
			Threshold:     gate.DefaultThreshold,
			MessageWindow: gate.DefaultWindow,
		},
		Preferences: aggregate.DefaultPreferenceVocabulary(),
		Aggregation: Aggregation{
			Confidence: aggregate.DefaultConfidencePolicy,
		},
		Settings: Settings{
			SearchLimit:        5,
			SoftTimeoutSeconds: 3,
		},
	}
}

// DataDir returns the recall data directory (~/.recall).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".recall"), nil
}

// DefaultPath returns the path to ~/.recall/config.json.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// applyDefaults fills absent sections from the built-in defaults, so a
// partial config file only overrides what it mentions.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Classifier.Empty() {
		c.Classifier = def.Classifier
	}
	if len(c.Gate.TopicKeywords) == 0 && len(c.Gate.ErrorTerms) == 0 &&
		len(c.Gate.BrokenPhrases) == 0 {
		c.Gate.Vocabulary = def.Gate.Vocabulary
	}
	if c.Gate.Threshold <= 0 {
		c.Gate.Threshold = def.Gate.Threshold
	}
	if c.Gate.MessageWindow <= 0 {
		c.Gate.MessageWindow = def.Gate.MessageWindow
	}
	if len(c.Preferences) == 0 {
		c.Preferences = def.Preferences
	}
	if c.Aggregation.Confidence.HighMax == 0 {
		c.Aggregation.Confidence = def.Aggregation.Confidence
	}
	if c.Settings.SearchLimit <= 0 {
		c.Settings.SearchLimit = def.Settings.SearchLimit
	}
	if c.Settings.SoftTimeoutSeconds <= 0 {
		c.Settings.SoftTimeoutSeconds = def.Settings.SoftTimeoutSeconds
	}
}
