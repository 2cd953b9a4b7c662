/*
Package storage provides data models for the feedback memory system.

These models represent recorded win/loss feedback events, the aggregate
rollups derived from them, and the persisted state of the injection gate.
*/
package storage

import "time"

// Kind classifies a feedback event as a win or a loss.
type Kind string

const (
	// KindWin marks positive user feedback.
	KindWin Kind = "win"

	// KindLoss marks negative user feedback.
	KindLoss Kind = "loss"
)

// Valid reports whether k is a recognized feedback kind.
func (k Kind) Valid() bool {
	return k == KindWin || k == KindLoss
}

// FeedbackEvent represents a single recorded win or loss.
type FeedbackEvent struct {
	// ID is the monotonic surrogate key assigned on insert.
	ID int64 `json:"id"`

	// Timestamp is when the feedback was observed (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Project is a free-text label derived from the working directory.
	Project string `json:"project"`

	// MatchedPattern is the trigger phrase/word that caused classification.
	MatchedPattern string `json:"matched_pattern"`

	// Kind is win or loss.
	Kind Kind `json:"kind"`

	// RawMessage is the user message that triggered the event.
	RawMessage string `json:"raw_message"`

	// ContextSummary is a derived excerpt of recent tool activity.
	ContextSummary string `json:"context_summary"`

	// GeneratedSummary is an optional longer-form synopsis.
	GeneratedSummary string `json:"generated_summary,omitempty"`

	// ArtifactPath points to the rendered markdown for this event.
	// Back-filled after the artifact is written; empty until then.
	ArtifactPath string `json:"artifact_path,omitempty"`

	// SessionID identifies the chat session that produced the event (UUID).
	SessionID string `json:"session_id,omitempty"`
}

// AggregatePattern is the rollup across all events sharing a matched pattern.
type AggregatePattern struct {
	// Pattern is the trigger phrase/word (unique key).
	Pattern string `json:"pattern"`

	// Dominant is the majority kind for this pattern (ties go to loss).
	Dominant Kind `json:"dominant"`

	// WinCount and LossCount are the raw tallies.
	WinCount  int `json:"win_count"`
	LossCount int `json:"loss_count"`

	// WinRate is WinCount / (WinCount + LossCount).
	WinRate float64 `json:"win_rate"`

	// Confidence reflects how much data backs this rollup (0-1, saturating).
	Confidence float64 `json:"confidence"`

	// GlobalScope is true when the pattern holds across projects.
	GlobalScope bool `json:"global_scope"`

	// FirstSeen and LastSeen bound the pattern's observation window.
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	// Projects is the distinct set of projects the pattern appeared in.
	Projects []string `json:"projects"`
}

// PreferenceCategory classifies what a preference item refers to.
type PreferenceCategory string

const (
	CategoryTechnology PreferenceCategory = "technology"
	CategoryPattern    PreferenceCategory = "pattern"
	CategoryTool       PreferenceCategory = "tool"
)

// Preference is the derived stance toward an item.
type Preference string

const (
	PreferencePreferred Preference = "preferred"
	PreferenceAvoided   Preference = "avoided"
)

// PreferenceStat is the rollup of technology/pattern/tool mentions in event text.
type PreferenceStat struct {
	Category PreferenceCategory `json:"category"`
	Item     string             `json:"item"`

	// Preference is preferred (win rate >= 0.7) or avoided (<= 0.3).
	// Neutral items are omitted from the table entirely.
	Preference Preference `json:"preference"`

	WinCount  int     `json:"win_count"`
	LossCount int     `json:"loss_count"`
	WinRate   float64 `json:"win_rate"`

	// Confidence is occurrence-scaled, saturating at 10 occurrences.
	Confidence       float64   `json:"confidence"`
	TotalOccurrences int       `json:"total_occurrences"`
	LastSeen         time.Time `json:"last_seen"`
}

// TemplateOutcome records a single win/loss outcome for a project template,
// written by the scaffolding tool.
type TemplateOutcome struct {
	ID         int64     `json:"id"`
	TemplateID string    `json:"template_id"`
	Project    string    `json:"project"`
	Kind       Kind      `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
}

// TemplateStat is the aggregate rollup keyed by template id.
type TemplateStat struct {
	TemplateID string    `json:"template_id"`
	UsageCount int       `json:"usage_count"`
	WinCount   int       `json:"win_count"`
	LossCount  int       `json:"loss_count"`
	WinRate    float64   `json:"win_rate"`
	Confidence float64   `json:"confidence"`
	LastSeen   time.Time `json:"last_seen"`
}

// GateState is the persisted state of the injection rate limiter.
// Loaded, updated, and saved as an explicit record rather than held
// in ambient globals.
type GateState struct {
	// Counter is the fixed-window message counter.
	Counter int `json:"counter"`

	// LastInjection is when the limiter last allowed an injection.
	LastInjection time.Time `json:"last_injection"`
}

// SearchHit is one tier-1 full-text match with its native rank.
type SearchHit struct {
	Event FeedbackEvent

	// Rank is the FTS engine's relevance rank (lower is more relevant).
	Rank float64
}
