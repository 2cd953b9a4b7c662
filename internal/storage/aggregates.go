package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// ReplacePatterns swaps the aggregate_patterns table contents in one
// transaction, so readers never observe a half-rebuilt table.
func (s *SQLiteStore) ReplacePatterns(patterns []AggregatePattern) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM aggregate_patterns"); err != nil {
		return fmt.Errorf("failed to clear aggregate_patterns: %w", err)
	}

	for _, p := range patterns {
		projects, err := json.Marshal(p.Projects)
		if err != nil {
			log.Printf("Warning: failed to marshal projects for %q: %v", p.Pattern, err)
			projects = []byte("[]")
		}

		if _, err := tx.Exec(`
			INSERT INTO aggregate_patterns
				(pattern, dominant, win_count, loss_count, win_rate,
				 confidence, global_scope, first_seen, last_seen, projects)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			p.Pattern, string(p.Dominant), p.WinCount, p.LossCount, p.WinRate,
			p.Confidence, boolToInt(p.GlobalScope),
			p.FirstSeen.UTC().Format(time.RFC3339),
			p.LastSeen.UTC().Format(time.RFC3339),
			string(projects),
		); err != nil {
			return fmt.Errorf("failed to insert pattern %q: %w", p.Pattern, err)
		}
	}

	return tx.Commit()
}

// ListPatterns returns all aggregate pattern rollups.
func (s *SQLiteStore) ListPatterns() ([]AggregatePattern, error) {
	if !s.Enabled() {
		return []AggregatePattern{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT pattern, dominant, win_count, loss_count, win_rate,
		       confidence, global_scope, first_seen, last_seen, projects
		FROM aggregate_patterns
		ORDER BY win_count + loss_count DESC, pattern
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []AggregatePattern
	for rows.Next() {
		var p AggregatePattern
		var globalScope int
		var firstSeen, lastSeen, projects string

		if err := rows.Scan(
			&p.Pattern, &p.Dominant, &p.WinCount, &p.LossCount, &p.WinRate,
			&p.Confidence, &globalScope, &firstSeen, &lastSeen, &projects,
		); err != nil {
			log.Printf("Warning: failed to scan pattern row: %v", err)
			continue
		}

		p.GlobalScope = globalScope == 1
		p.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen)
		p.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
		if err := json.Unmarshal([]byte(projects), &p.Projects); err != nil {
			p.Projects = nil
		}

		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}

// ReplacePreferences swaps the preference_stats table contents in one transaction.
func (s *SQLiteStore) ReplacePreferences(stats []PreferenceStat) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM preference_stats"); err != nil {
		return fmt.Errorf("failed to clear preference_stats: %w", err)
	}

	for _, st := range stats {
		if _, err := tx.Exec(`
			INSERT INTO preference_stats
				(category, item, preference, win_count, loss_count,
				 win_rate, confidence, total_occurrences, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			string(st.Category), st.Item, string(st.Preference),
			st.WinCount, st.LossCount, st.WinRate, st.Confidence,
			st.TotalOccurrences, st.LastSeen.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert preference %s/%s: %w",
				st.Category, st.Item, err)
		}
	}

	return tx.Commit()
}

// ListPreferences returns all preference rollups.
func (s *SQLiteStore) ListPreferences() ([]PreferenceStat, error) {
	if !s.Enabled() {
		return []PreferenceStat{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT category, item, preference, win_count, loss_count,
		       win_rate, confidence, total_occurrences, last_seen
		FROM preference_stats
		ORDER BY category, total_occurrences DESC, item
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var stats []PreferenceStat
	for rows.Next() {
		var st PreferenceStat
		var lastSeen string

		if err := rows.Scan(
			&st.Category, &st.Item, &st.Preference, &st.WinCount,
			&st.LossCount, &st.WinRate, &st.Confidence,
			&st.TotalOccurrences, &lastSeen,
		); err != nil {
			log.Printf("Warning: failed to scan preference row: %v", err)
			continue
		}

		st.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

// RecordTemplateOutcome appends a template win/loss outcome.
func (s *SQLiteStore) RecordTemplateOutcome(outcome TemplateOutcome) (int64, error) {
	if !s.Enabled() {
		return 0, ErrDisabled
	}
	if outcome.TemplateID == "" {
		return 0, fmt.Errorf("template id must not be empty")
	}
	if !outcome.Kind.Valid() {
		return 0, fmt.Errorf("invalid kind: %q", outcome.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := outcome.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	result, err := s.db.Exec(`
		INSERT INTO template_outcomes (template_id, project, kind, timestamp)
		VALUES (?, ?, ?, ?)
	`, outcome.TemplateID, outcome.Project, string(outcome.Kind),
		ts.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to record template outcome: %w", err)
	}

	return result.LastInsertId()
}

// ListTemplateOutcomes returns all recorded template outcomes.
func (s *SQLiteStore) ListTemplateOutcomes() ([]TemplateOutcome, error) {
	if !s.Enabled() {
		return []TemplateOutcome{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, template_id, project, kind, timestamp
		FROM template_outcomes
		ORDER BY timestamp
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query template outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []TemplateOutcome
	for rows.Next() {
		var o TemplateOutcome
		var ts string

		if err := rows.Scan(&o.ID, &o.TemplateID, &o.Project, &o.Kind, &ts); err != nil {
			log.Printf("Warning: failed to scan template outcome row: %v", err)
			continue
		}

		o.Timestamp, _ = time.Parse(time.RFC3339, ts)
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// ReplaceTemplateStats swaps the template_stats table contents in one transaction.
func (s *SQLiteStore) ReplaceTemplateStats(stats []TemplateStat) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM template_stats"); err != nil {
		return fmt.Errorf("failed to clear template_stats: %w", err)
	}

	for _, st := range stats {
		if _, err := tx.Exec(`
			INSERT INTO template_stats
				(template_id, usage_count, win_count, loss_count,
				 win_rate, confidence, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			st.TemplateID, st.UsageCount, st.WinCount, st.LossCount,
			st.WinRate, st.Confidence, st.LastSeen.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert template stat %q: %w",
				st.TemplateID, err)
		}
	}

	return tx.Commit()
}

// ListTemplateStats returns all template rollups.
func (s *SQLiteStore) ListTemplateStats() ([]TemplateStat, error) {
	if !s.Enabled() {
		return []TemplateStat{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT template_id, usage_count, win_count, loss_count,
		       win_rate, confidence, last_seen
		FROM template_stats
		ORDER BY usage_count DESC, template_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query template stats: %w", err)
	}
	defer rows.Close()

	var stats []TemplateStat
	for rows.Next() {
		var st TemplateStat
		var lastSeen string

		if err := rows.Scan(
			&st.TemplateID, &st.UsageCount, &st.WinCount, &st.LossCount,
			&st.WinRate, &st.Confidence, &lastSeen,
		); err != nil {
			log.Printf("Warning: failed to scan template stat row: %v", err)
			continue
		}

		st.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
