/*
Package storage provides SQLite database migrations and schema definitions.

This file contains the schema for the feedback event table, its FTS5
shadow index with the triggers that keep the two in lock-step, the
aggregate rollup tables, and the gate state table.
*/
package storage

import (
	"fmt"
	"log"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStore) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
		{version: 2, name: "fts_index", up: s.migration002FTSIndex},
		{version: 3, name: "aggregate_tables", up: s.migration003AggregateTables},
	}

	for _, m := range migrations {
		if version < m.version {
			log.Printf("Running migration %d: %s", m.version, m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStore) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.Exec(query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStore) getCurrentMigrationVersion() (int, error) {
	query := "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	row := s.db.QueryRow(query)

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStore) setMigrationVersion(version int) error {
	query := "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
	_, err := s.db.Exec(query, version, fmt.Sprintf("migration_%d", version))
	return err
}

// migration001InitialSchema creates the primary event table.
func (s *SQLiteStore) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			project TEXT NOT NULL DEFAULT '',
			matched_pattern TEXT NOT NULL CHECK (matched_pattern <> ''),
			kind TEXT NOT NULL CHECK (kind IN ('win', 'loss')),
			raw_message TEXT NOT NULL DEFAULT '',
			context_summary TEXT NOT NULL DEFAULT '',
			generated_summary TEXT NOT NULL DEFAULT '',
			artifact_path TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		return fmt.Errorf("failed to create feedback_events table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_feedback_events_project
		ON feedback_events(project)
	`); err != nil {
		return fmt.Errorf("failed to create project index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_feedback_events_pattern
		ON feedback_events(matched_pattern)
	`); err != nil {
		return fmt.Errorf("failed to create pattern index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_feedback_events_timestamp
		ON feedback_events(timestamp DESC)
	`); err != nil {
		return fmt.Errorf("failed to create timestamp index: %w", err)
	}

	return nil
}

// migration002FTSIndex creates the full-text shadow index and the triggers
// that keep it consistent with feedback_events.
//
// The FTS table is content-linked to feedback_events so it stores only the
// tokenized projection plus a rowid back-reference; the triggers guarantee
// that no event row exists without its index entry and vice versa.
func (s *SQLiteStore) migration002FTSIndex() error {
	if _, err := s.db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS feedback_events_fts USING fts5(
			raw_message,
			context_summary,
			generated_summary,
			content='feedback_events',
			content_rowid='id'
		)
	`); err != nil {
		return fmt.Errorf("failed to create fts table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TRIGGER IF NOT EXISTS feedback_events_ai
		AFTER INSERT ON feedback_events BEGIN
			INSERT INTO feedback_events_fts(rowid, raw_message, context_summary, generated_summary)
			VALUES (new.id, new.raw_message, new.context_summary, new.generated_summary);
		END
	`); err != nil {
		return fmt.Errorf("failed to create insert trigger: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TRIGGER IF NOT EXISTS feedback_events_ad
		AFTER DELETE ON feedback_events BEGIN
			INSERT INTO feedback_events_fts(feedback_events_fts, rowid, raw_message, context_summary, generated_summary)
			VALUES ('delete', old.id, old.raw_message, old.context_summary, old.generated_summary);
		END
	`); err != nil {
		return fmt.Errorf("failed to create delete trigger: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TRIGGER IF NOT EXISTS feedback_events_au
		AFTER UPDATE ON feedback_events BEGIN
			INSERT INTO feedback_events_fts(feedback_events_fts, rowid, raw_message, context_summary, generated_summary)
			VALUES ('delete', old.id, old.raw_message, old.context_summary, old.generated_summary);
			INSERT INTO feedback_events_fts(rowid, raw_message, context_summary, generated_summary)
			VALUES (new.id, new.raw_message, new.context_summary, new.generated_summary);
		END
	`); err != nil {
		return fmt.Errorf("failed to create update trigger: %w", err)
	}

	return nil
}

// migration003AggregateTables creates the rollup and gate state tables.
func (s *SQLiteStore) migration003AggregateTables() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS aggregate_patterns (
			pattern TEXT PRIMARY KEY,
			dominant TEXT NOT NULL CHECK (dominant IN ('win', 'loss')),
			win_count INTEGER NOT NULL,
			loss_count INTEGER NOT NULL,
			win_rate REAL NOT NULL,
			confidence REAL NOT NULL,
			global_scope INTEGER NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			projects TEXT NOT NULL DEFAULT '[]'
		)
	`); err != nil {
		return fmt.Errorf("failed to create aggregate_patterns table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS preference_stats (
			category TEXT NOT NULL,
			item TEXT NOT NULL,
			preference TEXT NOT NULL CHECK (preference IN ('preferred', 'avoided')),
			win_count INTEGER NOT NULL,
			loss_count INTEGER NOT NULL,
			win_rate REAL NOT NULL,
			confidence REAL NOT NULL,
			total_occurrences INTEGER NOT NULL,
			last_seen TEXT NOT NULL,
			PRIMARY KEY (category, item)
		)
	`); err != nil {
		return fmt.Errorf("failed to create preference_stats table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS template_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			template_id TEXT NOT NULL,
			project TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL CHECK (kind IN ('win', 'loss')),
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create template_outcomes table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS template_stats (
			template_id TEXT PRIMARY KEY,
			usage_count INTEGER NOT NULL,
			win_count INTEGER NOT NULL,
			loss_count INTEGER NOT NULL,
			win_rate REAL NOT NULL,
			confidence REAL NOT NULL,
			last_seen TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create template_stats table: %w", err)
	}

	// Single-row table: the limiter state is an explicit persisted record.
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS gate_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			counter INTEGER NOT NULL DEFAULT 0,
			last_injection TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		return fmt.Errorf("failed to create gate_state table: %w", err)
	}

	return nil
}
