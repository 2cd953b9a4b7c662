/*
Package storage implements the persistent store for feedback memory.

This package provides SQLite-based storage for feedback events, their
full-text shadow index, aggregate rollup tables, and injection gate state.

The database lives at ~/.recall/recall.db and uses modernc.org/sqlite
(a pure Go, CGo-free implementation) in WAL mode so the single writer
never blocks concurrent readers.
*/
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store defines the interface for persistent storage operations.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// RecordEvent inserts a feedback event and its full-text shadow entry
	// in one transaction, returning the assigned id.
	RecordEvent(event FeedbackEvent) (int64, error)

	// SetArtifactPath back-fills the rendered artifact path for an event.
	// Idempotent and best-effort: failure never invalidates the event.
	SetArtifactPath(id int64, path string) error

	// GetEvent retrieves a single event by id.
	GetEvent(id int64) (FeedbackEvent, error)

	// ListEvents retrieves events matching the filter, newest first.
	ListEvents(filter EventFilter) ([]FeedbackEvent, error)

	// SearchEvents runs a ranked full-text query over the shadow index.
	// Hits come back in ascending rank order (most relevant first).
	SearchEvents(query string, limit int) ([]SearchHit, error)

	// ReplacePatterns swaps the aggregate_patterns table contents atomically.
	ReplacePatterns(patterns []AggregatePattern) error

	// ListPatterns returns all aggregate pattern rollups.
	ListPatterns() ([]AggregatePattern, error)

	// ReplacePreferences swaps the preference_stats table contents atomically.
	ReplacePreferences(stats []PreferenceStat) error

	// ListPreferences returns all preference rollups.
	ListPreferences() ([]PreferenceStat, error)

	// RecordTemplateOutcome appends a template win/loss outcome.
	RecordTemplateOutcome(outcome TemplateOutcome) (int64, error)

	// ListTemplateOutcomes returns all recorded template outcomes.
	ListTemplateOutcomes() ([]TemplateOutcome, error)

	// ReplaceTemplateStats swaps the template_stats table contents atomically.
	ReplaceTemplateStats(stats []TemplateStat) error

	// ListTemplateStats returns all template rollups.
	ListTemplateStats() ([]TemplateStat, error)

	// LoadGateState reads the persisted rate limiter state.
	LoadGateState() (GateState, error)

	// SaveGateState persists the rate limiter state.
	SaveGateState(state GateState) error

	// Close closes the database connection.
	Close() error
}

// EventFilter narrows ListEvents results. Zero values mean "no constraint".
type EventFilter struct {
	Project string
	Kind    Kind
	Since   time.Time
	Until   time.Time
	Limit   int
}

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a storage instance backed by ~/.recall/recall.db.
//
// If the home directory cannot be resolved, the store is disabled and
// operations become no-ops rather than failing the host process.
func NewStore() *SQLiteStore {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: failed to get home directory: %v", err)
		return &SQLiteStore{enabled: false}
	}

	return NewStoreAt(filepath.Join(home, ".recall", "recall.db"))
}

// NewStoreAt creates a storage instance at an explicit database path.
func NewStoreAt(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath:  dbPath,
		enabled: true,
	}
}

// Init opens the database, applies pragmas, and runs migrations.
//
// If initialization fails, storage is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		// WAL keeps the writer from blocking readers and vice versa.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			log.Printf("Warning: failed to enable WAL mode: %v", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			log.Printf("Warning: failed to set busy timeout: %v", err)
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
	})

	return initErr
}

// Enabled reports whether the store is usable.
func (s *SQLiteStore) Enabled() bool {
	return s.enabled && s.db != nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}
