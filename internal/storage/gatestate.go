package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// LoadGateState reads the persisted rate limiter state.
// A missing row yields the zero state, not an error.
func (s *SQLiteStore) LoadGateState() (GateState, error) {
	if !s.Enabled() {
		return GateState{}, ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow("SELECT counter, last_injection FROM gate_state WHERE id = 1")

	var state GateState
	var lastInjection string

	err := row.Scan(&state.Counter, &lastInjection)
	if err == sql.ErrNoRows {
		return GateState{}, nil
	}
	if err != nil {
		return GateState{}, fmt.Errorf("failed to load gate state: %w", err)
	}

	if lastInjection != "" {
		state.LastInjection, _ = time.Parse(time.RFC3339, lastInjection)
	}

	return state, nil
}

// SaveGateState persists the rate limiter state atomically (single upsert).
func (s *SQLiteStore) SaveGateState(state GateState) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lastInjection := ""
	if !state.LastInjection.IsZero() {
		lastInjection = state.LastInjection.UTC().Format(time.RFC3339)
	}

	_, err := s.db.Exec(`
		INSERT INTO gate_state (id, counter, last_injection)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			counter = excluded.counter,
			last_injection = excluded.last_injection
	`, state.Counter, lastInjection)
	if err != nil {
		return fmt.Errorf("failed to save gate state: %w", err)
	}

	return nil
}
