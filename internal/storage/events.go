package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ErrDisabled is returned by write paths when the store could not be opened.
var ErrDisabled = fmt.Errorf("storage is disabled")

// ErrNotFound is returned when an event id does not exist.
var ErrNotFound = fmt.Errorf("event not found")

// RecordEvent inserts a feedback event, returning the assigned id.
//
// The FTS shadow entry is written by trigger inside the same implicit
// transaction as the row insert, so either both exist or neither does.
// Callers should treat a returned error as "drop the event and continue";
// losing one feedback event is acceptable degradation.
func (s *SQLiteStore) RecordEvent(event FeedbackEvent) (int64, error) {
	if !s.Enabled() {
		return 0, ErrDisabled
	}
	if !event.Kind.Valid() {
		return 0, fmt.Errorf("invalid kind: %q", event.Kind)
	}
	if event.MatchedPattern == "" {
		return 0, fmt.Errorf("matched pattern must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	result, err := s.db.Exec(`
		INSERT INTO feedback_events
			(timestamp, project, matched_pattern, kind, raw_message,
			 context_summary, generated_summary, artifact_path, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ts.UTC().Format(time.RFC3339),
		event.Project,
		event.MatchedPattern,
		string(event.Kind),
		event.RawMessage,
		event.ContextSummary,
		event.GeneratedSummary,
		event.ArtifactPath,
		event.SessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read event id: %w", err)
	}

	return id, nil
}

// SetArtifactPath back-fills the rendered artifact path for an event.
//
// This is best-effort enrichment: it runs outside the original insert
// transaction and is idempotent, so retrying or skipping it never
// affects the event itself.
func (s *SQLiteStore) SetArtifactPath(id int64, path string) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"UPDATE feedback_events SET artifact_path = ? WHERE id = ?",
		path, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set artifact path: %w", err)
	}
	return nil
}

const eventColumns = `id, timestamp, project, matched_pattern, kind,
	raw_message, context_summary, generated_summary, artifact_path, session_id`

// GetEvent retrieves a single event by id.
func (s *SQLiteStore) GetEvent(id int64) (FeedbackEvent, error) {
	if !s.Enabled() {
		return FeedbackEvent{}, ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT "+eventColumns+" FROM feedback_events WHERE id = ?", id,
	)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return FeedbackEvent{}, ErrNotFound
	}
	if err != nil {
		return FeedbackEvent{}, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListEvents retrieves events matching the filter, newest first.
func (s *SQLiteStore) ListEvents(filter EventFilter) ([]FeedbackEvent, error) {
	if !s.Enabled() {
		return []FeedbackEvent{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var conds []string
	var args []interface{}

	if filter.Project != "" {
		conds = append(conds, "project = ?")
		args = append(args, filter.Project)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.RFC3339))
	}

	query := "SELECT " + eventColumns + " FROM feedback_events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []FeedbackEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			// One bad row should not sink the batch.
			continue
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// SearchEvents runs a ranked full-text query over the shadow index.
//
// Hits come back in ascending rank order: FTS5 rank is a negative bm25
// value, so lower means more relevant. A malformed query surfaces as an
// error, which the retrieval engine treats as "tier 1 unavailable".
func (s *SQLiteStore) SearchEvents(query string, limit int) ([]SearchHit, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT `+prefixedEventColumns("e")+`, feedback_events_fts.rank
		FROM feedback_events_fts
		JOIN feedback_events e ON e.id = feedback_events_fts.rowid
		WHERE feedback_events_fts MATCH ?
		ORDER BY feedback_events_fts.rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var event FeedbackEvent
		var tsStr string
		var rank float64

		if err := rows.Scan(
			&event.ID, &tsStr, &event.Project, &event.MatchedPattern,
			&event.Kind, &event.RawMessage, &event.ContextSummary,
			&event.GeneratedSummary, &event.ArtifactPath, &event.SessionID,
			&rank,
		); err != nil {
			continue
		}

		event.Timestamp, _ = time.Parse(time.RFC3339, tsStr)
		hits = append(hits, SearchHit{Event: event, Rank: rank})
	}

	return hits, rows.Err()
}

// ftsQuery quotes each search term so user input cannot be interpreted
// as FTS5 query syntax. Terms are ANDed, the FTS5 default.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// prefixedEventColumns qualifies eventColumns with a table alias.
func prefixedEventColumns(alias string) string {
	cols := strings.Split(eventColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// scanner abstracts sql.Row and sql.Rows for scanEvent.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEvent scans one feedback_events row.
func scanEvent(row scanner) (FeedbackEvent, error) {
	var event FeedbackEvent
	var tsStr string

	if err := row.Scan(
		&event.ID, &tsStr, &event.Project, &event.MatchedPattern,
		&event.Kind, &event.RawMessage, &event.ContextSummary,
		&event.GeneratedSummary, &event.ArtifactPath, &event.SessionID,
	); err != nil {
		return FeedbackEvent{}, err
	}

	ts, err := time.Parse(time.RFC3339, tsStr)
	if err != nil {
		return FeedbackEvent{}, fmt.Errorf("bad timestamp %q: %w", tsStr, err)
	}
	event.Timestamp = ts

	return event, nil
}
