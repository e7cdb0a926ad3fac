package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists outcome records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite history store.
// The path should be a file path (e.g., "./history.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own empty database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outcomes (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			rule TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			value_kind TEXT NOT NULL,
			value TEXT NOT NULL,
			error TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_outcomes_rule_sequence
		ON outcomes(rule, sequence)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := rec.prepare(); err != nil {
		return err
	}
	kind, text, err := encodeValue(rec.Value)
	if err != nil {
		return err
	}

	// Sequence is max + 1 for this rule
	var seq int
	err = s.db.QueryRow(`
		INSERT INTO outcomes (id, run_id, rule, sequence, outcome, value_kind, value, error, message, timestamp)
		VALUES (
			?, ?, ?,
			COALESCE((SELECT MAX(sequence) FROM outcomes WHERE rule = ?), 0) + 1,
			?, ?, ?, ?, ?, ?
		)
		RETURNING sequence
	`, rec.ID, rec.RunID, rec.Rule, rec.Rule,
		rec.Outcome, kind, text, rec.Error, rec.Message,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	rec.Sequence = seq
	return nil
}

// Latest implements Store.
func (s *SQLiteStore) Latest(rule string) (Record, error) {
	records, err := s.List(rule, 1)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	return records[0], nil
}

// List implements Store.
func (s *SQLiteStore) List(rule string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	// SQLite treats a negative LIMIT as no limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT id, run_id, sequence, outcome, value_kind, value, error, message, timestamp
		FROM outcomes
		WHERE rule = ?
		ORDER BY sequence DESC
		LIMIT ?
	`, rule, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec := Record{Rule: rule}
		var kind, text, timestamp string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Sequence, &rec.Outcome,
			&kind, &text, &rec.Error, &rec.Message, &timestamp); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.Value, err = decodeValue(kind, text); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	// Oldest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// DeleteRule implements Store.
func (s *SQLiteStore) DeleteRule(rule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM outcomes WHERE rule = ?`, rule); err != nil {
		return fmt.Errorf("delete rule records: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
