// Package history persists rule outcomes so a check can tell when a rule's
// outcome changed since its previous evaluation.
package history

import (
	"errors"
)

// Store persists outcome records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save appends a record. The store assigns the record's Sequence,
	// which increases per rule. A record without an ID gets one.
	Save(rec *Record) error

	// Latest returns the most recent record for a rule.
	// Returns ErrNotFound if the rule has no records.
	Latest(rule string) (Record, error)

	// List returns up to limit of the most recent records for a rule,
	// oldest first. A limit of zero or less returns every record.
	// Returns empty slice (not error) if the rule has no records.
	List(rule string, limit int) ([]Record, error)

	// DeleteRule removes every record for a rule.
	// Returns nil if the rule has no records.
	DeleteRule(rule string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates a rule has no recorded outcome.
	ErrNotFound = errors.New("history record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")

	// ErrInvalidRecord indicates a record is missing its rule name.
	ErrInvalidRecord = errors.New("invalid history record")
)

// Previous returns the latest record for a rule. The second result is
// false if the rule has never been recorded.
func Previous(s Store, rule string) (Record, bool, error) {
	rec, err := s.Latest(rule)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}
