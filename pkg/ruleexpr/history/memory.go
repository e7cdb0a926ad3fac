package history

import (
	"sync"
)

// MemoryStore is an in-memory history store for tests and short-lived
// processes. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]Record // rule -> records, oldest first
	closed bool
}

// NewMemoryStore creates a new in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]Record),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if err := rec.prepare(); err != nil {
		return err
	}
	if _, _, err := encodeValue(rec.Value); err != nil {
		return err
	}

	records := m.data[rec.Rule]
	rec.Sequence = 1
	if n := len(records); n > 0 {
		rec.Sequence = records[n-1].Sequence + 1
	}
	m.data[rec.Rule] = append(records, *rec)
	return nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(rule string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	records := m.data[rule]
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	return records[len(records)-1], nil
}

// List implements Store.
func (m *MemoryStore) List(rule string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	records := m.data[rule]
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Return a copy so callers can't reach the stored slice
	result := make([]Record, len(records))
	copy(result, records)
	return result, nil
}

// DeleteRule implements Store.
func (m *MemoryStore) DeleteRule(rule string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, rule)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the total number of records across all rules.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, records := range m.data {
		count += len(records)
	}
	return count
}
