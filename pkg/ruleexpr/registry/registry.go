package registry

import (
	"errors"
	"sync"
)

// ErrDuplicate is returned by Add when the key is already registered.
var ErrDuplicate = errors.New("duplicate key")

// Registry is a thread-safe registry of values indexed by key that
// remembers insertion order. It uses sync.RWMutex for read-heavy use.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	order   []K
}

// New creates a new empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Add registers a value under a new key. It returns ErrDuplicate and
// leaves the registry unchanged if the key exists.
func (r *Registry[K, V]) Add(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return ErrDuplicate
	}
	r.entries[key] = value
	r.order = append(r.order, key)
	return nil
}

// Set adds or replaces a value. A replaced key keeps its position.
func (r *Registry[K, V]) Set(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; !exists {
		r.order = append(r.order, key)
	}
	r.entries[key] = value
}

// Get returns the value for a key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has returns true if the key exists in the registry.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes a key from the registry.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; !exists {
		return
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Keys returns all keys in insertion order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]K(nil), r.order...)
}

// Len returns the number of entries in the registry.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls fn for each entry in insertion order until fn returns false.
// It iterates over a snapshot, so fn may modify the registry.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	keys := append([]K(nil), r.order...)
	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = r.entries[k]
	}
	r.mu.RUnlock()

	for i, k := range keys {
		if !fn(k, values[i]) {
			return
		}
	}
}

// Clone returns an independent copy of the registry.
func (r *Registry[K, V]) Clone() *Registry[K, V] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Registry[K, V]{
		entries: make(map[K]V, len(r.entries)),
		order:   append([]K(nil), r.order...),
	}
	for k, v := range r.entries {
		c.entries[k] = v
	}
	return c
}
