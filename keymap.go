package spillkv

import (
	"iter"
	"sync"
)

// KeyMap wraps a Mapping whose keys are of a different, typically more
// restrictive, type (J) than the application's key type (K) — e.g. turning
// arbitrary keys into filesystem-safe strings for store/file. fn computes
// the transformed key.
//
// Grounded on zict/keymap.py, including its race-aware discard-on-miss
// ordering: if a concurrent delete removed k from the keymap index while a
// Put to the underlying store was in flight, the underlying entry is
// discarded rather than left orphaned.
type KeyMap[K comparable, J comparable, V any] struct {
	mu     sync.Mutex
	fn     func(K) J
	d      Mapping[J, V]
	keymap map[K]J
}

// NewKeyMap constructs a KeyMap applying fn to translate application keys
// into the keys used by d.
func NewKeyMap[K comparable, J comparable, V any](fn func(K) J, d Mapping[J, V]) *KeyMap[K, J, V] {
	return &KeyMap[K, J, V]{fn: fn, d: d, keymap: make(map[K]J)}
}

// Get returns the value for k.
func (m *KeyMap[K, J, V]) Get(k K) (V, error) {
	m.mu.Lock()
	j, ok := m.keymap[k]
	m.mu.Unlock()
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return m.d.Get(j)
}

// Put commits the association of k (translated via fn) to v. If a
// concurrent Delete removes k from the keymap index while the underlying
// write is in flight, the underlying entry for the stale translated key is
// discarded.
func (m *KeyMap[K, J, V]) Put(k K, v V) error {
	m.mu.Lock()
	j := m.fn(k)
	m.keymap[k] = j
	m.mu.Unlock()

	err := m.d.Put(j, v)

	m.mu.Lock()
	_, stillPresent := m.keymap[k]
	m.mu.Unlock()
	if !stillPresent {
		_ = ignoreNotFound(m.d.Delete(j))
	}
	return err
}

// Delete removes k and its underlying entry.
func (m *KeyMap[K, J, V]) Delete(k K) error {
	m.mu.Lock()
	j, ok := m.keymap[k]
	if ok {
		delete(m.keymap, k)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return m.d.Delete(j)
}

// Contains reports whether k is present.
func (m *KeyMap[K, J, V]) Contains(k K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keymap[k]
	return ok
}

// Len reports the number of entries.
func (m *KeyMap[K, J, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keymap)
}

// Keys iterates the application-facing keys. Order is unspecified, matching
// the underlying Go map's iteration order.
func (m *KeyMap[K, J, V]) Keys() iter.Seq[K] {
	m.mu.Lock()
	ks := make([]K, 0, len(m.keymap))
	for k := range m.keymap {
		ks = append(ks, k)
	}
	m.mu.Unlock()
	return func(yield func(K) bool) {
		for _, k := range ks {
			if !yield(k) {
				return
			}
		}
	}
}

// Flush delegates to the underlying Mapping.
func (m *KeyMap[K, J, V]) Flush() error { return TryFlush(m.d) }

// Close delegates to the underlying Mapping.
func (m *KeyMap[K, J, V]) Close() error { return TryClose(m.d) }
