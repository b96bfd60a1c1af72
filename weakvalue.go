package spillkv

import (
	"iter"
	"sync"
	"weak"
)

// WeakValueMapping is a best-effort cache over weakly-referenced values: a
// value already garbage collected is treated as absent even though its key
// is still indexed. Useful for "read data from disk every time, unless it
// was previously accessed and is still in use somewhere else" patterns
// (see zict/cache.py's WeakValueMapping), fronting a Cache's slow tier.
//
// Values must be pointer-shaped (*T); Go has no analogue of Python's
// weakref.WeakValueDictionary over arbitrary object graphs, but the
// "weak" package (Go 1.24+) gives the same guarantee for a single pointer.
type WeakValueMapping[K comparable, T any] struct {
	mu   sync.Mutex
	data map[K]weak.Pointer[T]
}

// NewWeakValueMapping returns an empty WeakValueMapping.
func NewWeakValueMapping[K comparable, T any]() *WeakValueMapping[K, T] {
	return &WeakValueMapping[K, T]{data: make(map[K]weak.Pointer[T])}
}

// Get returns the value for k, or ErrNotFound if k was never set or its
// value has since been garbage collected.
func (m *WeakValueMapping[K, T]) Get(k K) (*T, error) {
	m.mu.Lock()
	wp, ok := m.data[k]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	v := wp.Value()
	if v == nil {
		m.mu.Lock()
		delete(m.data, k)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return v, nil
}

// Put records a weak reference to v under k. It does not keep v alive.
func (m *WeakValueMapping[K, T]) Put(k K, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[k] = weak.Make(v)
	return nil
}

// Delete removes k's entry. Returns ErrNotFound if k is absent.
func (m *WeakValueMapping[K, T]) Delete(k K) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[k]; !ok {
		return ErrNotFound
	}
	delete(m.data, k)
	return nil
}

// Contains reports whether k has a live value.
func (m *WeakValueMapping[K, T]) Contains(k K) bool {
	m.mu.Lock()
	wp, ok := m.data[k]
	m.mu.Unlock()
	return ok && wp.Value() != nil
}

// Len reports the number of indexed keys, including any whose value has
// been collected but not yet observed absent via Get or Contains.
func (m *WeakValueMapping[K, T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Keys iterates indexed keys; order is unspecified (Go map order).
func (m *WeakValueMapping[K, T]) Keys() iter.Seq[K] {
	m.mu.Lock()
	ks := make([]K, 0, len(m.data))
	for k := range m.data {
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
