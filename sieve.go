package spillkv

import (
	"iter"
	"sync"
)

// Sieve routes each key to one of several underlying mappings based on a
// selector function of (key, value), e.g. routing large values to an
// on-disk store and small ones to an in-memory one.
//
// Grounded on zict/sieve.py. There is no batched update: when Sieve is used
// as the destination of UpdateFrom, each key is routed by its own Put, and
// each underlying mapping only ever sees the keys actually routed to it.
type Sieve[K comparable, V any, MK comparable] struct {
	mu           sync.Mutex
	mappings     map[MK]Mapping[K, V]
	selector     func(K, V) MK
	keyToMapping map[K]MK
}

// NewSieve constructs a Sieve dispatching puts across mappings according to
// selector.
func NewSieve[K comparable, V any, MK comparable](mappings map[MK]Mapping[K, V], selector func(K, V) MK) *Sieve[K, V, MK] {
	return &Sieve[K, V, MK]{
		mappings:     mappings,
		selector:     selector,
		keyToMapping: make(map[K]MK),
	}
}

// Get returns the value for k from whichever mapping currently holds it.
func (s *Sieve[K, V, MK]) Get(k K) (V, error) {
	s.mu.Lock()
	mk, ok := s.keyToMapping[k]
	s.mu.Unlock()
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return s.mappings[mk].Get(k)
}

// Put routes (k, v) to selector(k, v)'s mapping, removing k from its
// previous mapping first if the selector now routes it elsewhere.
func (s *Sieve[K, V, MK]) Put(k K, v V) error {
	mk := s.selector(k, v)
	mapping, ok := s.mappings[mk]
	if !ok {
		return ErrNotFound
	}

	s.mu.Lock()
	oldKey, hadOld := s.keyToMapping[k]
	s.mu.Unlock()

	if hadOld && oldKey != mk {
		_ = ignoreNotFound(s.mappings[oldKey].Delete(k))
	}
	if err := mapping.Put(k, v); err != nil {
		return err
	}

	s.mu.Lock()
	s.keyToMapping[k] = mk
	s.mu.Unlock()
	return nil
}

// Delete removes k from whichever mapping holds it.
func (s *Sieve[K, V, MK]) Delete(k K) error {
	s.mu.Lock()
	mk, ok := s.keyToMapping[k]
	if ok {
		delete(s.keyToMapping, k)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return s.mappings[mk].Delete(k)
}

// Contains reports whether k is present in any mapping.
func (s *Sieve[K, V, MK]) Contains(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keyToMapping[k]
	return ok
}

// Len reports the total number of entries across all mappings.
func (s *Sieve[K, V, MK]) Len() int {
	n := 0
	for _, m := range s.mappings {
		n += m.Len()
	}
	return n
}

// Keys iterates every key across all mappings; order across mappings is
// unspecified, but each mapping's own key order is preserved.
func (s *Sieve[K, V, MK]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, m := range s.mappings {
			for k := range m.Keys() {
				if !yield(k) {
					return
				}
			}
		}
	}
}

// Flush delegates to every mapping.
func (s *Sieve[K, V, MK]) Flush() error {
	return Flush[K, V](s.mappingSlice()...)
}

// Close delegates to every mapping.
func (s *Sieve[K, V, MK]) Close() error {
	return Close[K, V](s.mappingSlice()...)
}

func (s *Sieve[K, V, MK]) mappingSlice() []Mapping[K, V] {
	out := make([]Mapping[K, V], 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, m)
	}
	return out
}
