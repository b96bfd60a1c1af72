// Package memory provides a lock-free concurrent in-memory leaf Mapping, an
// alternative to spillkv.MapStore for fast tiers with high reader fan-in.
//
// Grounded on codeGROOVE-dev/multicache's s3fifo.go, which picks
// xsync.Map (a CLHT-based lock-free concurrent map) over sync.Map or a
// mutex-guarded plain map specifically for its read-heavy hot path; the
// same tradeoff applies to a Buffer's fast tier, which every Get touches.
package memory

import (
	"iter"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/codeGROOVE-dev/spillkv"
)

// Store is a leaf spillkv.Mapping backed by xsync.Map, safe for concurrent
// use without a coarse-grained lock on the read path.
type Store[K comparable, V any] struct {
	entries *xsync.Map[K, V]
	order   *spillkv.InsertionOrderedSet[K]
}

// New returns an empty Store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		entries: xsync.NewMap[K, V](),
		order:   spillkv.NewInsertionOrderedSet[K](),
	}
}

func (s *Store[K, V]) Get(k K) (V, error) {
	v, ok := s.entries.Load(k)
	if !ok {
		var zero V
		return zero, spillkv.ErrNotFound
	}
	return v, nil
}

func (s *Store[K, V]) Put(k K, v V) error {
	s.entries.Store(k, v)
	s.order.Add(k)
	return nil
}

func (s *Store[K, V]) Delete(k K) error {
	if _, ok := s.entries.Load(k); !ok {
		return spillkv.ErrNotFound
	}
	s.entries.Delete(k)
	s.order.Discard(k)
	return nil
}

func (s *Store[K, V]) Contains(k K) bool {
	_, ok := s.entries.Load(k)
	return ok
}

func (s *Store[K, V]) Len() int {
	return s.entries.Size()
}

func (s *Store[K, V]) Keys() iter.Seq[K] {
	return s.order.Snapshot()
}
