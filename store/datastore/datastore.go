// Package datastore provides a Google Cloud Datastore-backed leaf
// spillkv.Mapping, suited to a Buffer's slow tier when the worker's state
// needs to survive the process entirely, not just a local disk.
//
// Grounded directly on codeGROOVE-dev/fido's pkg/persist/datastore/datastore.go:
// same base64-of-JSON value encoding, same ds.ErrNoSuchEntity miss handling,
// same client/key construction. Dropped the TTL/expiry fields and the
// (value, expiry, found, err) result shape, since spillkv.Mapping carries no
// expiry concept and returns a plain (value, err).
package datastore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	ds "github.com/codeGROOVE-dev/ds9/pkg/datastore"

	"github.com/codeGROOVE-dev/spillkv"
)

const (
	datastoreKind      = "SpillEntry"
	maxDatastoreKeyLen = 1500
)

// Store is a leaf spillkv.Mapping backed by Google Cloud Datastore.
type Store[K comparable, V any] struct {
	client *ds.Client
	kind   string
}

// New creates a Datastore-backed Store. cacheID names the Datastore
// database; an empty projectID lets ds9 auto-detect it from the
// environment.
func New[K comparable, V any](ctx context.Context, cacheID string) (*Store[K, V], error) {
	client, err := ds.NewClientWithDatabase(ctx, "", cacheID)
	if err != nil {
		return nil, fmt.Errorf("store/datastore: create client: %w", err)
	}
	return &Store[K, V]{client: client, kind: datastoreKind}, nil
}

// ValidateKey checks that key, stringified, fits Datastore's key-length
// limit and is non-empty.
func (*Store[K, V]) ValidateKey(key K) error {
	s := fmt.Sprintf("%v", key)
	if s == "" {
		return errors.New("store/datastore: key cannot be empty")
	}
	if len(s) > maxDatastoreKeyLen {
		return fmt.Errorf("store/datastore: key too long: %d bytes (max %d)", len(s), maxDatastoreKeyLen)
	}
	return nil
}

func (s *Store[K, V]) makeKey(key K) *ds.Key {
	return ds.NameKey(s.kind, fmt.Sprintf("%v", key), nil)
}

// entry is the Datastore entity shape: the value JSON-marshalled then
// base64-encoded, since Datastore's []byte handling is awkward across its
// client libraries.
type entry struct {
	Value string `datastore:"value,noindex"`
}

// Get fetches and decodes the value for k.
func (s *Store[K, V]) Get(k K) (V, error) {
	var zero V
	ctx := context.Background()

	var e entry
	if err := s.client.Get(ctx, s.makeKey(k), &e); err != nil {
		if errors.Is(err, ds.ErrNoSuchEntity) {
			return zero, spillkv.ErrNotFound
		}
		return zero, spillkv.NewBackingStoreError(k, fmt.Errorf("datastore get: %w", err))
	}

	b, err := base64.StdEncoding.DecodeString(e.Value)
	if err != nil {
		return zero, spillkv.NewBackingStoreError(k, fmt.Errorf("decode base64: %w", err))
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, spillkv.NewBackingStoreError(k, fmt.Errorf("unmarshal value: %w", err))
	}
	return v, nil
}

// Put encodes v as base64-of-JSON and writes it under k.
func (s *Store[K, V]) Put(k K, v V) error {
	ctx := context.Background()

	b, err := json.Marshal(v)
	if err != nil {
		return spillkv.NewBackingStoreError(k, fmt.Errorf("marshal value: %w", err))
	}
	e := entry{Value: base64.StdEncoding.EncodeToString(b)}
	if _, err := s.client.Put(ctx, s.makeKey(k), &e); err != nil {
		return spillkv.NewBackingStoreError(k, fmt.Errorf("datastore put: %w", err))
	}
	return nil
}

// Delete removes k.
func (s *Store[K, V]) Delete(k K) error {
	ctx := context.Background()
	if err := s.client.Delete(ctx, s.makeKey(k)); err != nil {
		if errors.Is(err, ds.ErrNoSuchEntity) {
			return spillkv.ErrNotFound
		}
		return spillkv.NewBackingStoreError(k, fmt.Errorf("datastore delete: %w", err))
	}
	return nil
}

// Contains reports whether k exists.
func (s *Store[K, V]) Contains(k K) bool {
	var e entry
	return s.client.Get(context.Background(), s.makeKey(k), &e) == nil
}

// Len counts entities of this store's kind via a keys-only query.
func (s *Store[K, V]) Len() int {
	n, err := s.client.Count(context.Background(), ds.NewQuery(s.kind))
	if err != nil {
		return 0
	}
	return n
}

// Keys is unsupported: Datastore keys only surface K's string form via a
// full-kind scan, and nothing in this package tracks the original typed K
// values once stored. Returns an empty iterator; callers that need
// iteration should keep a side index (as store/file does) or compose this
// leaf under a Buffer, whose own _keys set already tracks membership.
func (s *Store[K, V]) Keys() iter.Seq[K] {
	return func(func(K) bool) {}
}

// Flush is a no-op: every Put is written to Datastore synchronously, so
// there are no buffered writes to sync. It never removes entries; Wipe does.
func (s *Store[K, V]) Flush() error { return nil }

// Wipe removes every entity of this store's kind. Unlike Flush, this is
// destructive; it is never called by Buffer or Cache.
func (s *Store[K, V]) Wipe() error {
	ctx := context.Background()
	q := ds.NewQuery(s.kind).KeysOnly()
	keys, err := s.client.AllKeys(ctx, q)
	if err != nil {
		return fmt.Errorf("store/datastore: query all keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.DeleteMulti(ctx, keys); err != nil {
		return fmt.Errorf("store/datastore: delete all entries: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store[K, V]) Close() error {
	return s.client.Close()
}
