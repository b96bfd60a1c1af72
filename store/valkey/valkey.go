// Package valkey provides a Redis/Valkey-backed leaf spillkv.Mapping, a
// plausible shared-cache slow tier for a worker that spills across process
// boundaries.
//
// The interface shape (New(ctx, cacheID, addr), ValidateKey, Close) is
// grounded on codeGROOVE-dev/fido's pkg/persist/valkey test suite (the only
// surviving evidence of that package's public surface in the retrieved
// pack); the command usage and error-wrapping conventions follow
// pkg/persist/datastore's style, since no valkey.go source body itself was
// retrieved.
package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/codeGROOVE-dev/spillkv"
)

const (
	maxKeyLength = 512
	opTimeout    = 5 * time.Second
)

// Store is a leaf spillkv.Mapping backed by a Valkey (or Redis-compatible)
// server. Since spillkv.Mapping's methods carry no context, each operation
// runs under a fixed opTimeout rather than a caller-supplied deadline.
//
// Len and Keys do not enumerate the keyspace (see their doc comments) — this
// makes Store safe as a Buffer slow tier, whose own _keys set already
// tracks membership, but unsuitable anywhere Len/Keys must reflect actual
// contents, such as standalone iteration or Cache's Len and Keys, which
// delegate to the wrapped store.
type Store[K comparable, V any] struct {
	client valkey.Client
	prefix string
}

// New connects to addr and returns a Store namespaced under cacheID.
func New[K comparable, V any](ctx context.Context, cacheID string, addr string) (*Store[K, V], error) {
	if cacheID == "" {
		return nil, errors.New("store/valkey: cacheID cannot be empty")
	}
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("store/valkey: connect: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("store/valkey: ping: %w", err)
	}
	return &Store[K, V]{client: client, prefix: cacheID + ":"}, nil
}

// ValidateKey reports whether key, stringified, fits within Valkey's
// practical key-length limits.
func (s *Store[K, V]) ValidateKey(key K) error {
	k := s.redisKey(key)
	if k == s.prefix {
		return errors.New("store/valkey: key cannot be empty")
	}
	if len(k) > maxKeyLength {
		return fmt.Errorf("store/valkey: key too long: %d bytes (max %d)", len(k), maxKeyLength)
	}
	return nil
}

func (s *Store[K, V]) redisKey(key K) string {
	return s.prefix + fmt.Sprintf("%v", key)
}

// Get fetches and JSON-decodes the value for k.
func (s *Store[K, V]) Get(k K) (V, error) {
	var zero V
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	resp := s.client.Do(ctx, s.client.B().Get().Key(s.redisKey(k)).Build())
	b, err := resp.AsBytes()
	if valkey.IsValkeyNil(err) {
		return zero, spillkv.ErrNotFound
	}
	if err != nil {
		return zero, spillkv.NewBackingStoreError(k, fmt.Errorf("get: %w", err))
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, spillkv.NewBackingStoreError(k, fmt.Errorf("decode value: %w", err))
	}
	return v, nil
}

// Put JSON-encodes v and writes it under k.
func (s *Store[K, V]) Put(k K, v V) error {
	b, err := json.Marshal(v)
	if err != nil {
		return spillkv.NewBackingStoreError(k, fmt.Errorf("encode value: %w", err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.redisKey(k)).Value(string(b)).Build()).Error(); err != nil {
		return spillkv.NewBackingStoreError(k, fmt.Errorf("set: %w", err))
	}
	return nil
}

// Delete removes k. Returns ErrNotFound if it was not present.
func (s *Store[K, V]) Delete(k K) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	n, err := s.client.Do(ctx, s.client.B().Del().Key(s.redisKey(k)).Build()).ToInt64()
	if err != nil {
		return spillkv.NewBackingStoreError(k, fmt.Errorf("del: %w", err))
	}
	if n == 0 {
		return spillkv.ErrNotFound
	}
	return nil
}

// Contains reports whether k exists.
func (s *Store[K, V]) Contains(k K) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(s.redisKey(k)).Build()).ToInt64()
	return err == nil && n > 0
}

// Len is unsupported for a Valkey-backed store: counting keys under a
// prefix requires a SCAN sweep, which this leaf does not perform
// eagerly. It always returns 0; callers needing an accurate count should
// track it themselves (e.g. via the composing Buffer's own _keys set,
// which already tracks this store's membership).
func (s *Store[K, V]) Len() int { return 0 }

// Keys is unsupported for the same reason Len is: returns an empty
// iterator rather than issuing a SCAN per call.
func (s *Store[K, V]) Keys() iter.Seq[K] {
	return func(func(K) bool) {}
}

// Close releases the underlying connection pool.
func (s *Store[K, V]) Close() error {
	s.client.Close()
	return nil
}
