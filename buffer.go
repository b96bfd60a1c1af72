package spillkv

import (
	"errors"
	"iter"
	"sync/atomic"

	"github.com/codeGROOVE-dev/spillkv/internal/relock"
)

// Buffer is a two-tier spill engine: a fast mapping bounded by an internal
// LRU, and a slow mapping the LRU demotes into when fast exceeds its weight
// cap. Reads of a key currently only in slow promote it back into fast.
//
// Grounded on spec.md §4.2; method names fastToSlow/slowToFast follow
// zict's buffer.py. A key is never observably absent from both tiers during
// a transfer: the demotion protocol writes slow before removing from fast,
// and the restore protocol writes fast before (optionally) removing from
// slow.
type Buffer[K comparable, V any] struct {
	mu   relock.Mutex
	fast Mapping[K, V]
	slow Mapping[K, V]
	n    float64

	weight              WeightFunc[K, V]
	fastToSlowCallbacks []EvictCallback[K, V]
	slowToFastCallbacks []EvictCallback[K, V]
	keepSlow            bool

	lru    *LRU[K, V]
	keys   *InsertionOrderedSet[K]
	cancel map[K]*bool

	closed atomic.Bool
}

// BufferOption configures a Buffer at construction time.
type BufferOption[K comparable, V any] func(*Buffer[K, V])

// WithBufferWeight sets the per-entry weight function shared by the
// internal LRU. The default assigns every entry a constant weight of 1.
func WithBufferWeight[K comparable, V any](fn WeightFunc[K, V]) BufferOption[K, V] {
	return func(b *Buffer[K, V]) { b.weight = fn }
}

// WithFastToSlow appends a callback run, in order, after a key's value has
// been durably written to slow during demotion but before it is removed
// from fast.
func WithFastToSlow[K comparable, V any](cb EvictCallback[K, V]) BufferOption[K, V] {
	return func(b *Buffer[K, V]) { b.fastToSlowCallbacks = append(b.fastToSlowCallbacks, cb) }
}

// WithSlowToFast appends a callback run, in order, after a key has been
// promoted back into fast during a restore.
func WithSlowToFast[K comparable, V any](cb EvictCallback[K, V]) BufferOption[K, V] {
	return func(b *Buffer[K, V]) { b.slowToFastCallbacks = append(b.slowToFastCallbacks, cb) }
}

// WithKeepSlow, if set, keeps a demoted key's value in slow even after it
// is restored to fast, so a key may live in both tiers simultaneously.
// Without it, fast and slow are disjoint.
func WithKeepSlow[K comparable, V any](keep bool) BufferOption[K, V] {
	return func(b *Buffer[K, V]) { b.keepSlow = keep }
}

// NewBuffer constructs a Buffer over the given fast and slow mappings, which
// may be pre-populated and may overlap. n bounds the total weight fast is
// allowed to hold before the internal LRU demotes entries to slow.
func NewBuffer[K comparable, V any](n float64, fast, slow Mapping[K, V], opts ...BufferOption[K, V]) *Buffer[K, V] {
	b := &Buffer[K, V]{
		fast:   fast,
		slow:   slow,
		n:      n,
		weight: func(K, V) float64 { return 1 },
		keys:   NewInsertionOrderedSet[K](),
		cancel: make(map[K]*bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lru = New[K, V](n, fast,
		WithWeight[K, V](b.weight),
		WithOnEvict[K, V](b.fastToSlow),
		WithOnCancelEvict[K, V](b.cancelEvictCallback),
	)
	for k := range fast.Keys() {
		b.keys.Add(k)
	}
	for k := range slow.Keys() {
		b.keys.Add(k)
	}
	return b
}

// Get returns the value for k. If k is in fast, the read touches recency
// and returns directly. Otherwise it runs the restore protocol, promoting
// k from slow into fast; a value whose weight exceeds n is returned but left
// in slow.
func (b *Buffer[K, V]) Get(k K) (V, error) {
	if !b.keys.Contains(k) {
		var zero V
		return zero, ErrNotFound
	}
	if b.fast.Contains(k) {
		return b.lru.Get(k)
	}
	return b.restore(k)
}

// restore runs the slow-to-fast promotion protocol for k, releasing the
// Buffer lock around the slow read and around the post-promotion eviction
// and callback pass.
func (b *Buffer[K, V]) restore(k K) (V, error) {
	b.mu.Lock()
	flag := new(bool)
	b.cancel[k] = flag
	b.mu.Unlock()

	v, err := b.slow.Get(k)
	if err != nil {
		b.mu.Lock()
		if b.cancel[k] == flag {
			delete(b.cancel, k)
		}
		b.mu.Unlock()
		var zero V
		return zero, err
	}

	b.mu.Lock()
	if *flag {
		delete(b.cancel, k)
		b.mu.Unlock()
		var zero V
		return zero, ErrNotFound
	}

	w := b.weight(k, v)
	if w <= b.n {
		if err := b.lru.SetNoEvict(k, v); err != nil {
			delete(b.cancel, k)
			b.mu.Unlock()
			var zero V
			return zero, err
		}
		if !b.keepSlow {
			if err := ignoreNotFound(b.slow.Delete(k)); err != nil {
				delete(b.cancel, k)
				b.mu.Unlock()
				var zero V
				return zero, err
			}
		}
	}
	delete(b.cancel, k)
	b.mu.Unlock()

	if w <= b.n {
		if err := b.lru.EvictUntilBelowTarget(b.n); err != nil {
			return v, err
		}
	}
	for _, cb := range b.slowToFastCallbacks {
		if err := cb(k, v); err != nil {
			return v, NewCallbackError(k, err)
		}
	}
	return v, nil
}

// SetNoEvict commits k to fast without triggering eviction. Any stale copy
// in slow is removed first; if a restore or demotion is in flight for k, it
// is cancelled.
func (b *Buffer[K, V]) SetNoEvict(k K, v V) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ignoreNotFound(b.slow.Delete(k)); err != nil {
		return err
	}
	if flag, ok := b.cancel[k]; ok {
		*flag = true
	}
	if err := b.lru.SetNoEvict(k, v); err != nil {
		return err
	}
	b.keys.Add(k)
	return nil
}

// Put is SetNoEvict followed by an eviction pass that may demote other
// entries to slow. If the eviction pass fails, the error propagates but k's
// own write is already committed.
func (b *Buffer[K, V]) Put(k K, v V) error {
	if err := b.SetNoEvict(k, v); err != nil {
		return err
	}
	return b.lru.EvictUntilBelowTarget(b.n)
}

// Delete removes k from both tiers. Returns ErrNotFound if k is absent.
func (b *Buffer[K, V]) Delete(k K) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.keys.Contains(k) {
		return ErrNotFound
	}
	if flag, ok := b.cancel[k]; ok {
		*flag = true
	}
	b.keys.Discard(k)
	fastErr := ignoreNotFound(b.lru.Delete(k))
	slowErr := ignoreNotFound(b.slow.Delete(k))
	if fastErr != nil {
		return fastErr
	}
	return slowErr
}

// Contains reports whether k is present in either tier.
func (b *Buffer[K, V]) Contains(k K) bool { return b.keys.Contains(k) }

// Len reports the number of distinct keys across both tiers.
func (b *Buffer[K, V]) Len() int { return b.keys.Len() }

// Keys iterates keys in _keys insertion order.
func (b *Buffer[K, V]) Keys() iter.Seq[K] { return b.keys.Snapshot() }

// EvictUntilBelowTarget passes through to the internal LRU over fast.
func (b *Buffer[K, V]) EvictUntilBelowTarget(t float64) error {
	return b.lru.EvictUntilBelowTarget(t)
}

// Flush delegates to both tiers.
func (b *Buffer[K, V]) Flush() error {
	return Flush[K, V](b.fast, b.slow)
}

// Close delegates to both tiers and terminates any in-flight eviction loop.
func (b *Buffer[K, V]) Close() error {
	b.closed.Store(true)
	lruErr := b.lru.Close()
	tierErr := Close[K, V](b.fast, b.slow)
	return errors.Join(lruErr, tierErr)
}

// fastToSlow is the internal LRU's on_evict callback: the demotion
// protocol. It writes slow[k] = v under the Buffer lock, releases the lock
// to run user callbacks, and rolls back the slow write if any callback
// fails — the LRU's own exception-safe eviction then leaves k in fast.
//
// If a concurrent SetNoEvict/Put overwrites k while the demotion is in
// flight, the cancel flag is set and this returns ErrEvictCancelled after
// discarding the slow residue — a non-nil return here is exactly what tells
// the LRU's eviction protocol to abort the removal of k from fast, the same
// as any other on_evict failure. Returning nil here would tell the LRU the
// demotion succeeded, and it would then delete k from fast — destroying the
// concurrent writer's value with k left in neither tier.
func (b *Buffer[K, V]) fastToSlow(k K, v V) error {
	b.mu.Lock()
	if b.keepSlow && b.slow.Contains(k) {
		b.mu.Unlock()
		return nil
	}
	flag := new(bool)
	b.cancel[k] = flag
	if err := b.slow.Put(k, v); err != nil {
		delete(b.cancel, k)
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()

	for _, cb := range b.fastToSlowCallbacks {
		if err := cb(k, v); err != nil {
			b.mu.Lock()
			_ = ignoreNotFound(b.slow.Delete(k))
			delete(b.cancel, k)
			b.mu.Unlock()
			return NewCallbackError(k, err)
		}
	}

	b.mu.Lock()
	cancelled := *flag
	delete(b.cancel, k)
	b.mu.Unlock()
	if cancelled {
		if err := b.lru.CancelEvict(k, v); err != nil {
			return err
		}
		return ErrEvictCancelled
	}
	return nil
}

// cancelEvictCallback is registered as the internal LRU's on_cancel_evict
// hook: it discards k's residue from slow when a demotion is aborted
// because a concurrent writer overwrote k while the slow write was in
// flight.
func (b *Buffer[K, V]) cancelEvictCallback(k K, _ V) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ignoreNotFound(b.slow.Delete(k))
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
