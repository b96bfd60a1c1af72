package spillkv

import (
	"iter"
	"sync/atomic"

	"github.com/codeGROOVE-dev/spillkv/internal/relock"
)

// WeightFunc computes the non-negative weight of a key/value pair at
// insertion time. It must be pure and deterministic; weight is stored at
// insertion and never recomputed on read.
type WeightFunc[K comparable, V any] func(k K, v V) float64

// EvictCallback is invoked with the (key, value) of an entry about to be
// removed by eviction, or, for OnCancelEvict, one whose fast-to-slow
// publication must be undone.
type EvictCallback[K comparable, V any] func(k K, v V) error

// LRU is a weighted, recency-ordered bound over a wrapped Mapping. It
// enforces a soft weight cap n, evicting the oldest key — preferring heavy
// keys (individual weight over n) — whenever total weight exceeds the cap.
//
// Grounded on spec.md §4.1; the recency list and heavy set use
// InsertionOrderedSet rather than a heap, following the insertion-ordered-set
// era of the design.
type LRU[K comparable, V any] struct {
	mu     relock.Mutex
	d      Mapping[K, V]
	n      float64
	weight WeightFunc[K, V]
	offset func() float64

	onEvict       []EvictCallback[K, V]
	onCancelEvict []EvictCallback[K, V]

	order   *InsertionOrderedSet[K]
	heavy   *InsertionOrderedSet[K]
	weights map[K]float64
	total   Accumulator

	closed atomic.Bool
}

// Option configures an LRU at construction time.
type Option[K comparable, V any] func(*LRU[K, V])

// WithWeight sets the per-entry weight function. The default assigns every
// entry a constant weight of 1.
func WithWeight[K comparable, V any](fn WeightFunc[K, V]) Option[K, V] {
	return func(l *LRU[K, V]) { l.weight = fn }
}

// WithOnEvict appends a callback run, in order, before an entry is evicted.
func WithOnEvict[K comparable, V any](cb EvictCallback[K, V]) Option[K, V] {
	return func(l *LRU[K, V]) { l.onEvict = append(l.onEvict, cb) }
}

// WithOnCancelEvict appends a callback run when an in-flight eviction of a
// key must be undone because a concurrent writer intervened. Consulted by a
// composing Buffer; the plain LRU never triggers it itself.
func WithOnCancelEvict[K comparable, V any](cb EvictCallback[K, V]) Option[K, V] {
	return func(l *LRU[K, V]) { l.onCancelEvict = append(l.onCancelEvict, cb) }
}

// WithOffset sets a function returning an additional weight, reported by the
// caller, added to total weight when checking against n. Useful when the
// LRU fronts an external memory accountant; raising what Offset returns
// triggers eviction without changing what counts as "heavy".
func WithOffset[K comparable, V any](fn func() float64) Option[K, V] {
	return func(l *LRU[K, V]) { l.offset = fn }
}

// New constructs an LRU wrapping d with weight cap n. If d is pre-populated,
// initial recency order follows d's iteration order, weights are computed
// for every existing entry, and the heavy set is populated; no eviction runs
// at construction even if the initial total weight exceeds n.
func New[K comparable, V any](n float64, d Mapping[K, V], opts ...Option[K, V]) *LRU[K, V] {
	l := &LRU[K, V]{
		d:       d,
		n:       n,
		weight:  func(K, V) float64 { return 1 },
		order:   NewInsertionOrderedSet[K](),
		heavy:   NewInsertionOrderedSet[K](),
		weights: make(map[K]float64),
	}
	for _, opt := range opts {
		opt(l)
	}
	for k := range d.Keys() {
		v, err := d.Get(k)
		if err != nil {
			continue
		}
		w := l.weight(k, v)
		l.order.Add(k)
		l.weights[k] = w
		l.total.Add(w)
		if w > l.n {
			l.heavy.Add(k)
		}
	}
	return l
}

// TotalWeight returns the current sum of stored entry weights (excluding
// Offset).
func (l *LRU[K, V]) TotalWeight() float64 { return l.total.Value() }

// Closed reports whether Close has been called.
func (l *LRU[K, V]) Closed() bool { return l.closed.Load() }

// Get returns the value for k and moves k to the most-recent end of the
// recency order. It does not trigger eviction.
func (l *LRU[K, V]) Get(k K) (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, err := l.d.Get(k)
	if err != nil {
		var zero V
		return zero, err
	}
	// discard+add rather than remove+add, so a concurrent eviction racing
	// on the same key cannot turn this into a spurious failure.
	l.order.Discard(k)
	l.order.Add(k)
	return v, nil
}

// SetNoEvict inserts k at the most-recent end with weight weight(k, v),
// replacing any existing entry for k first. It never evicts, regardless of
// the resulting total weight.
func (l *LRU[K, V]) SetNoEvict(k K, v V) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setNoEvictLocked(k, v)
}

func (l *LRU[K, V]) setNoEvictLocked(k K, v V) error {
	if oldW, ok := l.weights[k]; ok {
		l.order.Discard(k)
		l.heavy.Discard(k)
		l.total.Add(-oldW)
		delete(l.weights, k)
	}
	w := l.weight(k, v)
	if err := l.d.Put(k, v); err != nil {
		return err
	}
	l.order.Add(k)
	l.weights[k] = w
	l.total.Add(w)
	if w > l.n {
		l.heavy.Add(k)
	}
	return nil
}

// Put is SetNoEvict followed by EvictUntilBelowTarget(n). If the eviction
// sequence fails, the error propagates; k itself remains committed (the
// caller's write is considered committed, regardless of what happens to
// other keys during the subsequent eviction pass). If the failing eviction
// concerned k itself (a heavy key that could not be evicted because its own
// on_evict callback failed), k is moved to the oldest end of the recency
// order. k stays in the heavy set, which victim selection consults before the
// recency order, so k is still the next victim while it remains heavy.
func (l *LRU[K, V]) Put(k K, v V) error {
	if err := l.SetNoEvict(k, v); err != nil {
		return err
	}
	err := l.EvictUntilBelowTarget(l.n)
	if err == nil {
		return nil
	}
	if failedKey, ok := errKey[K](err); ok && failedKey == k {
		l.mu.Lock()
		if w, ok := l.weights[k]; ok && w > l.n {
			l.order.AddFront(k)
		}
		l.mu.Unlock()
	}
	return err
}

// Delete removes k, its weight, its recency position, and its heavy-set
// membership. Returns ErrNotFound if k is absent.
func (l *LRU[K, V]) Delete(k K) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.weights[k]
	if !ok {
		return ErrNotFound
	}
	if err := l.d.Delete(k); err != nil {
		return err
	}
	l.order.Discard(k)
	l.heavy.Discard(k)
	l.total.Add(-w)
	delete(l.weights, k)
	return nil
}

// Contains reports whether k is present.
func (l *LRU[K, V]) Contains(k K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.weights[k]
	return ok
}

// Len reports the number of entries.
func (l *LRU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.weights)
}

// Keys iterates keys in recency order, oldest first.
func (l *LRU[K, V]) Keys() iter.Seq[K] {
	return l.order.Snapshot()
}

// Evict selects the next eviction victim — the oldest heavy key if the
// heavy set is non-empty, else the oldest key overall — runs every on_evict
// callback in order, and on full success removes it. Returns ErrEmpty if
// the store has no keys.
func (l *LRU[K, V]) Evict() (K, V, float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.selectVictimLocked()
	if !ok {
		var zero K
		var zerov V
		return zero, zerov, 0, ErrEmpty
	}
	return l.evictKeyLocked(k)
}

// EvictKey evicts the specific key k rather than an automatically selected
// victim, following the same callback protocol.
func (l *LRU[K, V]) EvictKey(k K) (V, float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.weights[k]; !ok {
		var zerov V
		return zerov, 0, ErrNotFound
	}
	_, v, w, err := l.evictKeyLocked(k)
	return v, w, err
}

// EvictUntilBelowTarget repeatedly evicts while total weight (plus Offset,
// if set) exceeds t, the store is non-empty, and the LRU is not closed.
func (l *LRU[K, V]) EvictUntilBelowTarget(t float64) error {
	for {
		l.mu.Lock()
		if l.closed.Load() {
			l.mu.Unlock()
			return nil
		}
		total := l.total.Value()
		if l.offset != nil {
			total += l.offset()
		}
		if total <= t || len(l.weights) == 0 {
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if _, _, _, err := l.Evict(); err != nil {
			return err
		}
	}
}

func (l *LRU[K, V]) selectVictimLocked() (K, bool) {
	if k, err := l.heavy.PeekFront(); err == nil {
		return k, true
	}
	if k, err := l.order.PeekFront(); err == nil {
		return k, true
	}
	var zero K
	return zero, false
}

// evictKeyLocked runs the exception-safe eviction protocol for k. Must be
// called with l.mu held by the current goroutine. Nothing is mutated until
// every callback has succeeded, so a callback failure leaves k fully in
// place with no rollback required.
func (l *LRU[K, V]) evictKeyLocked(k K) (K, V, float64, error) {
	v, err := l.d.Get(k)
	if err != nil {
		var zerov V
		return k, zerov, 0, err
	}
	w := l.weights[k]

	var cbErr error
	l.mu.Unlocked(func() {
		for _, cb := range l.onEvict {
			if err := cb(k, v); err != nil {
				cbErr = NewCallbackError(k, err)
				return
			}
		}
	})
	if cbErr != nil {
		return k, v, w, cbErr
	}

	if err := l.d.Delete(k); err != nil {
		return k, v, w, err
	}
	l.order.Discard(k)
	l.heavy.Discard(k)
	l.total.Add(-w)
	delete(l.weights, k)
	return k, v, w, nil
}

// CancelEvict runs the on_cancel_evict callbacks for (k, v) directly,
// without touching d, recency, or weights. A composing Buffer calls this to
// undo the effects of a callback that ran before a demotion's victim was
// removed, when a concurrent writer invalidated the transfer mid-flight.
func (l *LRU[K, V]) CancelEvict(k K, v V) error {
	for _, cb := range l.onCancelEvict {
		if err := cb(k, v); err != nil {
			return NewCallbackError(k, err)
		}
	}
	return nil
}

// Flush delegates to the wrapped Mapping if it supports flushing.
func (l *LRU[K, V]) Flush() error { return TryFlush(l.d) }

// Close delegates to the wrapped Mapping if it supports closing, and sets a
// flag that terminates any in-flight EvictUntilBelowTarget between
// evictions (never mid-callback).
func (l *LRU[K, V]) Close() error {
	l.closed.Store(true)
	return TryClose(l.d)
}

// errKey extracts the Key field from a BackingStoreError or CallbackError,
// for Put's heavy-key repositioning logic.
func errKey[K comparable](err error) (K, bool) {
	var zero K
	switch e := err.(type) {
	case *BackingStoreError:
		if k, ok := e.Key.(K); ok {
			return k, true
		}
	case *CallbackError:
		if k, ok := e.Key.(K); ok {
			return k, true
		}
	}
	return zero, false
}
