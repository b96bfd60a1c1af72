package spillkv

import "iter"

// Cache is a transparent write-through cache around a slow Mapping with an
// expensive Get, backed by a faster front mapping (typically an LRU) that
// may lose keys on its own.
//
// Grounded on zict/cache.py, including its invalidate-before-write ordering
// on Put: the front cache entry is evicted before the slow write is
// attempted, so a failed write never leaves a stale cached value behind.
type Cache[K comparable, V any] struct {
	data        Mapping[K, V]
	front       Mapping[K, V]
	updateOnSet bool
}

// NewCache constructs a Cache wrapping data (the slow, authoritative store)
// fronted by front (the fast cache, which may evict entries on its own). If
// updateOnSet is true, writes populate the cache as well as data; if false,
// writes only invalidate the cache, leaving the next read to repopulate it.
func NewCache[K comparable, V any](data, front Mapping[K, V], updateOnSet bool) *Cache[K, V] {
	return &Cache[K, V]{data: data, front: front, updateOnSet: updateOnSet}
}

// Get returns the cached value if present; otherwise it reads from data and
// populates the cache.
func (c *Cache[K, V]) Get(k K) (V, error) {
	if v, err := c.front.Get(k); err == nil {
		return v, nil
	}
	v, err := c.data.Get(k)
	if err != nil {
		var zero V
		return zero, err
	}
	_ = c.front.Put(k, v)
	return v, nil
}

// Put invalidates any cached value for k before writing data, so that a
// failed write to data never leaves a stale cached value behind; on success
// it repopulates the cache if updateOnSet is set.
func (c *Cache[K, V]) Put(k K, v V) error {
	_ = ignoreNotFound(c.front.Delete(k))
	if err := c.data.Put(k, v); err != nil {
		return err
	}
	if c.updateOnSet {
		_ = c.front.Put(k, v)
	}
	return nil
}

// Delete removes k from both the cache and data.
func (c *Cache[K, V]) Delete(k K) error {
	_ = ignoreNotFound(c.front.Delete(k))
	return c.data.Delete(k)
}

// Contains reports membership in data only, not the cache, matching
// zict/cache.py's "do not let the cache answer Contains".
func (c *Cache[K, V]) Contains(k K) bool { return c.data.Contains(k) }

// Len reports the number of entries in data.
func (c *Cache[K, V]) Len() int { return c.data.Len() }

// Keys iterates data's keys directly, avoiding building a key set from the
// cache's (possibly partial) view.
func (c *Cache[K, V]) Keys() iter.Seq[K] { return c.data.Keys() }

// Flush delegates to both the cache and data.
func (c *Cache[K, V]) Flush() error { return Flush[K, V](c.front, c.data) }

// Close delegates to both the cache and data.
func (c *Cache[K, V]) Close() error { return Close[K, V](c.front, c.data) }
