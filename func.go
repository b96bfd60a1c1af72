package spillkv

import "iter"

// Func wraps a Mapping, transforming values on the way in (dump) and out
// (load) — the vehicle for wiring value codecs such as compression into a
// Mapping stack (see the transform package).
//
// Grounded on zict/func.py.
type Func[K comparable, V any, W any] struct {
	dump func(V) (W, error)
	load func(W) (V, error)
	d    Mapping[K, W]
}

// NewFunc constructs a Func applying dump on write and load on read around
// d.
func NewFunc[K comparable, V any, W any](dump func(V) (W, error), load func(W) (V, error), d Mapping[K, W]) *Func[K, V, W] {
	return &Func[K, V, W]{dump: dump, load: load, d: d}
}

// Get reads the transformed value from d and applies load.
func (f *Func[K, V, W]) Get(k K) (V, error) {
	w, err := f.d.Get(k)
	if err != nil {
		var zero V
		return zero, err
	}
	return f.load(w)
}

// Put applies dump and writes the transformed value to d.
func (f *Func[K, V, W]) Put(k K, v V) error {
	w, err := f.dump(v)
	if err != nil {
		return err
	}
	return f.d.Put(k, w)
}

// Delete removes k from d.
func (f *Func[K, V, W]) Delete(k K) error { return f.d.Delete(k) }

// Contains reports whether k is present in d.
func (f *Func[K, V, W]) Contains(k K) bool { return f.d.Contains(k) }

// Len reports the number of entries in d.
func (f *Func[K, V, W]) Len() int { return f.d.Len() }

// Keys iterates d's keys.
func (f *Func[K, V, W]) Keys() iter.Seq[K] { return f.d.Keys() }

// Flush delegates to d if it supports flushing.
func (f *Func[K, V, W]) Flush() error { return TryFlush(f.d) }

// Close delegates to d if it supports closing.
func (f *Func[K, V, W]) Close() error { return TryClose(f.d) }
