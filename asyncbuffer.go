package spillkv

import (
	"context"
	"log/slog"
)

// AsyncBuffer wraps a Buffer with a single background worker that offloads
// slow-tier I/O, so a caller choosing to fire-and-forget a demotion pass
// does not block on disk or network latency.
//
// Grounded on zict/async_buffer.py's single-worker ThreadPoolExecutor,
// translated to one persistent goroutine fed by a channel; error reporting
// for the fire-and-forget path follows persistent.go's SetAsync
// (slog.Error with the key and underlying error, no panic, no retry).
type AsyncBuffer[K comparable, V any] struct {
	*Buffer[K, V]

	work   chan func()
	done   chan struct{}
	logger *slog.Logger
}

// NewAsyncBuffer wraps buf with a single background offload worker. logger
// receives best-effort failure reports; if nil, slog.Default() is used.
func NewAsyncBuffer[K comparable, V any](buf *Buffer[K, V], logger *slog.Logger) *AsyncBuffer[K, V] {
	if logger == nil {
		logger = slog.Default()
	}
	ab := &AsyncBuffer[K, V]{
		Buffer: buf,
		work:   make(chan func(), 64),
		done:   make(chan struct{}),
		logger: logger,
	}
	go ab.loop()
	return ab
}

func (ab *AsyncBuffer[K, V]) loop() {
	for fn := range ab.work {
		fn()
	}
	close(ab.done)
}

// AsyncPut offloads Put(k, v) to the background worker and returns
// immediately. Failures are logged, not returned, matching the
// fire-and-forget contract of persistent.go's SetAsync.
func (ab *AsyncBuffer[K, V]) AsyncPut(k K, v V) {
	ab.work <- func() {
		if err := ab.Buffer.Put(k, v); err != nil {
			ab.logger.Error("async buffer put failed", "key", k, "error", err)
		}
	}
}

// AsyncEvictUntilBelowTarget offloads an eviction pass to the background
// worker, so a caller that just wants to nudge the Buffer toward its weight
// cap does not wait on the (possibly slow) demotions it triggers.
func (ab *AsyncBuffer[K, V]) AsyncEvictUntilBelowTarget(t float64) {
	ab.work <- func() {
		if err := ab.Buffer.EvictUntilBelowTarget(t); err != nil {
			ab.logger.Error("async eviction pass failed", "target", t, "error", err)
		}
	}
}

// AsyncGet offloads a Get(k) to the background worker and delivers the
// result on the returned channel exactly once. If ctx is cancelled before
// the worker picks up the request, the request is still queued but its
// result, if any, is discarded by the caller.
func (ab *AsyncBuffer[K, V]) AsyncGet(ctx context.Context, k K) <-chan AsyncResult[V] {
	resultCh := make(chan AsyncResult[V], 1)
	ab.work <- func() {
		v, err := ab.Buffer.Get(k)
		select {
		case resultCh <- AsyncResult[V]{Value: v, Err: err}:
		case <-ctx.Done():
		}
	}
	return resultCh
}

// AsyncResult carries the outcome of an AsyncGet.
type AsyncResult[V any] struct {
	Value V
	Err   error
}

// Close stops accepting new offloaded work, waits for the worker to drain
// its queue, then closes the underlying Buffer.
func (ab *AsyncBuffer[K, V]) Close() error {
	close(ab.work)
	<-ab.done
	return ab.Buffer.Close()
}
