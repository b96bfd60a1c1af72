// Package store collects the backing-store adapters used as leaves under a
// spillkv.LRU or spillkv.Buffer: memory (xsync-backed), file (gob-on-disk),
// valkey (Redis-compatible), and datastore (Google Cloud Datastore).
//
// This file documents the shape of further collaborators named by spillkv's
// external-collaborator vocabulary but not implemented here: no repo in the
// retrieved reference set imports a real LMDB, zip-archive, or shared-memory
// driver, so wiring one up here would mean fabricating a dependency rather
// than grounding one. A future leaf implementing any of these should satisfy
// spillkv.Mapping directly; the method names below show the natural mapping
// from each backend's native operations onto that interface.
package store

// LMDBShape documents how an LMDB-backed leaf would map onto
// spillkv.Mapping: Get/Put/Delete as single-key read/write/delete
// transactions, Keys as a cursor walk under a read transaction, Len via the
// environment's stat. Not implemented: no LMDB driver appears anywhere in
// the reference set.
type LMDBShape interface {
	Get(key []byte) (value []byte, err error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// ZipShape documents how a zip-archive leaf would map onto spillkv.Mapping:
// Get opens and reads a named archive member, Put is necessarily a
// rewrite-the-archive operation (zip has no in-place update), Keys walks the
// central directory. Not implemented: no example in the reference set reads
// or writes zip archives as a key/value backend.
type ZipShape interface {
	Get(name string) ([]byte, error)
	Put(name string, data []byte) error
	Delete(name string) error
}

// SharedMemoryShape documents how a POSIX shared-memory segment leaf would
// map onto spillkv.Mapping: Get/Put as offset-indexed reads/writes into a
// mapped region guarded by a named semaphore, suited to same-host
// cross-process sharing without a serialization round trip. Not
// implemented: nothing in the reference set uses shared memory as a
// storage backend.
type SharedMemoryShape interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Delete(key string) error
}
