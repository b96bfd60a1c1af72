// Package relock implements a goroutine-aware reentrant mutex.
//
// Go's sync.Mutex is intentionally non-reentrant, but LRU and Buffer both
// need a lock that the owning goroutine can re-acquire when a user callback
// invoked mid-operation calls back into the same object. This mirrors what
// Python's threading.RLock gives zict's locked/unlock() decorator pair.
package relock

import (
	"runtime"
	"strconv"
	"sync"
)

// Mutex is a reentrant mutual-exclusion lock scoped to a single goroutine at
// a time. The zero value is ready to use.
type Mutex struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64 // goroutine id currently holding the lock, 0 if unheld
	count int   // recursion depth
}

// Lock acquires the mutex. If the calling goroutine already holds it, Lock
// increments the recursion count and returns immediately.
func (m *Mutex) Lock() {
	id := goroutineID()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cond == nil {
		m.cond = sync.NewCond(&m.mu)
	}
	if m.owner == id {
		m.count++
		return
	}
	for m.owner != 0 {
		m.cond.Wait()
	}
	m.owner = id
	m.count = 1
}

// Unlock releases one level of recursion. Once the count reaches zero the
// lock is released and a waiting goroutine, if any, is woken.
//
// Unlock panics if called by a goroutine that does not hold the lock, the
// same contract sync.Mutex.Unlock offers for an already-unlocked mutex.
func (m *Mutex) Unlock() {
	id := goroutineID()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != id {
		panic("relock: Unlock called by goroutine that does not hold the lock")
	}
	m.count--
	if m.count == 0 {
		m.owner = 0
		m.cond.Signal()
	}
}

// Unlocked runs fn with the mutex fully released — all recursion levels
// held by the calling goroutine — then reacquires them before returning.
// This is the scoping primitive LRU and Buffer use around slow-leaf I/O and
// user callback invocations: the lock is released regardless of how deep
// the current goroutine's recursion is, so an unrelated goroutine can make
// progress, and is fully restored to its prior depth afterward so the
// caller's own Unlock calls remain balanced.
func (m *Mutex) Unlocked(fn func()) {
	id := goroutineID()
	m.mu.Lock()
	if m.owner != id {
		m.mu.Unlock()
		panic("relock: Unlocked called by goroutine that does not hold the lock")
	}
	saved := m.count
	m.owner = 0
	m.count = 0
	m.cond.Signal()
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		for m.owner != 0 {
			m.cond.Wait()
		}
		m.owner = id
		m.count = saved
		m.mu.Unlock()
	}()

	fn()
}

// goroutineID extracts the calling goroutine's id from runtime.Stack. It is
// used only to distinguish "this goroutine already holds the lock" from
// "some other goroutine holds it" — never exposed, never compared across
// processes.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack trace starts with "goroutine 123 [running]:".
	s := string(buf[:n])
	const prefix = "goroutine "
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return 0
	}
	s = s[len(prefix):]
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
