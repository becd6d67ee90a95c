package indexer

import "sync/atomic"

// RunLock provides non-blocking lock semantics so index_al_directory can
// reject a concurrent run against the same root instead of racing it.
type RunLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking, returning true
// if it succeeded.
func (l *RunLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called by whoever successfully
// called TryAcquire.
func (l *RunLock) Release() {
	l.state.Store(0)
}
