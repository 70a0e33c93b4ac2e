package txn

import (
	"sync"

	"go.uber.org/atomic"
)

// fallbackLock serialises fallbacks. Attempts read held inside the region,
// which puts the word in their read set: taking the lock aborts every attempt
// in flight, and an attempt that starts while it is held gives up at once.
type fallbackLock struct {
	_    [cacheLinePadSize]byte
	held atomic.Bool
	_    [cacheLinePadSize]byte
	mu   sync.Mutex
}

func (l *fallbackLock) Lock() {
	l.mu.Lock()
	l.held.Store(true)
}

func (l *fallbackLock) Unlock() {
	l.held.Store(false)
	l.mu.Unlock()
}

func (l *fallbackLock) busy() bool {
	return l.held.Load()
}
