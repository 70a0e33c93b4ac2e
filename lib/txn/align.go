package txn

// CacheLineSize is the granularity at which the hardware tracks conflicts.
// Two unrelated values on one line conflict with each other (false sharing),
// so data written inside transactions by different threads should sit on
// separate lines. The executor cannot check this; it is up to the caller.
const CacheLineSize = 64

// Adjacent-line prefetch pulls lines in pairs, so pads are two lines wide.
const cacheLinePadSize = 2 * CacheLineSize

// Padded keeps Value off every cache line used by its neighbours.
type Padded[T any] struct {
	_     [cacheLinePadSize]byte // Prevents false sharing.
	Value T
	_     [cacheLinePadSize]byte // Prevents false sharing.
}

// IsLineAligned reports whether addr starts a cache line. Pass
// uintptr(unsafe.Pointer(&x)).
func IsLineAligned(addr uintptr) bool {
	return addr%CacheLineSize == 0
}

// LinesSpanned returns how many cache lines the size bytes at addr touch.
func LinesSpanned(addr, size uintptr) int {
	if size == 0 {
		return 0
	}
	first := addr / CacheLineSize
	last := (addr + size - 1) / CacheLineSize
	return int(last-first) + 1
}
