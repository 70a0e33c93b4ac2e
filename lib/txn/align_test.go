package txn

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestPadded(t *testing.T) {
	var p Padded[uint64]
	require.Equal(t, uintptr(cacheLinePadSize), unsafe.Offsetof(p.Value))
	require.Equal(t, uintptr(2*cacheLinePadSize+8), unsafe.Sizeof(p))

	var pair [2]Padded[uint64]
	gap := uintptr(unsafe.Pointer(&pair[1].Value)) - uintptr(unsafe.Pointer(&pair[0].Value))
	require.GreaterOrEqual(t, gap, uintptr(2*CacheLineSize))
}

func TestLineHelpers(t *testing.T) {
	require.True(t, IsLineAligned(128))
	require.False(t, IsLineAligned(130))

	require.Equal(t, 0, LinesSpanned(64, 0))
	require.Equal(t, 1, LinesSpanned(64, 64))
	require.Equal(t, 2, LinesSpanned(60, 8))
	require.Equal(t, 3, LinesSpanned(63, 66))

	var p Padded[uint64]
	addr := uintptr(unsafe.Pointer(&p.Value))
	require.Equal(t, 1, LinesSpanned(addr, unsafe.Sizeof(p.Value)))
}
