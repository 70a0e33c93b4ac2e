package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBounded(t *testing.T) {
	require.Equal(t, int32(4), bounded(3, 1))
	require.Equal(t, weightUpperBound, bounded(14, 5))
	require.Equal(t, weightLowerBound, bounded(-15, -2))
}

func TestPredictorFallsBackAndRecovers(t *testing.T) {
	p := NewPredictor()
	const site, owner = uintptr(0x1000), uintptr(0x88)
	require.NotEqual(t, getPerceptronIndex(site), getComposedIndex(site, owner))

	require.True(t, p.UseHTM(site, owner))
	p.Exhausted(site, owner)
	require.False(t, p.UseHTM(site, owner))

	// Commits pull the weights back up.
	p.Committed(site, owner)
	require.True(t, p.UseHTM(site, owner))

	// Drive the site to the slow path and keep it there until the
	// repeat threshold forces another hardware try.
	for i := 0; i < 10; i++ {
		p.Exhausted(site, owner)
	}
	entry := &p.weight[getPerceptronIndex(site)]
	entry.sleep.Store(slowpathRepeatThreshold)
	require.False(t, p.UseHTM(site, owner))
	require.True(t, p.UseHTM(site, owner))
	require.Zero(t, entry.sleep.Load())
}
