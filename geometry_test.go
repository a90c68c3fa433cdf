package orthotree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxesOverlapStrictVsLoose(t *testing.T) {
	a0, a1 := []float64{0, 0}, []float64{4, 4}
	b0, b1 := []float64{4, 0}, []float64{8, 4}

	require.True(t, boxesOverlap(a0, a1, b0, b1, false))
	require.False(t, boxesOverlap(a0, a1, b0, b1, true))
}

func TestPointInBoxHalfOpen(t *testing.T) {
	min, max := []float64{0, 0}, []float64{4, 4}
	require.True(t, pointInBox([]float64{0, 0}, min, max, nil))
	require.False(t, pointInBox([]float64{4, 0}, min, max, nil))
	require.True(t, pointInBox([]float64{3.999, 0}, min, max, nil))
}

func TestPointInBoxDomainUpperFaceException(t *testing.T) {
	min, max := []float64{0, 0}, []float64{8, 8}
	domainHi := []float64{8, 8}
	require.True(t, pointInBox([]float64{8, 8}, min, max, domainHi))
	require.False(t, pointInBox([]float64{8, 8}, min, max, nil))
}

func TestRayBoxIntersect(t *testing.T) {
	min, max := []float64{2, 2}, []float64{4, 4}
	tHit, ok := rayBoxIntersect([]float64{0, 3}, []float64{1, 0}, min, max)
	require.True(t, ok)
	require.InDelta(t, 2.0, tHit, 1e-9)

	_, ok = rayBoxIntersect([]float64{0, 10}, []float64{1, 0}, min, max)
	require.False(t, ok)
}

func TestRayBoxIntersectOriginInsideBox(t *testing.T) {
	min, max := []float64{0, 0}, []float64{4, 4}
	tHit, ok := rayBoxIntersect([]float64{2, 2}, []float64{1, 0}, min, max)
	require.True(t, ok)
	require.Equal(t, 0.0, tHit)
}
