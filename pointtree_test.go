package orthotree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func squareDomain[T Float](size T) Domain[T] {
	return Domain[T]{Lo: []T{0, 0}, Hi: []T{size, size}}
}

func TestPointTreeCornersAndCentreRangeSearch(t *testing.T) {
	testCornersAndCentreRangeSearch[float32](t)
	testCornersAndCentreRangeSearch[float64](t)
}

func testCornersAndCentreRangeSearch[T Float](t *testing.T) {
	points := []Vec[T]{
		{0, 0}, {8, 0}, {0, 8}, {8, 8}, {4, 4},
	}
	tree, err := NewQuadtreePoints[T](points, squareDomain[T](8), 3, BuildOptions{})
	require.NoError(t, err)

	got, err := tree.RangeSearch([]T{3, 3}, []T{5, 5}, RangeSearchOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, []int{4}, got)
}

func TestPointTreeUpperFaceInclusion(t *testing.T) {
	testUpperFaceInclusion[float32](t)
	testUpperFaceInclusion[float64](t)
}

func testUpperFaceInclusion[T Float](t *testing.T) {
	points := []Vec[T]{{0, 0}, {8, 8}}
	tree, err := NewQuadtreePoints[T](points, squareDomain[T](8), 3, BuildOptions{})
	require.NoError(t, err)

	got := tree.Contains(Vec[T]{8, 8})
	require.ElementsMatch(t, []int{1}, got)
}

func TestPointTreeKNNTieBreak(t *testing.T) {
	testKNNTieBreak[float32](t)
	testKNNTieBreak[float64](t)
}

func testKNNTieBreak[T Float](t *testing.T) {
	points := []Vec[T]{{1, 1}, {2, 2}, {3, 3}}
	tree, err := NewQuadtreePoints[T](points, squareDomain[T](8), 3, BuildOptions{})
	require.NoError(t, err)

	got, err := tree.KNearest([]T{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 0, got[0].ID)
	require.Equal(t, 1, got[1].ID)
	require.InDelta(t, math.Sqrt(2), float64(got[0].Distance), 1e-6)
	require.InDelta(t, math.Sqrt(8), float64(got[1].Distance), 1e-6)
	require.True(t, got[0].Distance <= got[1].Distance)
}

func TestPointTreeKNNRejectsZero(t *testing.T) {
	points := []Vec[float64]{{1, 1}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)
	_, err = tree.KNearest([]float64{0, 0}, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPointTreeOutOfDomainInsertLeavesTreeUnchanged(t *testing.T) {
	points := []Vec[float64]{{1, 1}, {2, 2}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)

	before, err := tree.RangeSearch([]float64{-1000, -1000}, []float64{1000, 1000}, RangeSearchOptions{})
	require.NoError(t, err)

	err = tree.Insert(99, Vec[float64]{9, 4})
	require.ErrorIs(t, err, ErrOutOfDomain)

	after, err := tree.RangeSearch([]float64{-1000, -1000}, []float64{1000, 1000}, RangeSearchOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, before, after)
}

func TestPointTreeInsertEraseIdempotence(t *testing.T) {
	points := []Vec[float64]{{1, 1}, {2, 2}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)

	before, err := tree.RangeSearch([]float64{0, 0}, []float64{8, 8}, RangeSearchOptions{})
	require.NoError(t, err)

	require.NoError(t, tree.Insert(5, Vec[float64]{3, 3}))
	require.NoError(t, tree.Erase(5))

	after, err := tree.RangeSearch([]float64{0, 0}, []float64{8, 8}, RangeSearchOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, before, after)
}

func TestPointTreeEraseNotFound(t *testing.T) {
	tree, err := NewQuadtreePoints[float64](nil, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)
	require.ErrorIs(t, tree.Erase(42), ErrNotFound)
}

func TestPointTreeInsertDuplicateID(t *testing.T) {
	points := []Vec[float64]{{1, 1}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)
	require.ErrorIs(t, tree.Insert(0, Vec[float64]{2, 2}), ErrDuplicateID)
}

func TestPointTreeUpdate(t *testing.T) {
	points := []Vec[float64]{{1, 1}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, tree.Update(0, Vec[float64]{6, 6}))
	require.ElementsMatch(t, []int{0}, tree.Contains(Vec[float64]{6, 6}))
	require.Empty(t, tree.Contains(Vec[float64]{1, 1}))
}

func TestPointTreeContainsToleratesULPNoise(t *testing.T) {
	points := []Vec[float64]{{6, 6}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)

	noisy := Vec[float64]{math.Nextafter(6, 7), 6}
	require.ElementsMatch(t, []int{0}, tree.Contains(noisy))
	require.Empty(t, tree.Contains(Vec[float64]{6.5, 6}))
}

func TestPointTreeParallelBuildEquivalence(t *testing.T) {
	n := 2000
	points := make([]Vec[float64], n)
	for i := 0; i < n; i++ {
		points[i] = Vec[float64]{float64((i * 37) % 800) / 100, float64((i * 53) % 800) / 100}
	}
	seq, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 4, BuildOptions{Parallel: false})
	require.NoError(t, err)
	par, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 4, BuildOptions{Parallel: true})
	require.NoError(t, err)

	seqRes, err := seq.RangeSearch([]float64{2, 2}, []float64{6, 6}, RangeSearchOptions{})
	require.NoError(t, err)
	parRes, err := par.RangeSearch([]float64{2, 2}, []float64{6, 6}, RangeSearchOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, seqRes, parRes)
}

func TestPointTreeRangeSearchAgreesWithBruteForce(t *testing.T) {
	n := 300
	points := make([]Vec[float64], n)
	for i := 0; i < n; i++ {
		points[i] = Vec[float64]{float64((i * 17) % 800) / 100, float64((i * 29) % 800) / 100}
	}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 4, BuildOptions{})
	require.NoError(t, err)

	qMin, qMax := []float64{1.5, 1.5}, []float64{6.5, 6.5}
	got, err := tree.RangeSearch(qMin, qMax, RangeSearchOptions{})
	require.NoError(t, err)

	var want []int
	for i, p := range points {
		if pointInBox([]float64(p), qMin, qMax, nil) {
			want = append(want, i)
		}
	}
	require.ElementsMatch(t, want, got)
}

func TestPointTreeRangeSearchInvalidBox(t *testing.T) {
	tree, err := NewQuadtreePoints[float64](nil, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)
	_, err = tree.RangeSearch([]float64{5, 5}, []float64{1, 1}, RangeSearchOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPointTreeRayPick(t *testing.T) {
	points := []Vec[float64]{{2, 4}, {6, 4}}
	tree, err := NewQuadtreePoints[float64](points, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)

	hit, ok, err := tree.RayPick([]float64{0, 4}, []float64{1, 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, hit.ID)
}

func TestPointTreeRayZeroDirection(t *testing.T) {
	tree, err := NewQuadtreePoints[float64](nil, squareDomain[float64](8), 3, BuildOptions{})
	require.NoError(t, err)
	_, _, err = tree.RayPick([]float64{0, 0}, []float64{0, 0})
	require.ErrorIs(t, err, ErrInvalidArgument)
}
