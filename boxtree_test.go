package orthotree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func box[T Float](minX, minY, maxX, maxY T) AABB[T] {
	return AABB[T]{Min: Vec[T]{minX, minY}, Max: Vec[T]{maxX, maxY}}
}

func TestBoxTreeSharedFaceOverlap(t *testing.T) {
	testSharedFaceOverlap[float32](t)
	testSharedFaceOverlap[float64](t)
}

func testSharedFaceOverlap[T Float](t *testing.T) {
	boxes := []AABB[T]{
		box[T](0, 0, 4, 4),
		box[T](4, 0, 8, 4),
	}
	tree, err := NewQuadtreeBoxes[T](boxes, squareDomain[T](8), 3, 2, BuildOptions{})
	require.NoError(t, err)

	loose := tree.CollisionPairs(CollisionOptions{Strict: false})
	require.Equal(t, []Pair{{First: 0, Second: 1}}, loose)

	strict := tree.CollisionPairs(CollisionOptions{Strict: true})
	require.Empty(t, strict)
}

func TestBoxTreeGridCollisionCountInvariantUnderSplitDepth(t *testing.T) {
	var boxes []AABB[float64]
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			boxes = append(boxes, box[float64](float64(i), float64(j), float64(i+1), float64(j+1)))
		}
	}
	domain := Domain[float64]{Lo: []float64{0, 0}, Hi: []float64{10, 10}}

	for _, k := range []int{0, 1, 2, 3} {
		tree, err := NewQuadtreeBoxes[float64](boxes, domain, 4, k, BuildOptions{})
		require.NoError(t, err)
		loose := tree.CollisionPairs(CollisionOptions{Strict: false})
		require.Len(t, loose, 180, "K=%d", k)
		strict := tree.CollisionPairs(CollisionOptions{Strict: true})
		require.Empty(t, strict, "K=%d", k)
	}
}

func TestBoxTreeCollisionPairsOrderedAndUnique(t *testing.T) {
	var boxes []AABB[float64]
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			boxes = append(boxes, box[float64](float64(i), float64(j), float64(i+1), float64(j+1)))
		}
	}
	domain := Domain[float64]{Lo: []float64{0, 0}, Hi: []float64{6, 6}}
	tree, err := NewQuadtreeBoxes[float64](boxes, domain, 3, 2, BuildOptions{})
	require.NoError(t, err)

	pairs := tree.CollisionPairs(CollisionOptions{Strict: false})
	seen := make(map[Pair]bool)
	for _, p := range pairs {
		require.Less(t, p.First, p.Second)
		require.False(t, seen[p], "duplicate pair %v", p)
		seen[p] = true
	}
}

func TestBoxTreeCollisionPairsAgreeWithBruteForce(t *testing.T) {
	boxes := []AABB[float64]{
		box[float64](0, 0, 3, 3),
		box[float64](2, 2, 5, 5),
		box[float64](6, 6, 7, 7),
		box[float64](0, 6, 1, 7),
		box[float64](5, 5, 6, 6),
	}
	domain := Domain[float64]{Lo: []float64{0, 0}, Hi: []float64{8, 8}}
	tree, err := NewQuadtreeBoxes[float64](boxes, domain, 3, 2, BuildOptions{})
	require.NoError(t, err)

	got := tree.CollisionPairs(CollisionOptions{Strict: false})

	var want []Pair
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if boxesOverlap([]float64(boxes[i].Min), []float64(boxes[i].Max), []float64(boxes[j].Min), []float64(boxes[j].Max), false) {
				want = append(want, Pair{First: i, Second: j})
			}
		}
	}
	require.ElementsMatch(t, want, got)
}

func TestBoxTreeParallelCollisionEquivalence(t *testing.T) {
	var boxes []AABB[float64]
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			boxes = append(boxes, box[float64](float64(i), float64(j), float64(i+1), float64(j+1)))
		}
	}
	domain := Domain[float64]{Lo: []float64{0, 0}, Hi: []float64{8, 8}}
	tree, err := NewQuadtreeBoxes[float64](boxes, domain, 4, 2, BuildOptions{})
	require.NoError(t, err)

	seq := tree.CollisionPairs(CollisionOptions{Strict: false})
	par := tree.CollisionPairs(CollisionOptions{Strict: false, Parallel: true})
	require.Equal(t, seq, par)
}

func TestBoxTreeContains(t *testing.T) {
	boxes := []AABB[float64]{box[float64](1, 1, 3, 3), box[float64](5, 5, 7, 7)}
	tree, err := NewQuadtreeBoxes[float64](boxes, squareDomain[float64](8), 3, 2, BuildOptions{})
	require.NoError(t, err)

	require.ElementsMatch(t, []int{0}, tree.Contains([]float64{2, 2}))
	require.Empty(t, tree.Contains([]float64{4, 4}))
}

func TestBoxTreeRangeSearchAgreesWithBruteForce(t *testing.T) {
	var boxes []AABB[float64]
	for i := 0; i < 20; i++ {
		x := float64(i % 8)
		y := float64((i * 3) % 8)
		boxes = append(boxes, box[float64](x, y, x+1, y+1))
	}
	tree, err := NewQuadtreeBoxes[float64](boxes, squareDomain[float64](8), 4, 1, BuildOptions{})
	require.NoError(t, err)

	qMin, qMax := []float64{2, 2}, []float64{5, 5}
	got, err := tree.RangeSearch(qMin, qMax, RangeSearchOptions{})
	require.NoError(t, err)

	var want []int
	for i, b := range boxes {
		if boxesOverlap([]float64(b.Min), []float64(b.Max), qMin, qMax, false) {
			want = append(want, i)
		}
	}
	require.ElementsMatch(t, want, got)
}

func TestBoxTreeInsertEraseIdempotence(t *testing.T) {
	boxes := []AABB[float64]{box[float64](1, 1, 2, 2)}
	tree, err := NewQuadtreeBoxes[float64](boxes, squareDomain[float64](8), 3, 2, BuildOptions{})
	require.NoError(t, err)

	before, err := tree.RangeSearch([]float64{0, 0}, []float64{8, 8}, RangeSearchOptions{})
	require.NoError(t, err)

	require.NoError(t, tree.Insert(10, box[float64](5, 5, 6, 6)))
	require.NoError(t, tree.Erase(10))

	after, err := tree.RangeSearch([]float64{0, 0}, []float64{8, 8}, RangeSearchOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, before, after)
}

func TestBoxTreeOutOfDomainInsert(t *testing.T) {
	tree, err := NewQuadtreeBoxes[float64](nil, squareDomain[float64](8), 3, 2, BuildOptions{})
	require.NoError(t, err)
	err = tree.Insert(0, box[float64](7, 7, 9, 9))
	require.ErrorIs(t, err, ErrOutOfDomain)
}

func TestBoxTreeInvalidSplitDepth(t *testing.T) {
	_, err := NewQuadtreeBoxes[float64](nil, squareDomain[float64](8), 3, 10, BuildOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBoxTreeRayIntersectAll(t *testing.T) {
	boxes := []AABB[float64]{box[float64](1, 3, 2, 5), box[float64](5, 3, 6, 5)}
	tree, err := NewQuadtreeBoxes[float64](boxes, squareDomain[float64](8), 3, 2, BuildOptions{})
	require.NoError(t, err)

	hits, err := tree.RayIntersectAll([]float64{0, 4}, []float64{1, 0})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, 0, hits[0].ID)
	require.Equal(t, 1, hits[1].ID)
	require.Less(t, hits[0].T, hits[1].T)
}
