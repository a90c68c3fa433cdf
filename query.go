package orthotree

import (
	"container/heap"
	"math"
	"sort"
)

// RayHit is one ray/entity intersection result: the entity id and the
// distance along the ray (origin + T*dir) at which it was hit.
type RayHit[T Float] struct {
	ID int
	T  T
}

// KNNResult is one k-nearest-neighbour result: the entity id and its
// Euclidean distance from the query point.
type KNNResult[T Float] struct {
	ID       int
	Distance T
}

// cellBounds computes the geometric bounds of the cell a location code
// addresses, from the domain grid g.
func cellBounds[T Float](g *grid[T], code Code) (min, max []T) {
	cell, depth := decodeCode(code, g.dim)
	min = make([]T, g.dim)
	max = make([]T, g.dim)
	cells := T(int64(1) << uint(depth))
	for i := 0; i < g.dim; i++ {
		span := g.hi[i] - g.lo[i]
		size := span / cells
		min[i] = g.lo[i] + T(cell[i])*size
		max[i] = min[i] + size
	}
	return min, max
}

// cellInside reports whether cell [cellMin,cellMax) lies entirely within
// query box [qMin,qMax).
func cellInside[T Float](cellMin, cellMax, qMin, qMax []T) bool {
	for i := range cellMin {
		if cellMin[i] < qMin[i] || cellMax[i] > qMax[i] {
			return false
		}
	}
	return true
}

// rangeSearchGeneric implements the range-search algorithm of spec.md
// §4.7, shared by point and box trees: find the query's natural owner
// cell, test every ancestor of that owner precisely, then sweep the
// owner's descendants, including whole nodes whose cell is fully inside
// the query and geometrically filtering the rest. match performs the
// final precise per-entity test (point-in-box or box-overlap, depending
// on the caller).
func rangeSearchGeneric[T Float](dim, maxDepth int, g *grid[T], s *store, qMin, qMax []T, match func(id int) bool) []int {
	ownerCell, ownerDepth := g.boxOwnerCell(qMin, qMax)
	owner, err := encodeCell(ownerCell, ownerDepth, dim)
	if err != nil {
		return nil
	}

	seen := make(map[int]bool)
	var out []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, n := range s.ancestorsInclusive(owner) {
		for _, id := range n.entities {
			if match(id) {
				add(id)
			}
		}
	}

	for _, n := range s.descendants(owner, maxDepth) {
		cellMin, cellMax := cellBounds(g, n.code)
		if !boxesOverlap(cellMin, cellMax, qMin, qMax, false) {
			continue
		}
		if cellInside(cellMin, cellMax, qMin, qMax) {
			for _, id := range n.entities {
				add(id)
			}
			continue
		}
		for _, id := range n.entities {
			if match(id) {
				add(id)
			}
		}
	}
	return out
}

// rayWalk visits every node whose cell the ray origin+t*dir intersects
// and tests each node's entities with test, which returns the hit
// distance and whether the entity was actually hit (the cell test alone
// is only a prune). It collects every hit, then sorts ascending by
// distance (ties by id) so that both RayPick (first element) and
// RayIntersectAll (the whole slice) share one walk.
func rayWalk[T Float](dim, maxDepth int, g *grid[T], s *store, origin, dir []T, test func(id int) (T, bool)) []RayHit[T] {
	var hits []RayHit[T]
	seen := make(map[int]bool)

	var visit func(code Code)
	visit = func(code Code) {
		cellMin, cellMax := cellBounds(g, code)
		if _, ok := rayBoxIntersect(origin, dir, cellMin, cellMax); !ok {
			return
		}
		n, ok := s.get(code)
		if !ok {
			return
		}
		for _, id := range n.entities {
			if seen[id] {
				continue
			}
			if t, hit := test(id); hit {
				seen[id] = true
				hits = append(hits, RayHit[T]{ID: id, T: t})
			}
		}
		if depthOf(code, dim) >= maxDepth {
			return
		}
		for i := 0; i < siblingCount(dim); i++ {
			if n.childMask&(1<<uint(i)) != 0 {
				visit(childCode(code, dim, i))
			}
		}
	}
	visit(rootCode)

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].T != hits[j].T {
			return hits[i].T < hits[j].T
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// distSq returns the squared Euclidean distance between two points, kept
// squared so kNN heap comparisons avoid a sqrt per comparison.
func distSq[T Float](a, b []T) T {
	var sum T
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// cellMinDistSq returns the squared distance from query to the nearest
// point of cell [cellMin,cellMax) — zero if query is inside the cell.
func cellMinDistSq[T Float](query, cellMin, cellMax []T) T {
	var sum T
	for i := range query {
		var d T
		if query[i] < cellMin[i] {
			d = cellMin[i] - query[i]
		} else if query[i] > cellMax[i] {
			d = query[i] - cellMax[i]
		}
		sum += d * d
	}
	return sum
}

type nodeHeapItem[T Float] struct {
	code   Code
	distSq T
}

type nodeMinHeap[T Float] []nodeHeapItem[T]

func (h nodeMinHeap[T]) Len() int            { return len(h) }
func (h nodeMinHeap[T]) Less(i, j int) bool  { return h[i].distSq < h[j].distSq }
func (h nodeMinHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeMinHeap[T]) Push(x any)         { *h = append(*h, x.(nodeHeapItem[T])) }
func (h *nodeMinHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type candHeapItem[T Float] struct {
	id     int
	distSq T
}

// candMaxHeap is a max-heap on (distSq, id) so the current worst of the
// top-k sits at the root and can be evicted in O(log k).
type candMaxHeap[T Float] []candHeapItem[T]

func (h candMaxHeap[T]) Len() int { return len(h) }
func (h candMaxHeap[T]) Less(i, j int) bool {
	if h[i].distSq != h[j].distSq {
		return h[i].distSq > h[j].distSq
	}
	return h[i].id > h[j].id
}
func (h candMaxHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candMaxHeap[T]) Push(x any)   { *h = append(*h, x.(candHeapItem[T])) }
func (h *candMaxHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// knnSearch implements the priority-walk k-NN of spec.md §4.7 / P7: a
// min-heap of nodes keyed by the lower-bound distance from query to the
// node's cell, and a max-heap holding the best k candidates so far.
// Traversal stops once the next node's lower bound exceeds the current
// worst of the top-k.
func knnSearch[T Float, P any](t *PointTree[T, P], query []T, k int) []KNNResult[T] {
	nh := &nodeMinHeap[T]{}
	rootMin, rootMax := cellBounds(t.grid, rootCode)
	heap.Push(nh, nodeHeapItem[T]{code: rootCode, distSq: cellMinDistSq(query, rootMin, rootMax)})

	best := &candMaxHeap[T]{}

	for nh.Len() > 0 {
		top := heap.Pop(nh).(nodeHeapItem[T])
		if best.Len() >= k && top.distSq > (*best)[0].distSq {
			break
		}
		n, ok := t.store.get(top.code)
		if !ok {
			continue
		}
		for _, id := range n.entities {
			p := t.components(t.points[id])
			d := distSq(query, p)
			if best.Len() < k {
				heap.Push(best, candHeapItem[T]{id: id, distSq: d})
			} else if worst := (*best)[0]; d < worst.distSq || (d == worst.distSq && id < worst.id) {
				heap.Pop(best)
				heap.Push(best, candHeapItem[T]{id: id, distSq: d})
			}
		}
		if depthOf(top.code, t.dim) >= t.depth {
			continue
		}
		for i := 0; i < siblingCount(t.dim); i++ {
			if n.childMask&(1<<uint(i)) != 0 {
				cc := childCode(top.code, t.dim, i)
				cmin, cmax := cellBounds(t.grid, cc)
				heap.Push(nh, nodeHeapItem[T]{code: cc, distSq: cellMinDistSq(query, cmin, cmax)})
			}
		}
	}

	results := make([]KNNResult[T], 0, best.Len())
	for _, c := range *best {
		results = append(results, KNNResult[T]{ID: c.id, Distance: T(math.Sqrt(float64(c.distSq)))})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results
}
