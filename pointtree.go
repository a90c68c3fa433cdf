package orthotree

// PointTree is a linear orthant tree over point entities (C5 in the
// design). Entities are addressed by caller-supplied integer ids; the
// tree owns its node store and its own copy of each live entity's
// geometry (read through the adapter), so geometry survives independent
// of whatever slice the caller originally built from.
type PointTree[T Float, P any] struct {
	dim     int
	depth   int
	domain  Domain[T]
	adapter PointAdapter[T, P]
	grid    *grid[T]
	store   *store
	points  map[int]P
}

// BuildOptions configures bulk construction (spec.md §6).
type BuildOptions struct {
	Parallel bool
}

// BuildPointTree bulk-builds a point tree from entities[i] at id i, over
// domain with the given max depth H. It fails with ErrCapacityExceeded if
// 1+D*H would overflow the location-code word.
func BuildPointTree[T Float, P any](entities []P, domain Domain[T], maxDepth int, adapter PointAdapter[T, P], opts BuildOptions) (*PointTree[T, P], error) {
	dim := domain.dim()
	if maxDepth > maxDepthFor(dim) {
		return nil, ErrCapacityExceeded
	}
	t := &PointTree[T, P]{
		dim:     dim,
		depth:   maxDepth,
		domain:  domain,
		adapter: adapter,
		grid:    newGrid(domain, maxDepth),
		store:   newStore(dim),
		points:  make(map[int]P, len(entities)),
	}

	pairs := make([]codeEntity, len(entities))
	for id, p := range entities {
		code, err := t.ownerCode(p)
		if err != nil {
			return nil, err
		}
		pairs[id] = codeEntity{code: code, id: id}
		t.points[id] = p
	}
	sortCodeEntities(pairs, opts.Parallel)
	synthesize(t.store, pairs)
	return t, nil
}

// ownerCode computes the full-depth owner code of point p, per spec.md
// §4.5 step 1's point rule. It rejects out-of-domain points.
func (t *PointTree[T, P]) ownerCode(p P) (Code, error) {
	comp := t.components(p)
	if !t.grid.inDomain(comp) {
		return 0, ErrOutOfDomain
	}
	cell, _ := t.grid.cellOf(comp)
	return encodeCell(cell, t.depth, t.dim)
}

func (t *PointTree[T, P]) components(p P) []T {
	c := make([]T, t.dim)
	for i := 0; i < t.dim; i++ {
		c[i] = t.adapter.Component(p, i)
	}
	return c
}

// Insert adds a new point entity under id. It fails with ErrDuplicateID if
// id is already present, or ErrOutOfDomain if p lies outside the domain;
// in either failure case the tree is left unchanged.
func (t *PointTree[T, P]) Insert(id int, p P) error {
	if _, exists := t.points[id]; exists {
		return ErrDuplicateID
	}
	code, err := t.ownerCode(p)
	if err != nil {
		return err
	}
	n := t.store.ensure(code)
	n.entities = append(n.entities, id)
	t.store.ensureAncestors(code)
	t.points[id] = p
	return nil
}

// Erase removes entity id. It fails with ErrNotFound if id is absent, in
// which case the tree is left unchanged.
func (t *PointTree[T, P]) Erase(id int) error {
	p, ok := t.points[id]
	if !ok {
		return ErrNotFound
	}
	code, _ := t.ownerCode(p)
	n, ok := t.store.get(code)
	if ok {
		removeID(&n.entities, id)
	}
	delete(t.points, id)
	t.store.pruneEmptyChain(code)
	return nil
}

// Update replaces id's geometry, defined as Erase followed by Insert
// (spec.md §6). id and p are checked before anything is erased, so a
// failing Update leaves the tree unchanged.
func (t *PointTree[T, P]) Update(id int, p P) error {
	if _, ok := t.points[id]; !ok {
		return ErrNotFound
	}
	if _, err := t.ownerCode(p); err != nil {
		return err
	}
	if err := t.Erase(id); err != nil {
		return err
	}
	if err := t.Insert(id, p); err != nil {
		return err
	}
	return nil
}

func removeID(ids *[]int, id int) {
	for i, v := range *ids {
		if v == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			return
		}
	}
}

// Contains returns the ids of points located exactly at p (the point
// lookup of spec.md §4.7, generalised from "which node" to "which
// entities at that node with this exact coordinate"). Matching uses the
// adapter contract's tolerance-based equality (nearlyEqual) rather than
// bit-for-bit comparison, since a point can round-trip through a caller's
// own type (P) before arriving here and pick up ULP noise along the way.
func (t *PointTree[T, P]) Contains(p P) []int {
	comp := t.components(p)
	if !t.grid.inDomain(comp) {
		return nil
	}
	cell, _ := t.grid.cellOf(comp)
	code, err := encodeCell(cell, t.depth, t.dim)
	if err != nil {
		return nil
	}
	n, ok := t.store.get(code)
	if !ok {
		return nil
	}
	tolerance := t.containsTolerance()
	var out []int
	for _, id := range n.entities {
		if pointsNearlyEqual(t.components(t.points[id]), comp, tolerance) {
			out = append(out, id)
		}
	}
	return out
}

// containsTolerance derives Contains's equality tolerance from the grid's
// own resolution: a small fraction of the narrowest leaf cell, so it
// absorbs floating-point noise without blurring together two points a
// caller legitimately placed in neighbouring cells.
func (t *PointTree[T, P]) containsTolerance() T {
	half := t.grid.leafCellSize()
	narrowest := half[0]
	for _, h := range half[1:] {
		if h < narrowest {
			narrowest = h
		}
	}
	return narrowest * T(1e-6)
}

func pointsNearlyEqual[T Float](a, b []T, tolerance T) bool {
	for i := range a {
		if !nearlyEqual(a[i], b[i], tolerance) {
			return false
		}
	}
	return true
}

// RangeSearchOptions configures a range query.
type RangeSearchOptions struct {
	// StrictOverlap, when true, excludes entities that only touch the
	// query box along a shared face.
	StrictOverlap bool
}

// RangeSearch returns the ids of all points inside the query box, per
// spec.md §4.7: the closed box [min,max] by default, the half-open box
// [min,max) when opts.StrictOverlap is set.
func (t *PointTree[T, P]) RangeSearch(min, max []T, opts RangeSearchOptions) ([]int, error) {
	if err := validateBox(min, max); err != nil {
		return nil, err
	}
	return rangeSearchGeneric(t.dim, t.depth, t.grid, t.store, min, max, func(id int) bool {
		p := t.components(t.points[id])
		if opts.StrictOverlap {
			return pointInBox(p, min, max, nil)
		}
		return onBoundary(p, min, max)
	}), nil
}

func validateBox[T Float](min, max []T) error {
	for i := range min {
		if min[i] > max[i] {
			return ErrInvalidArgument
		}
	}
	return nil
}

// onBoundary reports whether p lies in the closed box [min,max], so that
// points exactly on the query's max face (and inside degenerate,
// zero-width query boxes) count — the non-strict range-search test.
func onBoundary[T Float](p, min, max []T) bool {
	for i := range p {
		if p[i] < min[i] || p[i] > max[i] {
			return false
		}
	}
	return true
}

// KNearest returns the k nearest points to query, ascending by distance,
// ties broken by ascending id (spec.md §4.7, P7).
func (t *PointTree[T, P]) KNearest(query []T, k int) ([]KNNResult[T], error) {
	if k <= 0 {
		return nil, ErrInvalidArgument
	}
	return knnSearch(t, query, k), nil
}

// RayPick returns the single nearest entity hit by the ray, if any.
func (t *PointTree[T, P]) RayPick(origin, dir []T) (RayHit[T], bool, error) {
	if isZero(dir) {
		return RayHit[T]{}, false, ErrInvalidArgument
	}
	hits := t.rayHits(origin, dir)
	if len(hits) == 0 {
		return RayHit[T]{}, false, nil
	}
	return hits[0], true, nil
}

// RayIntersectAll returns every entity the ray hits, with distance.
func (t *PointTree[T, P]) RayIntersectAll(origin, dir []T) ([]RayHit[T], error) {
	if isZero(dir) {
		return nil, ErrInvalidArgument
	}
	return t.rayHits(origin, dir), nil
}

// rayHits tests the ray against each point treated as a box extending half
// a leaf cell to either side of it on every axis, since a ray almost never crosses a mathematically
// zero-volume point exactly. The half-width comes from the tree's own
// grid resolution rather than an arbitrary constant.
func (t *PointTree[T, P]) rayHits(origin, dir []T) []RayHit[T] {
	half := t.grid.leafCellSize()
	for i := range half {
		half[i] /= 2
	}
	return rayWalk(t.dim, t.depth, t.grid, t.store, origin, dir, func(id int) (T, bool) {
		p := t.components(t.points[id])
		min := make([]T, t.dim)
		max := make([]T, t.dim)
		for i := range p {
			min[i] = p[i] - half[i]
			max[i] = p[i] + half[i]
		}
		return rayBoxIntersect(origin, dir, min, max)
	})
}

func isZero[T Float](v []T) bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}
