package orthotree

// BoxTree is a linear orthant tree over axis-aligned box (AABB) entities
// (C6 in the design), with the split-depth rule of spec.md §4.6: a box
// whose natural single-cell-containing ancestor is shallow is instead
// stored at every cell it overlaps at depth min(naturalDepth+K, H), so
// large boxes don't all pile up near the root.
type BoxTree[T Float, B any] struct {
	dim, depth, splitK int
	domain             Domain[T]
	adapter            BoxAdapter[T, B]
	grid               *grid[T]
	store              *store
	boxes              map[int]B
	// coverage records, per entity id, every node code it was inserted
	// into, so Erase can remove it from each without re-deriving the
	// split-depth cell set (spec.md §4.6's "coverage set").
	coverage map[int][]Code
}

// BuildBoxTree bulk-builds a box tree. splitK is the additional split
// depth K (spec.md §4.6); K=2 is a reasonable default for clustered
// data.
func BuildBoxTree[T Float, B any](entities []B, domain Domain[T], maxDepth, splitK int, adapter BoxAdapter[T, B], opts BuildOptions) (*BoxTree[T, B], error) {
	dim := domain.dim()
	if maxDepth > maxDepthFor(dim) {
		return nil, ErrCapacityExceeded
	}
	if splitK < 0 || splitK > maxDepth {
		return nil, ErrInvalidArgument
	}
	t := &BoxTree[T, B]{
		dim: dim, depth: maxDepth, splitK: splitK,
		domain: domain, adapter: adapter,
		grid:     newGrid(domain, maxDepth),
		store:    newStore(dim),
		boxes:    make(map[int]B, len(entities)),
		coverage: make(map[int][]Code, len(entities)),
	}

	var pairs []codeEntity
	for id, b := range entities {
		codes, err := t.ownerCodes(b)
		if err != nil {
			return nil, err
		}
		for _, c := range codes {
			pairs = append(pairs, codeEntity{code: c, id: id})
		}
		t.boxes[id] = b
		t.coverage[id] = codes
	}
	sortCodeEntities(pairs, opts.Parallel)
	synthesize(t.store, pairs)
	return t, nil
}

func (t *BoxTree[T, B]) minMax(b B) (min, max []T) {
	return t.adapter.Min(b), t.adapter.Max(b)
}

// ownerCodes computes the effective owner cells of a box per spec.md
// §4.6: the natural deepest single-cell-containing ancestor, pushed
// splitK levels deeper (clamped to H) and expanded to every cell at that
// depth the box overlaps.
func (t *BoxTree[T, B]) ownerCodes(b B) ([]Code, error) {
	min, max := t.minMax(b)
	if !t.grid.inDomain(min) || !t.grid.inDomain(max) {
		return nil, ErrOutOfDomain
	}
	cell, naturalDepth := t.grid.boxOwnerCell(min, max)
	target := naturalDepth + t.splitK
	if target > t.depth {
		target = t.depth
	}
	if target == naturalDepth {
		code, err := encodeCell(cell, naturalDepth, t.dim)
		if err != nil {
			return nil, err
		}
		return []Code{code}, nil
	}

	tg := newGrid(t.domain, target)
	minCell, _ := tg.cellOf(min)
	maxCell := tg.maxCornerCell(max)
	codes := make([]Code, 0, 1<<uint(t.dim))
	for _, c := range enumerateCells(minCell, maxCell) {
		code, err := encodeCell(c, target, t.dim)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// enumerateCells lists every integer cell index tuple in the axis-aligned
// box [minCell, maxCell] inclusive, in row-major (odometer) order.
func enumerateCells(minCell, maxCell []int) [][]int {
	dim := len(minCell)
	span := make([]int, dim)
	total := 1
	for i := 0; i < dim; i++ {
		span[i] = maxCell[i] - minCell[i] + 1
		total *= span[i]
	}
	out := make([][]int, 0, total)
	idx := make([]int, dim)
	for {
		cell := make([]int, dim)
		for i := 0; i < dim; i++ {
			cell[i] = minCell[i] + idx[i]
		}
		out = append(out, cell)
		axis := dim - 1
		for axis >= 0 {
			idx[axis]++
			if idx[axis] < span[axis] {
				break
			}
			idx[axis] = 0
			axis--
		}
		if axis < 0 {
			break
		}
	}
	return out
}

// Insert adds a new box entity under id.
func (t *BoxTree[T, B]) Insert(id int, b B) error {
	if _, exists := t.boxes[id]; exists {
		return ErrDuplicateID
	}
	codes, err := t.ownerCodes(b)
	if err != nil {
		return err
	}
	for _, c := range codes {
		n := t.store.ensure(c)
		n.entities = append(n.entities, id)
		t.store.ensureAncestors(c)
	}
	t.boxes[id] = b
	t.coverage[id] = codes
	return nil
}

// Erase removes entity id from every node its coverage set names.
func (t *BoxTree[T, B]) Erase(id int) error {
	codes, ok := t.coverage[id]
	if !ok {
		return ErrNotFound
	}
	for _, c := range codes {
		if n, ok := t.store.get(c); ok {
			removeID(&n.entities, id)
		}
		t.store.pruneEmptyChain(c)
	}
	delete(t.boxes, id)
	delete(t.coverage, id)
	return nil
}

// Update replaces id's geometry, defined as Erase followed by Insert. id
// and b are checked before anything is erased, so a failing Update leaves
// the tree unchanged.
func (t *BoxTree[T, B]) Update(id int, b B) error {
	if _, ok := t.coverage[id]; !ok {
		return ErrNotFound
	}
	if _, err := t.ownerCodes(b); err != nil {
		return err
	}
	if err := t.Erase(id); err != nil {
		return err
	}
	return t.Insert(id, b)
}

// Contains returns the ids of boxes whose AABB contains point p.
func (t *BoxTree[T, B]) Contains(p []T) []int {
	if !t.grid.inDomain(p) {
		return nil
	}
	cell, _ := t.grid.cellOf(p)
	code, err := encodeCell(cell, t.depth, t.dim)
	if err != nil {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, n := range t.store.ancestorsInclusive(code) {
		for _, id := range n.entities {
			if seen[id] {
				continue
			}
			min, max := t.minMax(t.boxes[id])
			if boxContainsPoint(min, max, p, t.domain.Hi) {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// RangeSearch returns the ids of all boxes overlapping query box
// [qMin,qMax]; a box that only touches it counts unless
// opts.StrictOverlap is set.
func (t *BoxTree[T, B]) RangeSearch(qMin, qMax []T, opts RangeSearchOptions) ([]int, error) {
	if err := validateBox(qMin, qMax); err != nil {
		return nil, err
	}
	return rangeSearchGeneric(t.dim, t.depth, t.grid, t.store, qMin, qMax, func(id int) bool {
		min, max := t.minMax(t.boxes[id])
		return boxesOverlap(min, max, qMin, qMax, opts.StrictOverlap)
	}), nil
}

// RayPick returns the single nearest box hit by the ray, if any.
func (t *BoxTree[T, B]) RayPick(origin, dir []T) (RayHit[T], bool, error) {
	if isZero(dir) {
		return RayHit[T]{}, false, ErrInvalidArgument
	}
	hits := t.rayHits(origin, dir)
	if len(hits) == 0 {
		return RayHit[T]{}, false, nil
	}
	return hits[0], true, nil
}

// RayIntersectAll returns every box the ray hits, with distance.
func (t *BoxTree[T, B]) RayIntersectAll(origin, dir []T) ([]RayHit[T], error) {
	if isZero(dir) {
		return nil, ErrInvalidArgument
	}
	return t.rayHits(origin, dir), nil
}

func (t *BoxTree[T, B]) rayHits(origin, dir []T) []RayHit[T] {
	return rayWalk(t.dim, t.depth, t.grid, t.store, origin, dir, func(id int) (T, bool) {
		min, max := t.minMax(t.boxes[id])
		return rayBoxIntersect(origin, dir, min, max)
	})
}
