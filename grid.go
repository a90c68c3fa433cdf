package orthotree

// Domain is the axis-aligned box [Lo, Hi) that a tree subdivides. Len(Lo)
// == Len(Hi) == the tree's dimension.
type Domain[T Float] struct {
	Lo []T
	Hi []T
}

func (d Domain[T]) dim() int { return len(d.Lo) }

// grid maps domain coordinates to integer cell indices at a fixed depth,
// per spec.md §4.3: one precomputed per-axis scale s_i = 2^H/(hi_i-lo_i).
type grid[T Float] struct {
	dim    int
	depth  int
	lo, hi []T
	scale  []T
	cells  int // 2^depth, cached
}

func newGrid[T Float](dom Domain[T], depth int) *grid[T] {
	dim := dom.dim()
	g := &grid[T]{
		dim:   dim,
		depth: depth,
		lo:    dom.Lo,
		hi:    dom.Hi,
		scale: make([]T, dim),
		cells: 1 << uint(depth),
	}
	cells := T(g.cells)
	for i := 0; i < dim; i++ {
		span := dom.Hi[i] - dom.Lo[i]
		if span <= 0 {
			g.scale[i] = 0
			continue
		}
		g.scale[i] = cells / span
	}
	return g
}

// cellOf maps a single point's components to its grid cell at g.depth,
// clamping out-of-domain components to the nearest valid cell. clamped
// reports whether any component needed clamping.
func (g *grid[T]) cellOf(components []T) (cell []int, clamped bool) {
	cell = make([]int, g.dim)
	for i := 0; i < g.dim; i++ {
		c := int((components[i] - g.lo[i]) * g.scale[i])
		if c < 0 {
			c = 0
			clamped = true
		} else if c >= g.cells {
			c = g.cells - 1
			clamped = true
		}
		cell[i] = c
	}
	return cell, clamped
}

// leafCellSize returns the per-axis size of a cell at the grid's depth.
func (g *grid[T]) leafCellSize() []T {
	out := make([]T, g.dim)
	cells := T(g.cells)
	for i := 0; i < g.dim; i++ {
		out[i] = (g.hi[i] - g.lo[i]) / cells
	}
	return out
}

// inDomain reports whether components lie within [lo, hi), with the
// tree-wide rule that the domain's own upper face is included (so a point
// exactly on hi is still in-domain).
func (g *grid[T]) inDomain(components []T) bool {
	for i := 0; i < g.dim; i++ {
		if components[i] < g.lo[i] {
			return false
		}
		if components[i] > g.hi[i] {
			return false
		}
	}
	return true
}

// boxOwnerCell computes the deepest cell that fully contains a box
// [min,max): per spec.md §4.3, take the cells of min and of max shifted
// down by one ULP-equivalent (here: max minus an infinitesimal, realised
// by treating a component exactly on a cell boundary as belonging to the
// lower cell), then keep only the common high bits of the two per-axis
// indices.
func (g *grid[T]) boxOwnerCell(min, max []T) (cell []int, depth int) {
	minCell, _ := g.cellOf(min)
	maxCell := g.maxCornerCell(max)
	depth = g.depth
	for i := 0; i < g.dim; i++ {
		a, b := minCell[i], maxCell[i]
		shift := 0
		for a != b {
			a >>= 1
			b >>= 1
			shift++
		}
		if g.depth-shift < depth {
			depth = g.depth - shift
		}
	}
	drop := g.depth - depth
	cell = make([]int, g.dim)
	for i := 0; i < g.dim; i++ {
		cell[i] = minCell[i] >> uint(drop)
	}
	return cell, depth
}

// maxCornerCell maps a box's max corner to the cell it belongs to under
// the half-open [min,max) convention: a max corner sitting exactly on a
// cell boundary belongs to the cell below that boundary, since the box
// itself does not extend into the next cell.
func (g *grid[T]) maxCornerCell(max []T) []int {
	cell := make([]int, g.dim)
	for i := 0; i < g.dim; i++ {
		raw := (max[i] - g.lo[i]) * g.scale[i]
		c := int(raw)
		if T(c) == raw && c > 0 {
			c--
		}
		if c < 0 {
			c = 0
		} else if c >= g.cells {
			c = g.cells - 1
		}
		cell[i] = c
	}
	return cell
}
