package orthotree

// This file is the library's thin named-alias surface, mirroring the
// OrthoTree C++ library's XYZ namespace (original_source/adaptor.xyz.h):
// QuadtreePoint/QuadtreeBox for D=2, OctreePoint/OctreeBox for D=3, plus
// "container" wrappers that own their entity geometry alongside the tree
// (OrthoTreeContainerPoint/OrthoTreeContainerBox there). Everything here
// is a convenience composition of BuildPointTree/BuildBoxTree and the
// built-in Vec/AABB geometry types — no new tree semantics live here.

// NewQuadtreePoints builds a 2-D point tree over the built-in Vec[T]
// point type, for callers with no custom point type of their own.
func NewQuadtreePoints[T Float](points []Vec[T], domain Domain[T], maxDepth int, opts BuildOptions) (*PointTree[T, Vec[T]], error) {
	return BuildPointTree[T, Vec[T]](points, domain, maxDepth, vecAdapter[T]{}, opts)
}

// NewOctreePoints builds a 3-D point tree over the built-in Vec[T] point
// type. Nothing here is actually 3-D specific beyond the caller's domain
// having three axes — it's named for discoverability, like the original
// facade's type aliases.
func NewOctreePoints[T Float](points []Vec[T], domain Domain[T], maxDepth int, opts BuildOptions) (*PointTree[T, Vec[T]], error) {
	return BuildPointTree[T, Vec[T]](points, domain, maxDepth, vecAdapter[T]{}, opts)
}

// NewQuadtreeBoxes builds a 2-D box tree over the built-in AABB[T] type.
func NewQuadtreeBoxes[T Float](boxes []AABB[T], domain Domain[T], maxDepth, splitK int, opts BuildOptions) (*BoxTree[T, AABB[T]], error) {
	return BuildBoxTree[T, AABB[T]](boxes, domain, maxDepth, splitK, aabbAdapter[T]{}, opts)
}

// NewOctreeBoxes builds a 3-D box tree over the built-in AABB[T] type.
func NewOctreeBoxes[T Float](boxes []AABB[T], domain Domain[T], maxDepth, splitK int, opts BuildOptions) (*BoxTree[T, AABB[T]], error) {
	return BuildBoxTree[T, AABB[T]](boxes, domain, maxDepth, splitK, aabbAdapter[T]{}, opts)
}

// NewQuadtreePointsAutoDomain builds a point tree over the built-in
// Vec[T] type the same way NewQuadtreePoints does, but derives the
// domain itself as the AABB enclosing every input point, via the
// adapter contract's enclosing-box derived operation (spec.md §4.1),
// for callers who don't already know their data's bounds.
func NewQuadtreePointsAutoDomain[T Float](points []Vec[T], maxDepth int, opts BuildOptions) (*PointTree[T, Vec[T]], error) {
	domain, err := pointDomain(points)
	if err != nil {
		return nil, err
	}
	return BuildPointTree[T, Vec[T]](points, domain, maxDepth, vecAdapter[T]{}, opts)
}

// NewOctreePointsAutoDomain is NewQuadtreePointsAutoDomain's 3-D-named
// counterpart, kept separate for discoverability like NewOctreePoints.
func NewOctreePointsAutoDomain[T Float](points []Vec[T], maxDepth int, opts BuildOptions) (*PointTree[T, Vec[T]], error) {
	domain, err := pointDomain(points)
	if err != nil {
		return nil, err
	}
	return BuildPointTree[T, Vec[T]](points, domain, maxDepth, vecAdapter[T]{}, opts)
}

func pointDomain[T Float](points []Vec[T]) (Domain[T], error) {
	if len(points) == 0 {
		return Domain[T]{}, ErrInvalidArgument
	}
	dim := len(points[0])
	min, max := enclosingBox[T, Vec[T]](vecAdapter[T]{}, dim, points)
	return Domain[T]{Lo: min, Hi: max}, nil
}

// NewQuadtreeBoxesAutoDomain builds a box tree over the built-in AABB[T]
// type, deriving the domain as the AABB enclosing every input box's
// corners (again spec.md §4.1's enclosing-box operation, applied to both
// corners of every box rather than to single points).
func NewQuadtreeBoxesAutoDomain[T Float](boxes []AABB[T], maxDepth, splitK int, opts BuildOptions) (*BoxTree[T, AABB[T]], error) {
	domain, err := boxDomain(boxes)
	if err != nil {
		return nil, err
	}
	return BuildBoxTree[T, AABB[T]](boxes, domain, maxDepth, splitK, aabbAdapter[T]{}, opts)
}

// NewOctreeBoxesAutoDomain is NewQuadtreeBoxesAutoDomain's 3-D-named
// counterpart.
func NewOctreeBoxesAutoDomain[T Float](boxes []AABB[T], maxDepth, splitK int, opts BuildOptions) (*BoxTree[T, AABB[T]], error) {
	domain, err := boxDomain(boxes)
	if err != nil {
		return nil, err
	}
	return BuildBoxTree[T, AABB[T]](boxes, domain, maxDepth, splitK, aabbAdapter[T]{}, opts)
}

func boxDomain[T Float](boxes []AABB[T]) (Domain[T], error) {
	if len(boxes) == 0 {
		return Domain[T]{}, ErrInvalidArgument
	}
	dim := len(boxes[0].Min)
	corners := make([]Vec[T], 0, len(boxes)*2)
	for _, b := range boxes {
		corners = append(corners, b.Min, b.Max)
	}
	min, max := enclosingBox[T, Vec[T]](vecAdapter[T]{}, dim, corners)
	return Domain[T]{Lo: min, Hi: max}, nil
}

// PointCloud pairs a PointTree with auto-assigned, dense entity ids, so a
// caller that just wants to add and remove points doesn't have to manage
// its own id space — the spec's "entity_id is a dense 0-based index...
// dynamic inserts extend the range" rule, made concrete.
type PointCloud[T Float, P any] struct {
	Tree   *PointTree[T, P]
	nextID int
}

// NewPointCloud creates an empty cloud ready to Add into.
func NewPointCloud[T Float, P any](domain Domain[T], maxDepth int, adapter PointAdapter[T, P]) (*PointCloud[T, P], error) {
	tree, err := BuildPointTree[T, P](nil, domain, maxDepth, adapter, BuildOptions{})
	if err != nil {
		return nil, err
	}
	return &PointCloud[T, P]{Tree: tree}, nil
}

// Add inserts p under a freshly allocated id and returns it.
func (c *PointCloud[T, P]) Add(p P) (int, error) {
	id := c.nextID
	if err := c.Tree.Insert(id, p); err != nil {
		return 0, err
	}
	c.nextID++
	return id, nil
}

// Remove erases id from the underlying tree.
func (c *PointCloud[T, P]) Remove(id int) error {
	return c.Tree.Erase(id)
}

// BoxCloud is the box-tree counterpart of PointCloud.
type BoxCloud[T Float, B any] struct {
	Tree   *BoxTree[T, B]
	nextID int
}

// NewBoxCloud creates an empty cloud ready to Add into.
func NewBoxCloud[T Float, B any](domain Domain[T], maxDepth, splitK int, adapter BoxAdapter[T, B]) (*BoxCloud[T, B], error) {
	tree, err := BuildBoxTree[T, B](nil, domain, maxDepth, splitK, adapter, BuildOptions{})
	if err != nil {
		return nil, err
	}
	return &BoxCloud[T, B]{Tree: tree}, nil
}

// Add inserts b under a freshly allocated id and returns it.
func (c *BoxCloud[T, B]) Add(b B) (int, error) {
	id := c.nextID
	if err := c.Tree.Insert(id, b); err != nil {
		return 0, err
	}
	c.nextID++
	return id, nil
}

// Remove erases id from the underlying tree.
func (c *BoxCloud[T, B]) Remove(id int) error {
	return c.Tree.Erase(id)
}
