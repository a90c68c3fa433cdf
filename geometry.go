package orthotree

import "math"

// Float is the scalar numeric type the tree operates over. The tree does
// not rely on anything beyond comparison, subtraction and multiplication,
// so either IEEE width works.
type Float interface {
	~float32 | ~float64
}

// PointAdapter is the geometry contract a caller implements to index their
// own point type P without the tree needing to know its representation.
// It is a pure trait: no state, no allocation, no method ever mutates the
// adapter itself.
type PointAdapter[T Float, P any] interface {
	// Component reads axis i (0 <= i < D) of p.
	Component(p P, axis int) T
	// FromComponents builds a P from exactly D components.
	FromComponents(components []T) P
}

// BoxAdapter is the geometry contract for a caller's axis-aligned box type
// B. Min and Max must satisfy Min <= Max componentwise.
type BoxAdapter[T Float, B any] interface {
	Min(b B) []T
	Max(b B) []T
	FromMinMax(min, max []T) B
}

// Vec is the built-in point representation used by the facade
// constructors (NewQuadtreePoints, NewOctreePoints, ...) for callers who
// don't have their own point type.
type Vec[T Float] []T

// AABB is the built-in box representation used by the facade box-tree
// constructors.
type AABB[T Float] struct {
	Min Vec[T]
	Max Vec[T]
}

// vecAdapter adapts Vec[T] to PointAdapter. It holds no state.
type vecAdapter[T Float] struct{}

func (vecAdapter[T]) Component(p Vec[T], axis int) T { return p[axis] }
func (vecAdapter[T]) FromComponents(c []T) Vec[T] {
	out := make(Vec[T], len(c))
	copy(out, c)
	return out
}

// aabbAdapter adapts AABB[T] to BoxAdapter. It holds no state.
type aabbAdapter[T Float] struct{}

func (aabbAdapter[T]) Min(b AABB[T]) []T { return b.Min }
func (aabbAdapter[T]) Max(b AABB[T]) []T { return b.Max }
func (aabbAdapter[T]) FromMinMax(min, max []T) AABB[T] {
	b := AABB[T]{Min: make(Vec[T], len(min)), Max: make(Vec[T], len(max))}
	copy(b.Min, min)
	copy(b.Max, max)
	return b
}

// enclosingBox computes the AABB enclosing a sequence of points, each read
// through adapter a.
func enclosingBox[T Float, P any](a PointAdapter[T, P], dim int, points []P) (min, max []T) {
	min = make([]T, dim)
	max = make([]T, dim)
	for i := 0; i < dim; i++ {
		min[i] = T(math.Inf(1))
		max[i] = T(math.Inf(-1))
	}
	for _, p := range points {
		for i := 0; i < dim; i++ {
			c := a.Component(p, i)
			if c < min[i] {
				min[i] = c
			}
			if c > max[i] {
				max[i] = c
			}
		}
	}
	return min, max
}

// nearlyEqual tests equality with an absolute tolerance, matching the
// adapter contract's "equality with tolerance" operation.
func nearlyEqual[T Float](a, b, tolerance T) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// pointInBox tests the half-open containment rule min <= p < max, with an
// exception: components equal to the domain's own upper bound are treated
// as included (scenario 2 in spec.md §8 — the domain's max corner belongs
// to the tree). domainHi is nil when the caller is testing against a
// non-domain box, in which case the plain half-open rule applies.
func pointInBox[T Float](p, min, max []T, domainHi []T) bool {
	for i := range p {
		if p[i] < min[i] {
			return false
		}
		if p[i] < max[i] {
			continue
		}
		if domainHi != nil && p[i] == max[i] && max[i] == domainHi[i] {
			continue
		}
		return false
	}
	return true
}

// boxesOverlap tests overlap of two AABBs. strict=false counts a shared
// face as overlap; strict=true requires positive-measure intersection.
func boxesOverlap[T Float](aMin, aMax, bMin, bMax []T, strict bool) bool {
	for i := range aMin {
		if strict {
			if aMax[i] <= bMin[i] || bMax[i] <= aMin[i] {
				return false
			}
		} else {
			if aMax[i] < bMin[i] || bMax[i] < aMin[i] {
				return false
			}
		}
	}
	return true
}

// boxContainsPoint tests whether box [min,max) contains p, honoring the
// same upper-face rule as pointInBox for the tree's own domain.
func boxContainsPoint[T Float](min, max, p []T, domainHi []T) bool {
	return pointInBox(p, min, max, domainHi)
}

// rayBoxIntersect returns the nearest entry distance of ray
// origin+t*dir against box [min,max), or ok=false if it misses or lies
// entirely behind the origin. Uses the standard slab method.
func rayBoxIntersect[T Float](origin, dir, min, max []T) (t T, ok bool) {
	tMin := T(math.Inf(-1))
	tMax := T(math.Inf(1))
	for i := range origin {
		if dir[i] == 0 {
			if origin[i] < min[i] || origin[i] >= max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return 0, true
	}
	return tMin, true
}
