// Package orthotree is a linear (pointer-free) orthant tree — a
// generalised quadtree/octree — over points and axis-aligned bounding
// boxes in D dimensions. Nodes are addressed by a location code derived
// from Morton interleaving rather than child/parent pointers, and the
// whole tree is a mapping from that code to a node record.
//
// Loosely modelled on Attila Csikós's OrthoTree (the XYAdaptor2D /
// XYZAdaptor3D facade in particular), reworked into idiomatic Go: runtime
// dimension instead of a compile-time template parameter, a caller-
// supplied PointAdapter/BoxAdapter instead of adapter traits, and
// generics over the coordinate scalar (float32 | float64) instead of a
// template parameter.
package orthotree
