package orthotree

import "errors"

// Errors returned by the public tree API. Each is a sentinel so callers can
// compare with errors.Is; none of them wrap further detail because the
// failing call leaves the tree in its pre-call state and there is nothing
// more to report than which precondition failed.
var (
	// ErrOutOfDomain is returned when a point or box lies outside the
	// domain a tree was built with.
	ErrOutOfDomain = errors.New("orthotree: geometry outside domain")

	// ErrCapacityExceeded is returned at construction time when 1 + D*H
	// would exceed the location-code word minus one bit. Entity counts
	// are not checked.
	ErrCapacityExceeded = errors.New("orthotree: depth/dimension exceeds location-code capacity")

	// ErrDuplicateID is returned by Insert when the id is already present.
	ErrDuplicateID = errors.New("orthotree: duplicate entity id")

	// ErrNotFound is returned by Erase/Update when the id is absent.
	ErrNotFound = errors.New("orthotree: entity id not found")

	// ErrInvalidArgument covers malformed query arguments: a box with
	// min > max, k == 0 for k-NN, or a zero ray direction.
	ErrInvalidArgument = errors.New("orthotree: invalid argument")
)
