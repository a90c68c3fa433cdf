package orthotree

import "github.com/google/btree"

// storeNode is a node record keyed by its location code inside the
// store's btree. entities is in insertion order (ties broken by id only
// when the caller sorts the result, per spec.md §3). childMask bit i is
// set iff child i is present in the store.
type storeNode struct {
	code      Code
	entities  []int
	childMask uint64
}

// Less implements btree.Item, ordering nodes by location code — the same
// ordering the sorted node-store variant of spec.md §4.4 relies on for
// its range sweeps.
func (n *storeNode) Less(than btree.Item) bool {
	return n.code < than.(*storeNode).code
}

// store is the "sorted" node-store variant of spec.md §4.4: an ordered
// structure keyed by location code, so a descendant sweep is a
// contiguous range scan. It is backed by a google/btree.BTree — the same
// ordered key-value structure BBVA-qed's bplus storage package wires for
// its own AscendGreaterOrEqual-style range scans — rather than a
// hand-maintained sorted slice, so insert/delete don't pay an O(n)
// shift on every mutation.
type store struct {
	dim  int
	tree *btree.BTree
}

// btreeDegree matches the degree BBVA-qed's own BPlusTreeStore passes to
// btree.New.
const btreeDegree = 2

func newStore(dim int) *store {
	return &store{dim: dim, tree: btree.New(btreeDegree)}
}

func (s *store) get(code Code) (*storeNode, bool) {
	item := s.tree.Get(&storeNode{code: code})
	if item == nil {
		return nil, false
	}
	return item.(*storeNode), true
}

// ensure returns the node at code, creating it if absent.
func (s *store) ensure(code Code) *storeNode {
	if n, ok := s.get(code); ok {
		return n
	}
	n := &storeNode{code: code}
	s.tree.ReplaceOrInsert(n)
	return n
}

// removeIfEmpty deletes the node at code if it has no entities and no
// children, per invariant 1 in spec.md §3. It does not recurse to the
// parent; callers walk the ancestor chain themselves (see pruneEmptyChain).
func (s *store) removeIfEmpty(code Code) {
	n, ok := s.get(code)
	if !ok || code == rootCode {
		return
	}
	if len(n.entities) != 0 || n.childMask != 0 {
		return
	}
	s.tree.Delete(n)
}

// setChildBit marks child i of the node at parentCode as present. The
// parent node must already exist.
func (s *store) setChildBit(parent Code, i int) {
	n, ok := s.get(parent)
	if !ok {
		return
	}
	n.childMask |= 1 << uint(i)
}

func (s *store) clearChildBit(parent Code, i int) {
	n, ok := s.get(parent)
	if !ok {
		return
	}
	n.childMask &^= 1 << uint(i)
}

// ensureAncestors walks from code's parent up to (and not past) root,
// materialising any missing ancestor node and setting the relevant child
// bit on each, per the synthesis step of spec.md §4.5. It stops early once
// it reaches an already-present ancestor, since everything above that is
// guaranteed already materialised.
func (s *store) ensureAncestors(code Code) {
	dim := s.dim
	child := code
	for child != rootCode {
		parent := parentCode(child, dim)
		childIdx := int(child & (Code(siblingCount(dim)) - 1))
		_, existed := s.get(parent)
		p := s.ensure(parent)
		p.childMask |= 1 << uint(childIdx)
		if existed {
			return
		}
		child = parent
	}
}

// descendants returns, in ascending code order, every stored node whose
// code is a descendant of (but not equal to) ancestor, down to maxDepth.
// It scans one depth at a time using the exact, non-overlapping code
// range for that depth (see descendantCodeRange), which is what makes the
// scan a set of ordered range lookups (btree.AscendRange) rather than a
// full prefix test against every stored node.
func (s *store) descendants(ancestor Code, maxDepth int) []*storeNode {
	dim := s.dim
	startDepth := depthOf(ancestor, dim)
	var out []*storeNode
	for d := startDepth + 1; d <= maxDepth; d++ {
		lo, hi := descendantCodeRange(ancestor, dim, d)
		s.tree.AscendRange(&storeNode{code: lo}, &storeNode{code: hi + 1}, func(item btree.Item) bool {
			out = append(out, item.(*storeNode))
			return true
		})
	}
	return out
}

// pruneEmptyChain walks from code up to the root, deleting any node that
// has become empty (no entities, no children) after an erase, clearing
// the parent's child bit as it goes, per invariant 1 in spec.md §3.
func (s *store) pruneEmptyChain(code Code) {
	dim := s.dim
	for code != rootCode {
		n, ok := s.get(code)
		if !ok {
			return
		}
		if len(n.entities) != 0 || n.childMask != 0 {
			return
		}
		parent := parentCode(code, dim)
		childIdx := int(code & (Code(siblingCount(dim)) - 1))
		s.clearChildBit(parent, childIdx)
		s.removeIfEmpty(code)
		code = parent
	}
}

// ancestorsInclusive returns the chain [node(code), node(parent(code)),
// ..., node(root)] skipping any ancestor codes that have no stored node
// (which cannot happen for a code that itself is stored, by invariant 5,
// but can happen when code is a query's owner code that was never
// inserted as an entity's node).
func (s *store) ancestorsInclusive(code Code) []*storeNode {
	dim := s.dim
	var out []*storeNode
	for {
		if n, ok := s.get(code); ok {
			out = append(out, n)
		}
		if code == rootCode {
			break
		}
		code = parentCode(code, dim)
	}
	return out
}

// allNodes returns every stored node in ascending code order. Used where
// a caller needs to shard the whole store across goroutines (collision.go).
func (s *store) allNodes() []*storeNode {
	out := make([]*storeNode, 0, s.tree.Len())
	s.tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*storeNode))
		return true
	})
	return out
}
