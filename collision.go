package orthotree

import (
	"sort"
	"sync"
)

// Pair is an unordered collision pair with First < Second, per spec.md
// §6's collision_pairs contract.
type Pair struct {
	First, Second int
}

// CollisionOptions configures CollisionPairs.
type CollisionOptions struct {
	// Strict excludes pairs that only touch along a shared face.
	Strict bool
	// Parallel shards candidate production across worker goroutines, one
	// per contiguous slice of the node store (spec.md §5: "candidate pair
	// production is embarrassingly parallel across owner nodes"). Output
	// order is unspecified either way; CollisionPairs always sorts
	// before returning so callers see a deterministic result regardless.
	Parallel bool
}

// CollisionPairs enumerates every pair of stored boxes that overlap,
// exactly once, per spec.md §4.7's self-collision algorithm: for each
// node, pair up its own entities, and pair each of its entities against
// every ancestor entity whose box overlaps the node's cell (a cheap prune
// before the real box-vs-box test). Because split-depth storage can place
// the same pair of entities together in more than one shared node, the
// candidate lists are deduplicated before returning (P5 in spec.md §8).
func (t *BoxTree[T, B]) CollisionPairs(opts CollisionOptions) []Pair {
	nodes := t.store.allNodes()
	var candidates [][]Pair
	if opts.Parallel {
		candidates = t.collisionCandidatesParallel(nodes, opts.Strict)
	} else {
		candidates = [][]Pair{t.collisionCandidatesRange(nodes, 0, len(nodes), opts.Strict)}
	}
	return dedupPairs(candidates)
}

// collisionCandidatesRange produces raw (possibly duplicate) candidate
// pairs for nodes[start:end].
func (t *BoxTree[T, B]) collisionCandidatesRange(nodes []*storeNode, start, end int, strict bool) []Pair {
	var out []Pair
	for i := start; i < end; i++ {
		out = append(out, t.collisionCandidatesForNode(nodes[i], strict)...)
	}
	return out
}

func (t *BoxTree[T, B]) collisionCandidatesForNode(n *storeNode, strict bool) []Pair {
	var out []Pair
	ents := n.entities
	for i := 0; i < len(ents); i++ {
		for j := i + 1; j < len(ents); j++ {
			if pair, ok := t.orderedOverlap(ents[i], ents[j], strict); ok {
				out = append(out, pair)
			}
		}
	}
	if n.code == rootCode {
		return out
	}
	cellMin, cellMax := cellBounds(t.grid, n.code)
	for _, anc := range t.store.ancestorsInclusive(parentCode(n.code, t.dim)) {
		for _, a := range anc.entities {
			aMin, aMax := t.minMax(t.boxes[a])
			if !boxesOverlap(aMin, aMax, cellMin, cellMax, false) {
				continue
			}
			for _, b := range ents {
				if pair, ok := t.orderedOverlap(a, b, strict); ok {
					out = append(out, pair)
				}
			}
		}
	}
	return out
}

func (t *BoxTree[T, B]) orderedOverlap(a, b int, strict bool) (Pair, bool) {
	aMin, aMax := t.minMax(t.boxes[a])
	bMin, bMax := t.minMax(t.boxes[b])
	if !boxesOverlap(aMin, aMax, bMin, bMax, strict) {
		return Pair{}, false
	}
	if a > b {
		a, b = b, a
	}
	return Pair{First: a, Second: b}, true
}

// collisionShardCount caps how many goroutines CollisionPairs spawns; the
// node store rarely has enough nodes to benefit from more than this.
const collisionShardCount = 8

func (t *BoxTree[T, B]) collisionCandidatesParallel(nodes []*storeNode, strict bool) [][]Pair {
	n := len(nodes)
	shards := collisionShardCount
	if shards > n {
		shards = n
	}
	if shards <= 1 {
		return [][]Pair{t.collisionCandidatesRange(nodes, 0, n, strict)}
	}
	chunk := (n + shards - 1) / shards
	results := make([][]Pair, shards)
	var wg sync.WaitGroup
	for s := 0; s < shards; s++ {
		start := s * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(shard, start, end int) {
			defer wg.Done()
			results[shard] = t.collisionCandidatesRange(nodes, start, end, strict)
		}(s, start, end)
	}
	wg.Wait()
	return results
}

// dedupPairs flattens and sorts candidate pair lists, then removes
// duplicates. Sorting also gives CollisionPairs a deterministic result
// regardless of how candidates were sharded.
func dedupPairs(candidateLists [][]Pair) []Pair {
	total := 0
	for _, c := range candidateLists {
		total += len(c)
	}
	all := make([]Pair, 0, total)
	for _, c := range candidateLists {
		all = append(all, c...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].First != all[j].First {
			return all[i].First < all[j].First
		}
		return all[i].Second < all[j].Second
	})
	out := all[:0]
	for i, p := range all {
		if i == 0 || p != all[i-1] {
			out = append(out, p)
		}
	}
	return out
}
