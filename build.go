package orthotree

import (
	"container/heap"
	"runtime"
	"sort"
	"sync"
)

// codeEntity pairs an entity id with its owner location code, the unit
// the bulk-build pipeline (C8) sorts and synthesises from.
type codeEntity struct {
	code Code
	id   int
}

type byCode []codeEntity

func (b byCode) Len() int           { return len(b) }
func (b byCode) Less(i, j int) bool { return b[i].code < b[j].code }
func (b byCode) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// sortCodeEntities sorts pairs by code ascending, stably, so entities
// sharing a code keep their input order (spec.md §4.5 step 2). When
// parallel is requested and there are enough pairs to make it worthwhile,
// the work is sharded across goroutines and merged back, grounded on the
// worker fan-out pattern used for concurrent request handling elsewhere in
// the retrieval pack (aukilabs/hagall's session workers) and adapted here
// for a one-shot divide-and-conquer sort rather than a long-lived pool.
func sortCodeEntities(pairs []codeEntity, parallel bool) {
	if !parallel || len(pairs) < parallelSortThreshold {
		sort.Stable(byCode(pairs))
		return
	}
	parallelSortCodeEntities(pairs)
}

const parallelSortThreshold = 1 << 14

func parallelSortCodeEntities(pairs []codeEntity) {
	workers := runtime.GOMAXPROCS(0)
	if workers < 2 {
		sort.Stable(byCode(pairs))
		return
	}
	n := len(pairs)
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	var chunks [][]codeEntity
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunk := pairs[start:end]
		chunks = append(chunks, chunk)
		wg.Add(1)
		go func(c []codeEntity) {
			defer wg.Done()
			sort.Stable(byCode(c))
		}(chunk)
	}
	wg.Wait()

	merged := mergeSortedChunks(chunks)
	copy(pairs, merged)
}

// mergeHeapItem is one chunk's current head during the k-way merge below.
type mergeHeapItem struct {
	entry      codeEntity
	chunkIdx   int
	posInChunk int
}

type mergeHeap []mergeHeapItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].entry.code != h[j].entry.code {
		return h[i].entry.code < h[j].entry.code
	}
	// Tie: prefer the lower chunk index, and within that the earlier
	// position, so entities with equal codes keep their relative order
	// from the original (pre-shard) slice — chunks are contiguous runs
	// of the original order, and each was itself sorted stably.
	return h[i].chunkIdx < h[j].chunkIdx
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(mergeHeapItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeSortedChunks k-way merges already-sorted chunks into one slice,
// preserving stability as described on mergeHeap.Less.
func mergeSortedChunks(chunks [][]codeEntity) []codeEntity {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]codeEntity, 0, total)

	h := make(mergeHeap, 0, len(chunks))
	for ci, c := range chunks {
		if len(c) == 0 {
			continue
		}
		h = append(h, mergeHeapItem{entry: c[0], chunkIdx: ci, posInChunk: 0})
	}
	heap.Init(&h)

	for h.Len() > 0 {
		top := heap.Pop(&h).(mergeHeapItem)
		out = append(out, top.entry)
		next := top.posInChunk + 1
		if next < len(chunks[top.chunkIdx]) {
			heap.Push(&h, mergeHeapItem{entry: chunks[top.chunkIdx][next], chunkIdx: top.chunkIdx, posInChunk: next})
		}
	}
	return out
}

// synthesize performs the linear pass of spec.md §4.5 step 3: group runs
// of equal code into node entity lists, and materialise every ancestor of
// every newly-seen code. pairs must already be sorted by code.
func synthesize(s *store, pairs []codeEntity) {
	s.ensure(rootCode)
	i := 0
	for i < len(pairs) {
		code := pairs[i].code
		j := i
		n := s.ensure(code)
		for j < len(pairs) && pairs[j].code == code {
			n.entities = append(n.entities, pairs[j].id)
			j++
		}
		s.ensureAncestors(code)
		i = j
	}
}
