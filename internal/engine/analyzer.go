package engine

import "container/heap"

// analyzerEntry is one row-index accumulator tracked by QueryAnalyzer.
type analyzerEntry struct {
	idx    int
	weight float64
	index  int // position in the heap, maintained by container/heap
}

type entryHeap []*analyzerEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return h[i].weight > h[j].weight }

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*analyzerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// QueryAnalyzer accumulates per-row-index contribution weights during
// Phase B scoring and drains them in descending order (spec.md §4.7). It
// is a max-heap keyed by an auxiliary map: Increase on an existing index
// looks the entry up in O(1) and repositions it with heap.Fix in O(log n)
// instead of doing a linear rescan.
type QueryAnalyzer struct {
	h     entryHeap
	byIdx map[int]*analyzerEntry
}

// NewQueryAnalyzer returns an empty QueryAnalyzer.
func NewQueryAnalyzer() *QueryAnalyzer {
	return &QueryAnalyzer{
		h:     make(entryHeap, 0),
		byIdx: make(map[int]*analyzerEntry),
	}
}

// Increase adds delta to idx's accumulated weight, creating the entry if
// it does not yet exist.
func (a *QueryAnalyzer) Increase(idx int, delta float64) {
	if e, ok := a.byIdx[idx]; ok {
		e.weight += delta
		heap.Fix(&a.h, e.index)
		return
	}
	e := &analyzerEntry{idx: idx, weight: delta}
	a.byIdx[idx] = e
	heap.Push(&a.h, e)
}

// DrainSorted empties the analyzer, yielding (idx, weight) pairs in
// descending weight order.
func (a *QueryAnalyzer) DrainSorted() []Candidate {
	out := make([]Candidate, 0, len(a.byIdx))
	for a.h.Len() > 0 {
		e := heap.Pop(&a.h).(*analyzerEntry)
		out = append(out, Candidate{Idx: e.idx, Weight: e.weight})
	}
	a.byIdx = make(map[int]*analyzerEntry)
	return out
}

// Candidate is one drained (row-index, accumulated-weight) pair.
type Candidate struct {
	Idx    int
	Weight float64
}
