// Package models holds the wire types shared across fuzzydb's packages:
// the tabular data model (Row, Table) and the per-query result shape
// (ResultTuple) emitted by the orchestrator.
package models

// IndexHeader is the synthetic column every Row carries: its zero-based
// ordinal in the source table.
const IndexHeader = "index"

// Row is a mapping from column name to cell value; column order is kept by
// the owning Table's Columns, not by the Row. Rows are
// immutable after ingestion; Values is the only mutable view callers get
// (a defensive copy is never made — callers must not mutate cells outside
// ingestion).
type Row struct {
	Values map[string]string
}

// Get returns the cell value for header, or "" if the header is absent.
func (r Row) Get(header string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[header]
}

// Index returns the row's synthetic ordinal, or -1 if it was never set.
func (r Row) Index() int {
	v, ok := r.Values[IndexHeader]
	if !ok {
		return -1
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Table is an ordered sequence of Rows with a known list of column names.
type Table struct {
	Columns []string
	Rows    []Row
}

// ByIndex returns the row whose synthetic index equals idx, or false if
// none matches. Linear in the common case; callers that need repeated
// lookups should build their own index.
func (t *Table) ByIndex(idx int) (Row, bool) {
	for _, r := range t.Rows {
		if r.Index() == idx {
			return r, true
		}
	}
	return Row{}, false
}

// Subset returns the rows whose synthetic index is in idxs, preserving the
// order of idxs.
func (t *Table) Subset(idxs []int) []Row {
	out := make([]Row, 0, len(idxs))
	for _, idx := range idxs {
		if r, ok := t.ByIndex(idx); ok {
			out = append(out, r)
		}
	}
	return out
}

// RankedCandidate is one rank level of a ResultTuple: a reference row index
// plus its accumulated weight. An absent rank has Idx == -1.
type RankedCandidate struct {
	Idx    int
	Weight float64
}

// MatchStatus is a ResultTuple's collision-rearrangement state.
type MatchStatus string

const (
	StatusOpen     MatchStatus = "OPEN"
	StatusVerified MatchStatus = "VERIFIED"
)

// ResultTuple is the per-query-row outcome described in spec.md §3 and §6.
// Ranks[0] is the top candidate, Ranks[1] the second, and so on; the
// collision rearranger generalizes to len(Ranks) > 2 (spec.md §9) but the
// default pipeline only ever populates two.
type ResultTuple struct {
	QueryIdx    int
	Ranks       []RankedCandidate
	DamerauSim  float64
	JaccardSim  float64
	SameID      bool
	Status      MatchStatus
}

// TopIdx returns Ranks[0].Idx, or -1 if there is no top candidate.
func (t *ResultTuple) TopIdx() int {
	if len(t.Ranks) == 0 {
		return -1
	}
	return t.Ranks[0].Idx
}

// TopWeight returns Ranks[0].Weight, or 0 if there is no top candidate.
func (t *ResultTuple) TopWeight() float64 {
	if len(t.Ranks) == 0 {
		return 0
	}
	return t.Ranks[0].Weight
}

// SecondIdx returns Ranks[1].Idx, or -1 if there is no second candidate.
func (t *ResultTuple) SecondIdx() int {
	if len(t.Ranks) < 2 {
		return -1
	}
	return t.Ranks[1].Idx
}

// SecondWeight returns Ranks[1].Weight, or 0 if there is no second candidate.
func (t *ResultTuple) SecondWeight() float64 {
	if len(t.Ranks) < 2 {
		return 0
	}
	return t.Ranks[1].Weight
}

// PromoteNext drops Ranks[0] and shifts every remaining rank up by one,
// the K-rank generalization of "top_idx = second_idx; second_idx = -1"
// (spec.md §4.9).
func (t *ResultTuple) PromoteNext() {
	if len(t.Ranks) == 0 {
		return
	}
	t.Ranks = append(t.Ranks[:0], t.Ranks[1:]...)
}
