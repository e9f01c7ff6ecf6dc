// Package similarity implements the SimilarityComparator of spec.md §4.8:
// a normalized Damerau-Levenshtein distance over sorted value concatenations,
// a Jaccard coefficient over row value sets, a restricted edit distance with
// an explicit transposition recurrence over ordered concatenations, and a
// weighted composite blend of the three. The orchestrator reports only the
// Damerau and Jaccard coefficients in a ResultTuple.
package similarity

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// Blend weights for Composite (spec.md §4.8).
const (
	alpha = 0.6  // damerau weight
	beta  = 0.15 // jaccard weight
	gamma = 0.25 // lev_trans_norm weight
)

// Comparator computes the three row-level similarity coefficients and their
// weighted blend. It carries no state and is safe for concurrent use.
type Comparator struct{}

// New returns a Comparator.
func New() Comparator { return Comparator{} }

// Damerau builds one string per row from the values of targetHeaders and
// referenceHeaders respectively, sorts each row's values lexicographically
// before joining, and returns 1 - d/max(len1, len2), where d is the
// restricted edit distance (with transposition) between the two strings.
// Two empty rows are defined as identical (1.0).
func (Comparator) Damerau(target, reference models.Row, targetHeaders, referenceHeaders []string) float64 {
	a := buildSortedString(target, targetHeaders)
	b := buildSortedString(reference, referenceHeaders)
	return normalizedDistance(a, b)
}

// Jaccard treats the non-empty cell values of each row as a set and returns
// |intersection| / |union|. Two rows with no values at all are identical
// (1.0); a row with values against one with none is maximally dissimilar.
func (Comparator) Jaccard(target, reference models.Row) float64 {
	ts := valueSet(target)
	rs := valueSet(reference)
	if len(ts) == 0 && len(rs) == 0 {
		return 1.0
	}

	union := make(map[string]struct{}, len(ts)+len(rs))
	for v := range ts {
		union[v] = struct{}{}
	}
	for v := range rs {
		union[v] = struct{}{}
	}

	inter := 0
	for v := range ts {
		if _, ok := rs[v]; ok {
			inter++
		}
	}

	return float64(inter) / float64(len(union))
}

// LevenshteinTransposition returns the restricted edit distance between a
// and b: standard insertion/deletion/substitution plus the extra
// dp[i-2][j-2]+1 recurrence that prices a transposed adjacent pair as a
// single edit (spec.md §4.8).
func (Comparator) LevenshteinTransposition(a, b string) int {
	return restrictedEditDistance(a, b)
}

// Composite blends the three coefficients per spec.md §4.8: alpha*damerau +
// beta*jaccard + gamma*lev_trans_norm, where lev_trans_norm normalizes
// LevenshteinTransposition the same way Damerau does, but over the
// header-ordered (not lexicographically sorted) concatenation of values.
func (c Comparator) Composite(target, reference models.Row, targetHeaders, referenceHeaders []string) float64 {
	damerau := c.Damerau(target, reference, targetHeaders, referenceHeaders)
	jaccard := c.Jaccard(target, reference)

	a := buildOrderedString(target, targetHeaders)
	b := buildOrderedString(reference, referenceHeaders)
	levTransNorm := normalizedDistance(a, b)

	return alpha*damerau + beta*jaccard + gamma*levTransNorm
}

// Levenshtein is the plain (no-transposition) edit distance used by the
// collision rearranger's tiebreak (spec.md §4.9); it wraps the pack's
// agnivade/levenshtein implementation rather than hand-rolling a second DP.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

func buildSortedString(r models.Row, headers []string) string {
	vals := make([]string, 0, len(headers))
	for _, h := range headers {
		vals = append(vals, r.Get(h))
	}
	sort.Strings(vals)
	return strings.Join(vals, " ")
}

func buildOrderedString(r models.Row, headers []string) string {
	vals := make([]string, 0, len(headers))
	for _, h := range headers {
		vals = append(vals, r.Get(h))
	}
	return strings.Join(vals, " ")
}

func valueSet(r models.Row) map[string]struct{} {
	set := make(map[string]struct{}, len(r.Values))
	for _, v := range r.Values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func normalizedDistance(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	d := restrictedEditDistance(a, b)
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(d)/float64(maxLen)
}

// restrictedEditDistance is the optimal-string-alignment variant of
// Damerau-Levenshtein: insertion, deletion, substitution, and the
// transposition of two adjacent runes, each costing one edit.
func restrictedEditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	n, m := len(ra), len(rb)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
		dp[i][0] = i
	}
	for j := 0; j <= m; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			dp[i][j] = min3(
				dp[i-1][j]+1,
				dp[i][j-1]+1,
				dp[i-1][j-1]+cost,
			)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if t := dp[i-2][j-2] + 1; t < dp[i][j] {
					dp[i][j] = t
				}
			}
		}
	}

	return dp[n][m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
