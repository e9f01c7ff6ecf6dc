// Package rearrange implements the CollisionRearranger of spec.md §4.9: a
// fixed-point pass that resolves query rows sharing the same top-ranked
// reference candidate by promoting the loser to its next-best rank when
// the loser's name is no meaningfully worse a match than the winner's.
package rearrange

import (
	"strings"

	"github.com/seanblong/fuzzydb/internal/similarity"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// Rearranger resolves collisions in a slice of ResultTuples in place.
type Rearranger struct {
	diffPercent float64
}

// New returns a Rearranger using diffPercent as the tolerance in the
// promotion test (spec.md §4.9); spec.md §6 default is 0.05.
func New(diffPercent float64) *Rearranger {
	return &Rearranger{diffPercent: diffPercent}
}

// Resolve runs the fixed-point algorithm of spec.md §4.9 to completion,
// mutating tuples. queryTable supplies the query-row "name-like" column
// for each tuple's QueryIdx; referenceTable supplies it for each
// candidate's Idx.
func (r *Rearranger) Resolve(queryTable, referenceTable *models.Table, tuples []models.ResultTuple) {
	for {
		changed := false
		collisions := make(map[int][]int)
		for i := range tuples {
			t := &tuples[i]
			if t.Status == models.StatusVerified {
				continue
			}
			collisions[t.TopIdx()] = append(collisions[t.TopIdx()], i)
		}

		for topIdx, group := range collisions {
			if topIdx < 0 || len(group) < 2 {
				continue
			}

			winner := group[0]
			winnerDist := r.nameDist(queryTable, referenceTable, tuples[winner], tuples[winner].TopIdx())
			for _, i := range group[1:] {
				d := r.nameDist(queryTable, referenceTable, tuples[i], tuples[i].TopIdx())
				if d < winnerDist {
					winner = i
					winnerDist = d
				}
			}

			for _, i := range group {
				if i == winner {
					continue
				}
				t := &tuples[i]
				if t.Status == models.StatusVerified {
					continue
				}
				if t.SecondIdx() < 0 {
					t.Status = models.StatusVerified
					continue
				}

				dSecond := r.nameDist(queryTable, referenceTable, *t, t.SecondIdx())
				if float64(dSecond) <= float64(winnerDist)*(1+r.diffPercent) {
					t.PromoteNext()
					changed = true
				} else {
					t.Status = models.StatusVerified
				}
			}
		}

		if !changed {
			break
		}
	}
}

// nameDist is lev(findNameCol(query row), findNameCol(candidate row))
// for the candidate at candidateIdx (a reference-table row index).
func (r *Rearranger) nameDist(queryTable, referenceTable *models.Table, t models.ResultTuple, candidateIdx int) int {
	queryRow, _ := queryTable.ByIndex(t.QueryIdx)
	candidateRow, _ := referenceTable.ByIndex(candidateIdx)
	return similarity.Levenshtein(findNameCol(queryTable, queryRow), findNameCol(referenceTable, candidateRow))
}

// findNameCol returns the value of the first column whose lowercased name
// contains "name", or "" if no such column exists (spec.md §4.9).
func findNameCol(table *models.Table, row models.Row) string {
	for _, col := range table.Columns {
		if strings.Contains(strings.ToLower(col), "name") {
			return row.Get(col)
		}
	}
	return ""
}
