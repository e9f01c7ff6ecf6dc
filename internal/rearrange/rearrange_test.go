package rearrange

import (
	"testing"

	"github.com/seanblong/fuzzydb/pkg/models"
)

func buildScenario4() (*models.Table, *models.Table, []models.ResultTuple) {
	queryTable := &models.Table{
		Columns: []string{"index", "name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "1", "name": "Acme Corp"}},
			{Values: map[string]string{"index": "2", "name": "Beta Holdings"}},
		},
	}
	referenceTable := &models.Table{
		Columns: []string{"index", "name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "10", "name": "Acme Corporation"}},
			{Values: map[string]string{"index": "11", "name": "Beta Holding Co"}},
		},
	}
	tuples := []models.ResultTuple{
		{QueryIdx: 1, Ranks: []models.RankedCandidate{{Idx: 10, Weight: 5}}},
		{QueryIdx: 2, Ranks: []models.RankedCandidate{{Idx: 10, Weight: 5}, {Idx: 11, Weight: 4}}},
	}
	return queryTable, referenceTable, tuples
}

func TestCollisionRearrangementPromotesLoser(t *testing.T) {
	queryTable, referenceTable, tuples := buildScenario4()

	r := New(0.20)
	r.Resolve(queryTable, referenceTable, tuples)

	seen := make(map[int]int)
	for _, tup := range tuples {
		seen[tup.TopIdx()]++
	}
	for idx, count := range seen {
		if count > 1 {
			t.Errorf("expected no collisions to remain, but idx %d has %d tuples", idx, count)
		}
	}

	if tuples[1].TopIdx() != 11 {
		t.Errorf("expected q2 to be promoted to idx 11, got %d", tuples[1].TopIdx())
	}
	if tuples[1].SecondIdx() != -1 {
		t.Errorf("expected q2's second rank to be cleared after promotion, got %d", tuples[1].SecondIdx())
	}
}

func TestNoCollisionLeavesTuplesUnchanged(t *testing.T) {
	queryTable := &models.Table{
		Columns: []string{"index", "name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "1", "name": "Acme Corp"}},
		},
	}
	referenceTable := &models.Table{
		Columns: []string{"index", "name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "10", "name": "Acme Corporation"}},
		},
	}
	tuples := []models.ResultTuple{
		{QueryIdx: 1, Ranks: []models.RankedCandidate{{Idx: 10, Weight: 5}}},
	}

	r := New(0.05)
	r.Resolve(queryTable, referenceTable, tuples)

	if tuples[0].TopIdx() != 10 {
		t.Errorf("expected singleton tuple to be left alone, got top idx %d", tuples[0].TopIdx())
	}
}

func TestRunningTwiceIsIdempotent(t *testing.T) {
	queryTable, referenceTable, tuples := buildScenario4()

	r := New(0.20)
	r.Resolve(queryTable, referenceTable, tuples)
	before := append([]models.ResultTuple(nil), tuples...)

	r.Resolve(queryTable, referenceTable, tuples)
	for i := range tuples {
		if tuples[i].TopIdx() != before[i].TopIdx() {
			t.Errorf("expected idempotent rerun, tuple %d top idx changed from %d to %d", i, before[i].TopIdx(), tuples[i].TopIdx())
		}
	}
}

func TestZeroDiffPercentOnlyPromotesOnTieOrBetter(t *testing.T) {
	queryTable := &models.Table{
		Columns: []string{"index", "name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "1", "name": "Acme Corp"}},
			{Values: map[string]string{"index": "2", "name": "Zzz Unrelated"}},
		},
	}
	referenceTable := &models.Table{
		Columns: []string{"index", "name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "10", "name": "Acme Corp"}},
			{Values: map[string]string{"index": "11", "name": "Completely Different Name"}},
		},
	}
	tuples := []models.ResultTuple{
		{QueryIdx: 1, Ranks: []models.RankedCandidate{{Idx: 10, Weight: 5}}},
		{QueryIdx: 2, Ranks: []models.RankedCandidate{{Idx: 10, Weight: 5}, {Idx: 11, Weight: 4}}},
	}

	r := New(0)
	r.Resolve(queryTable, referenceTable, tuples)

	// winner distance is 0 and q2's second candidate is farther than that,
	// so with diff_percent 0 q2 is not promoted.
	if tuples[1].TopIdx() != 10 {
		t.Errorf("expected no promotion when d_second > d_winner, got top idx %d", tuples[1].TopIdx())
	}
}
