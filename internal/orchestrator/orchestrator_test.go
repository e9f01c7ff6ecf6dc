package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/config"
	"github.com/seanblong/fuzzydb/internal/engine"
	"github.com/seanblong/fuzzydb/internal/tokenizer"
	"github.com/seanblong/fuzzydb/pkg/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func scenarioBackbone(t *testing.T) *backbone.Backbone {
	t.Helper()
	cfg := config.BackboneConfiguration{
		ReferenceGroups: config.GroupSpec{
			"ID":   []string{"Customer_ID(1)"},
			"Name": []string{"Customer_Name(6)", "Industrial_Sector(2)"},
		},
		TargetGroups: config.GroupSpec{
			"ID":   []string{"Customer_ID(5)", "Customer_Name(1)"},
			"Name": []string{"Customer_Name(4)", "Customer_ID(1)"},
		},
		RefToTgt:        config.LinkSpec{"ID": "ID", "Name": "Name"},
		TgtToRef:        config.LinkSpec{"ID": "ID", "Name": []any{"Name", "ID"}},
		ReferenceKeyCol: "Customer_ID",
		TargetKeyCol:    "Customer_ID",
	}
	bb, err := backbone.New(cfg, testLogger())
	if err != nil {
		t.Fatalf("backbone.New failed: %v", err)
	}
	return bb
}

func TestRunProducesOneTuplePerQueryRow(t *testing.T) {
	bb := scenarioBackbone(t)
	tok := tokenizer.NewDefault()

	referenceTable := &models.Table{
		Columns: []string{"index", "Customer_ID", "Customer_Name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "0", "Customer_ID": "12345", "Customer_Name": "Foo Bar LLC"}},
			{Values: map[string]string{"index": "1", "Customer_ID": "", "Customer_Name": "Flat Ridge 4 Wind"}},
		},
	}
	e := engine.New(bb, tok, testLogger())
	e.BuildIndex(referenceTable)

	queryTable := &models.Table{
		Columns: []string{"index", "Customer_ID", "Customer_Name"},
		Rows: []models.Row{
			{Values: map[string]string{"index": "0", "Customer_ID": "12345"}},
			{Values: map[string]string{"index": "1", "Customer_Name": "Flat Ridge 4 Wind, LLC"}},
		},
	}

	o := New(bb, tok, 0.05, testLogger())
	tuples := o.Run(referenceTable, queryTable)

	if len(tuples) != 2 {
		t.Fatalf("expected 2 result tuples, got %d", len(tuples))
	}
	if tuples[0].TopIdx() != 0 {
		t.Errorf("expected exact-key query to resolve to idx 0, got %d", tuples[0].TopIdx())
	}
	if tuples[1].TopIdx() != 1 {
		t.Errorf("expected fuzzy query to resolve to idx 1, got %d", tuples[1].TopIdx())
	}
}

func TestWriteResultCSVWireShape(t *testing.T) {
	tuples := []models.ResultTuple{
		{QueryIdx: 0, Ranks: []models.RankedCandidate{{Idx: 4, Weight: 1}, {Idx: 5, Weight: 0.5}}, DamerauSim: 0.9, JaccardSim: 0.8, SameID: true},
		{QueryIdx: 1, DamerauSim: -1.0, JaccardSim: -1.0},
	}

	path := filepath.Join(t.TempDir(), "results.csv")
	if err := WriteResultCSV(path, tuples); err != nil {
		t.Fatalf("WriteResultCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "query,match,secondMatch,coefficientDamerau,coefficientJaccard,idMatch" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "0,4,5,0.900,0.800,1" {
		t.Errorf("unexpected row 1: %q", lines[1])
	}
	if lines[2] != "1,-1,-1,-1.000,-1.000,0" {
		t.Errorf("unexpected row 2: %q", lines[2])
	}
}
