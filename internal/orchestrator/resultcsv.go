package orchestrator

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/seanblong/fuzzydb/internal/ferrors"
	"github.com/seanblong/fuzzydb/pkg/models"
)

var resultHeader = []string{"query", "match", "secondMatch", "coefficientDamerau", "coefficientJaccard", "idMatch"}

// WriteResultCSV writes tuples to path in the wire shape of spec.md §6:
// query,match,secondMatch,coefficientDamerau,coefficientJaccard,idMatch.
// encoding/csv (stdlib) is used rather than forcing this through
// jszwec/csvutil: csvutil is a struct-tag marshaler built for reading a
// fixed schema into typed rows, not an ad-hoc six-column writer — using
// it here would mean defining a throwaway struct purely to satisfy the
// library, so the ingestion/output asymmetry is deliberate.
func WriteResultCSV(path string, tuples []models.ResultTuple) error {
	f, err := os.Create(path)
	if err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "create result csv "+path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultHeader); err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "write result csv header", err)
	}

	for _, t := range tuples {
		idMatch := "0"
		if t.SameID {
			idMatch = "1"
		}
		record := []string{
			strconv.Itoa(t.QueryIdx),
			strconv.Itoa(t.TopIdx()),
			strconv.Itoa(t.SecondIdx()),
			fmt.Sprintf("%.3f", t.DamerauSim),
			fmt.Sprintf("%.3f", t.JaccardSim),
			idMatch,
		}
		if err := w.Write(record); err != nil {
			return ferrors.Wrap(ferrors.KindPersistence, "write result csv row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "flush result csv", err)
	}
	return nil
}
