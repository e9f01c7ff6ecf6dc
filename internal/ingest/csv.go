// Package ingest loads reference and query tables from CSV (spec.md §6's
// "tabular ingestion contract") and applies the optional regex
// pre-cleaning pass (spec.md §6's "regex pre-processing contract").
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/jszwec/csvutil"

	"github.com/seanblong/fuzzydb/internal/ferrors"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// LoadTable reads the CSV file at path into a models.Table: the header
// row becomes column names, every row gets an injected models.IndexHeader
// column holding its zero-based ordinal, and empty cells stay "".
// Returns ferrors.KindInput if the file cannot be opened or its header
// row already contains an "index" column.
func LoadTable(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.KindInput, "open table file "+path, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.KindInput, "read header of "+path, err)
	}

	header := dec.Header()
	for _, h := range header {
		if h == models.IndexHeader {
			return nil, ferrors.New(ferrors.KindInput, path+" already has an \""+models.IndexHeader+"\" column")
		}
	}
	columns := append(append([]string(nil), header...), models.IndexHeader)

	var rows []models.Row
	for ordinal := 0; ; ordinal++ {
		rec := make(map[string]string, len(header))
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, ferrors.Wrap(ferrors.KindInput, "decode row of "+path, err)
		}
		rec[models.IndexHeader] = strconv.Itoa(ordinal)
		rows = append(rows, models.Row{Values: rec})
	}

	return &models.Table{Columns: columns, Rows: rows}, nil
}
