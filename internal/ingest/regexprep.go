package ingest

import (
	"regexp"

	"github.com/seanblong/fuzzydb/internal/ferrors"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// PreClean applies the configured (header, pattern) regexes in place over
// table's rows: each cell under header is replaced by the first capture
// group of the first match, or left unchanged if the pattern does not
// match. Every pattern MUST have at least one capture group — that is a
// configuration mistake, not a per-row one, so it fails fast with
// ferrors.KindConfig rather than silently leaving cells untouched.
// Returns the per-header match count (spec.md §6).
func PreClean(table *models.Table, patterns map[string]string) (map[string]int, error) {
	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for header, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.KindConfig, "compile regex pre-processing pattern for "+header, err)
		}
		if re.NumSubexp() < 1 {
			return nil, ferrors.New(ferrors.KindConfig, "regex pre-processing pattern for "+header+" has no capture group")
		}
		compiled[header] = re
	}

	counts := make(map[string]int, len(compiled))
	for header, re := range compiled {
		for i := range table.Rows {
			cell := table.Rows[i].Values[header]
			m := re.FindStringSubmatch(cell)
			if m == nil {
				continue
			}
			table.Rows[i].Values[header] = m[1]
			counts[header]++
		}
	}

	return counts, nil
}
