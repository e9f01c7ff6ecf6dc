package tokenizer

// DefaultStopWords returns the frozen stop-word set spec.md §4.1 step 5
// names: corporate suffixes in English and Spanish, plus a small
// frequency-based blacklist. Treated as part of the external interface
// (spec.md §6) — change with care, it shifts every downstream score.
func DefaultStopWords() map[string]struct{} {
	words := []string{
		// English corporate suffixes
		"inc", "incorporated", "llc", "ltd", "limited", "corp", "corporation",
		"co", "company", "plc", "llp", "lp", "pllc", "pc", "group", "holdings",
		"holding", "enterprises", "industries", "partners", "associates",

		// Spanish corporate suffixes
		"sociedad", "anonima", "anonimas", "sa", "sl", "sc", "srl", "cia",
		"compania", "compañia", "compañía",

		// frequency-based blacklist
		"the", "a", "an", "and", "of", "de", "la", "el", "los", "las",
		"for", "to", "in", "on", "at",
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
