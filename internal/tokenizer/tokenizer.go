// Package tokenizer turns a cell string into the bag of tokens the index
// and scoring pipeline operate on (spec.md §4.1).
package tokenizer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Profile plumbs the tokenizer's tuning constants through a value instead
// of literals (spec.md §9's redesign note on "fuzzy-scoring magic
// constants"), so they're testable and swappable while DefaultProfile
// reproduces the spec's frozen defaults exactly.
type Profile struct {
	// LongThreshold/LongReplicate: trimmed inputs longer than this emit a
	// whole-input sentinel this many times.
	LongThreshold int
	LongReplicate int
	// MediumThreshold/MediumReplicate: the same, one tier down.
	MediumThreshold int
	MediumReplicate int
	// NumericReplicate: repeat count for a >=4-digit numeric word.
	NumericReplicate int
	// NumericMinDigits: minimum run of digits that marks a word numeric.
	NumericMinDigits int
	// CutSizes: exact substring lengths shredded from each non-numeric
	// word, at even starting offsets.
	CutSizes []int
	// NGramWindows: sliding window sizes joined over the filtered word
	// list.
	NGramWindows []int
	// StopWords: frozen, case-insensitive set dropped after punctuation
	// removal.
	StopWords map[string]struct{}
}

// DefaultProfile reproduces spec.md §4.1's frozen defaults.
func DefaultProfile() Profile {
	return Profile{
		LongThreshold:    10,
		LongReplicate:    400,
		MediumThreshold:  7,
		MediumReplicate:  100,
		NumericReplicate: 3,
		NumericMinDigits: 4,
		CutSizes:         []int{4, 5, 7, 8, 10, 10, 13, 14, 15, 17, 17},
		NGramWindows:     []int{2, 3, 4},
		StopWords:        DefaultStopWords(),
	}
}

// Tokenizer is stateless; Tokenize is deterministic for equal inputs.
type Tokenizer struct {
	profile   Profile
	numericRe *regexp.Regexp
}

// New returns a Tokenizer using the given Profile.
func New(profile Profile) *Tokenizer {
	return &Tokenizer{
		profile:   profile,
		numericRe: regexp.MustCompile(`\d{` + strconv.Itoa(profile.NumericMinDigits) + `,}`),
	}
}

// NewDefault returns a Tokenizer using DefaultProfile.
func NewDefault() *Tokenizer {
	return New(DefaultProfile())
}

// Tokenize implements spec.md §4.1's pipeline. Empty or whitespace-only
// input returns an empty (nil) token slice; this is not an error.
func (t *Tokenizer) Tokenize(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	trimmed := strings.ToLower(trimPunctAndSpace(input))
	if trimmed == "" {
		return nil
	}

	var tokens []string

	switch {
	case len([]rune(trimmed)) > t.profile.LongThreshold:
		sentinel := "$" + trimmed + "$"
		for i := 0; i < t.profile.LongReplicate; i++ {
			tokens = append(tokens, sentinel)
		}
	case len([]rune(trimmed)) > t.profile.MediumThreshold:
		sentinel := "$" + trimmed + "$"
		for i := 0; i < t.profile.MediumReplicate; i++ {
			tokens = append(tokens, sentinel)
		}
	}

	noPunct := stripPunct(trimmed)
	words := strings.Fields(noPunct)

	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := t.profile.StopWords[strings.ToLower(w)]; stop {
			continue
		}
		filtered = append(filtered, w)
	}

	for _, w := range filtered {
		tokens = append(tokens, "$"+w+"$")
		tokens = append(tokens, "$#"+w+"$#")

		if t.numericRe.MatchString(w) {
			for i := 0; i < t.profile.NumericReplicate; i++ {
				tokens = append(tokens, w)
			}
			continue
		}

		for _, cut := range t.profile.CutSizes {
			if len(w) < cut {
				continue
			}
			for start := 0; start+cut <= len(w); start += 2 {
				tokens = append(tokens, w[start:start+cut])
			}
		}
	}

	for _, win := range t.profile.NGramWindows {
		if win <= 0 || win > len(filtered) {
			continue
		}
		for i := 0; i+win <= len(filtered); i++ {
			tokens = append(tokens, strings.Join(filtered[i:i+win], " "))
		}
	}

	return tokens
}

func trimPunctAndSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
