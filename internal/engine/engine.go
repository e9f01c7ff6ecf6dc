// Package engine builds the reference-side inverted index (spec.md §4.5)
// and scores query rows against it (spec.md §4.6): the exact-key fast
// path, then fuzzy scoring through the Backbone's GroupBlocks and a
// QueryAnalyzer.
package engine

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/index"
	"github.com/seanblong/fuzzydb/internal/tokenizer"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// Length-weight and bucket-filter constants (spec.md §4.6), frozen exactly
// as specified rather than threaded through a Profile: unlike the
// tokenizer's constants, the spec never calls these out as a redesign
// candidate.
const (
	lengthC = 2.0
	lengthS = -7.0
	lengthM = 0.2
	filterC = 10.0
	filterH = 0.7
)

// Engine is the FuzzyDatabase of spec.md §3: a Backbone with every
// reference GroupBlock's payload built into a Pool, ready to score query
// rows.
type Engine struct {
	bb  *backbone.Backbone
	tok *tokenizer.Tokenizer
	log zerolog.Logger
}

// New returns an Engine over bb, tokenizing with tok.
func New(bb *backbone.Backbone, tok *tokenizer.Tokenizer, log zerolog.Logger) *Engine {
	return &Engine{bb: bb, tok: tok, log: log}
}

// BuildIndex tokenizes every reference-side header of every row in ref and
// folds the postings into each linked GroupBlock's Pool (spec.md §4.5).
func (e *Engine) BuildIndex(ref *models.Table) {
	for _, r := range ref.Rows {
		idx := r.Index()
		if idx < 0 {
			continue
		}
		for _, h := range e.bb.InputHeaders(backbone.Reference) {
			tokens := e.tok.Tokenize(r.Get(h))
			if len(tokens) == 0 {
				continue
			}
			for _, g := range e.bb.GroupsFromHeader(h, backbone.Reference) {
				pool, ok := poolFor(g)
				if !ok {
					continue
				}
				w := g.WeightOf(h)
				for _, tok := range tokens {
					pool.Place(tok, index.Posting{Idx: idx, Weight: w})
				}
			}
		}
	}
}

// poolFor returns the reference GroupBlock's Pool, creating it if the
// payload is still Empty. A GroupBlock whose payload is a QueryPayload
// (reference groups should never hold one) is skipped defensively rather
// than panicking (spec.md §4.5).
func poolFor(g *backbone.GroupBlock) (*index.Pool, bool) {
	switch p := g.Payload().(type) {
	case backbone.EmptyPayload:
		pool := index.NewPool()
		g.SetPayload(backbone.IndexPayload{Pool: pool})
		return pool, true
	case backbone.IndexPayload:
		return p.Pool, true
	default:
		return nil, false
	}
}

// Query scores q against the built index and returns candidates ordered
// descending by weight (spec.md §4.6). The exact-key fast path short
// circuits fuzzy scoring entirely when it produces any hits.
func (e *Engine) Query(q models.Row) []models.RankedCandidate {
	if key := q.Get(e.bb.TargetKeyHeader()); key != "" {
		if hits := e.lookupByID(key); len(hits) > 0 {
			return hits
		}
	}
	return e.scoreFuzzy(q)
}

// lookupByID implements Phase A (spec.md §4.6): every distinct reference
// row index whose reference-key GroupBlock(s) carry key as a literal
// token, annotated with the +Inf sentinel weight so it always outranks a
// fuzzy score.
func (e *Engine) lookupByID(key string) []models.RankedCandidate {
	seen := make(map[int]struct{})
	var out []models.RankedCandidate
	for _, g := range e.bb.GroupsFromHeader(e.bb.ReferenceKeyHeader(), backbone.Reference) {
		p, ok := g.Payload().(backbone.IndexPayload)
		if !ok {
			continue
		}
		bucket := p.Pool.Get(key)
		if bucket == nil {
			continue
		}
		for _, posting := range bucket.Entries() {
			if _, dup := seen[posting.Idx]; dup {
				continue
			}
			seen[posting.Idx] = struct{}{}
			out = append(out, models.RankedCandidate{Idx: posting.Idx, Weight: math.Inf(1)})
		}
	}
	return out
}

// scoreFuzzy implements Phase B (spec.md §4.6): accumulate each target
// group's query tokens, walk every linked reference Pool, and drain the
// QueryAnalyzer in descending weight order.
func (e *Engine) scoreFuzzy(q models.Row) []models.RankedCandidate {
	e.bb.ClearTargetPayloads()

	for _, h := range e.bb.InputHeaders(backbone.Target) {
		tokens := e.tok.Tokenize(q.Get(h))
		if len(tokens) == 0 {
			continue
		}
		for _, g := range e.bb.GroupsFromHeader(h, backbone.Target) {
			appendQueryTokens(g, tokens)
		}
	}

	analyzer := NewQueryAnalyzer()
	for name, gt := range e.bb.Groups(backbone.Target) {
		var tokensT []string
		if p, ok := gt.Payload().(backbone.QueryPayload); ok {
			tokensT = p.Tokens
		}
		for _, gr := range e.bb.LinksFrom(name, false) {
			p, ok := gr.Payload().(backbone.IndexPayload)
			if !ok {
				continue
			}
			for _, tok := range tokensT {
				bucket := p.Pool.Get(tok)
				if bucket == nil {
					continue
				}
				l := lengthWeight(len([]rune(tok)))
				f := bucketFilter(bucket.Size())
				for _, posting := range bucket.Entries() {
					analyzer.Increase(posting.Idx, posting.Weight*l*f)
				}
			}
		}
	}

	drained := analyzer.DrainSorted()
	out := make([]models.RankedCandidate, 0, len(drained))
	for _, c := range drained {
		// Every contribution is w*L*F with w,F > 0, but L is clamped to 0
		// for short tokens (lengthWeight, cut-size-4 matches included) —
		// a candidate whose only contributions were all-zero-length-weight
		// would otherwise surface with Weight == 0, violating spec.md §8's
		// "every candidate produced has weight > 0".
		if c.Weight <= 0 {
			continue
		}
		out = append(out, models.RankedCandidate{Idx: c.Idx, Weight: round3(c.Weight)})
	}
	return out
}

func appendQueryTokens(g *backbone.GroupBlock, tokens []string) {
	switch p := g.Payload().(type) {
	case backbone.EmptyPayload:
		g.SetPayload(backbone.QueryPayload{Tokens: append([]string(nil), tokens...)})
	case backbone.QueryPayload:
		g.SetPayload(backbone.QueryPayload{Tokens: append(p.Tokens, tokens...)})
	}
}

// lengthWeight discounts short token matches: L = max(0, exp((len+s)/c) -
// exp(s/c) - m).
func lengthWeight(tokenLen int) float64 {
	l := math.Exp((float64(tokenLen)+lengthS)/lengthC) - math.Exp(lengthS/lengthC) - lengthM
	if l < 0 {
		return 0
	}
	return l
}

// bucketFilter damps contributions from popular tokens: F = c2/(size+h) +
// 0.5.
func bucketFilter(size int) float64 {
	return filterC/(float64(size)+filterH) + 0.5
}

func round3(w float64) float64 {
	if math.IsInf(w, 1) {
		return w
	}
	return math.Round(w*1000) / 1000
}
