package backbone

import (
	"math"

	"github.com/seanblong/fuzzydb/internal/ferrors"
	"github.com/seanblong/fuzzydb/internal/index"
)

// Payload is the tagged sum a GroupBlock's mutable slot holds: Empty on
// either side between queries, an Index(*index.Pool) on the reference
// side once built, or a Query([]string) token list accumulated from the
// current query on the target side (spec.md §3, §9). Illegal combinations
// are made impossible by pattern-matching on the concrete type rather than
// a runtime "is instance of" check.
type Payload interface {
	isPayload()
}

// EmptyPayload is the zero state, held between queries.
type EmptyPayload struct{}

func (EmptyPayload) isPayload() {}

// IndexPayload is a reference GroupBlock's built token index.
type IndexPayload struct {
	Pool *index.Pool
}

func (IndexPayload) isPayload() {}

// QueryPayload is a target GroupBlock's per-query token accumulator.
type QueryPayload struct {
	Tokens []string
}

func (QueryPayload) isPayload() {}

// GroupBlock is a named bundle of headers with softmax-normalized
// per-header weights (spec.md §3, §4.3).
type GroupBlock struct {
	name    string
	headers []string
	weights map[string]float64
	payload Payload
}

// NewGroupBlock constructs a GroupBlock, softmax-normalizing rawWeights
// over headers. Fails with ferrors.KindInvalidGroup on empty headers, a
// length mismatch, or a non-positive raw weight total.
func NewGroupBlock(name string, headers []string, rawWeights []float64) (*GroupBlock, error) {
	if len(headers) == 0 {
		return nil, ferrors.New(ferrors.KindInvalidGroup, "group "+name+" has no headers")
	}
	if len(headers) != len(rawWeights) {
		return nil, ferrors.New(ferrors.KindInvalidGroup, "group "+name+" header/weight length mismatch")
	}
	var sum float64
	for _, w := range rawWeights {
		sum += w
	}
	if sum <= 0 {
		return nil, ferrors.New(ferrors.KindInvalidGroup, "group "+name+" has non-positive raw weight total")
	}

	var expSum float64
	exps := make([]float64, len(rawWeights))
	for i, w := range rawWeights {
		e := math.Exp(w)
		exps[i] = e
		expSum += e
	}

	weights := make(map[string]float64, len(headers))
	for i, h := range headers {
		weights[h] = exps[i] / expSum
	}

	return &GroupBlock{
		name:    name,
		headers: append([]string(nil), headers...),
		weights: weights,
		payload: EmptyPayload{},
	}, nil
}

// Name returns the group's name.
func (g *GroupBlock) Name() string { return g.name }

// Headers returns the group's headers in configuration order.
func (g *GroupBlock) Headers() []string { return g.headers }

// Size returns the number of headers in the group.
func (g *GroupBlock) Size() int { return len(g.headers) }

// WeightOf returns the softmax-normalized weight for header, or 0 if the
// header does not belong to this group.
func (g *GroupBlock) WeightOf(header string) float64 { return g.weights[header] }

// Weights returns a copy of the group's header -> softmax-normalized
// weight map, for callers (internal/persist) that need to serialize it
// without recomputing softmax on reload.
func (g *GroupBlock) Weights() map[string]float64 {
	out := make(map[string]float64, len(g.weights))
	for h, w := range g.weights {
		out[h] = w
	}
	return out
}

// restoredGroupBlock reconstructs a GroupBlock from already-normalized
// weights, bypassing NewGroupBlock's softmax and validation. Used only by
// RestoreBackbone when reloading a persisted engine, where the weights on
// disk are already the post-softmax values baked into reference postings.
func restoredGroupBlock(name string, headers []string, weights map[string]float64) *GroupBlock {
	return &GroupBlock{
		name:    name,
		headers: append([]string(nil), headers...),
		weights: weights,
		payload: EmptyPayload{},
	}
}

// SetPayload replaces the group's mutable payload slot.
func (g *GroupBlock) SetPayload(p Payload) { g.payload = p }

// Payload returns the group's current payload.
func (g *GroupBlock) Payload() Payload { return g.payload }

// ClearPayload resets the slot to EmptyPayload.
func (g *GroupBlock) ClearPayload() { g.payload = EmptyPayload{} }
