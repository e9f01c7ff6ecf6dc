// Package backbone parses the Backbone configuration (spec.md §4.4, §6)
// and answers the routing queries the scoring pipeline depends on: which
// GroupBlocks a header belongs to, and which GroupBlocks a group links to
// on the other side.
package backbone

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/seanblong/fuzzydb/internal/config"
	"github.com/seanblong/fuzzydb/internal/ferrors"
	"github.com/seanblong/fuzzydb/internal/index"
)

// Side identifies the reference or target side of the backbone.
type Side int

const (
	Reference Side = iota
	Target
)

var weightEntryRe = regexp.MustCompile(`^(\S+)\((\d+(?:\.\d+)?)\)$`)

// Backbone is the bipartite routing structure between reference and
// target groups (spec.md §3, §4.4). Groups live in a name-indexed arena;
// links are resolved to GroupBlock slices at construction, never stored
// as back-pointers into a cyclic object graph (spec.md §9).
type Backbone struct {
	refGroups map[string]*GroupBlock
	tgtGroups map[string]*GroupBlock

	refByHeader map[string][]*GroupBlock
	tgtByHeader map[string][]*GroupBlock

	refToTgt map[string][]*GroupBlock
	tgtToRef map[string][]*GroupBlock

	referenceKeyHeader string
	targetKeyHeader    string
}

// New parses cfg and builds a Backbone. Fails with ferrors.KindConfig on a
// malformed weight literal or ferrors.KindInvalidGroup if a GroupBlock's
// own invariants are violated.
func New(cfg config.BackboneConfiguration, log zerolog.Logger) (*Backbone, error) {
	refGroups, err := buildGroups(cfg.ReferenceGroups)
	if err != nil {
		return nil, err
	}
	tgtGroups, err := buildGroups(cfg.TargetGroups)
	if err != nil {
		return nil, err
	}

	b := &Backbone{
		refGroups:          refGroups,
		tgtGroups:          tgtGroups,
		refByHeader:        invert(refGroups),
		tgtByHeader:        invert(tgtGroups),
		refToTgt:           make(map[string][]*GroupBlock),
		tgtToRef:           make(map[string][]*GroupBlock),
		referenceKeyHeader: cfg.ReferenceKeyCol,
		targetKeyHeader:    cfg.TargetKeyCol,
	}

	for name := range refGroups {
		for _, other := range cfg.RefToTgt.Links(name) {
			g, ok := tgtGroups[other]
			if !ok {
				log.Debug().Str("ref_group", name).Str("tgt_group", other).
					Msg("ref_to_tgt link names a target group that does not exist; dropping")
				continue
			}
			b.refToTgt[name] = append(b.refToTgt[name], g)
		}
	}
	for name := range tgtGroups {
		for _, other := range cfg.TgtToRef.Links(name) {
			g, ok := refGroups[other]
			if !ok {
				log.Debug().Str("tgt_group", name).Str("ref_group", other).
					Msg("tgt_to_ref link names a reference group that does not exist; dropping")
				continue
			}
			b.tgtToRef[name] = append(b.tgtToRef[name], g)
		}
	}

	return b, nil
}

func buildGroups(spec config.GroupSpec) (map[string]*GroupBlock, error) {
	out := make(map[string]*GroupBlock, len(spec))
	for name, entries := range spec {
		headers := make([]string, 0, len(entries))
		weights := make([]float64, 0, len(entries))
		for _, entry := range entries {
			m := weightEntryRe.FindStringSubmatch(strings.TrimSpace(entry))
			if m == nil {
				return nil, ferrors.New(ferrors.KindConfig, "malformed weight entry %q in group "+name+": "+entry)
			}
			w, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, ferrors.Wrap(ferrors.KindConfig, "malformed weight literal in group "+name, err)
			}
			headers = append(headers, m[1])
			weights = append(weights, w)
		}
		g, err := NewGroupBlock(name, headers, weights)
		if err != nil {
			return nil, err
		}
		out[name] = g
	}
	return out, nil
}

func invert(groups map[string]*GroupBlock) map[string][]*GroupBlock {
	out := make(map[string][]*GroupBlock)
	for _, g := range groups {
		for _, h := range g.Headers() {
			out[h] = append(out[h], g)
		}
	}
	return out
}

// InputHeaders returns every header that appears in any group on side.
func (b *Backbone) InputHeaders(side Side) []string {
	by := b.byHeaderMap(side)
	out := make([]string, 0, len(by))
	for h := range by {
		out = append(out, h)
	}
	return out
}

// GroupsFromHeader returns the GroupBlocks on side that include header.
func (b *Backbone) GroupsFromHeader(header string, side Side) []*GroupBlock {
	return b.byHeaderMap(side)[header]
}

// Groups returns the full group-name -> GroupBlock map for side.
func (b *Backbone) Groups(side Side) map[string]*GroupBlock {
	if side == Reference {
		return b.refGroups
	}
	return b.tgtGroups
}

// LinksFrom returns the GroupBlocks on the other side linked from
// groupName. leftToRight == true means groupName is a reference group and
// the result is target groups (ref_to_tgt); leftToRight == false means
// groupName is a target group and the result is reference groups
// (tgt_to_ref) — matching spec.md §4.6's
// links_from(G_t.name, left_to_right=false) call from the scoring loop.
func (b *Backbone) LinksFrom(groupName string, leftToRight bool) []*GroupBlock {
	if leftToRight {
		return b.refToTgt[groupName]
	}
	return b.tgtToRef[groupName]
}

// ReferenceKeyHeader returns the designated reference-side key column.
func (b *Backbone) ReferenceKeyHeader() string { return b.referenceKeyHeader }

// TargetKeyHeader returns the designated target-side key column.
func (b *Backbone) TargetKeyHeader() string { return b.targetKeyHeader }

func (b *Backbone) byHeaderMap(side Side) map[string][]*GroupBlock {
	if side == Reference {
		return b.refByHeader
	}
	return b.tgtByHeader
}

// ClearTargetPayloads resets every target GroupBlock's payload to Empty
// (spec.md §4.6 Phase B step 1, §5's "MUST be cleared at the start of
// every query").
func (b *Backbone) ClearTargetPayloads() {
	for _, g := range b.tgtGroups {
		g.ClearPayload()
	}
}

// LinkNames returns groupName -> []linkedGroupName for every group on
// side, following ref_to_tgt when side is Reference and tgt_to_ref when
// side is Target. internal/persist uses this to serialize link topology
// without reaching into Backbone's unexported maps.
func (b *Backbone) LinkNames(side Side) map[string][]string {
	out := make(map[string][]string)
	leftToRight := side == Reference
	for name := range b.Groups(side) {
		for _, g := range b.LinksFrom(name, leftToRight) {
			out[name] = append(out[name], g.Name())
		}
	}
	return out
}

// GroupData is the headers/weights snapshot of one GroupBlock, already
// softmax-normalized, as needed to reconstruct it without reparsing a
// "Header(weight)" configuration string.
type GroupData struct {
	Headers []string
	Weights map[string]float64
}

// RestoreBackbone reconstructs a Backbone from persisted group topology
// and already-built reference Pools (internal/persist's load path). It
// never reparses weight literals or recomputes softmax: refGroups/
// tgtGroups carry the post-softmax weights baked into the saved
// postings, and refPools attaches each reference GroupBlock's saved
// index directly.
func RestoreBackbone(
	refGroups, tgtGroups map[string]GroupData,
	refPools map[string]*index.Pool,
	refToTgtNames, tgtToRefNames map[string][]string,
	referenceKeyHeader, targetKeyHeader string,
) *Backbone {
	rg := make(map[string]*GroupBlock, len(refGroups))
	for name, gd := range refGroups {
		g := restoredGroupBlock(name, gd.Headers, gd.Weights)
		if pool, ok := refPools[name]; ok {
			g.SetPayload(IndexPayload{Pool: pool})
		}
		rg[name] = g
	}
	tg := make(map[string]*GroupBlock, len(tgtGroups))
	for name, gd := range tgtGroups {
		tg[name] = restoredGroupBlock(name, gd.Headers, gd.Weights)
	}

	b := &Backbone{
		refGroups:          rg,
		tgtGroups:          tg,
		refByHeader:        invert(rg),
		tgtByHeader:        invert(tg),
		refToTgt:           make(map[string][]*GroupBlock),
		tgtToRef:           make(map[string][]*GroupBlock),
		referenceKeyHeader: referenceKeyHeader,
		targetKeyHeader:    targetKeyHeader,
	}
	for name, others := range refToTgtNames {
		for _, other := range others {
			if g, ok := tg[other]; ok {
				b.refToTgt[name] = append(b.refToTgt[name], g)
			}
		}
	}
	for name, others := range tgtToRefNames {
		for _, other := range others {
			if g, ok := rg[other]; ok {
				b.tgtToRef[name] = append(b.tgtToRef[name], g)
			}
		}
	}
	return b
}
