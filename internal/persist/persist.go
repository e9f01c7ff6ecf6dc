// Package persist saves and loads a built Engine as an opaque, versioned
// byte stream (spec.md §4.10): the Backbone's group topology and links,
// every reference GroupBlock's Pool, and the source reference Table. The
// Tokenizer (stateless) and any config-parser state are deliberately
// excluded.
package persist

import (
	"bytes"
	"encoding/binary"
	"io"

	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/ferrors"
	"github.com/seanblong/fuzzydb/internal/index"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// magic identifies a fuzzydb engine snapshot; version gates the payload
// schema so a future format change fails fast on load instead of
// decoding garbage.
var magic = [4]byte{'F', 'Z', 'D', 'B'}

const version = uint16(1)

// groupSnapshot is one GroupBlock's persisted headers and already
// softmax-normalized weights.
type groupSnapshot struct {
	Name    string
	Headers []string
	Weights map[string]float64
}

// postingSnapshot is one Bucket entry.
type postingSnapshot struct {
	Idx    int
	Weight float64
}

// poolSnapshot is one reference GroupBlock's inverted index, token ->
// postings, in Bucket.Entries() order.
type poolSnapshot struct {
	Buckets map[string][]postingSnapshot
}

// tableSnapshot is a models.Table flattened for msgpack.
type tableSnapshot struct {
	Columns []string
	Rows    []map[string]string
}

// payload is the versioned envelope's body.
type payload struct {
	ReferenceGroups []groupSnapshot
	TargetGroups    []groupSnapshot
	ReferencePools  map[string]poolSnapshot // by group name
	RefToTgt        map[string][]string
	TgtToRef        map[string][]string
	ReferenceKeyCol string
	TargetKeyCol    string
	ReferenceTable  tableSnapshot
}

// Save writes bb's topology, every reference GroupBlock's Pool, and
// referenceTable to w as a versioned msgpack envelope.
func Save(w io.Writer, bb *backbone.Backbone, referenceTable *models.Table) error {
	p := payload{
		ReferenceGroups: snapshotGroups(bb.Groups(backbone.Reference)),
		TargetGroups:    snapshotGroups(bb.Groups(backbone.Target)),
		ReferencePools:  snapshotPools(bb.Groups(backbone.Reference)),
		RefToTgt:        bb.LinkNames(backbone.Reference),
		TgtToRef:        bb.LinkNames(backbone.Target),
		ReferenceKeyCol: bb.ReferenceKeyHeader(),
		TargetKeyCol:    bb.TargetKeyHeader(),
		ReferenceTable:  snapshotTable(referenceTable),
	}

	body, err := msgpack.Marshal(p)
	if err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "encode engine snapshot", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "write snapshot magic", err)
	}
	if err := binary.Write(w, binary.BigEndian, version); err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "write snapshot version", err)
	}
	if _, err := w.Write(body); err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "write snapshot body", err)
	}
	return nil
}

// Load reads a Save-produced stream and reconstructs a Backbone (with
// every reference Pool restored) and the source reference Table.
func Load(r io.Reader) (*backbone.Backbone, *models.Table, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, nil, ferrors.Wrap(ferrors.KindPersistence, "read snapshot magic", err)
	}
	if gotMagic != magic {
		return nil, nil, ferrors.New(ferrors.KindPersistence, "not a fuzzydb engine snapshot")
	}

	var gotVersion uint16
	if err := binary.Read(r, binary.BigEndian, &gotVersion); err != nil {
		return nil, nil, ferrors.Wrap(ferrors.KindPersistence, "read snapshot version", err)
	}
	if gotVersion != version {
		return nil, nil, ferrors.New(ferrors.KindPersistence, "unsupported engine snapshot version")
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, ferrors.Wrap(ferrors.KindPersistence, "read snapshot body", err)
	}

	var p payload
	if err := msgpack.Unmarshal(body, &p); err != nil {
		return nil, nil, ferrors.Wrap(ferrors.KindPersistence, "decode engine snapshot", err)
	}

	refGroups := groupDataByName(p.ReferenceGroups)
	tgtGroups := groupDataByName(p.TargetGroups)
	refPools := restorePools(p.ReferencePools)

	bb := backbone.RestoreBackbone(refGroups, tgtGroups, refPools, p.RefToTgt, p.TgtToRef, p.ReferenceKeyCol, p.TargetKeyCol)
	referenceTable := restoreTable(p.ReferenceTable)

	return bb, referenceTable, nil
}

// Bytes is a convenience wrapper around Save for callers that want an
// in-memory snapshot.
func Bytes(bb *backbone.Backbone, referenceTable *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Save(&buf, bb, referenceTable); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func snapshotGroups(groups map[string]*backbone.GroupBlock) []groupSnapshot {
	out := make([]groupSnapshot, 0, len(groups))
	for name, g := range groups {
		out = append(out, groupSnapshot{
			Name:    name,
			Headers: g.Headers(),
			Weights: g.Weights(),
		})
	}
	return out
}

func snapshotPools(refGroups map[string]*backbone.GroupBlock) map[string]poolSnapshot {
	out := make(map[string]poolSnapshot, len(refGroups))
	for name, g := range refGroups {
		ip, ok := g.Payload().(backbone.IndexPayload)
		if !ok || ip.Pool == nil {
			continue
		}
		out[name] = poolSnapshot{Buckets: snapshotPool(ip.Pool)}
	}
	return out
}

func snapshotPool(pool *index.Pool) map[string][]postingSnapshot {
	buckets := make(map[string][]postingSnapshot)
	for _, token := range pool.Tokens() {
		b := pool.Get(token)
		entries := b.Entries()
		postings := make([]postingSnapshot, len(entries))
		for i, p := range entries {
			postings[i] = postingSnapshot{Idx: p.Idx, Weight: p.Weight}
		}
		buckets[token] = postings
	}
	return buckets
}

func snapshotTable(t *models.Table) tableSnapshot {
	rows := make([]map[string]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Values
	}
	return tableSnapshot{Columns: t.Columns, Rows: rows}
}

func groupDataByName(snapshots []groupSnapshot) map[string]backbone.GroupData {
	out := make(map[string]backbone.GroupData, len(snapshots))
	for _, s := range snapshots {
		out[s.Name] = backbone.GroupData{Headers: s.Headers, Weights: s.Weights}
	}
	return out
}

func restorePools(snapshots map[string]poolSnapshot) map[string]*index.Pool {
	out := make(map[string]*index.Pool, len(snapshots))
	for name, snap := range snapshots {
		pool := index.NewPool()
		for token, postings := range snap.Buckets {
			for _, p := range postings {
				pool.Place(token, index.Posting{Idx: p.Idx, Weight: p.Weight})
			}
		}
		out[name] = pool
	}
	return out
}

func restoreTable(snap tableSnapshot) *models.Table {
	rows := make([]models.Row, len(snap.Rows))
	for i, v := range snap.Rows {
		rows[i] = models.Row{Values: v}
	}
	return &models.Table{Columns: snap.Columns, Rows: rows}
}
