// Package orchestrator drives a messy query table through a built Engine
// (spec.md §7.4): per-row querying (parallelized with a worker pool
// adapted from the teacher's internal/indexer.Indexer.Run), ResultTuple
// assembly, collision rearrangement, and result-CSV emission.
package orchestrator

import (
	"runtime"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog"

	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/engine"
	"github.com/seanblong/fuzzydb/internal/index"
	"github.com/seanblong/fuzzydb/internal/rearrange"
	"github.com/seanblong/fuzzydb/internal/similarity"
	"github.com/seanblong/fuzzydb/internal/tokenizer"
	"github.com/seanblong/fuzzydb/pkg/models"
)

// maxWorkers caps runtime.NumCPU() the way the teacher's indexer caps its
// own worker pool, to avoid overwhelming a small query table with
// goroutine scheduling overhead.
const maxWorkers = 8

// Orchestrator drives a built Backbone's Engine across a query table.
type Orchestrator struct {
	bb         *backbone.Backbone
	tok        *tokenizer.Tokenizer
	comparator similarity.Comparator
	rearranger *rearrange.Rearranger
	log        zerolog.Logger
}

// New returns an Orchestrator over bb, using diffPercent as the
// CollisionRearranger's tolerance.
func New(bb *backbone.Backbone, tok *tokenizer.Tokenizer, diffPercent float64, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		bb:         bb,
		tok:        tok,
		comparator: similarity.New(),
		rearranger: rearrange.New(diffPercent),
		log:        log,
	}
}

// Run queries every row of queryTable against referenceTable, assembles a
// ResultTuple per row, resolves collisions, and returns the tuples in
// queryTable row order.
func (o *Orchestrator) Run(referenceTable, queryTable *models.Table) []models.ResultTuple {
	numWorkers := runtime.NumCPU()
	if numWorkers > maxWorkers {
		numWorkers = maxWorkers
	}
	if numWorkers > len(queryTable.Rows) && len(queryTable.Rows) > 0 {
		numWorkers = len(queryTable.Rows)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	tuples := make([]models.ResultTuple, len(queryTable.Rows))
	workChan := make(chan int, numWorkers*2)
	bar := pb.StartNew(len(queryTable.Rows))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			// Each worker gets its own Backbone clone: reference Pools are
			// shared (read-only after build), but target GroupBlock payload
			// slots are fresh per worker, satisfying spec.md §5's
			// concurrency contract without serializing queries.
			workerEngine := engine.New(cloneForWorker(o.bb), o.tok, o.log)

			for qi := range workChan {
				row := queryTable.Rows[qi]
				tuples[qi] = o.scoreRow(workerEngine, referenceTable, row)
				bar.Increment()
			}
			o.log.Debug().Int("worker", workerID).Msg("orchestrator worker finished")
		}(w)
	}

	for i := range queryTable.Rows {
		workChan <- i
	}
	close(workChan)
	wg.Wait()
	bar.Finish()

	o.rearranger.Resolve(queryTable, referenceTable, tuples)
	return tuples
}

// scoreRow queries row, keeps the top two ranks, and attaches similarity
// coefficients and the same_id flag against the top candidate. A query
// with no candidates gets the sentinel coefficients of spec.md §7.
func (o *Orchestrator) scoreRow(e *engine.Engine, referenceTable *models.Table, row models.Row) models.ResultTuple {
	candidates := e.Query(row)
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}

	tuple := models.ResultTuple{
		QueryIdx: row.Index(),
		Ranks:    candidates,
		Status:   models.StatusOpen,
	}

	top, ok := referenceTable.ByIndex(tuple.TopIdx())
	if !ok {
		tuple.DamerauSim = -1.0
		tuple.JaccardSim = -1.0
		return tuple
	}

	targetHeaders := o.bb.InputHeaders(backbone.Target)
	referenceHeaders := o.bb.InputHeaders(backbone.Reference)
	tuple.DamerauSim = o.comparator.Damerau(row, top, targetHeaders, referenceHeaders)
	tuple.JaccardSim = o.comparator.Jaccard(row, top)

	targetKey := row.Get(o.bb.TargetKeyHeader())
	tuple.SameID = targetKey != "" && targetKey == top.Get(o.bb.ReferenceKeyHeader())

	return tuple
}

// cloneForWorker rebuilds bb's topology around the same reference Pools
// (shared, read-only) but fresh GroupBlock objects (fresh, worker-local
// payload slots) via the same reconstruction path internal/persist uses
// to reload a saved engine.
func cloneForWorker(bb *backbone.Backbone) *backbone.Backbone {
	refGroups := make(map[string]backbone.GroupData)
	refPools := make(map[string]*index.Pool)
	for name, g := range bb.Groups(backbone.Reference) {
		refGroups[name] = backbone.GroupData{Headers: g.Headers(), Weights: g.Weights()}
		if p, ok := g.Payload().(backbone.IndexPayload); ok {
			refPools[name] = p.Pool
		}
	}

	tgtGroups := make(map[string]backbone.GroupData)
	for name, g := range bb.Groups(backbone.Target) {
		tgtGroups[name] = backbone.GroupData{Headers: g.Headers(), Weights: g.Weights()}
	}

	return backbone.RestoreBackbone(
		refGroups, tgtGroups, refPools,
		bb.LinkNames(backbone.Reference), bb.LinkNames(backbone.Target),
		bb.ReferenceKeyHeader(), bb.TargetKeyHeader(),
	)
}
