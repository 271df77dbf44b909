// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexechash"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
	"github.com/riftdb/riftdb/pkg/sql/colexecerror"
	"github.com/riftdb/riftdb/pkg/sql/colmem"
	"github.com/riftdb/riftdb/pkg/sql/execinfra/driverutil"
	"github.com/riftdb/riftdb/pkg/sql/execinfra/joinbridge"
	"github.com/riftdb/riftdb/pkg/sql/jointype"
	"github.com/riftdb/riftdb/pkg/util/log"
)

// probeLogEvery rate-limits the prober's occasional hot-path
// diagnostics (falling back to full-hash mode, the null-aware
// anti-join engine's build-side rescan), which would otherwise fire
// once per row rather than once per interesting event.
var probeLogEvery = log.Every(5 * time.Second)

// HashProber is the probe-side hash-join operator: it consumes probe
// batches, looks them up in a hash table published by a paired (out of
// scope) build operator, evaluates an optional residual filter, and
// emits result batches across every variant in pkg/sql/jointype. It
// implements the driver-operator contract named in spec.md §9's
// "Dynamic inheritance" design note (is_blocked/add_input/get_output/
// no_more_input/is_finished/clear_dynamic_filters), grounded on
// HashProbe in original_source/velox/exec/HashProbe.cpp.
type HashProber struct {
	ctx      context.Context
	cfg      *JoinConfig
	settings ProbeSettings
	alloc    *colmem.Allocator
	bridge   *joinbridge.Bridge
	barrier  *driverutil.PeerBarrier

	table     *colexechash.HashTable
	out       *outputAssembler
	validated bool

	// emptyBuildPassthrough is set in onBuildReady when the build side
	// turned out empty for a variant that must still pass every probe
	// row through null-padded (spec.md §4.1).
	emptyBuildPassthrough bool

	elidable bool
	elided   bool

	dynamicFilters                []*colexechash.Filter
	replacedWithDynamicFilterRows int64

	leftOuter leftOuterTracker
	leftSemi  leftSemiTracker
	anti      antiFilterState
	pendingMisses []int

	probeBatch  coldata.Batch
	lookup      *colexechash.Lookup
	cursor      colexechash.ResultCursor
	batchActive bool

	scratchProbeOut []int
	scratchBuildOut []rowcontainer.RowID

	noMoreInput  bool
	isLastDriver bool
	buildIter    rowcontainer.Iterator

	finished bool
}

// NewHashProber returns a HashProber for cfg, rendezvousing with its
// paired build operator through bridge and, for right/full-outer and
// right-semi, with its peer probe shards through barrier. ctx is tagged
// once, at construction, with this join's variant so every log line the
// prober emits afterward is attributable (spec.md §4.1, §7).
func NewHashProber(
	ctx context.Context,
	cfg *JoinConfig,
	settings ProbeSettings,
	alloc *colmem.Allocator,
	bridge *joinbridge.Bridge,
	barrier *driverutil.PeerBarrier,
) *HashProber {
	ctx = log.WithTag(ctx, "jointype", cfg.Variant.String())
	return &HashProber{ctx: ctx, cfg: cfg, settings: settings, alloc: alloc, bridge: bridge, barrier: barrier}
}

// IsBlocked implements the operator contract's sole suspension point
// (spec.md §5): until the build side publishes, it reports blocked with
// a channel that closes when the build completes.
func (p *HashProber) IsBlocked() (blocked bool, waitCh <-chan struct{}) {
	if p.table != nil || p.finished {
		return false, nil
	}
	result, ok, ch := p.bridge.TableOrWait()
	if !ok {
		return true, ch
	}
	p.onBuildReady(result)
	return false, nil
}

// onBuildReady runs once, when the join bridge first hands over a
// finished table, implementing spec.md §4.1's short-circuit rules.
func (p *HashProber) onBuildReady(result joinbridge.BuildResult) {
	p.table = result.Table
	if p.table == nil {
		colexecerror.InternalError(errors.AssertionFailedf("colexecjoin: join bridge published a nil table"))
	}
	if p.cfg.Variant == jointype.NullAwareAnti && result.AntiJoinHasNullKeys {
		log.Infof(p.ctx, "build side has a null key, collapsing null-aware anti join to empty output")
		p.finished = true
		return
	}
	if p.table.Rows().NumRows() == 0 {
		if p.cfg.Variant.IsEmptyOutputWhenRightIsEmpty() {
			p.finished = true
			return
		}
		log.Infof(p.ctx, "build side is empty, passing every probe row through with null-padded build columns")
		p.emptyBuildPassthrough = true
	}
	p.out = newOutputAssembler(p.cfg, p.alloc, p.table.Rows())
	p.deriveDynamicFilters()
}

// AddInput accepts one probe batch (spec.md §6 "add_input"). It is
// illegal while is_blocked is still pending, matching the operator
// contract.
func (p *HashProber) AddInput(batch coldata.Batch) {
	if p.finished {
		colexecerror.InternalError(errors.AssertionFailedf("colexecjoin: AddInput called after finish"))
	}
	if p.table == nil {
		colexecerror.InternalError(errors.AssertionFailedf("colexecjoin: AddInput called while still blocked on join build"))
	}
	if p.batchActive {
		colexecerror.InternalError(errors.AssertionFailedf("colexecjoin: AddInput called before the previous batch was drained"))
	}
	if !p.validated {
		p.cfg.Validate(batch.Width(), len(p.table.Rows().ColumnTypes()))
		p.validated = true
	}
	p.probeBatch = batch
	p.batchActive = true
	p.leftOuter.Reset()
	p.leftSemi.Reset()
	p.anti = antiFilterState{}
	p.pendingMisses = p.pendingMisses[:0]

	if p.elided || p.emptyBuildPassthrough {
		return
	}
	p.decodeAndProbe(batch)
}

// decodeAndProbe implements the Key Projector & Hasher (spec.md §4.2)
// and the Lookup Driver (spec.md §4.3).
func (p *HashProber) decodeAndProbe(batch coldata.Batch) {
	n := batch.Length()
	keyVecs := make([]coldata.Vec, len(p.cfg.ProbeKeyCols))
	for i, col := range p.cfg.ProbeKeyCols {
		keyVecs[i] = batch.ColVec(col)
	}

	// sel is the Active Row Set (spec.md §3): it starts with every row
	// selected and loses rows as a null key, or an unmapped value-id, is
	// discovered, the same way a null key or filter predicate narrows a
	// SelectivityVector in the original source.
	sel := coldata.NewAllSelection(n)
	for r := 0; r < n; r++ {
		for _, v := range keyVecs {
			if v.Nulls().NullAt(r) {
				sel.Deselect(r)
				break
			}
		}
	}

	hashes := make([]uint64, n)
	hashers := p.table.Hashers()
	if len(hashers) > 0 && hashers[0].Mode() == colexechash.HashModeValueID {
		for i, h := range hashers {
			found := h.LookupValueIds(keyVecs[i], sel.Rows(), hashes)
			for r := 0; r < n; r++ {
				if sel.IsSelected(r) && !found[r] {
					sel.Deselect(r)
				}
			}
		}
	} else {
		if probeLogEvery.ShouldLog() {
			log.VEventf(p.ctx, 2, "probing in full-hash mode (build-side key domain too large for value ids)")
		}
		for i, h := range hashers {
			h.Hash(keyVecs[i], sel.Rows(), i > 0, hashes)
		}
	}
	activeRows := sel.Rows()

	hits := make([]rowcontainer.RowID, n)
	for i := range hits {
		hits[i] = rowcontainer.NoRow
	}
	lookup := &colexechash.Lookup{Keys: keyVecs, Hashes: hashes, Rows: activeRows, Hits: hits}
	p.table.Probe(lookup)

	if p.includeMisses() {
		identity := make([]int, n)
		for i := range identity {
			identity[i] = i
		}
		lookup.Rows = identity
	}
	p.lookup = lookup
	p.cursor = colexechash.ResultCursor{}
}

// includeMisses reports whether the result iterator must synthesize a
// (row, no-match) pair for probe rows whose hit chain is empty (spec.md
// §4.4): left/full-outer need it to pad a null row later, and
// null-aware anti needs it to recognize "never matched" rows.
func (p *HashProber) includeMisses() bool {
	return p.cfg.Variant.IsLeftOuterOrFullOuter() || p.cfg.Variant == jointype.NullAwareAnti
}

// GetOutput implements the operator contract's main production loop:
// it may be called many times per input batch (spec.md §4.4), and,
// once no_more_input has been signaled, drains the unmatched-build
// emitter (spec.md §4.7) before reporting finished.
func (p *HashProber) GetOutput() coldata.Batch {
	if p.finished {
		return coldata.ZeroBatch
	}
	if p.batchActive {
		if p.elided {
			out := p.probeBatch
			p.replacedWithDynamicFilterRows += int64(out.Length())
			p.batchActive = false
			return out
		}
		if p.emptyBuildPassthrough {
			out := p.emitEmptyBuildPassthrough()
			p.batchActive = false
			return out
		}
		out := p.drainCurrentBatch()
		if out != nil {
			return out
		}
		p.batchActive = false
	}
	if !p.noMoreInput {
		return nil
	}
	return p.drainUnmatchedBuildOrFinish()
}

// drainCurrentBatch pumps the result iterator (spec.md §4.4) for the
// common case — a real lookup against a non-empty, non-elided table —
// returning nil once the cursor is fully drained for this input batch.
// Left semi, and null-aware anti without a filter, emit at most one row
// per probe row, so their chunks are sized to the whole input batch;
// every other variant uses PreferredOutputBatchSize.
func (p *HashProber) drainCurrentBatch() coldata.Batch {
	size := p.settings.PreferredOutputBatchSize
	if n := p.probeBatch.Length(); n > 0 && (p.cfg.Variant == jointype.LeftSemi ||
		(p.cfg.Variant == jointype.NullAwareAnti && p.cfg.Filter == nil)) {
		size = n
	}
	for !p.cursor.Done {
		if len(p.scratchProbeOut) != size {
			p.scratchProbeOut = make([]int, size)
			p.scratchBuildOut = make([]rowcontainer.RowID, size)
		}
		n := p.table.ListJoinResults(&p.cursor, p.lookup, p.includeMisses(), p.scratchProbeOut, p.scratchBuildOut)
		if n == 0 {
			continue
		}
		if out := p.applyFilterAndVariant(p.scratchProbeOut[:n], p.scratchBuildOut[:n]); out != nil {
			return out
		}
	}
	return nil
}

func (p *HashProber) emitEmptyBuildPassthrough() coldata.Batch {
	n := p.probeBatch.Length()
	mapping := make([]int, n)
	builds := make([]rowcontainer.RowID, n)
	for i := 0; i < n; i++ {
		mapping[i] = i
		builds[i] = rowcontainer.NoRow
	}
	return p.out.build(p.probeBatch, mapping, builds)
}

// applyFilterAndVariant implements the Filter Evaluator (spec.md §4.5)
// and its per-variant reinterpretation, delegating to the Null-Aware
// Anti-Join Engine (spec.md §4.6, nullaware.go) when a residual filter
// is configured on that variant.
func (p *HashProber) applyFilterAndVariant(rowMapping []int, buildRows []rowcontainer.RowID) coldata.Batch {
	if p.cfg.Variant == jointype.NullAwareAnti && p.cfg.Filter != nil {
		return p.applyAntiWithFilter(rowMapping, buildRows)
	}

	probeVecs := p.probeBatch.ColVecs()
	buildVecs := p.buildVecs()
	var outRows []int
	var outBuild []rowcontainer.RowID
	var probedRows []rowcontainer.RowID

	for i, row := range rowMapping {
		build := buildRows[i]
		switch p.cfg.Variant {
		case jointype.Inner:
			if build == rowcontainer.NoRow {
				continue
			}
			if p.filterPasses(row, probeVecs, build, buildVecs) {
				outRows = append(outRows, row)
				outBuild = append(outBuild, build)
			}
		case jointype.LeftSemi:
			if build == rowcontainer.NoRow {
				continue
			}
			if p.filterPasses(row, probeVecs, build, buildVecs) && p.leftSemi.ShouldEmit(row) {
				outRows = append(outRows, row)
				outBuild = append(outBuild, rowcontainer.NoRow)
			}
		case jointype.RightOuter:
			if build == rowcontainer.NoRow {
				continue
			}
			if p.filterPasses(row, probeVecs, build, buildVecs) {
				outRows = append(outRows, row)
				outBuild = append(outBuild, build)
				probedRows = append(probedRows, build)
			}
		case jointype.RightSemi:
			// Right-semi only ever emits build rows, once each, from
			// pumpUnmatchedBuild's probed-rows scan at end-of-input
			// (spec.md §4.7); the match phase here only needs to flip
			// the probed flag, never to emit a row itself.
			if build == rowcontainer.NoRow {
				continue
			}
			if p.filterPasses(row, probeVecs, build, buildVecs) {
				probedRows = append(probedRows, build)
			}
		case jointype.LeftOuter, jointype.FullOuter:
			passed := build != rowcontainer.NoRow && p.filterPasses(row, probeVecs, build, buildVecs)
			if missRow, hasMiss := p.leftOuter.Observe(row, passed); hasMiss {
				p.pendingMisses = append(p.pendingMisses, missRow)
			}
			if passed {
				outRows = append(outRows, row)
				outBuild = append(outBuild, build)
				if p.cfg.Variant.TracksBuildMatches() {
					probedRows = append(probedRows, build)
				}
			}
		case jointype.NullAwareAnti:
			// No filter configured: output row i is produced iff
			// non_null_rows[i] AND (i has no build match) (spec.md
			// §4.4's special case). A probe row with a null join key
			// can never be in non_null_rows, so it is disqualified
			// here regardless of what decodeAndProbe's lookup.Hits
			// says about it (lookup.Rows was widened to the full
			// identity range for includeMisses, which would otherwise
			// make a null-keyed row indistinguishable from a genuine
			// non-match); this mirrors probeKeyIsNull's role in
			// nullaware.go's filtered anti-join path.
			if p.probeKeyIsNull(row) {
				continue
			}
			exists := build != rowcontainer.NoRow
			if missRow, hasMiss := p.leftOuter.Observe(row, exists); hasMiss {
				p.pendingMisses = append(p.pendingMisses, missRow)
			}
		}
	}
	if len(probedRows) > 0 {
		p.table.SetProbedFlag(probedRows)
	}
	if p.cursor.Done {
		if missRow, hasMiss := p.leftOuter.Finish(); hasMiss {
			p.pendingMisses = append(p.pendingMisses, missRow)
		}
	}
	return p.assembleFromPending(outRows, outBuild)
}

func (p *HashProber) assembleFromPending(rows []int, builds []rowcontainer.RowID) coldata.Batch {
	if len(p.pendingMisses) > 0 {
		for _, r := range p.pendingMisses {
			rows = append(rows, r)
			builds = append(builds, rowcontainer.NoRow)
		}
		p.pendingMisses = p.pendingMisses[:0]
	}
	if len(rows) == 0 {
		return nil
	}
	return p.out.build(p.probeBatch, rows, builds)
}

// filterPasses evaluates the configured residual filter (if any),
// treating a null three-valued result as false outside the null-aware
// anti path, per spec.md §9's open question resolution (see DESIGN.md).
func (p *HashProber) filterPasses(row int, probeVecs []coldata.Vec, build rowcontainer.RowID, buildVecs []coldata.Vec) bool {
	if p.cfg.Filter == nil {
		return true
	}
	passed, isNull := p.cfg.Filter.Eval(row, probeVecs, int(build), buildVecs)
	if isNull {
		return false
	}
	return passed
}

// buildVecs exposes the build-side row container's columns as
// row-indexable Vecs for residual-filter evaluation, via
// rowcontainer.Container.ColumnAt.
func (p *HashProber) buildVecs() []coldata.Vec {
	types := p.table.Rows().ColumnTypes()
	out := make([]coldata.Vec, len(types))
	for i := range types {
		out[i] = p.table.Rows().ColumnAt(i)
	}
	return out
}

// NoMoreInput implements the operator contract's end-of-stream signal
// (spec.md §4.7): for variants that emit unmatched build rows, it
// registers this shard's arrival at the cross-driver barrier.
func (p *HashProber) NoMoreInput() {
	p.noMoreInput = true
	if p.cfg.Variant.IsRightOuterOrFullOuter() || p.cfg.Variant.IsRightSemiOrRightAnti() {
		p.isLastDriver = p.barrier.Arrive()
	}
}

func (p *HashProber) drainUnmatchedBuildOrFinish() coldata.Batch {
	if p.isLastDriver && (p.cfg.Variant.IsRightOuterOrFullOuter() || p.cfg.Variant.IsRightSemiOrRightAnti()) {
		if out := p.pumpUnmatchedBuild(); out != nil {
			return out
		}
	}
	p.finished = true
	return coldata.ZeroBatch
}

// IsFinished implements the operator contract; it is stable once true
// (spec.md §8 "Idempotent finish").
func (p *HashProber) IsFinished() bool { return p.finished }
