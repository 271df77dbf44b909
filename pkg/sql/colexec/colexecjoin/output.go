// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexprs"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
	"github.com/riftdb/riftdb/pkg/sql/colmem"
)

// outputAssembler constructs output batches per spec.md §4.9: probe-side
// columns are replaced each batch with a fresh dictionary wrap over the
// row mapping; build-side columns are filled by extracting from the row
// container, into the previous batch's column only when that column
// passes the reuse check (see buildCol). It is grounded on
// HashProbe::fillOutput and the isIdentityProjection_ fast path in the
// original source.
//
// Reuse is decided per column, not per batch: a dictionary-wrapped probe
// column is never Reusable() (dictionary.go), so the whole-batch
// ResetMaybeReallocate check in colmem would never fire once any probe
// column is projected, defeating build-column reuse entirely. Instead
// this assembler keeps its own previous column slice and asks
// colmem.Allocator to (re)allocate only the build-side columns whose
// prior Vec fails the reuse check, one at a time.
type outputAssembler struct {
	cfg   *JoinConfig
	alloc *colmem.Allocator
	rows  *rowcontainer.Container

	// identity is true when every output column is an unmodified
	// probe-side column and no build columns are projected at all
	// (spec.md §3 supplement "identity projection short-circuit").
	identity bool

	prevCols []coldata.Vec
}

// newOutputAssembler returns an outputAssembler for cfg, extracting
// build columns from rows.
func newOutputAssembler(cfg *JoinConfig, alloc *colmem.Allocator, rows *rowcontainer.Container) *outputAssembler {
	identity := true
	for _, ref := range cfg.OutputCols {
		if ref.Side != colexprs.Probe {
			identity = false
			break
		}
	}
	return &outputAssembler{
		cfg:      cfg,
		alloc:    alloc,
		rows:     rows,
		identity: identity,
		prevCols: make([]coldata.Vec, len(cfg.OutputCols)),
	}
}

// isIdentityRange reports whether rowMapping is exactly [0, n), i.e. the
// probe batch passes straight through with no filtering or reordering —
// the one case the identity-projection fast path can skip even the
// dictionary wrap.
func isIdentityRange(rowMapping []int) bool {
	for i, r := range rowMapping {
		if r != i {
			return false
		}
	}
	return true
}

// buildCol reuses the previous batch's build column only if it passes
// the reuse check. Every build column written through
// colmem.Allocator.PerformOperation is marked as handed out
// (refcount 2), mirroring BaseVector::unique() going false while a
// downstream shared_ptr is still alive in the original source, so a
// column stays out of reuse until a consumer that is done with its
// batch calls SetRefCount(1) on it; otherwise a fresh column is
// allocated and a batch the consumer still holds is never overwritten.
//
// buildCol returns a build-side Vec of type t and capacity at least n,
// reusing the assembler's previous column for output slot i if it is
// still uniquely owned and large enough (spec.md §4.9's "column reuse
// check"), matching BaseVector::prepareForReuse in the original source.
func (a *outputAssembler) buildCol(i int, t *coldata.T, n int) coldata.Vec {
	if prev := a.prevCols[i]; prev != nil && prev.Reusable() && prev.Length() >= n {
		return prev
	}
	return a.alloc.NewMemBatchWithFixedCapacity([]*coldata.T{t}, n).ColVec(0)
}

// build assembles an output batch of len(rowMapping) rows. probeBatch
// supplies probe-sourced columns (indexed via rowMapping); buildRows
// supplies build-sourced columns (rowcontainer.NoRow for an unmatched
// row, which the row container's ExtractColumn renders as null).
func (a *outputAssembler) build(probeBatch coldata.Batch, rowMapping []int, buildRows []rowcontainer.RowID) coldata.Batch {
	n := len(rowMapping)
	cols := make([]coldata.Vec, len(a.cfg.OutputCols))
	passthrough := a.identity && probeBatch != nil && n == probeBatch.Length() && isIdentityRange(rowMapping)

	for i, ref := range a.cfg.OutputCols {
		switch ref.Side {
		case colexprs.Probe:
			if passthrough {
				cols[i] = probeBatch.ColVec(ref.Col)
				continue
			}
			cols[i] = coldata.WrapInDictionary(probeBatch.ColVec(ref.Col), rowMapping)
		case colexprs.Build:
			out := a.buildCol(i, a.cfg.OutputTypes[i], n)
			a.alloc.PerformOperation([]coldata.Vec{out}, func() {
				a.rows.ExtractColumn(buildRows, ref.Col, out)
			})
			cols[i] = out
		}
	}
	a.prevCols = cols
	return coldata.NewBatchWithColumns(cols, n)
}

// buildUnmatchedBuild assembles an end-of-input batch (spec.md §4.7) of
// build rows with every probe-sourced output column filled with a typed
// null constant.
func (a *outputAssembler) buildUnmatchedBuild(buildRows []rowcontainer.RowID) coldata.Batch {
	n := len(buildRows)
	cols := make([]coldata.Vec, len(a.cfg.OutputCols))
	for i, ref := range a.cfg.OutputCols {
		switch ref.Side {
		case colexprs.Probe:
			cols[i] = coldata.CreateNullConstant(a.cfg.OutputTypes[i], n)
		case colexprs.Build:
			out := a.buildCol(i, a.cfg.OutputTypes[i], n)
			a.alloc.PerformOperation([]coldata.Vec{out}, func() {
				a.rows.ExtractColumn(buildRows, ref.Col, out)
			})
			cols[i] = out
		}
	}
	a.prevCols = cols
	return coldata.NewBatchWithColumns(cols, n)
}
