// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package colmem provides the memory-reuse helpers the probe operator
// uses to sustain columnar throughput (spec.md §1's "careful
// memory-reuse"), mirroring CockroachDB's pkg/sql/colmem.Allocator as
// used throughout colexecjoin (e.g.
// lookupJoiner.outputUnlimitedAllocator.PerformOperation in
// lookupjoiner.go) and colexec/crossjoiner.go's
// unlimitedAllocator.ResetMaybeReallocate.
package colmem

import "github.com/riftdb/riftdb/pkg/col/coldata"

// Allocator is the allocator for output batches. It does not track or
// bound memory: this engine does not model a disk spill path (spec.md
// §1 Non-goals). It exists as the single
// seam through which all batch (re)allocation flows, exactly as in the
// real engine, so that accounting can be added without touching call
// sites.
type Allocator struct {
	used int64
}

// NewAllocator returns a new, empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// NewMemBatchWithFixedCapacity allocates a new Batch with the given
// column types and capacity, matching
// colmem.Allocator.NewMemBatchWithFixedCapacity used when building the
// build-side row window in lookupjoiner.go's exportBufferedState.
func (a *Allocator) NewMemBatchWithFixedCapacity(types []*coldata.T, n int) coldata.Batch {
	return coldata.NewBatch(types, n)
}

// ResetMaybeReallocate either reuses old (resetting its logical length
// to n) if old is non-nil and its columns are all Reusable() at
// sufficient capacity, or allocates a fresh Batch. It is the columnar
// analogue of BaseVector::prepareForReuse plus
// colmem.Allocator.ResetMaybeReallocate, used by HashProbe::prepareOutput
// in the original source.
func (a *Allocator) ResetMaybeReallocate(types []*coldata.T, old coldata.Batch, n int) (coldata.Batch, bool) {
	if old != nil && old.Width() == len(types) && batchReusable(old, n) {
		old.SetLength(n)
		return old, false
	}
	fresh := coldata.NewBatch(types, n)
	fresh.SetLength(n)
	return fresh, true
}

func batchReusable(b coldata.Batch, n int) bool {
	for i := 0; i < b.Width(); i++ {
		col := b.ColVec(i)
		if !col.Reusable() {
			return false
		}
		if col.Length() < n {
			return false
		}
	}
	return true
}

// PerformOperation runs fn, which writes into vecs, and then marks each
// of vecs as handed out (SetRefCount(2)), so that a later reuse check
// (Vec.Reusable, ResetMaybeReallocate) reallocates rather than
// overwriting a vector a consumer may still hold. It mirrors
// colmem.Allocator.PerformOperation's role in lookupjoiner.go's
// congregate/emitRight, which wrap every write to the output batch.
func (a *Allocator) PerformOperation(vecs []coldata.Vec, fn func()) {
	fn()
	for _, v := range vecs {
		v.SetRefCount(2)
	}
}
