// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package coldata

// batchSize is the maximum number of rows in a single Batch. It mirrors
// coldata.BatchSize() in the real engine, which bounds every vectorized
// operator's per-call unit of work.
const batchSize = 1024

// BatchSize returns the maximum number of rows a Batch may hold.
func BatchSize() int {
	return batchSize
}

// Batch is a columnar row-vector: a fixed set of same-length Vecs plus a
// logical length. It is the unit the probe operator consumes from its
// input and produces as output.
type Batch interface {
	// Width returns the number of columns.
	Width() int
	// ColVec returns the column at index i.
	ColVec(i int) Vec
	// ColVecs returns all columns.
	ColVecs() []Vec
	// Length returns the batch's logical length; Vecs may have more
	// physical capacity than this.
	Length() int
	// SetLength sets the batch's logical length.
	SetLength(n int)
	// SetColVec replaces the column at index i. The output assembler
	// does not use it: it builds each batch from a fresh column slice
	// with NewBatchWithColumns.
	SetColVec(i int, v Vec)
}

type batch struct {
	cols   []Vec
	length int
}

// NewBatch allocates a Batch with one column per type in types, each
// with capacity for at least n rows.
func NewBatch(types []*T, n int) Batch {
	cols := make([]Vec, len(types))
	for i, t := range types {
		cols[i] = NewVec(t, n)
	}
	return &batch{cols: cols}
}

// NewBatchWithColumns assembles a Batch directly from already-built
// columns (e.g. a mix of dictionary-wrapped and flat Vecs), the shape
// the output assembler produces every call.
func NewBatchWithColumns(cols []Vec, length int) Batch {
	return &batch{cols: cols, length: length}
}

func (b *batch) Width() int             { return len(b.cols) }
func (b *batch) ColVec(i int) Vec       { return b.cols[i] }
func (b *batch) ColVecs() []Vec         { return b.cols }
func (b *batch) Length() int            { return b.length }
func (b *batch) SetLength(n int)        { b.length = n }
func (b *batch) SetColVec(i int, v Vec) { b.cols[i] = v }

// ZeroBatch is the sentinel empty batch signaling end-of-stream, the
// columnar analogue of returning a length-0 RowVectorPtr in the original
// source.
var ZeroBatch Batch = &batch{length: 0}
