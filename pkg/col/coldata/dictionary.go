// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package coldata

import "github.com/cockroachdb/apd/v3"

// dictVec is a Vec that selects rows of a child Vec through a row-number
// mapping. It is how the output assembler re-exposes probe-side columns
// for a batch whose rows are a subset (and possibly a reordering, under
// the non-distinct-build case) of the input batch, rather than copying
// values: it plays exactly the role of
// BaseVector::wrapInDictionary/wrapChild in the original source and
// coldata.Vec's dictionary encoding in the real engine.
type dictVec struct {
	child   Vec
	indices []int
	nulls   Nulls
}

// WrapInDictionary returns a Vec of len(indices) rows where row i reads
// child[indices[i]], matching spec.md §4.9's "wrapping probe-side inputs
// with a dictionary that selects surviving rows". A negative index
// selects a null row (used for unmatched-probe synthesized rows whose
// row mapping still needs a slot).
func WrapInDictionary(child Vec, indices []int) Vec {
	d := &dictVec{child: child, indices: indices, nulls: NewNulls(len(indices))}
	childNulls := child.Nulls()
	for i, idx := range indices {
		if idx < 0 || childNulls.NullAt(idx) {
			d.nulls.SetNull(i)
		}
	}
	return d
}

func (d *dictVec) Type() *T      { return d.child.Type() }
func (d *dictVec) Length() int   { return len(d.indices) }
func (d *dictVec) Nulls() *Nulls { return &d.nulls }

func (d *dictVec) Bool() []bool {
	out := make([]bool, len(d.indices))
	src := d.child.Bool()
	for i, idx := range d.indices {
		if idx >= 0 {
			out[i] = src[idx]
		}
	}
	return out
}

func (d *dictVec) Int64() []int64 {
	out := make([]int64, len(d.indices))
	src := d.child.Int64()
	for i, idx := range d.indices {
		if idx >= 0 {
			out[i] = src[idx]
		}
	}
	return out
}

func (d *dictVec) Float64() []float64 {
	out := make([]float64, len(d.indices))
	src := d.child.Float64()
	for i, idx := range d.indices {
		if idx >= 0 {
			out[i] = src[idx]
		}
	}
	return out
}

func (d *dictVec) Bytes() [][]byte {
	out := make([][]byte, len(d.indices))
	src := d.child.Bytes()
	for i, idx := range d.indices {
		if idx >= 0 {
			out[i] = src[idx]
		}
	}
	return out
}

func (d *dictVec) Decimal() []apd.Decimal {
	out := make([]apd.Decimal, len(d.indices))
	src := d.child.Decimal()
	for i, idx := range d.indices {
		if idx >= 0 {
			out[i] = src[idx]
		}
	}
	return out
}

func (d *dictVec) Copy(CopySliceArgs)  { panic("dictVec is read-only; copy into the child instead") }
func (d *dictVec) Reusable() bool      { return false }
func (d *dictVec) SetRefCount(int)     {}

// constVec is a Vec that repeats a single row of a child Vec for every
// logical row. It implements "wrap_in_constant" from spec.md §6, used by
// the null-aware anti-join engine to broadcast one probe row against a
// chunk of build rows (spec.md §4.6).
type constVec struct {
	child Vec
	row   int
	n     int
}

// WrapInConstant returns a Vec of n rows, every one of which reads
// child[row].
func WrapInConstant(child Vec, row, n int) Vec {
	return &constVec{child: child, row: row, n: n}
}

func (c *constVec) Type() *T    { return c.child.Type() }
func (c *constVec) Length() int { return c.n }
func (c *constVec) Nulls() *Nulls {
	n := NewNulls(c.n)
	if c.child.Nulls().NullAt(c.row) {
		n.SetNullRange(0, c.n)
	}
	return &n
}

func (c *constVec) Bool() []bool {
	out := make([]bool, c.n)
	v := c.child.Bool()[c.row]
	for i := range out {
		out[i] = v
	}
	return out
}

func (c *constVec) Int64() []int64 {
	out := make([]int64, c.n)
	v := c.child.Int64()[c.row]
	for i := range out {
		out[i] = v
	}
	return out
}

func (c *constVec) Float64() []float64 {
	out := make([]float64, c.n)
	v := c.child.Float64()[c.row]
	for i := range out {
		out[i] = v
	}
	return out
}

func (c *constVec) Bytes() [][]byte {
	out := make([][]byte, c.n)
	v := c.child.Bytes()[c.row]
	for i := range out {
		out[i] = v
	}
	return out
}

func (c *constVec) Decimal() []apd.Decimal {
	out := make([]apd.Decimal, c.n)
	v := c.child.Decimal()[c.row]
	for i := range out {
		out[i] = v
	}
	return out
}

func (c *constVec) Copy(CopySliceArgs) { panic("constVec is read-only") }
func (c *constVec) Reusable() bool     { return false }
func (c *constVec) SetRefCount(int)    {}

// nullConstVec is an all-null Vec of a fixed type and length, used by
// the unmatched-build emitter to fill probe-side output columns at
// end-of-input (spec.md §4.7).
type nullConstVec struct {
	t     *T
	n     int
	nulls Nulls
}

// CreateNullConstant returns an all-null Vec of the given type and
// length, matching BaseVector::createNullConstant in the original
// source.
func CreateNullConstant(t *T, n int) Vec {
	nulls := NewNulls(n)
	nulls.SetNullRange(0, n)
	return &nullConstVec{t: t, n: n, nulls: nulls}
}

func (nv *nullConstVec) Type() *T      { return nv.t }
func (nv *nullConstVec) Length() int   { return nv.n }
func (nv *nullConstVec) Nulls() *Nulls { return &nv.nulls }
func (nv *nullConstVec) Bool() []bool             { return make([]bool, nv.n) }
func (nv *nullConstVec) Int64() []int64           { return make([]int64, nv.n) }
func (nv *nullConstVec) Float64() []float64       { return make([]float64, nv.n) }
func (nv *nullConstVec) Bytes() [][]byte          { return make([][]byte, nv.n) }
func (nv *nullConstVec) Decimal() []apd.Decimal   { return make([]apd.Decimal, nv.n) }
func (nv *nullConstVec) Copy(CopySliceArgs)       { panic("nullConstVec is read-only") }
func (nv *nullConstVec) Reusable() bool           { return false }
func (nv *nullConstVec) SetRefCount(int)          {}
