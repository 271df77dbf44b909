// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package coldata

import "github.com/cockroachdb/apd/v3"

// Vec is a single typed column of up to BatchSize() values, the unit the
// probe operator reads keys from and writes output columns into. It
// plays the role of coldata.Vec in the real vectorized engine (see
// pkg/col/coldata/vec_tmpl.go), trimmed to the handful of operations the
// probe operator actually needs: typed access, null tracking, dictionary
// wrapping over a row-number mapping, and copy-with-selection.
type Vec interface {
	// Type returns the column's type.
	Type() *T
	// Length returns the number of logical rows in the vector.
	Length() int
	// Nulls returns the null bitmap for this vector.
	Nulls() *Nulls

	// Bool/Int64/Float64/Bytes/Decimal return the backing slice for a
	// flat vector of the corresponding family. Calling the wrong
	// accessor for a flat vector's family returns a nil slice.
	Bool() []bool
	Int64() []int64
	Float64() []float64
	Bytes() [][]byte
	Decimal() []apd.Decimal

	// Copy overwrites this vector's contents (up to args.SrcEndIdx rows,
	// selected through args.Sel if non-nil) from src, mirroring
	// coldata.Vec.Copy(CopyArgs) in the real engine.
	Copy(args CopySliceArgs)

	// Reusable reports whether this vector can be recycled in place for
	// the next output batch: uniquely referenced and flat-encoded,
	// mirroring BaseVector::isVectorWritable/isFlatEncoding used by
	// HashProbe::prepareOutput in the original source.
	Reusable() bool
	// SetRefCount sets the reference-count bookkeeping used by
	// Reusable(). colmem.Allocator.PerformOperation calls this with 2 on
	// every vector it writes for the output assembler, since the batch
	// may be held by a downstream consumer; a consumer that is done with
	// the vector may call it with 1 to make it reusable again.
	SetRefCount(n int)
}

// CopySliceArgs mirrors coldata.SliceArgs / CopyArgs: it describes a
// copy of src[sel[i]] (or src[i] if sel is nil) for i in [0, SrcEndIdx)
// into the destination vector starting at row 0.
type CopySliceArgs struct {
	Src       Vec
	Sel       []int
	SrcEndIdx int
}

// flatVec is the flat, single-family Vec implementation. The other Vec
// implementations in this package, the dictionary- and constant-wrapped
// vectors, are in dictionary.go.
type flatVec struct {
	t        *T
	nulls    Nulls
	refCount int

	boolCol    []bool
	int64Col   []int64
	float64Col []float64
	bytesCol   [][]byte
	decimalCol []apd.Decimal
}

// NewVec allocates a flat vector of the given type and length with all
// values non-null and set to the family's zero value.
func NewVec(t *T, n int) Vec {
	v := &flatVec{t: t, nulls: NewNulls(n), refCount: 1}
	switch t.Family {
	case BoolFamily:
		v.boolCol = make([]bool, n)
	case Int64Family:
		v.int64Col = make([]int64, n)
	case Float64Family:
		v.float64Col = make([]float64, n)
	case BytesFamily:
		v.bytesCol = make([][]byte, n)
	case DecimalFamily:
		v.decimalCol = make([]apd.Decimal, n)
	}
	return v
}

func (v *flatVec) Type() *T      { return v.t }
func (v *flatVec) Nulls() *Nulls { return &v.nulls }

func (v *flatVec) Length() int {
	switch v.t.Family {
	case BoolFamily:
		return len(v.boolCol)
	case Int64Family:
		return len(v.int64Col)
	case Float64Family:
		return len(v.float64Col)
	case BytesFamily:
		return len(v.bytesCol)
	case DecimalFamily:
		return len(v.decimalCol)
	default:
		return 0
	}
}

func (v *flatVec) Bool() []bool             { return v.boolCol }
func (v *flatVec) Int64() []int64           { return v.int64Col }
func (v *flatVec) Float64() []float64       { return v.float64Col }
func (v *flatVec) Bytes() [][]byte          { return v.bytesCol }
func (v *flatVec) Decimal() []apd.Decimal   { return v.decimalCol }
func (v *flatVec) SetRefCount(n int)        { v.refCount = n }
func (v *flatVec) Reusable() bool           { return v.refCount <= 1 }

// Copy implements Vec. It resizes the destination's backing slice to
// args.SrcEndIdx and copies (optionally selected) values and null bits
// from src, the columnar analogue of CockroachDB's
// coldata.Vec.Copy(CopyArgs{Sel: ..., SrcEndIdx: ...}).
func (v *flatVec) Copy(args CopySliceArgs) {
	n := args.SrcEndIdx
	srcNulls := args.Src.Nulls()
	v.nulls = NewNulls(n)
	idx := func(i int) int {
		if args.Sel != nil {
			return args.Sel[i]
		}
		return i
	}
	switch v.t.Family {
	case BoolFamily:
		src := args.Src.Bool()
		v.boolCol = growBool(v.boolCol, n)
		for i := 0; i < n; i++ {
			j := idx(i)
			v.boolCol[i] = src[j]
			if srcNulls.NullAt(j) {
				v.nulls.SetNull(i)
			}
		}
	case Int64Family:
		src := args.Src.Int64()
		v.int64Col = growInt64(v.int64Col, n)
		for i := 0; i < n; i++ {
			j := idx(i)
			v.int64Col[i] = src[j]
			if srcNulls.NullAt(j) {
				v.nulls.SetNull(i)
			}
		}
	case Float64Family:
		src := args.Src.Float64()
		v.float64Col = growFloat64(v.float64Col, n)
		for i := 0; i < n; i++ {
			j := idx(i)
			v.float64Col[i] = src[j]
			if srcNulls.NullAt(j) {
				v.nulls.SetNull(i)
			}
		}
	case BytesFamily:
		src := args.Src.Bytes()
		v.bytesCol = growBytes(v.bytesCol, n)
		for i := 0; i < n; i++ {
			j := idx(i)
			v.bytesCol[i] = src[j]
			if srcNulls.NullAt(j) {
				v.nulls.SetNull(i)
			}
		}
	case DecimalFamily:
		src := args.Src.Decimal()
		v.decimalCol = growDecimal(v.decimalCol, n)
		for i := 0; i < n; i++ {
			j := idx(i)
			v.decimalCol[i] = src[j]
			if srcNulls.NullAt(j) {
				v.nulls.SetNull(i)
			}
		}
	}
}

func growBool(s []bool, n int) []bool {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]bool, n)
}

func growInt64(s []int64, n int) []int64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]int64, n)
}

func growFloat64(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}

func growBytes(s [][]byte, n int) [][]byte {
	if cap(s) >= n {
		return s[:n]
	}
	return make([][]byte, n)
}

func growDecimal(s []apd.Decimal, n int) []apd.Decimal {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]apd.Decimal, n)
}
