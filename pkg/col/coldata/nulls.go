// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package coldata

import "github.com/bits-and-blooms/bitset"

// Nulls is a bitmap recording which positions of a Vec are SQL NULL. A
// bit set means "is null", matching CockroachDB's coldata.Nulls
// convention (see pkg/col/coldata/nulls_test.go). It is backed by
// bits-and-blooms/bitset, already an indirect dependency of the teacher
// repository, rather than a hand-rolled word array.
type Nulls struct {
	bits *bitset.BitSet
	// hasNulls caches whether any bit is set, so the common all-non-null
	// path can skip bitmap work entirely.
	hasNulls bool
}

// NewNulls returns a Nulls bitmap of the given length with nothing
// marked null.
func NewNulls(n int) Nulls {
	return Nulls{bits: bitset.New(uint(n))}
}

// NullAt returns whether the row at index i is null.
func (n *Nulls) NullAt(i int) bool {
	if n.bits == nil {
		return false
	}
	return n.bits.Test(uint(i))
}

// SetNull marks row i as null.
func (n *Nulls) SetNull(i int) {
	if n.bits == nil {
		n.bits = bitset.New(uint(i) + 1)
	}
	n.bits.Set(uint(i))
	n.hasNulls = true
}

// UnsetNull marks row i as non-null.
func (n *Nulls) UnsetNull(i int) {
	if n.bits == nil {
		return
	}
	n.bits.Clear(uint(i))
}

// SetNullRange marks rows in [start, end) as null.
func (n *Nulls) SetNullRange(start, end int) {
	for i := start; i < end; i++ {
		n.SetNull(i)
	}
}

// MaybeHasNulls reports whether any row has ever been marked null. It is
// a fast, possibly-stale-true, never-stale-false check used to skip null
// handling on the common all-non-null path, mirroring
// coldata.Nulls.MaybeHasNulls in the real engine.
func (n *Nulls) MaybeHasNulls() bool {
	return n.hasNulls
}

// Or returns a new Nulls whose bit i is set iff n's or other's bit i is
// set. Used when combining null masks across multiple key columns to
// derive spec.md's "non_null_rows" set.
func (n *Nulls) Or(other *Nulls) Nulls {
	switch {
	case n.bits == nil:
		return cloneNulls(other)
	case other.bits == nil:
		return cloneNulls(n)
	}
	out := n.bits.Clone()
	out.InPlaceUnion(other.bits)
	return Nulls{bits: out, hasNulls: n.hasNulls || other.hasNulls}
}

func cloneNulls(n *Nulls) Nulls {
	if n == nil || n.bits == nil {
		return Nulls{}
	}
	return Nulls{bits: n.bits.Clone(), hasNulls: n.hasNulls}
}
