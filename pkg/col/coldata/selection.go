// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package coldata

import "github.com/bits-and-blooms/bitset"

// Selection is a mutable bitset over row positions of a batch. It
// implements spec.md §3's "Active Row Set": it starts as "all rows
// selected" and loses rows as null keys or unmapped value-ids are
// discovered. It is deliberately distinct from Nulls (whose bit means
// "is null") even though both are bitset-backed, because the two evolve
// independently: a key can be removed from the active set in value-id
// mode without being null.
type Selection struct {
	bits *bitset.BitSet
	n    int
	all  bool
}

// NewAllSelection returns a Selection over n rows with every row
// selected. Until the first row is deselected, no bitmap is allocated.
func NewAllSelection(n int) Selection {
	return Selection{n: n, all: true}
}

// Len returns the number of rows this selection ranges over.
func (s *Selection) Len() int {
	return s.n
}

// IsAllSelected reports whether every row in [0, Len()) is selected,
// matching SelectivityVector::isAllSelected in the original source and
// letting callers take an allocation-free identity path.
func (s *Selection) IsAllSelected() bool {
	return s.all
}

// IsSelected reports whether row i is selected.
func (s *Selection) IsSelected(i int) bool {
	if s.all {
		return true
	}
	if s.bits == nil {
		return false
	}
	return s.bits.Test(uint(i))
}

// Deselect removes row i from the selection.
func (s *Selection) Deselect(i int) {
	if s.all {
		s.materialize()
	}
	s.bits.Clear(uint(i))
}

// materialize switches from the implicit "all selected" representation
// to an explicit bitmap with every row set, so that subsequent
// Deselect calls have something to clear.
func (s *Selection) materialize() {
	s.bits = bitset.New(uint(s.n))
	for i := 0; i < s.n; i++ {
		s.bits.Set(uint(i))
	}
	s.all = false
}

// ForEach calls f once per selected row index, in increasing order.
func (s *Selection) ForEach(f func(row int)) {
	if s.all {
		for i := 0; i < s.n; i++ {
			f(i)
		}
		return
	}
	if s.bits == nil {
		return
	}
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		f(int(i))
	}
}

// Rows materializes the selection as a compact, increasing slice of row
// indices, used to assemble the Lookup Driver's rows[] (spec.md §4.3).
func (s *Selection) Rows() []int {
	rows := make([]int, 0, s.n)
	s.ForEach(func(row int) { rows = append(rows, row) })
	return rows
}

// Count returns the number of selected rows.
func (s *Selection) Count() int {
	if s.all {
		return s.n
	}
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}
