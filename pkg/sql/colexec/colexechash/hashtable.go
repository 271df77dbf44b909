// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package colexechash is the hash table the probe operator looks up
// into. Spec.md §1 names the hash table itself (probing, row container,
// iterators) as an external collaborator, out of scope for the probe
// operator's own testable surface; this package exists only so
// colexecjoin has a real, correct collaborator to call, grounded on
// colexecjoin/hashjoiner_tmpl.go's GroupID/ToCheck/Same/HeadID naming,
// msirek-cockroach's lookupjoiner.go colexechash.HashTable usage, and
// BaseHashTable/listJoinResults in original_source/velox/exec/HashProbe.cpp.
//
// This package deliberately does not reproduce the teacher's iterative,
// SIMD-oriented Check/ToCheck/FindNext bucket-chase: since the hash
// table's internals are explicitly out of scope, HashTable resolves
// collisions directly against each row's canonical key encoding rather
// than walking a chain of same-hash candidates (see keyhasher.go's
// encodeVal doc comment and DESIGN.md). The externally visible
// contract — Hashers, Probe, ListJoinResults, ListProbedRows,
// ListNotProbedRows — matches the original exactly.
package colexechash

import (
	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
)

// HashTable indexes a rowcontainer.Container by its key columns so
// probe batches can find matching build rows. Call Finalize once after
// all build rows are inserted and before the first Probe.
type HashTable struct {
	rows    *rowcontainer.Container
	hashers []KeyHasher

	// chainHead maps a canonical key encoding (see keyhasher.go) to the
	// most recently inserted build row with that key; same[row] links
	// to the previously inserted row sharing the same key, or NoRow.
	// Together they form the HeadID/Same singly linked chain the
	// teacher's templates describe.
	chainHead map[string]rowcontainer.RowID
	same      []rowcontainer.RowID

	numDistinct      int
	hasDuplicateKeys bool
	finalized        bool
}

// NewHashTable returns a HashTable over rows, with one KeyHasher per key
// column built from the build-side data already in rows (matching the
// real engine's single-pass table build, which constructs its hashers
// while indexing rows). maxValueIDs bounds how large a key's distinct
// value set may be before its hasher falls back from HashModeValueID to
// HashModeFull (see keyhasher.go).
func NewHashTable(rows *rowcontainer.Container, maxValueIDs int) *HashTable {
	keyTypes := rows.KeyTypes()
	ht := &HashTable{
		rows:      rows,
		hashers:   make([]KeyHasher, len(keyTypes)),
		chainHead: map[string]rowcontainer.RowID{},
	}
	iter := &rowcontainer.Iterator{}
	allRows := rows.ListRows(iter, rows.NumRows())
	for k := range keyTypes {
		col := extractKeyColumn(rows, allRows, k)
		ht.hashers[k] = NewKeyHasher(col, maxValueIDs)
	}
	return ht
}

func extractKeyColumn(rows *rowcontainer.Container, ids []rowcontainer.RowID, col int) coldata.Vec {
	out := coldata.NewVec(rows.KeyTypes()[col], len(ids))
	rows.ExtractColumn(ids, col, out)
	return out
}

// rowKey returns the canonical composite key for row across cols
// (probe-side batch columns, or build-side extracted key columns),
// joined by a separator that cannot appear in any single column's
// encodeVal output, plus whether any column was null at row — a null
// component means the row can never equal, or be equalled by, any other
// row (SQL three-valued logic), matching the real engine's treatment of
// null keys as un-joinable.
func rowKey(cols []coldata.Vec, row int) (key string, hasNull bool) {
	for _, c := range cols {
		if c.Nulls().NullAt(row) {
			return "", true
		}
		key += encodeVal(c, row) + "\x00"
	}
	return key, false
}

// Hashers returns this table's per-key-column hashers, shared with the
// probe side's Key Projector & Hasher component (spec.md §4.2) so both
// sides compute identical hash/value-id data for identical keys.
func (h *HashTable) Hashers() []KeyHasher { return h.hashers }

// Finalize builds the key-equality chains used by Probe. It must run
// once, after every build row has been inserted into rows.
func (h *HashTable) Finalize() {
	if h.finalized {
		return
	}
	h.finalized = true
	n := h.rows.NumRows()
	h.same = make([]rowcontainer.RowID, n)
	for i := range h.same {
		h.same[i] = rowcontainer.NoRow
	}
	iter := &rowcontainer.Iterator{}
	allRows := h.rows.ListRows(iter, n)
	keyTypes := h.rows.KeyTypes()
	keyCols := make([]coldata.Vec, len(keyTypes))
	for k := range keyTypes {
		keyCols[k] = extractKeyColumn(h.rows, allRows, k)
	}
	for i, r := range allRows {
		key, hasNull := rowKey(keyCols, i)
		if hasNull {
			// A null key column can never equal anything, including
			// another null (SQL three-valued logic); such rows are
			// reachable only through ListRows/ListNotProbedRows, never
			// through Probe's chain, matching the teacher's treatment
			// of null build keys as un-joinable.
			continue
		}
		if head, ok := h.chainHead[key]; ok {
			h.same[r] = head
		} else {
			h.numDistinct++
		}
		h.chainHead[key] = r
	}
	for _, head := range h.chainHead {
		if h.same[head] != rowcontainer.NoRow {
			h.hasDuplicateKeys = true
			break
		}
	}
}

// HasDuplicateKeys reports whether any build-side key value is shared by
// more than one row, used by the dynamic-filter derivation to decide
// whether a probe batch may skip the join entirely.
func (h *HashTable) HasDuplicateKeys() bool { return h.hasDuplicateKeys }

// NumDistinct returns the number of distinct non-null key values on the
// build side.
func (h *HashTable) NumDistinct() int { return h.numDistinct }

// Probe fills lookup.Hits for every row in lookup.Rows by resolving that
// row's key columns (lookup.Keys) against the build-side chains. Rows
// not in lookup.Rows are left untouched.
func (h *HashTable) Probe(lookup *Lookup) {
	if !h.finalized {
		panic("colexechash: Probe called before Finalize")
	}
	for _, r := range lookup.Rows {
		key, hasNull := rowKey(lookup.Keys, r)
		if hasNull {
			lookup.Hits[r] = rowcontainer.NoRow
			continue
		}
		if head, ok := h.chainHead[key]; ok {
			lookup.Hits[r] = head
		} else {
			lookup.Hits[r] = rowcontainer.NoRow
		}
	}
}

// ResultCursor is the cross-call state the result iterator (spec.md
// §4.4) needs to resume draining a probe batch's hit chains across many
// GetOutput calls: which position within lookup.Rows it is on, and how
// far into that row's hit chain it has walked. Modeled as a plain
// record per spec.md §9's design note ("do not hide it inside the
// table").
type ResultCursor struct {
	// RowPos is an index into the Lookup.Rows slice of the row
	// currently being drained.
	RowPos int
	// Chain is the next build row to emit for the current probe row, or
	// NoRow if that row's chain (or its single miss marker) has been
	// fully drained.
	Chain rowcontainer.RowID
	// started records whether the current probe row has already had at
	// least one pair emitted, distinguishing "haven't started this row
	// yet" from "drained this row's chain" — both states present Chain
	// == NoRow.
	started bool
	// Done reports that every row in Lookup.Rows has been fully
	// drained.
	Done bool
}

// ListJoinResults drains up to len(probeOut) probe/build row pairs from
// lookup's hit chains into probeOut/buildOut, resuming from cursor and
// advancing it, matching RowContainer/HashProbe's listJoinResults
// cursor loop in the original source. includeMisses emits (row, NoRow)
// once for a probe row whose chain is empty, needed for left/full outer
// and null-aware anti's "no match" path (spec.md §4.4, §4.5); inner,
// right outer, right semi and left semi pass includeMisses == false.
// It returns the number of pairs written.
func (h *HashTable) ListJoinResults(
	cursor *ResultCursor,
	lookup *Lookup,
	includeMisses bool,
	probeOut []int,
	buildOut []rowcontainer.RowID,
) int {
	n := 0
	max := len(probeOut)
	for n < max && cursor.RowPos < len(lookup.Rows) {
		probeRow := lookup.Rows[cursor.RowPos]
		if !cursor.started {
			cursor.Chain = lookup.Hits[probeRow]
			cursor.started = true
			if cursor.Chain == rowcontainer.NoRow {
				if includeMisses {
					probeOut[n] = probeRow
					buildOut[n] = rowcontainer.NoRow
					n++
				}
				cursor.RowPos++
				cursor.started = false
				continue
			}
		}
		for n < max && cursor.Chain != rowcontainer.NoRow {
			probeOut[n] = probeRow
			buildOut[n] = cursor.Chain
			n++
			cursor.Chain = h.same[cursor.Chain]
		}
		if cursor.Chain == rowcontainer.NoRow {
			cursor.RowPos++
			cursor.started = false
		}
	}
	cursor.Done = cursor.RowPos >= len(lookup.Rows)
	return n
}

// ListProbedRows enumerates build rows whose probed-flag is set, via the
// underlying row container, for right-semi end-of-input emission
// (spec.md §4.7).
func (h *HashTable) ListProbedRows(iter *rowcontainer.Iterator, max int) []rowcontainer.RowID {
	return h.rows.ListProbedRows(iter, max)
}

// ListNotProbedRows enumerates build rows whose probed-flag is clear,
// for right/full-outer end-of-input emission (spec.md §4.7).
func (h *HashTable) ListNotProbedRows(iter *rowcontainer.Iterator, max int) []rowcontainer.RowID {
	return h.rows.ListNotProbedRows(iter, max)
}

// SetProbedFlag forwards to the underlying row container, matching
// spec.md §4.5's requirement that every matched build row be marked as
// soon as its pair is emitted.
func (h *HashTable) SetProbedFlag(rows []rowcontainer.RowID) {
	h.rows.SetProbedFlag(rows)
}

// Rows returns the underlying row container, for callers (the
// null-aware anti-join engine, the output assembler) that need to
// extract build-side columns directly.
func (h *HashTable) Rows() *rowcontainer.Container { return h.rows }
