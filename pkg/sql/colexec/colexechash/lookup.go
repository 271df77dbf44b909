// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexechash

import (
	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
)

// Lookup is the per-batch scratch state the Key Projector & Hasher
// (spec.md §4.2) fills in and HashTable.Probe reads, matching Velox's
// HashLookup. Keys, Hashes and Hits are parallel arrays indexed by
// probe-batch row position; Rows is the (possibly strict) subset of
// positions actually being probed this round, letting a filter or a
// prior value-id miss shrink the active set without resizing the other
// arrays (spec.md §3 "Active Row Set", §4.2).
type Lookup struct {
	// Keys holds the probe-side key columns for the current batch, in
	// the same order as HashTable.Hashers().
	Keys []coldata.Vec
	// Hashes[row] is the hash or value-id computed for that row by the
	// Key Projector & Hasher, consistent with the table's HashMode.
	Hashes []uint64
	// Rows is the active row set: row positions still being probed.
	Rows []int
	// Hits[row] is the head of the build-row hit chain for that row, or
	// rowcontainer.NoRow if no build row shares its key.
	Hits []rowcontainer.RowID
}
