// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexechash

import "github.com/riftdb/riftdb/pkg/col/coldata"

// Filter is a dynamic, build-side-derived predicate over one probe-side
// key column, matching spec.md §4.8's dynamic filter derivation and
// Velox's dynamicFilters_/get_filter machinery in the original source.
// It is only ever produced by KeyHasher.GetFilter, which only succeeds
// in HashModeValueID (a small, enumerable build-side key domain) — a
// large or unbounded key domain has no small filter worth pushing, so
// this type has no "full hash mode" variant.
type Filter struct {
	Values       map[string]struct{}
	NullsAllowed bool
}

// Matches reports whether vec[row] could possibly find a match in the
// build side this filter was derived from: either its value is in the
// observed set, or it is null and nulls are allowed through (three-valued
// comparisons never match a null key, but the probe row itself may still
// need to survive for an outer join's unmatched-row path — callers
// combine Matches with their own join-type logic rather than using it as
// an unconditional drop filter).
func (f *Filter) Matches(vec coldata.Vec, row int) bool {
	if vec.Nulls().NullAt(row) {
		return f.NullsAllowed
	}
	_, ok := f.Values[encodeVal(vec, row)]
	return ok
}
