// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexechash

import (
	"fmt"
	"hash/fnv"

	"github.com/riftdb/riftdb/pkg/col/coldata"
)

// HashMode selects how a HashTable's KeyHashers compute the values the
// prober uses to find candidate build rows, matching
// BaseHashTable::HashMode in the original source and spec.md §4.2.
type HashMode int

const (
	// HashModeFull is the general case: hashers produce a full 64-bit
	// hash per key, mixed across multiple key columns.
	HashModeFull HashMode = iota
	// HashModeValueID is used when the build-side key set is small and
	// finite: each key value maps to a dense integer id, which both
	// serves as the probe hash and enables dynamic-filter derivation
	// (spec.md §4.8).
	HashModeValueID
)

// KeyHasher computes hash or value-id data for one key column,
// consistent with the HashTable's HashMode. The same KeyHasher
// instances are shared between the build side (which constructs them
// while indexing the table) and the probe side (which calls them via
// HashTable.Hashers(), per spec.md §4.2's "Key Projector & Hasher"),
// ensuring both sides compute identical values for identical keys. It
// mirrors colexechash.keyHasher / VectorHasher in the teacher and
// original source.
type KeyHasher interface {
	// Hash fills hashes[row] for every row in rows with a hash of
	// vec[row]; if mixPrior is true, the new hash is folded into the
	// existing value at hashes[row] instead of overwriting it (spec.md
	// §4.2: "for key 0 compute hashes; for keys 1..n-1 mix into
	// existing hashes").
	Hash(vec coldata.Vec, rows []int, mixPrior bool, hashes []uint64)

	// LookupValueIds fills hashes[row] with the dense value-id of
	// vec[row] for every row in rows, and reports in found[row] whether
	// that value has ever been observed on the build side. Rows with
	// found[row] == false must be dropped from the active row set
	// (spec.md §4.2).
	LookupValueIds(vec coldata.Vec, rows []int, hashes []uint64) (found []bool)

	// GetFilter derives a pushdown predicate from this key's build-side
	// value set, for spec.md §4.8's dynamic-filter derivation. It
	// returns ok == false when this hasher's mode does not support
	// derivation (i.e. HashModeFull).
	GetFilter(nullsAllowed bool) (filter *Filter, ok bool)

	// Mode reports which HashMode this hasher was built in, letting the
	// Key Projector & Hasher (spec.md §4.2) decide between the
	// value-id-pruning path and the full-hash mixing path.
	Mode() HashMode
}

// valueHasher is the only KeyHasher implementation in this package. It
// supports both hash modes: in HashModeValueID it assigns dense ids to
// each distinct observed build value (built once, in NewKeyHasher); in
// HashModeFull it hashes the value's canonical encoding with FNV-1a,
// mirroring the real engine's fallback when a key's domain is not
// known to be small.
type valueHasher struct {
	mode HashMode
	// ids maps a value's canonical encoding to its dense id, populated
	// from the build side at construction time. Only used in
	// HashModeValueID.
	ids map[string]uint64
	// distinct lists the canonical encodings in id order, so GetFilter
	// can hand back the exact value set.
	distinct []string
}

// NewKeyHasher builds a KeyHasher over the given build-side column,
// choosing HashModeValueID when the column's distinct-value count is at
// or under maxValueIDs (a small finite domain, matching the real
// engine's heuristic for when array/value-id hash mode pays off), and
// HashModeFull otherwise.
func NewKeyHasher(buildCol coldata.Vec, maxValueIDs int) KeyHasher {
	ids := map[string]uint64{}
	var distinct []string
	for i := 0; i < buildCol.Length(); i++ {
		if buildCol.Nulls().NullAt(i) {
			continue
		}
		key := encodeVal(buildCol, i)
		if _, ok := ids[key]; !ok {
			ids[key] = uint64(len(distinct))
			distinct = append(distinct, key)
		}
	}
	mode := HashModeFull
	if len(distinct) <= maxValueIDs {
		mode = HashModeValueID
	}
	return &valueHasher{mode: mode, ids: ids, distinct: distinct}
}

func (h *valueHasher) Hash(vec coldata.Vec, rows []int, mixPrior bool, hashes []uint64) {
	for _, r := range rows {
		var h64 uint64
		if vec.Nulls().NullAt(r) {
			h64 = 0
		} else {
			h64 = fnvHash(encodeVal(vec, r))
		}
		if mixPrior {
			hashes[r] = mixHash(hashes[r], h64)
		} else {
			hashes[r] = h64
		}
	}
}

func (h *valueHasher) LookupValueIds(vec coldata.Vec, rows []int, hashes []uint64) []bool {
	found := make([]bool, vec.Length())
	for _, r := range rows {
		if vec.Nulls().NullAt(r) {
			found[r] = false
			continue
		}
		id, ok := h.ids[encodeVal(vec, r)]
		found[r] = ok
		if ok {
			hashes[r] = id
		}
	}
	return found
}

func (h *valueHasher) Mode() HashMode { return h.mode }

func (h *valueHasher) GetFilter(nullsAllowed bool) (*Filter, bool) {
	if h.mode != HashModeValueID {
		return nil, false
	}
	values := make(map[string]struct{}, len(h.distinct))
	for _, v := range h.distinct {
		values[v] = struct{}{}
	}
	return &Filter{Values: values, NullsAllowed: nullsAllowed}, true
}

// encodeVal returns a canonical, comparable encoding of vec[row] used
// both as a map key for value-id assignment and as the equality
// signature the HashTable uses to chain together build rows with equal
// keys (see hashtable.go's rowKey). Using one routine for both jobs
// guarantees that "hashes to the same bucket" and "is the same key
// value" never disagree, which is what lets this package's HashTable
// skip the teacher's iterative hash-collision Check/ToCheck loop (see
// DESIGN.md) while still producing identical join results.
func encodeVal(vec coldata.Vec, row int) string {
	switch vec.Type().Family {
	case coldata.BoolFamily:
		return fmt.Sprintf("b:%t", vec.Bool()[row])
	case coldata.Int64Family:
		return fmt.Sprintf("i:%d", vec.Int64()[row])
	case coldata.Float64Family:
		return fmt.Sprintf("f:%v", vec.Float64()[row])
	case coldata.BytesFamily:
		return fmt.Sprintf("s:%s", vec.Bytes()[row])
	case coldata.DecimalFamily:
		d := vec.Decimal()[row]
		return fmt.Sprintf("d:%s", d.String())
	default:
		return ""
	}
}

func fnvHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// mixHash folds a new hash into an accumulator, the same role as
// boost::hash_combine used throughout columnar engines for
// multi-column keys.
func mixHash(acc, h uint64) uint64 {
	return acc*31 + h
}
