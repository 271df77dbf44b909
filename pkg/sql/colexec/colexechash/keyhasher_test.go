// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexechash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/pkg/col/coldata"
)

func intVec(vals []int64, nullAt ...int) coldata.Vec {
	v := coldata.NewVec(coldata.Int, len(vals))
	copy(v.Int64(), vals)
	for _, i := range nullAt {
		v.Nulls().SetNull(i)
	}
	return v
}

func TestNewKeyHasherPicksValueIDModeForSmallDomain(t *testing.T) {
	h := NewKeyHasher(intVec([]int64{1, 2, 1, 3}), 10)
	require.Equal(t, HashModeValueID, h.Mode())
}

func TestNewKeyHasherFallsBackToFullHashMode(t *testing.T) {
	h := NewKeyHasher(intVec([]int64{1, 2, 3, 4}), 2)
	require.Equal(t, HashModeFull, h.Mode())
}

func TestLookupValueIdsMarksUnseenValuesNotFound(t *testing.T) {
	h := NewKeyHasher(intVec([]int64{1, 2}), 10)
	probe := intVec([]int64{1, 2, 3})
	hashes := make([]uint64, 3)
	found := h.LookupValueIds(probe, []int{0, 1, 2}, hashes)
	require.True(t, found[0])
	require.True(t, found[1])
	require.False(t, found[2])
}

func TestLookupValueIdsAssignsStableIds(t *testing.T) {
	h := NewKeyHasher(intVec([]int64{5, 6, 5}), 10)
	probe := intVec([]int64{5, 6})
	hashes := make([]uint64, 2)
	h.LookupValueIds(probe, []int{0, 1}, hashes)
	require.NotEqual(t, hashes[0], hashes[1])
}

func TestHashMixesPriorWhenRequested(t *testing.T) {
	h := NewKeyHasher(intVec([]int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}), 2)
	vec := intVec([]int64{42})
	hashes := make([]uint64, 1)
	h.Hash(vec, []int{0}, false, hashes)
	first := hashes[0]
	h.Hash(vec, []int{0}, true, hashes)
	require.NotEqual(t, first, hashes[0])
}

func TestGetFilterOnlySucceedsInValueIDMode(t *testing.T) {
	valueIDHasher := NewKeyHasher(intVec([]int64{1, 2, 3}), 10)
	filter, ok := valueIDHasher.GetFilter(false)
	require.True(t, ok)
	require.NotNil(t, filter)

	fullHasher := NewKeyHasher(intVec([]int64{1, 2, 3}), 0)
	_, ok = fullHasher.GetFilter(false)
	require.False(t, ok)
}

func TestFilterMatches(t *testing.T) {
	h := NewKeyHasher(intVec([]int64{1, 2, 3}), 10)
	filter, ok := h.GetFilter(false)
	require.True(t, ok)

	probe := intVec([]int64{2, 9}, 1)
	require.True(t, filter.Matches(probe, 0))
	require.False(t, filter.Matches(probe, 1))

	nullsAllowed, _ := h.GetFilter(true)
	require.True(t, nullsAllowed.Matches(probe, 1))
}
