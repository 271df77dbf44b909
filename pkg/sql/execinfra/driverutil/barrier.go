// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package driverutil implements the cross-driver rendezvous the probe
// operator needs at end-of-input for right/full-outer and right-semi
// joins: exactly one of the parallel probe shards must be the one that
// walks the build side emitting unmatched rows (spec.md §4.7). It is
// grounded directly on Task::allPeersFinished's role in
// original_source/velox/exec/HashProbe.cpp's noMoreInput: "the last
// Driver to hit HashProbe::finish is responsible for producing
// build-side rows based on the join."
package driverutil

import "sync"

// PeerBarrier is a counting rendezvous shared by every parallel probe
// shard of one join. Each shard calls Arrive exactly once, when its own
// input is exhausted; the call from the last shard to arrive returns
// last == true, designating that shard as the one responsible for the
// unmatched-build-row scan.
type PeerBarrier struct {
	mu       sync.Mutex
	total    int
	arrived  int
}

// NewPeerBarrier returns a barrier for the given number of parallel
// probe shards.
func NewPeerBarrier(shards int) *PeerBarrier {
	if shards <= 0 {
		shards = 1
	}
	return &PeerBarrier{total: shards}
}

// Arrive registers one shard's end-of-input. It returns true exactly
// once, for whichever call happens to be the total-th, matching
// allPeersFinished's "last driver" designation.
func (b *PeerBarrier) Arrive() (last bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arrived++
	if b.arrived > b.total {
		panic("driverutil: PeerBarrier.Arrive called more times than there are shards")
	}
	return b.arrived == b.total
}
