// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

// leftOuterTracker implements spec.md §4.5's left-outer/full-outer
// tracker: it observes (probe_row, passed) pairs in the monotone order
// the result cursor guarantees (spec.md §5), and reports a miss for a
// probe row once it sees the chain move on to the next row (or once
// Finish is called at the end of the current input batch) without ever
// having observed passed == true for it. It is also reused, unmodified,
// by the null-aware anti-join engine's miss emission (spec.md §4.6 step
// 4), which funnels its own pass/fail verdicts through the same
// Observe/Finish machinery.
//
// A tracker is scoped to one input batch: Reset must be called every
// time AddInput delivers a new batch, since probe-row indices are only
// meaningful within that batch (spec.md §3 "Lifecycles").
type leftOuterTracker struct {
	active   bool
	curRow   int
	anyMatch bool
}

// Reset clears the tracker for a new input batch.
func (t *leftOuterTracker) Reset() {
	t.active = false
	t.anyMatch = false
}

// Observe records that probeRow's hit chain produced a candidate pair
// whose filter result was passed. If this call's row differs from the
// previously observed row, the tracker flushes the previous row: if the
// previous row accumulated no passing candidate, Observe returns it as a
// miss to emit.
func (t *leftOuterTracker) Observe(probeRow int, passed bool) (missRow int, hasMiss bool) {
	if t.active && t.curRow != probeRow {
		prevRow, prevMiss := t.curRow, !t.anyMatch
		t.curRow, t.anyMatch = probeRow, passed
		if prevMiss {
			return prevRow, true
		}
		return 0, false
	}
	t.curRow = probeRow
	t.active = true
	t.anyMatch = t.anyMatch || passed
	return 0, false
}

// Finish flushes the last probe row seen, once the result cursor for
// the current input batch is fully drained. After Finish the tracker is
// inactive until the next Observe (following a Reset for the next
// batch).
func (t *leftOuterTracker) Finish() (missRow int, hasMiss bool) {
	if !t.active {
		return 0, false
	}
	t.active = false
	if !t.anyMatch {
		return t.curRow, true
	}
	return 0, false
}

// leftSemiTracker implements spec.md §4.5's left-semi tracker: it emits
// at most one output row per probe row. The result cursor's monotone
// guarantee means every pair for a given probe row is contiguous, so
// tracking "was the immediately preceding row the same row" is
// sufficient — no per-row set is needed.
type leftSemiTracker struct {
	hasLast bool
	lastRow int
}

// Reset clears the tracker for a new input batch.
func (t *leftSemiTracker) Reset() {
	t.hasLast = false
}

// ShouldEmit reports whether probeRow has not already contributed an
// output row in this batch, and records it as having done so.
func (t *leftSemiTracker) ShouldEmit(probeRow int) bool {
	if t.hasLast && t.lastRow == probeRow {
		return false
	}
	t.hasLast = true
	t.lastRow = probeRow
	return true
}
