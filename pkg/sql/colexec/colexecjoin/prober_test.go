// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexechash"
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexprs"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
	"github.com/riftdb/riftdb/pkg/sql/colmem"
	"github.com/riftdb/riftdb/pkg/sql/execinfra/driverutil"
	"github.com/riftdb/riftdb/pkg/sql/execinfra/joinbridge"
	"github.com/riftdb/riftdb/pkg/sql/jointype"
)

// buildContainer constructs a two-column (key, val) build-side
// container with one key column, optionally null at the given key
// positions.
func buildContainer(keys, vals []int64, nullKeyAt ...int) *rowcontainer.Container {
	c := rowcontainer.NewContainer([]*coldata.T{coldata.Int, coldata.Int}, 1)
	b := coldata.NewBatch([]*coldata.T{coldata.Int, coldata.Int}, len(keys))
	b.SetLength(len(keys))
	copy(b.ColVec(0).Int64(), keys)
	copy(b.ColVec(1).Int64(), vals)
	for _, i := range nullKeyAt {
		b.ColVec(0).Nulls().SetNull(i)
	}
	c.AppendBatch(b)
	return c
}

// probeBatch constructs a two-column (key, val) probe batch.
func probeBatch(keys, vals []int64, nullKeyAt ...int) coldata.Batch {
	b := coldata.NewBatch([]*coldata.T{coldata.Int, coldata.Int}, len(keys))
	b.SetLength(len(keys))
	copy(b.ColVec(0).Int64(), keys)
	copy(b.ColVec(1).Int64(), vals)
	for _, i := range nullKeyAt {
		b.ColVec(0).Nulls().SetNull(i)
	}
	return b
}

func newTable(c *rowcontainer.Container) *colexechash.HashTable {
	ht := colexechash.NewHashTable(c, 1000)
	ht.Finalize()
	return ht
}

// newProber builds a HashProber wired to a bridge that has already
// published table, and a barrier sized for a single shard, matching the
// common (non-parallel) case every test but the barrier-specific one
// exercises.
func newProber(t *testing.T, cfg *JoinConfig, table *colexechash.HashTable) *HashProber {
	t.Helper()
	bridge := joinbridge.NewBridge()
	bridge.Publish(joinbridge.BuildResult{Table: table})
	barrier := driverutil.NewPeerBarrier(1)
	p := NewHashProber(context.Background(), cfg, DefaultProbeSettings(), colmem.NewAllocator(), bridge, barrier)
	blocked, _ := p.IsBlocked()
	require.False(t, blocked)
	return p
}

// drain pumps p through one input batch and end-of-input, returning
// every non-empty output batch produced, matching a driver's own
// AddInput/GetOutput/NoMoreInput/GetOutput/IsFinished pump loop.
func drain(t *testing.T, p *HashProber, in coldata.Batch) []coldata.Batch {
	t.Helper()
	var out []coldata.Batch
	if in != nil {
		p.AddInput(in)
		for {
			b := p.GetOutput()
			if b == nil {
				break
			}
			out = append(out, b)
		}
	}
	p.NoMoreInput()
	for !p.IsFinished() {
		b := p.GetOutput()
		if b == coldata.ZeroBatch {
			break
		}
		if b != nil {
			out = append(out, b)
		}
	}
	require.True(t, p.IsFinished())
	return out
}

// pairs flattens a slice of 3-column (probeKey, probeVal, buildVal)
// output batches into (key, val) int64 pairs for easy comparison,
// treating a null cell as -1.
func pairs(batches []coldata.Batch) [][2]int64 {
	var out [][2]int64
	for _, b := range batches {
		n := b.Length()
		k, v := b.ColVec(0), b.ColVec(2)
		for i := 0; i < n; i++ {
			key, val := int64(-1), int64(-1)
			if !k.Nulls().NullAt(i) {
				key = k.Int64()[i]
			}
			if !v.Nulls().NullAt(i) {
				val = v.Int64()[i]
			}
			out = append(out, [2]int64{key, val})
		}
	}
	return out
}

func keyValOutputCols() ([]colexprs.FieldRef, []*coldata.T) {
	return []colexprs.FieldRef{
			{Side: colexprs.Probe, Col: 0},
			{Side: colexprs.Probe, Col: 1},
			{Side: colexprs.Build, Col: 1},
		}, []*coldata.T{coldata.Int, coldata.Int, coldata.Int}
}

func TestInnerJoinMatchesAndDropsMisses(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2, 3}, []int64{100, 200, 300}))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1, 2, 5}, []int64{10, 20, 50}))
	require.ElementsMatch(t, [][2]int64{{1, 100}, {2, 200}}, pairs(out))
}

func TestInnerJoinWithFilter(t *testing.T) {
	cols, types := keyValOutputCols()
	filter := colexprs.NewExprSet(&colexprs.Compare{
		Op:    colexprs.GT,
		Left:  colexprs.FieldRef{Side: colexprs.Build, Col: 1},
		Right: colexprs.FieldRef{Side: colexprs.Probe, Col: 1},
	})
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
		Filter:       filter,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	// build.val(100) > probe.val(150) is false for row0; build.val(200)
	// > probe.val(5) is true for row1.
	out := drain(t, p, probeBatch([]int64{1, 2}, []int64{150, 5}))
	require.Equal(t, [][2]int64{{2, 200}}, pairs(out))
}

func TestLeftOuterJoinPadsMisses(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.LeftOuter,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1}, []int64{100}))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1, 5}, []int64{10, 50}))
	require.ElementsMatch(t, [][2]int64{{1, 100}, {5, -1}}, pairs(out))
}

func TestLeftOuterJoinFilterFailureCountsAsMiss(t *testing.T) {
	cols, types := keyValOutputCols()
	filter := colexprs.NewExprSet(&colexprs.Compare{
		Op:    colexprs.GT,
		Left:  colexprs.FieldRef{Side: colexprs.Probe, Col: 1},
		Right: colexprs.FieldRef{Side: colexprs.Build, Col: 1},
	})
	cfg := &JoinConfig{
		Variant:      jointype.LeftOuter,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
		Filter:       filter,
	}
	table := newTable(buildContainer([]int64{1}, []int64{100}))
	p := newProber(t, cfg, table)

	// probe.val(1) > build.val(100) is false, so the only candidate
	// pair fails the filter and the row must still surface null-padded.
	out := drain(t, p, probeBatch([]int64{1}, []int64{1}))
	require.Equal(t, [][2]int64{{1, -1}}, pairs(out))
}

func TestFullOuterJoinEmitsBothSidesUnmatched(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.FullOuter,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1, 9}, []int64{10, 90}))
	require.ElementsMatch(t, [][2]int64{{1, 100}, {9, -1}, {-1, 200}}, pairs(out))
}

func TestRightOuterJoinEmitsUnmatchedBuildAtEndOfInput(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.RightOuter,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1}, []int64{10}))
	require.ElementsMatch(t, [][2]int64{{1, 100}, {-1, 200}}, pairs(out))
}

func TestRightSemiJoinOnlyEmitsProbedBuildRows(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.RightSemi,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1, 1}, []int64{10, 11}))
	// Right-semi emits each matched build row once, with null probe
	// columns, regardless of how many probe rows matched it.
	require.Equal(t, [][2]int64{{-1, 100}}, pairs(out))
}

func TestLeftSemiJoinEmitsAtMostOnceEvenWithDuplicateBuildKeys(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.LeftSemi,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 1, 5}, []int64{100, 101, 500}))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1, 9}, []int64{10, 90}))
	require.Len(t, pairs(out), 1)
	require.Equal(t, int64(1), pairs(out)[0][0])
}

func TestNullAwareAntiJoinNoFilter(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.NullAwareAnti,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	// Null-aware anti join emits each surviving probe row with no build
	// row (rowcontainer.NoRow), so its build-sourced output cell is null.
	out := drain(t, p, probeBatch([]int64{1, 9}, []int64{10, 90}))
	require.Equal(t, [][2]int64{{9, -1}}, pairs(out))
}

func TestNullAwareAntiJoinNoFilterExcludesNullProbeKey(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.NullAwareAnti,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	// A probe row with a null join key must never survive a no-filter
	// null-aware anti join against a non-empty build side (spec.md §4.4:
	// output row i is produced iff non_null_rows[i] AND no build match),
	// regardless of whether its (nonexistent) key happens to look
	// unmatched. Only the genuinely unmatched, non-null key (9) survives.
	out := drain(t, p, probeBatch([]int64{0, 9}, []int64{5, 90}, 0))
	require.Equal(t, [][2]int64{{9, -1}}, pairs(out))
}

func TestNullAwareAntiJoinCollapsesToEmptyOnBuildNullKey(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.NullAwareAnti,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 0}, []int64{100, 999}, 1))

	bridge := joinbridge.NewBridge()
	bridge.Publish(joinbridge.BuildResult{Table: table, AntiJoinHasNullKeys: true})
	p := NewHashProber(context.Background(), cfg, DefaultProbeSettings(), colmem.NewAllocator(), bridge, driverutil.NewPeerBarrier(1))
	blocked, _ := p.IsBlocked()
	require.False(t, blocked)
	require.True(t, p.IsFinished())
	require.Equal(t, coldata.ZeroBatch, p.GetOutput())
}

func TestNullAwareAntiJoinWithFilterRescansBuildForOwnNullKey(t *testing.T) {
	cols, types := keyValOutputCols()
	filter := colexprs.NewExprSet(&colexprs.Compare{
		Op:    colexprs.EQ,
		Left:  colexprs.FieldRef{Side: colexprs.Probe, Col: 1},
		Right: colexprs.FieldRef{Side: colexprs.Build, Col: 1},
	})
	cfg := &JoinConfig{
		Variant:      jointype.NullAwareAnti,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
		Filter:       filter,
	}
	table := newTable(buildContainer([]int64{1, 2}, []int64{100, 200}))
	p := newProber(t, cfg, table)

	// probe row 0 has a null key: it can never be found via the hash
	// chain, so the null-aware engine must rescan every build row
	// (test_all_rows) evaluating the filter with probe row 0 broadcast.
	// probe.val(100) == build.val(100) for the first build row, so this
	// probe row is disqualified (skipped) despite its null key.
	out := drain(t, p, probeBatch([]int64{0, 9}, []int64{100, 999}, 0))
	require.Equal(t, [][2]int64{{9, -1}}, pairs(out))
}

func TestEmptyBuildSidePassesEveryProbeRowThrough(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.LeftOuter,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer(nil, nil))
	p := newProber(t, cfg, table)

	out := drain(t, p, probeBatch([]int64{1, 2}, []int64{10, 20}))
	require.ElementsMatch(t, [][2]int64{{1, -1}, {2, -1}}, pairs(out))
}

func TestInnerJoinEmptyOutputWhenBuildEmpty(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer(nil, nil))
	bridge := joinbridge.NewBridge()
	bridge.Publish(joinbridge.BuildResult{Table: table})
	p := NewHashProber(context.Background(), cfg, DefaultProbeSettings(), colmem.NewAllocator(), bridge, driverutil.NewPeerBarrier(1))
	blocked, _ := p.IsBlocked()
	require.False(t, blocked)
	require.True(t, p.IsFinished(), "inner join must short-circuit to finished when the build side is empty")
}

func TestIsBlockedUntilBuildPublishes(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	bridge := joinbridge.NewBridge()
	p := NewHashProber(context.Background(), cfg, DefaultProbeSettings(), colmem.NewAllocator(), bridge, driverutil.NewPeerBarrier(1))

	blocked, ch := p.IsBlocked()
	require.True(t, blocked)
	require.NotNil(t, ch)

	table := newTable(buildContainer([]int64{1}, []int64{100}))
	bridge.Publish(joinbridge.BuildResult{Table: table})
	<-ch

	blocked, _ = p.IsBlocked()
	require.False(t, blocked)
}

func TestElidedInnerJoinPassesRowsThroughUnchanged(t *testing.T) {
	cols := []colexprs.FieldRef{{Side: colexprs.Probe, Col: 0}, {Side: colexprs.Probe, Col: 1}}
	types := []*coldata.T{coldata.Int, coldata.Int}
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1, 2, 3}, []int64{100, 200, 300}))
	p := newProber(t, cfg, table)

	filters := p.ClearDynamicFilters()
	require.NotEmpty(t, filters)

	in := probeBatch([]int64{1, 42}, []int64{10, 20})
	p.AddInput(in)
	out := p.GetOutput()
	require.Same(t, in, out, "an elided join must hand the input batch straight through")
	require.Equal(t, int64(2), p.ReplacedWithDynamicFilterRows())
}

func TestAddInputBeforeBuildReadyPanics(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	bridge := joinbridge.NewBridge()
	p := NewHashProber(context.Background(), cfg, DefaultProbeSettings(), colmem.NewAllocator(), bridge, driverutil.NewPeerBarrier(1))
	require.Panics(t, func() { p.AddInput(probeBatch([]int64{1}, []int64{1})) })
}

func TestAddInputWhileBatchActivePanics(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{0},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1}, []int64{100}))
	p := newProber(t, cfg, table)
	p.AddInput(probeBatch([]int64{1}, []int64{10}))
	require.Panics(t, func() { p.AddInput(probeBatch([]int64{1}, []int64{10})) })
}

func TestConfigValidationRejectsBadKeyColumn(t *testing.T) {
	cols, types := keyValOutputCols()
	cfg := &JoinConfig{
		Variant:      jointype.Inner,
		ProbeKeyCols: []int{7},
		BuildKeyCols: []int{0},
		OutputCols:   cols,
		OutputTypes:  types,
	}
	table := newTable(buildContainer([]int64{1}, []int64{100}))
	p := newProber(t, cfg, table)
	require.Panics(t, func() { p.AddInput(probeBatch([]int64{1}, []int64{10})) })
}
