// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexprs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexecerror"
)

func intVec(vals []int64, nullAt ...int) coldata.Vec {
	v := coldata.NewVec(coldata.Int, len(vals))
	copy(v.Int64(), vals)
	for _, i := range nullAt {
		v.Nulls().SetNull(i)
	}
	return v
}

func TestCompareLessThan(t *testing.T) {
	probe := []coldata.Vec{intVec([]int64{1, 5})}
	build := []coldata.Vec{intVec([]int64{10, 2})}
	c := &Compare{Op: LT, Left: FieldRef{Side: Probe, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}

	result, isNull := c.Eval(0, probe, 0, build)
	require.True(t, result)
	require.False(t, isNull)

	result, isNull = c.Eval(1, probe, 1, build)
	require.False(t, result)
	require.False(t, isNull)
}

func TestCompareNullOperandYieldsUnknown(t *testing.T) {
	probe := []coldata.Vec{intVec([]int64{1}, 0)}
	build := []coldata.Vec{intVec([]int64{1})}
	c := &Compare{Op: EQ, Left: FieldRef{Side: Probe, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}

	result, isNull := c.Eval(0, probe, 0, build)
	require.False(t, result)
	require.True(t, isNull)
}

func TestCompareFields(t *testing.T) {
	c := &Compare{Op: GE, Left: FieldRef{Side: Probe, Col: 3}, Right: FieldRef{Side: Build, Col: 1}}
	require.Equal(t, []FieldRef{{Side: Probe, Col: 3}, {Side: Build, Col: 1}}, c.Fields())
}

func TestExprSetConjunction(t *testing.T) {
	probe := []coldata.Vec{intVec([]int64{5})}
	build := []coldata.Vec{intVec([]int64{1})}

	gtZero := &Compare{Op: GT, Left: FieldRef{Side: Probe, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}
	ltTen := &Compare{Op: LT, Left: FieldRef{Side: Probe, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}
	set := NewExprSet(gtZero, ltTen)

	result, isNull := set.Eval(0, probe, 0, build)
	require.False(t, result)
	require.False(t, isNull)
}

func TestExprSetShortCircuitsOnFalse(t *testing.T) {
	probe := []coldata.Vec{intVec([]int64{1}, 0)}
	build := []coldata.Vec{intVec([]int64{1})}

	alwaysFalse := &Compare{Op: NE, Left: FieldRef{Side: Build, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}
	nullExpr := &Compare{Op: EQ, Left: FieldRef{Side: Probe, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}
	set := NewExprSet(nullExpr, alwaysFalse)

	result, isNull := set.Eval(0, probe, 0, build)
	require.False(t, result)
	require.False(t, isNull, "a definite false overrides a null sibling")
}

func TestExprSetFields(t *testing.T) {
	a := &Compare{Left: FieldRef{Side: Probe, Col: 0}, Right: FieldRef{Side: Build, Col: 0}}
	b := &Compare{Left: FieldRef{Side: Probe, Col: 1}, Right: FieldRef{Side: Build, Col: 1}}
	set := NewExprSet(a, b)
	require.Len(t, set.Fields(), 4)
}

func TestFieldOutOfRangePanics(t *testing.T) {
	probe := []coldata.Vec{intVec([]int64{1})}
	build := []coldata.Vec{intVec([]int64{1})}
	c := &Compare{Op: EQ, Left: FieldRef{Side: Probe, Col: 5}, Right: FieldRef{Side: Build, Col: 0}}

	var err error
	func() {
		defer colexecerror.CatchVectorizedRuntimeError(&err)
		c.Eval(0, probe, 0, build)
	}()
	require.Error(t, err)
}
