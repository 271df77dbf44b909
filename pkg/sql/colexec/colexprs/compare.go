// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexprs

import (
	"github.com/cockroachdb/errors"

	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexecerror"
)

// CmpOp identifies a scalar comparison operator.
type CmpOp int

const (
	LT CmpOp = iota
	LE
	GT
	GE
	EQ
	NE
)

// Compare is a binary comparison between two field references, the
// workhorse residual-filter expression spec.md §8 scenario 6 calls out
// (p.x < b.y). Both operands must resolve to the same family; mixed
// numeric families are not coerced, matching the teacher's
// colexecproj/default_cmp_op.go generated operators, which are
// generated per concrete type pair rather than doing runtime coercion.
type Compare struct {
	Op          CmpOp
	Left, Right FieldRef
}

var _ Expr = (*Compare)(nil)

// Fields implements Expr.
func (c *Compare) Fields() []FieldRef { return []FieldRef{c.Left, c.Right} }

// Eval implements Expr.
func (c *Compare) Eval(probeRow int, probeVecs []coldata.Vec, buildRow int, buildVecs []coldata.Vec) (bool, bool) {
	lv := vecAt(c.Left, probeVecs, buildVecs)
	rv := vecAt(c.Right, probeVecs, buildVecs)
	li := rowFor(c.Left, probeRow, buildRow)
	ri := rowFor(c.Right, probeRow, buildRow)
	if lv.Nulls().NullAt(li) || rv.Nulls().NullAt(ri) {
		return false, true
	}
	cmp := compareVals(lv, li, rv, ri)
	switch c.Op {
	case LT:
		return cmp < 0, false
	case LE:
		return cmp <= 0, false
	case GT:
		return cmp > 0, false
	case GE:
		return cmp >= 0, false
	case EQ:
		return cmp == 0, false
	case NE:
		return cmp != 0, false
	default:
		colexecerror.InternalError(errFieldOutOfRange(c.Left))
		return false, false
	}
}

// compareVals returns -1/0/1 comparing lv[li] to rv[ri], which must
// share a Family; comparing across families is a wiring bug (spec.md §7
// class 2), not a data condition, so it panics rather than coercing.
func compareVals(lv coldata.Vec, li int, rv coldata.Vec, ri int) int {
	if lv.Type().Family != rv.Type().Family {
		colexecerror.InternalError(errMixedFamilyCompare(lv.Type(), rv.Type()))
	}
	switch lv.Type().Family {
	case coldata.Int64Family:
		a, b := lv.Int64()[li], rv.Int64()[ri]
		return cmpInt64(a, b)
	case coldata.Float64Family:
		a, b := lv.Float64()[li], rv.Float64()[ri]
		return cmpFloat64(a, b)
	case coldata.DecimalFamily:
		a, b := lv.Decimal()[li], rv.Decimal()[ri]
		return a.Cmp(&b)
	case coldata.BytesFamily:
		a, b := lv.Bytes()[li], rv.Bytes()[ri]
		return cmpBytes(a, b)
	case coldata.BoolFamily:
		a, b := lv.Bool()[li], rv.Bool()[ri]
		return cmpBool(a, b)
	default:
		colexecerror.InternalError(errFieldOutOfRange(FieldRef{}))
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBytes(a, b []byte) int {
	switch {
	case string(a) < string(b):
		return -1
	case string(a) > string(b):
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

func errMixedFamilyCompare(l, r *coldata.T) error {
	return errors.AssertionFailedf("colexprs: cannot compare %s against %s", l.Name, r.Name)
}
