// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package colexprs implements the residual-filter expressions the probe
// operator evaluates once a candidate build row has been found, per
// spec.md §4.5 ("Filter evaluation") and §8 scenario 6 (p.x < b.y). It
// is grounded on the teacher's projection operators
// (pkg/sql/colexec/colexecproj), which evaluate a typed expression over
// two input vectors row by row into a bool output vector, and on
// original_source/velox/exec/HashProbe.cpp's filter_ (ExprSet) field,
// which is run over a row that mixes probe and build columns.
package colexprs

import (
	"github.com/cockroachdb/errors"

	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexecerror"
)

// Side identifies which input relation a FieldRef points into.
type Side int

const (
	Probe Side = iota
	Build
)

// FieldRef names one column a filter expression reads, either from the
// probe-side batch or from the build-side row container, matching
// spec.md §4.5's "field references into either input".
type FieldRef struct {
	Side Side
	Col  int
}

// Expr is a scalar boolean expression evaluated over one row at a time,
// with its inputs supplied as whole vectors plus a row index so the
// same Expr can be reused across every candidate pair in a probe batch.
// It mirrors the teacher's colexecproj operators' per-row Eval loops,
// compressed into a single method since residual filters in this engine
// are evaluated row-at-a-time against already-materialized probe/build
// column pairs rather than compiled into a projection pipeline.
type Expr interface {
	// Eval reports the three-valued result of evaluating this
	// expression at row, given the probe and build vectors for every
	// field this expression (or its children) references. A null
	// operand yields (false, true) — "unknown", which participates in
	// the caller's SQL boolean logic, not a bug (spec.md §4.5, §7 class
	// 3: a null comparison is not an error).
	Eval(probeRow int, probeVecs []coldata.Vec, buildRow int, buildVecs []coldata.Vec) (result bool, isNull bool)

	// Fields lists every FieldRef this expression reads; JoinConfig's
	// Validate uses it to range-check filter column references. No
	// lazy-vector load gating is done with it.
	Fields() []FieldRef
}

// ExprSet evaluates a conjunction of Exprs, short-circuiting on the
// first definite false, matching Velox's ExprSet::eval over a single
// top-level AND and the teacher's composition of several single-column
// projections. A null (unknown) component makes the whole conjunction
// null unless another component is definitely false, following normal
// SQL AND truth tables.
type ExprSet struct {
	exprs []Expr
}

// NewExprSet returns an ExprSet evaluating every expr as a conjunction.
func NewExprSet(exprs ...Expr) *ExprSet {
	return &ExprSet{exprs: exprs}
}

// Eval returns the conjunction's three-valued result.
func (s *ExprSet) Eval(probeRow int, probeVecs []coldata.Vec, buildRow int, buildVecs []coldata.Vec) (result bool, isNull bool) {
	sawNull := false
	for _, e := range s.exprs {
		r, null := e.Eval(probeRow, probeVecs, buildRow, buildVecs)
		if null {
			sawNull = true
			continue
		}
		if !r {
			return false, false
		}
	}
	if sawNull {
		return false, true
	}
	return true, false
}

// Fields returns the union of every component expression's field
// references, in order, without deduplication (callers that need a set
// dedupe themselves; the typical caller count is small).
func (s *ExprSet) Fields() []FieldRef {
	var out []FieldRef
	for _, e := range s.exprs {
		out = append(out, e.Fields()...)
	}
	return out
}

// vecAt resolves a FieldRef against the two vector slices Eval is given,
// panicking with an internal error if the reference is out of range —
// a malformed filter is a bug in the operator wiring it, not a runtime
// data condition (spec.md §7 class 2).
func vecAt(ref FieldRef, probeVecs, buildVecs []coldata.Vec) coldata.Vec {
	switch ref.Side {
	case Probe:
		if ref.Col < 0 || ref.Col >= len(probeVecs) {
			colexecerror.InternalError(errFieldOutOfRange(ref))
		}
		return probeVecs[ref.Col]
	case Build:
		if ref.Col < 0 || ref.Col >= len(buildVecs) {
			colexecerror.InternalError(errFieldOutOfRange(ref))
		}
		return buildVecs[ref.Col]
	default:
		colexecerror.InternalError(errFieldOutOfRange(ref))
		return nil
	}
}

func rowFor(ref FieldRef, probeRow, buildRow int) int {
	if ref.Side == Probe {
		return probeRow
	}
	return buildRow
}

func errFieldOutOfRange(ref FieldRef) error {
	return errors.AssertionFailedf("colexprs: field reference %+v out of range", ref)
}
