// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package jointype enumerates the seven join variants spec.md §1
// requires (inner, left outer, right outer, full outer, left semi,
// right semi, null-aware anti) and the per-variant predicates the probe
// operator branches on. It mirrors the role of descpb.JoinType in
// CockroachDB (see colexec/crossjoiner.go and
// colexecjoin/hashjoiner_tmpl.go's JoinType.Is*/ShouldInclude* calls),
// implemented as a sum type per spec.md §9's design note preferring "a
// sum type over the seven variants" to keep per-row branching
// monomorphic and exhaustive.
package jointype

// T identifies a join variant.
type T int

const (
	Inner T = iota
	LeftOuter
	RightOuter
	FullOuter
	LeftSemi
	RightSemi
	// NullAwareAnti is SQL NOT IN semantics: a null on the build side
	// collapses the whole join to empty (spec.md §4.1, glossary).
	NullAwareAnti
)

func (t T) String() string {
	switch t {
	case Inner:
		return "inner"
	case LeftOuter:
		return "left outer"
	case RightOuter:
		return "right outer"
	case FullOuter:
		return "full outer"
	case LeftSemi:
		return "left semi"
	case RightSemi:
		return "right semi"
	case NullAwareAnti:
		return "null-aware anti"
	default:
		return "unknown"
	}
}

// IsLeftOuterOrFullOuter reports whether unmatched probe rows must be
// emitted with null-padded build columns (spec.md §4.4, §4.5).
func (t T) IsLeftOuterOrFullOuter() bool {
	return t == LeftOuter || t == FullOuter
}

// IsRightOuterOrFullOuter reports whether unmatched build rows must be
// emitted at end-of-input (spec.md §4.7).
func (t T) IsRightOuterOrFullOuter() bool {
	return t == RightOuter || t == FullOuter
}

// IsRightSemiOrRightAnti reports whether this variant only emits rows
// from the build side, and only after end-of-input (spec.md §4.7,
// "right-semi: enumerate rows with the probed-flag set").
//
// This engine implements right semi but not right anti (the latter is
// not among spec.md §1's seven required variants); the predicate keeps
// its CockroachDB name because right anti is the only sibling variant
// sharing this code path in the teacher, and the name documents that
// kinship for a reader coming from the original.
func (t T) IsRightSemiOrRightAnti() bool {
	return t == RightSemi
}

// TracksBuildMatches reports whether every emitted match must flip the
// hash table's probed-flag for its build row, because some later stage
// needs to know which build rows were (were not) matched (spec.md §4.5
// table, §4.7, glossary "Probed flag").
func (t T) TracksBuildMatches() bool {
	return t == RightOuter || t == FullOuter || t == RightSemi
}

// ShouldIncludeLeftColsInOutput reports whether probe-side columns
// appear in the output schema.
func (t T) ShouldIncludeLeftColsInOutput() bool {
	return t != RightSemi
}

// ShouldIncludeRightColsInOutput reports whether build-side columns
// appear in the output schema.
func (t T) ShouldIncludeRightColsInOutput() bool {
	return t != LeftSemi && t != NullAwareAnti
}

// IsEmptyOutputWhenRightIsEmpty reports whether an empty build side
// short-circuits the whole join to empty output, vs. every probe row
// passing through with null build columns (spec.md §4.1).
func (t T) IsEmptyOutputWhenRightIsEmpty() bool {
	return t == Inner || t == LeftSemi || t == RightOuter || t == RightSemi
}

// IsCardinalityReducing reports whether a probe row can contribute at
// most one output row, letting the result iterator size its output
// batch to the whole input batch in one shot (spec.md §4.4 "Batching
// policy").
func (t T) IsCardinalityReducing() bool {
	return t == LeftSemi || t == NullAwareAnti
}
