// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package coldata

// Family identifies the physical representation backing a Vec. It plays
// the role that coltypes.T / types.Family plays in CockroachDB's real
// vectorized engine: it lets generic code (the hash table, the output
// assembler) branch on representation without reflecting on Go types.
type Family int

const (
	// BoolFamily backs a []bool-shaped Vec.
	BoolFamily Family = iota
	// Int64Family backs an []int64-shaped Vec.
	Int64Family
	// Float64Family backs an []float64-shaped Vec.
	Float64Family
	// BytesFamily backs a Vec of variable-length byte slices.
	BytesFamily
	// DecimalFamily backs a Vec of apd.Decimal values, used for exact
	// numeric probe/build keys and filter comparisons.
	DecimalFamily
)

// T is a minimal column type descriptor: just enough for the probe
// operator and its collaborators to allocate vectors of the right shape.
// It stands in for CockroachDB's much larger *types.T.
type T struct {
	Family Family
	// Name is used only for diagnostics (error messages, test output).
	Name string
}

var (
	// Bool is the canonical boolean type, used for residual-filter results.
	Bool = &T{Family: BoolFamily, Name: "bool"}
	// Int is the canonical integer key/column type.
	Int = &T{Family: Int64Family, Name: "int"}
	// Float is the canonical floating point column type.
	Float = &T{Family: Float64Family, Name: "float"}
	// Bytes is the canonical string/bytes column type.
	Bytes = &T{Family: BytesFamily, Name: "bytes"}
	// Decimal is the canonical exact-numeric column type.
	Decimal = &T{Family: DecimalFamily, Name: "decimal"}
)
