// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexprs"
	"github.com/riftdb/riftdb/pkg/sql/colexecerror"
	"github.com/riftdb/riftdb/pkg/sql/jointype"

	"github.com/cockroachdb/errors"
)

// JoinConfig is the immutable configuration a HashProber is constructed
// with, matching spec.md §3's "Join Configuration" entity.
type JoinConfig struct {
	Variant jointype.T

	// ProbeKeyCols are the probe-batch column indices of the join keys,
	// in key order.
	ProbeKeyCols []int
	// BuildKeyCols are the build-side column indices of the join keys,
	// in the same order as ProbeKeyCols. Both must have equal length to
	// KeyTypes() of the hash table this config is paired with.
	BuildKeyCols []int

	// OutputCols is the output schema: for each output column, which
	// side and column index of the input it is sourced from.
	OutputCols []colexprs.FieldRef
	// OutputTypes gives the type of each entry in OutputCols, in order.
	OutputTypes []*coldata.T

	// Filter is the optional residual filter; nil means no filter is
	// configured (every probed candidate passes straight to the
	// per-variant reinterpretation in spec.md §4.5).
	Filter *colexprs.ExprSet
}

// ProbeSettings stands in for the query-wide configuration layer
// (spec.md §1.3): no CLI or file config exists for an in-process
// operator, only these two tunables.
type ProbeSettings struct {
	// PreferredOutputBatchSize bounds how many rows a single GetOutput
	// call assembles, except for the cardinality-reducing and
	// empty-build cases of spec.md §4.4's batching policy, which size
	// the output to the whole input instead.
	PreferredOutputBatchSize int
	// RowContainerScanChunkSize bounds how many build rows the
	// null-aware anti-join engine (spec.md §4.6) and the unmatched-build
	// emitter (spec.md §4.7) process per internal chunk.
	RowContainerScanChunkSize int
}

// DefaultProbeSettings matches the original source's kBatchSize default
// of 1024 rows for both the preferred output size and row-container scan
// chunking.
func DefaultProbeSettings() ProbeSettings {
	return ProbeSettings{
		PreferredOutputBatchSize:  coldata.BatchSize(),
		RowContainerScanChunkSize: coldata.BatchSize(),
	}
}

// Validate checks the configuration error class of spec.md §7 class 1:
// a filter referencing an unknown field, or a key column list length
// mismatch. It panics via colexecerror.ExpectedError, matching the
// teacher's convention that configuration problems surface through the
// same panic/recover path as any other operator error, just tagged
// distinctly from an internal bug.
func (c *JoinConfig) Validate(numProbeCols, numBuildCols int) {
	if len(c.ProbeKeyCols) == 0 {
		colexecerror.ExpectedError(errors.Newf("colexecjoin: join configured with no key columns"))
	}
	if len(c.ProbeKeyCols) != len(c.BuildKeyCols) {
		colexecerror.ExpectedError(errors.Newf(
			"colexecjoin: %d probe key columns but %d build key columns", len(c.ProbeKeyCols), len(c.BuildKeyCols)))
	}
	for _, col := range c.ProbeKeyCols {
		if col < 0 || col >= numProbeCols {
			colexecerror.ExpectedError(errors.Newf("colexecjoin: probe key column %d out of range", col))
		}
	}
	for _, col := range c.BuildKeyCols {
		if col < 0 || col >= numBuildCols {
			colexecerror.ExpectedError(errors.Newf("colexecjoin: build key column %d out of range", col))
		}
	}
	if len(c.OutputCols) != len(c.OutputTypes) {
		colexecerror.InternalError(errors.AssertionFailedf("colexecjoin: OutputCols/OutputTypes length mismatch"))
	}
	if c.Filter != nil {
		for _, f := range c.Filter.Fields() {
			switch f.Side {
			case colexprs.Probe:
				if f.Col < 0 || f.Col >= numProbeCols {
					colexecerror.ExpectedError(errors.Newf("colexecjoin: filter references unknown probe field %d", f.Col))
				}
			case colexprs.Build:
				if f.Col < 0 || f.Col >= numBuildCols {
					colexecerror.ExpectedError(errors.Newf("colexecjoin: filter references unknown build field %d", f.Col))
				}
			}
		}
	}
}
