// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
	"github.com/riftdb/riftdb/pkg/util/log"
)

// antiFilterState tracks the one probe row currently being resolved by
// the null-aware anti-join engine (spec.md §4.6) across however many
// ListJoinResults chunks its hit chain spans. skip becomes true as soon
// as any chain entry's filter evaluation returns true or null,
// definitively disqualifying the row without needing the build-side
// rescan in finalizeAntiRow.
type antiFilterState struct {
	active bool
	row    int
	skip   bool
}

// applyAntiWithFilter implements spec.md §4.6's algorithm: for each
// candidate pair produced by the result iterator, fold its filter
// result into the active probe row's running verdict, finalizing the
// previous row whenever the row changes (or the cursor drains).
func (p *HashProber) applyAntiWithFilter(rowMapping []int, buildRows []rowcontainer.RowID) coldata.Batch {
	probeVecs := p.probeBatch.ColVecs()
	buildVecs := p.buildVecs()

	for i, row := range rowMapping {
		build := buildRows[i]
		if p.anti.active && p.anti.row != row {
			p.finalizeAntiRow()
		}
		if !p.anti.active {
			p.anti = antiFilterState{active: true, row: row}
		}
		if build != rowcontainer.NoRow && !p.anti.skip {
			passed, isNull := p.cfg.Filter.Eval(row, probeVecs, int(build), buildVecs)
			if passed || isNull {
				// A true match, or a null the filter can't resolve,
				// both disqualify p outright (spec.md §4.6 step 1's
				// "some true, or null-propagated null" skip_rows
				// condition).
				p.anti.skip = true
			}
		}
	}
	if p.cursor.Done {
		p.finalizeAntiRow()
	}
	return p.assembleFromPending(nil, nil)
}

// finalizeAntiRow runs once a probe row's hit-chain walk is complete.
// A row already marked skip needs no further work. Otherwise it must
// still be tested against build rows the hash-chain walk never visited:
// rows with a null key (always, since Finalize excludes them from every
// chain) and, if the probe row's own key was null, every build row
// (spec.md §4.6 step 3's test_null_key_rows / test_all_rows sets).
func (p *HashProber) finalizeAntiRow() {
	if !p.anti.active {
		return
	}
	row := p.anti.row
	p.anti.active = false
	if p.anti.skip {
		return
	}
	ownKeyNull := p.probeKeyIsNull(row)
	if p.antiTestBuildRows(row, !ownKeyNull) {
		return
	}
	p.pendingMisses = append(p.pendingMisses, row)
}

func (p *HashProber) probeKeyIsNull(row int) bool {
	for _, col := range p.cfg.ProbeKeyCols {
		if p.probeBatch.ColVec(col).Nulls().NullAt(row) {
			return true
		}
	}
	return false
}

// antiTestBuildRows scans the build side in RowContainerScanChunkSize
// chunks — every row if onlyNullKeyed is false, else only rows whose
// key is null — broadcasting probeRow across each chunk with
// coldata.WrapInConstant the way spec.md §4.6 describes ("the probe
// side is a constant vector of the current probe row"), and reports
// whether any row in the scan disqualifies probeRow (a true or
// null-propagated filter result).
func (p *HashProber) antiTestBuildRows(probeRow int, onlyNullKeyed bool) bool {
	if probeLogEvery.ShouldLog() {
		log.Warningf(p.ctx, "null-aware anti join rescanning build side for probe row %d (onlyNullKeyed=%t)", probeRow, onlyNullKeyed)
	}
	rows := p.table.Rows()
	buildTypes := rows.ColumnTypes()
	probeVecs := p.probeBatch.ColVecs()
	chunkSize := p.settings.RowContainerScanChunkSize
	iter := &rowcontainer.Iterator{}

	for {
		ids := rows.ListRows(iter, chunkSize)
		if len(ids) == 0 {
			return false
		}
		if onlyNullKeyed {
			w := 0
			for _, r := range ids {
				if rows.HasNullKey(r) {
					ids[w] = r
					w++
				}
			}
			ids = ids[:w]
			if len(ids) == 0 {
				continue
			}
		}

		buildVecs := make([]coldata.Vec, len(buildTypes))
		for c, t := range buildTypes {
			v := coldata.NewVec(t, len(ids))
			rows.ExtractColumn(ids, c, v)
			buildVecs[c] = v
		}
		probeConst := make([]coldata.Vec, len(probeVecs))
		for c, v := range probeVecs {
			probeConst[c] = coldata.WrapInConstant(v, probeRow, len(ids))
		}
		for i := range ids {
			passed, isNull := p.cfg.Filter.Eval(i, probeConst, i, buildVecs)
			if passed || isNull {
				return true
			}
		}
	}
}
