// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"github.com/riftdb/riftdb/pkg/col/coldata"
	"github.com/riftdb/riftdb/pkg/sql/colexec/rowcontainer"
	"github.com/riftdb/riftdb/pkg/sql/jointype"
)

// pumpUnmatchedBuild implements the Unmatched-Build Emitter (spec.md
// §4.7): once this shard has won the end-of-input barrier, it iterates
// the hash table's row container in RowContainerScanChunkSize chunks —
// probed rows for right-semi, not-probed rows for right/full-outer —
// until the iterator yields nothing, at which point the caller
// transitions to finished.
func (p *HashProber) pumpUnmatchedBuild() coldata.Batch {
	var ids []rowcontainer.RowID
	if p.cfg.Variant == jointype.RightSemi {
		ids = p.table.ListProbedRows(&p.buildIter, p.settings.RowContainerScanChunkSize)
	} else {
		ids = p.table.ListNotProbedRows(&p.buildIter, p.settings.RowContainerScanChunkSize)
	}
	if len(ids) == 0 {
		return nil
	}
	return p.out.buildUnmatchedBuild(ids)
}
