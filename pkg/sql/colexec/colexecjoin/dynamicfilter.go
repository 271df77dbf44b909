// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecjoin

import (
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexechash"
	"github.com/riftdb/riftdb/pkg/sql/colexec/colexprs"
	"github.com/riftdb/riftdb/pkg/sql/jointype"
)

// deriveDynamicFilters implements spec.md §4.8. It runs once, right
// after the build side is obtained: for inner/left-semi joins whose
// table uses value-id hashing, it collects a pushdown Filter per key,
// and separately decides whether every one of the elision conditions
// holds — a single key, unique build keys, no build columns projected,
// no residual filter, and at least one filter accepted — in which case
// the join is a candidate for elision once the framework actually
// consumes the pushdown (ClearDynamicFilters).
func (p *HashProber) deriveDynamicFilters() {
	if p.cfg.Variant != jointype.Inner && p.cfg.Variant != jointype.LeftSemi {
		return
	}
	for _, h := range p.table.Hashers() {
		if f, ok := h.GetFilter(false); ok {
			p.dynamicFilters = append(p.dynamicFilters, f)
		}
	}
	if len(p.cfg.ProbeKeyCols) != 1 || p.table.HasDuplicateKeys() || p.cfg.Filter != nil || len(p.dynamicFilters) == 0 {
		return
	}
	for _, ref := range p.cfg.OutputCols {
		if ref.Side == colexprs.Build {
			return
		}
	}
	p.elidable = true
}

// ClearDynamicFilters implements the operator contract's framework
// callback, invoked once the driver framework has consumed whatever
// pushdown predicates this operator offered. It hands back the filters
// derived since the last call (there is at most one batch of them, all
// produced in deriveDynamicFilters) and, if every elision condition
// held, commits the join to its elided short-circuit: every subsequent
// input batch passes straight through (spec.md §4.8).
func (p *HashProber) ClearDynamicFilters() []*colexechash.Filter {
	filters := p.dynamicFilters
	p.dynamicFilters = nil
	if p.elidable {
		p.elided = true
	}
	return filters
}

// ReplacedWithDynamicFilterRows reports the runtime statistic spec.md
// §6 names, the count of probe rows that passed through an elided join
// unchanged rather than being looked up.
func (p *HashProber) ReplacedWithDynamicFilterRows() int64 {
	return p.replacedWithDynamicFilterRows
}
