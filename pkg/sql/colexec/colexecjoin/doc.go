// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package colexecjoin implements the probe side of a vectorized,
// pipelined hash join: HashProber consumes batches from the streaming
// relation, looks them up in a hash table built by a separate (out of
// scope) build operator, evaluates an optional residual filter, and
// emits result batches across all seven join variants in
// pkg/sql/jointype. It is grounded on
// pkg/sql/colexec/colexecjoin/hashjoiner_tmpl.go and
// colexec/crossjoiner.go in the teacher, msirek-cockroach's
// lookupjoiner.go (the single richest Go precedent for a combined
// hash-join operator), and original_source/velox/exec/HashProbe.cpp,
// the literal source this package's semantics are drawn from.
package colexecjoin
