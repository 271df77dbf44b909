// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

// Package colexecerror centralizes how vectorized operators report
// failures. Operators in this engine do not return an error from every
// method on their hot path (IsBlocked/AddInput/GetOutput/...); instead
// they panic with one of the two marker types below, and the driver
// loop recovers at a single point via CatchVectorizedRuntimeError. This
// mirrors CockroachDB's pkg/sql/colexecerror package, used throughout
// pkg/sql/colexec (e.g. colexecjoin/joiner_utils.go,
// colexec/crossjoiner.go) for exactly this reason: threading an error
// return through every templated, per-row-batch call is both a
// performance and a readability tax the real engine declines to pay.
package colexecerror

import "github.com/cockroachdb/errors"

// internalError marks a panic that indicates a bug in this engine: a
// broken invariant, not a problem with the query or its inputs. Spec.md
// §7 class 2.
type internalError struct {
	cause error
}

func (e *internalError) Error() string { return e.cause.Error() }
func (e *internalError) Unwrap() error { return e.cause }

// expectedError marks a panic that represents a legitimate, well-formed
// failure the caller should surface to its own caller unchanged (e.g. a
// configuration error discovered lazily). Spec.md §7 class 1.
type expectedError struct {
	cause error
}

func (e *expectedError) Error() string { return e.cause.Error() }
func (e *expectedError) Unwrap() error { return e.cause }

// InternalError panics with err wrapped as a bug report. Use this for
// spec.md §7 class 2 invariant violations: a nil continuation future
// while blocked, an output buffer overrun, an empty build side paired
// with a join variant that should never see one.
func InternalError(err error) {
	if err == nil {
		return
	}
	panic(&internalError{cause: err})
}

// ExpectedError panics with err marked as a normal, expected failure.
// Use this for spec.md §7 class 1 configuration errors: an unknown
// filter field, a key column index out of range.
func ExpectedError(err error) {
	if err == nil {
		return
	}
	panic(&expectedError{cause: err})
}

// CatchVectorizedRuntimeError recovers a panic produced by InternalError
// or ExpectedError (or re-panics anything else, since an un-marked panic
// is itself a bug) and reports it through *errOut. Callers install this
// with a deferred call at the single point in the driver loop that
// invokes operator methods.
func CatchVectorizedRuntimeError(errOut *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *internalError:
		*errOut = errors.Wrapf(e.cause, "internal error")
	case *expectedError:
		*errOut = e.cause
	default:
		panic(r)
	}
}
