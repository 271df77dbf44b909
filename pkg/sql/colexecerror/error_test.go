// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package colexecerror

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func runCaught(f func()) (err error) {
	defer CatchVectorizedRuntimeError(&err)
	f()
	return err
}

func TestInternalErrorIsCaught(t *testing.T) {
	err := runCaught(func() {
		InternalError(errors.New("broken invariant"))
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken invariant")
	require.Contains(t, err.Error(), "internal error")
}

func TestExpectedErrorIsCaught(t *testing.T) {
	err := runCaught(func() {
		ExpectedError(errors.New("bad config"))
	})
	require.Error(t, err)
	require.Equal(t, "bad config", err.Error())
}

func TestNilErrorIsNoop(t *testing.T) {
	err := runCaught(func() {
		InternalError(nil)
		ExpectedError(nil)
	})
	require.NoError(t, err)
}

func TestUnmarkedPanicPropagates(t *testing.T) {
	require.Panics(t, func() {
		_ = runCaught(func() {
			panic("not an operator error")
		})
	})
}
