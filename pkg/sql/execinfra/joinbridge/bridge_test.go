// Copyright 2024 The RiftDB Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the file LICENSE.

package joinbridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/pkg/sql/colexec/colexechash"
)

func TestTableOrWaitBeforePublish(t *testing.T) {
	b := NewBridge()
	_, ok, ch := b.TableOrWait()
	require.False(t, ok)
	require.NotNil(t, ch)

	select {
	case <-ch:
		t.Fatal("channel closed before Publish")
	default:
	}

	table := &colexechash.HashTable{}
	b.Publish(BuildResult{Table: table})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("channel did not close after Publish")
	}

	result, ok, _ := b.TableOrWait()
	require.True(t, ok)
	require.Same(t, table, result.Table)
}

func TestTableOrWaitAfterPublish(t *testing.T) {
	b := NewBridge()
	table := &colexechash.HashTable{}
	b.Publish(BuildResult{Table: table})

	result, ok, ch := b.TableOrWait()
	require.True(t, ok)
	require.Nil(t, ch)
	require.Same(t, table, result.Table)
}

func TestPublishTwicePanics(t *testing.T) {
	b := NewBridge()
	b.Publish(BuildResult{})
	require.Panics(t, func() { b.Publish(BuildResult{}) })
}

func TestRegistryReturnsSameBridgeForKey(t *testing.T) {
	r := NewRegistry()
	key := Key{SplitGroupID: 1, PlanNodeID: 2}
	require.Same(t, r.Bridge(key), r.Bridge(key))
	require.NotSame(t, r.Bridge(key), r.Bridge(Key{SplitGroupID: 2}))
}
