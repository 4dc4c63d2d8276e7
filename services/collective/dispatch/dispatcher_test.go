// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnqueue_TasksExecute(t *testing.T) {
	d := New(context.Background(), 2, 8)
	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		assert.True(t, d.Enqueue(func(ctx context.Context) { ran.Add(1) }))
	}
	d.Stop()
	assert.EqualValues(t, 5, ran.Load(), "Stop must drain accepted tasks")
}

func TestEnqueue_SaturatedQueueRejectsWithoutBlocking(t *testing.T) {
	d := New(context.Background(), 1, 1)
	defer d.Stop()

	// Occupy the single worker so queued tasks stay queued.
	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, d.Enqueue(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	// One slot in the queue, then saturation.
	assert.True(t, d.Enqueue(func(ctx context.Context) {}))
	assert.False(t, d.Enqueue(func(ctx context.Context) {}), "full queue must reject immediately")

	close(release)
}

func TestEnqueue_AfterStopReturnsFalse(t *testing.T) {
	d := New(context.Background(), 1, 4)
	d.Stop()
	assert.False(t, d.Enqueue(func(ctx context.Context) {}))
	// Stop is idempotent.
	d.Stop()
}

func TestEnqueue_TasksReceiveBaseContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "pool")
	d := New(base, 1, 1)

	var mu sync.Mutex
	var got any
	d.Enqueue(func(ctx context.Context) {
		mu.Lock()
		got = ctx.Value(key{})
		mu.Unlock()
	})
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "pool", got)
}
