// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dispatch runs fire-and-forget background tasks on a bounded
// worker pool. Ingestion hands each orchestration trigger to the pool and
// returns immediately; a saturated queue rejects the task instead of
// blocking the request path, and Stop drains whatever was accepted.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Dispatcher is a fixed-size worker pool over a bounded queue.
type Dispatcher struct {
	tasks   chan Task
	baseCtx context.Context
	wg      sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// New creates a dispatcher with the given worker count and queue depth
// and starts its workers. Tasks receive ctx, which outlives the
// submitting request; cancel it only when discarding in-flight work is
// acceptable.
func New(ctx context.Context, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		tasks:   make(chan Task, queueSize),
		baseCtx: ctx,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.tasks {
		task(d.baseCtx)
	}
}

// Enqueue submits a task without blocking. It returns false when the
// queue is saturated or the dispatcher has stopped; the caller decides
// whether that matters (for orchestration triggers it does not — the
// signal is already persisted).
func (d *Dispatcher) Enqueue(task Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	select {
	case d.tasks <- task:
		return true
	default:
		slog.Warn("dispatch queue saturated, task rejected")
		return false
	}
}

// Stop rejects new tasks, drains the queue and waits for in-flight work
// to complete.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.tasks)
	d.mu.Unlock()
	d.wg.Wait()
}
