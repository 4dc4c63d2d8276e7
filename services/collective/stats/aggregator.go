// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stats derives the collective statistics view from the signal
// log and agent state table. Pure reads; recomputed on every request.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/storage"
)

const (
	recentWindow = time.Hour
	entityWindow = 24 * time.Hour
)

// Aggregator computes CollectiveStats on demand. It has no state of its
// own and never writes.
type Aggregator struct {
	signals *storage.SignalStore
	agents  *storage.AgentStateStore
	now     func() time.Time
}

// NewAggregator wires the aggregator to its read sources.
func NewAggregator(signals *storage.SignalStore, agents *storage.AgentStateStore) *Aggregator {
	return &Aggregator{signals: signals, agents: agents, now: time.Now}
}

// Compute assembles the derived statistics at call time. With no
// reactions recorded the love ratio defaults to a neutral 50.
func (a *Aggregator) Compute() (datatypes.CollectiveStats, error) {
	now := a.now()

	total, err := a.signals.CountAll()
	if err != nil {
		return datatypes.CollectiveStats{}, fmt.Errorf("count signals: %w", err)
	}
	recent, err := a.signals.CountSince(now.Add(-recentWindow))
	if err != nil {
		return datatypes.CollectiveStats{}, fmt.Errorf("count recent signals: %w", err)
	}
	entities, err := a.signals.DistinctEntitiesSince(now.Add(-entityWindow))
	if err != nil {
		return datatypes.CollectiveStats{}, fmt.Errorf("count entities: %w", err)
	}
	reactions, err := a.signals.ReactionCounts()
	if err != nil {
		return datatypes.CollectiveStats{}, fmt.Errorf("tally reactions: %w", err)
	}
	secrets, err := a.signals.CountByType(datatypes.SignalSecretDiscovered)
	if err != nil {
		return datatypes.CollectiveStats{}, fmt.Errorf("count secrets: %w", err)
	}

	return datatypes.CollectiveStats{
		TotalSignals:      total,
		RecentSignals:     recent,
		EntityCount:       entities,
		LoveRatio:         loveRatio(reactions),
		ReactionCounts:    reactions,
		SecretsDiscovered: secrets,
		AgentStates:       a.agents.All(),
	}, nil
}

// loveRatio is the percentage of reactions that are LOVE or RESONATE,
// rounded; 50 when no reactions exist.
func loveRatio(counts map[datatypes.ReactionType]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 50
	}
	positive := counts[datatypes.ReactionLove] + counts[datatypes.ReactionResonate]
	return int(math.Round(float64(positive) / float64(total) * 100))
}
