// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/storage"
)

func newTestAggregator(t *testing.T) (*Aggregator, *storage.SignalStore) {
	t.Helper()
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	signals := storage.NewSignalStore(db)
	agents, err := storage.NewAgentStateStore(db)
	require.NoError(t, err)
	return NewAggregator(signals, agents), signals
}

func addReaction(t *testing.T, signals *storage.SignalStore, fingerprint, label string) {
	t.Helper()
	require.NoError(t, signals.Append(&datatypes.Signal{
		EntityFingerprint: fingerprint,
		Type:              datatypes.SignalReaction,
		Payload:           map[string]any{"reaction_type": label},
	}))
}

func TestCompute_EmptyLog(t *testing.T) {
	agg, _ := newTestAggregator(t)

	stats, err := agg.Compute()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSignals)
	assert.Equal(t, 0, stats.RecentSignals)
	assert.Equal(t, 0, stats.EntityCount)
	assert.Equal(t, 50, stats.LoveRatio, "neutral default with no reactions")
	assert.Equal(t, 0, stats.SecretsDiscovered)
	assert.Len(t, stats.AgentStates, 3)
}

func TestCompute_LoveRatio(t *testing.T) {
	t.Run("all love", func(t *testing.T) {
		agg, signals := newTestAggregator(t)
		for i := 0; i < 10; i++ {
			addReaction(t, signals, "entity-1", "LOVE")
		}
		stats, err := agg.Compute()
		require.NoError(t, err)
		assert.Equal(t, 10, stats.ReactionCounts[datatypes.ReactionLove])
		assert.Equal(t, 100, stats.LoveRatio)
	})

	t.Run("resonate counts as love", func(t *testing.T) {
		agg, signals := newTestAggregator(t)
		addReaction(t, signals, "entity-1", "LOVE")
		addReaction(t, signals, "entity-1", "RESONATE")
		addReaction(t, signals, "entity-1", "CORRUPT")
		addReaction(t, signals, "entity-1", "VOID")
		stats, err := agg.Compute()
		require.NoError(t, err)
		assert.Equal(t, 50, stats.LoveRatio)
	})

	t.Run("rounds to nearest", func(t *testing.T) {
		agg, signals := newTestAggregator(t)
		addReaction(t, signals, "entity-1", "LOVE")
		addReaction(t, signals, "entity-1", "STATIC")
		addReaction(t, signals, "entity-1", "STATIC")
		stats, err := agg.Compute()
		require.NoError(t, err)
		assert.Equal(t, 33, stats.LoveRatio)
	})
}

func TestCompute_TotalsCountEverySignalType(t *testing.T) {
	agg, signals := newTestAggregator(t)

	addReaction(t, signals, "entity-1", "LOVE")
	require.NoError(t, signals.Append(&datatypes.Signal{
		EntityFingerprint: "entity-2", Type: datatypes.SignalSecretDiscovered, ContentID: "vault"}))
	require.NoError(t, signals.Append(&datatypes.Signal{
		EntityFingerprint: "entity-3", Type: datatypes.SignalPageVisited}))
	require.NoError(t, signals.Append(&datatypes.Signal{
		EntityFingerprint: "entity-2", Type: datatypes.SignalConfessionSubmitted}))

	stats, err := agg.Compute()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalSignals)
	assert.Equal(t, 3, stats.EntityCount)
	assert.Equal(t, 1, stats.SecretsDiscovered)
}

func TestCompute_RecentWindow(t *testing.T) {
	agg, signals := newTestAggregator(t)
	now := time.Now().UTC()
	agg.now = func() time.Time { return now }

	stale := &datatypes.Signal{
		EntityFingerprint: "entity-old",
		Type:              datatypes.SignalPageVisited,
		CreatedAt:         now.Add(-3 * time.Hour),
	}
	require.NoError(t, signals.Append(stale))
	fresh := &datatypes.Signal{
		EntityFingerprint: "entity-new",
		Type:              datatypes.SignalPageVisited,
		CreatedAt:         now.Add(-10 * time.Minute),
	}
	require.NoError(t, signals.Append(fresh))

	stats, err := agg.Compute()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSignals)
	assert.Equal(t, 1, stats.RecentSignals, "only the last hour counts as recent")
	assert.Equal(t, 2, stats.EntityCount, "both fall inside the 24h entity window")
}

func TestCompute_Idempotent(t *testing.T) {
	agg, signals := newTestAggregator(t)
	now := time.Now().UTC()
	agg.now = func() time.Time { return now }

	addReaction(t, signals, "entity-1", "LOVE")
	addReaction(t, signals, "entity-2", "VOID")

	first, err := agg.Compute()
	require.NoError(t, err)
	second, err := agg.Compute()
	require.NoError(t, err)
	assert.Equal(t, first, second, "no writes between computations")
}
