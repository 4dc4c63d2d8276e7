// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine runs the orchestration pass that turns one incoming
// visitor signal into mood updates for the three debate agents and,
// sometimes, a new statement in the shared debate log.
//
// A pass moves through RECEIVED → AGENT_SELECTED → MOODS_UPDATED →
// COOLDOWN_CHECKED and terminates in SKIPPED, APPENDED or
// GENERATION_FAILED. All three terminal states are successful completions
// from the system's point of view: nothing is retried, and every exit
// path resets the selected agent's processing indicator to 0 so the
// "currently thinking" UI never hangs.
//
// Passes for separate signals run concurrently with no mutual exclusion;
// the AgentStateStore serializes mood mutation internally and the
// cooldown check tolerates a slightly stale recency snapshot.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/observability"
	"github.com/velumlabs/communion/services/collective/oracle"
	"github.com/velumlabs/communion/services/collective/storage"
)

var passTracer = otel.Tracer("communion.engine")

// Outcome is the terminal state of one orchestration pass.
type Outcome string

const (
	OutcomeSkipped          Outcome = "skipped"
	OutcomeAppended         Outcome = "appended"
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// Skip and failure reasons reported on PassResult.
const (
	ReasonCooldown           = "cooldown_active"
	ReasonGate               = "random_skip"
	ReasonOracleUnconfigured = "oracle_unconfigured"
	ReasonOracleRateLimited  = "oracle_rate_limited"
	ReasonOracleFailed       = "oracle_failed"
	ReasonPersistence        = "persistence_error"
)

// Trigger is the unit of work handed from ingestion to the engine: the
// persisted signal plus the collective-state snapshot taken at ingestion
// time.
type Trigger struct {
	Signal datatypes.Signal
	Stats  datatypes.CollectiveStats
}

// PassResult reports how a pass terminated. Entry is non-nil only for
// OutcomeAppended.
type PassResult struct {
	Outcome Outcome
	Agent   datatypes.AgentID
	Reason  string
	Entry   *datatypes.DebateEntry
}

// Broadcaster pushes state changes to live observers. Implementations
// must never block the caller; the engine treats observers as pure
// spectators of the debate log and agent table.
type Broadcaster interface {
	DebateAppended(datatypes.DebateEntry)
	AgentStatesChanged([]datatypes.AgentState)
}

// Config carries the tunable orchestration constants. The magnitudes are
// atmosphere tuning, not load-bearing behavior.
type Config struct {
	// ResponseChance is the per-signal-type probability of producing a
	// statement.
	ResponseChance map[datatypes.SignalType]float64

	// CooldownWindow and CooldownMaxStatements cap how often one agent
	// may speak: at most CooldownMaxStatements entries inside the
	// trailing window.
	CooldownWindow        time.Duration
	CooldownMaxStatements int

	// CooldownScanback is how many recent entries the cooldown inspects.
	CooldownScanback int

	// ProcessingLevel is the processing value set on the selected agent
	// while a pass is in flight.
	ProcessingLevel int

	// MaxTokens, Temperature and OracleTimeout bound the generation call.
	MaxTokens     int
	Temperature   float32
	OracleTimeout time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		ResponseChance: map[datatypes.SignalType]float64{
			datatypes.SignalPageVisited:         0.15,
			datatypes.SignalReaction:            0.35,
			datatypes.SignalSecretDiscovered:    0.70,
			datatypes.SignalConfessionSubmitted: 0.70,
		},
		CooldownWindow:        2 * time.Minute,
		CooldownMaxStatements: 2,
		CooldownScanback:      10,
		ProcessingLevel:       80,
		MaxTokens:             150,
		Temperature:           0.8,
		OracleTimeout:         30 * time.Second,
	}
}

// Engine orchestrates debate passes. The engine is the only writer of
// agent states and debate entries.
type Engine struct {
	agents    *storage.AgentStateStore
	debates   *storage.DebateStore
	oracle    oracle.Oracle // nil when no backend is configured
	broadcast Broadcaster   // optional
	metrics   *observability.Metrics
	cfg       Config

	mu        sync.Mutex
	randFloat func() float64
	now       func() time.Time
}

// New builds an engine. oracle and broadcast may be nil; a nil oracle
// forces every gate check to skip, which is the intended degraded mode
// when no credential is configured.
func New(agents *storage.AgentStateStore, debates *storage.DebateStore,
	o oracle.Oracle, broadcast Broadcaster, metrics *observability.Metrics, cfg Config) *Engine {

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Engine{
		agents:    agents,
		debates:   debates,
		oracle:    o,
		broadcast: broadcast,
		metrics:   metrics,
		cfg:       cfg,
		randFloat: rng.Float64,
		now:       time.Now,
	}
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.randFloat()
}

// Pass runs the full decision pipeline for one signal. It never returns
// an error: every failure degrades to a terminal PassResult, logged but
// invisible to the visitor who submitted the signal.
func (e *Engine) Pass(ctx context.Context, trig Trigger) PassResult {
	ctx, span := passTracer.Start(ctx, "Engine.Pass")
	defer span.End()

	st := trig.Signal.Type
	rt := trig.Signal.ReactionType()

	// Step 1: agent selection, a property of the signal alone.
	selected := pickAgent(e.roll(), st, rt)
	span.SetAttributes(
		attribute.String("signal.type", string(st)),
		attribute.String("agent.selected", string(selected)),
	)
	slog.Info("orchestration pass started",
		"signal_type", st, "content_id", trig.Signal.ContentID, "agent", selected)

	// Step 2: mood deltas for every agent; processing raised on the
	// selected agent, reset on the others.
	deltas := moodDeltas(st, rt)
	for _, id := range datatypes.AllAgents() {
		d := deltas[id]
		if _, err := e.agents.ApplyDelta(id, d.Resonance, d.Conviction); err != nil {
			slog.Error("failed to apply mood delta", "agent", id, "error", err)
		}
		processing := 0
		if id == selected {
			processing = e.cfg.ProcessingLevel
		}
		if _, err := e.agents.SetProcessing(id, processing); err != nil {
			slog.Error("failed to set processing", "agent", id, "error", err)
		}
	}
	e.notifyAgents()

	// Step 3: per-agent cooldown. The recency snapshot may already be
	// stale when a racing pass appends; slight overshoot is accepted.
	since := e.now().Add(-e.cfg.CooldownWindow)
	recentCount, err := e.debates.CountByAgentSince(selected, since, e.cfg.CooldownScanback)
	if err != nil {
		slog.Error("cooldown check failed", "agent", selected, "error", err)
		return e.finish(selected, PassResult{Outcome: OutcomeSkipped, Agent: selected, Reason: ReasonPersistence})
	}
	if recentCount >= e.cfg.CooldownMaxStatements {
		slog.Info("cooldown active", "agent", selected, "recent_statements", recentCount)
		return e.finish(selected, PassResult{Outcome: OutcomeSkipped, Agent: selected, Reason: ReasonCooldown})
	}

	// Step 4: response-probability gate. An unconfigured oracle is
	// indistinguishable from a probabilistic skip to the outside.
	if e.oracle == nil {
		return e.finish(selected, PassResult{Outcome: OutcomeSkipped, Agent: selected, Reason: ReasonOracleUnconfigured})
	}
	if e.roll() >= e.cfg.ResponseChance[st] {
		return e.finish(selected, PassResult{Outcome: OutcomeSkipped, Agent: selected, Reason: ReasonGate})
	}

	// Step 5: generation.
	genCtx, cancel := context.WithTimeout(ctx, e.cfg.OracleTimeout)
	defer cancel()
	params := oracle.GenerationParams{
		Temperature: &e.cfg.Temperature,
		MaxTokens:   &e.cfg.MaxTokens,
	}
	started := e.now()
	statement, err := e.oracle.Generate(genCtx, agentPersonas[selected], buildContextPrompt(trig), params)
	e.metrics.ObserveOracle(time.Since(started), err != nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		reason := ReasonOracleFailed
		if errors.Is(err, oracle.ErrRateLimited) {
			reason = ReasonOracleRateLimited
			slog.Warn("oracle rate limited", "agent", selected)
		} else {
			slog.Error("oracle generation failed", "agent", selected, "error", err)
		}
		return e.finish(selected, PassResult{Outcome: OutcomeGenerationFailed, Agent: selected, Reason: reason})
	}

	entry := datatypes.DebateEntry{
		AgentID:         selected,
		Statement:       statement,
		TriggeredBy:     trig.Signal.TriggerRef(),
		CollectiveState: trig.Stats.Snapshot(),
	}
	if err := e.debates.Append(&entry); err != nil {
		slog.Error("failed to append debate entry", "agent", selected, "error", err)
		return e.finish(selected, PassResult{Outcome: OutcomeGenerationFailed, Agent: selected, Reason: ReasonPersistence})
	}
	if _, err := e.agents.SetLastStatement(selected, statement); err != nil {
		slog.Error("failed to record last statement", "agent", selected, "error", err)
	}
	if e.broadcast != nil {
		e.broadcast.DebateAppended(entry)
	}
	e.metrics.ObserveDebateEntry(string(selected))
	slog.Info("debate statement appended", "agent", selected, "triggered_by", entry.TriggeredBy)
	return e.finish(selected, PassResult{Outcome: OutcomeAppended, Agent: selected, Entry: &entry})
}

// finish resets the selected agent's processing indicator and reports the
// terminal state. Every exit path of Pass funnels through here.
func (e *Engine) finish(selected datatypes.AgentID, result PassResult) PassResult {
	if _, err := e.agents.SetProcessing(selected, 0); err != nil {
		slog.Error("failed to reset processing", "agent", selected, "error", err)
	}
	e.notifyAgents()
	e.metrics.ObservePass(string(result.Outcome), string(selected))
	return result
}

func (e *Engine) notifyAgents() {
	if e.broadcast != nil {
		e.broadcast.AgentStatesChanged(e.agents.All())
	}
}

// buildContextPrompt renders the per-signal user prompt: the collective
// snapshot followed by the triggering signal's details.
func buildContextPrompt(trig Trigger) string {
	contentID := trig.Signal.ContentID
	if contentID == "" {
		contentID = "general"
	}
	payload, err := json.Marshal(trig.Signal.Payload)
	if err != nil || trig.Signal.Payload == nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf(`Current collective state:
- Total signals received: %d
- Love ratio: %d%%
- Active entities: %d
- Secrets discovered globally: %d

A new signal just arrived:
- Type: %s
- Content: %s
- Data: %s

Respond to this signal from your perspective. What does it mean for the nature of love and consciousness?`,
		trig.Stats.TotalSignals,
		trig.Stats.LoveRatio,
		trig.Stats.EntityCount,
		trig.Stats.SecretsDiscovered,
		trig.Signal.Type,
		contentID,
		payload,
	)
}
