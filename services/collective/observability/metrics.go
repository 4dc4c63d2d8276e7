// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the collective
// service: signal ingestion volume, orchestration pass outcomes, oracle
// latency and the live-stream client population. Metrics are exposed on
// /metrics; all operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "communion"

// Metrics holds every Prometheus collector the service registers.
// Initialize once at startup via NewMetrics. A nil *Metrics is a valid
// no-op receiver so tests can run instrumented code unregistered.
type Metrics struct {
	// SignalsTotal counts ingested signals. Labels: type.
	SignalsTotal *prometheus.CounterVec

	// PassesTotal counts orchestration pass terminal states.
	// Labels: outcome (skipped, appended, generation_failed), agent.
	PassesTotal *prometheus.CounterVec

	// TriggersDropped counts orchestration triggers rejected by a
	// saturated dispatch queue.
	TriggersDropped prometheus.Counter

	// OracleLatencySeconds measures oracle call duration. Labels: status.
	OracleLatencySeconds *prometheus.HistogramVec

	// DebateEntriesTotal counts appended debate statements. Labels: agent.
	DebateEntriesTotal *prometheus.CounterVec

	// StreamClients gauges currently connected websocket observers.
	StreamClients prometheus.Gauge
}

// NewMetrics registers all collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "signals_total",
			Help:      "Visitor signals ingested, by signal type.",
		}, []string{"type"}),
		PassesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orchestration_passes_total",
			Help:      "Orchestration pass terminal states, by outcome and agent.",
		}, []string{"outcome", "agent"}),
		TriggersDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orchestration_triggers_dropped_total",
			Help:      "Orchestration triggers rejected by a saturated dispatch queue.",
		}),
		OracleLatencySeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "oracle_latency_seconds",
			Help:      "Generative oracle call duration, by result status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		DebateEntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "debate_entries_total",
			Help:      "Debate statements appended, by agent.",
		}, []string{"agent"}),
		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stream_clients",
			Help:      "Currently connected live-stream websocket clients.",
		}),
	}
}

// ObserveSignal records one ingested signal.
func (m *Metrics) ObserveSignal(signalType string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(signalType).Inc()
}

// ObservePass records one orchestration pass terminal state.
func (m *Metrics) ObservePass(outcome, agent string) {
	if m == nil {
		return
	}
	m.PassesTotal.WithLabelValues(outcome, agent).Inc()
}

// ObserveTriggerDropped records a rejected orchestration trigger.
func (m *Metrics) ObserveTriggerDropped() {
	if m == nil {
		return
	}
	m.TriggersDropped.Inc()
}

// ObserveOracle records one oracle call.
func (m *Metrics) ObserveOracle(d time.Duration, failed bool) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.OracleLatencySeconds.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveDebateEntry records one appended statement.
func (m *Metrics) ObserveDebateEntry(agent string) {
	if m == nil {
		return
	}
	m.DebateEntriesTotal.WithLabelValues(agent).Inc()
}

// StreamClientConnected adjusts the live client gauge.
func (m *Metrics) StreamClientConnected(delta int) {
	if m == nil {
		return
	}
	m.StreamClients.Add(float64(delta))
}
