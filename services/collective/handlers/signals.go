// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin HTTP handlers for the collective
// service.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/dispatch"
	"github.com/velumlabs/communion/services/collective/engine"
	"github.com/velumlabs/communion/services/collective/observability"
	"github.com/velumlabs/communion/services/collective/stats"
	"github.com/velumlabs/communion/services/collective/storage"
)

var signalsTracer = otel.Tracer("communion.handlers")

// SubmitSignal ingests one visitor signal: validate, persist, then hand
// an orchestration trigger to the dispatcher. The response acknowledges
// persistence only; orchestration is fire-and-forget and its failure
// never reaches the caller.
func SubmitSignal(signals *storage.SignalStore, aggregator *stats.Aggregator,
	dispatcher *dispatch.Dispatcher, eng *engine.Engine, metrics *observability.Metrics) gin.HandlerFunc {

	return func(c *gin.Context) {
		_, span := signalsTracer.Start(c.Request.Context(), "SubmitSignal")
		defer span.End()

		var req datatypes.SubmitSignalRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("failed to parse signal submission", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		signalType, err := req.Validate()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sig := datatypes.Signal{
			EntityFingerprint: req.EntityFingerprint,
			Type:              signalType,
			ContentID:         req.ContentID,
			Payload:           req.Payload,
		}
		if err := signals.Append(&sig); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("failed to persist signal", "signal_type", signalType, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record signal"})
			return
		}
		metrics.ObserveSignal(string(signalType))

		// Snapshot the collective state now so the pass sees the world as
		// it was at ingestion time. Best effort: a failed snapshot still
		// triggers orchestration with zero stats.
		snapshot, err := aggregator.Compute()
		if err != nil {
			slog.Warn("stats snapshot failed, triggering with empty snapshot", "error", err)
		}
		trigger := engine.Trigger{Signal: sig, Stats: snapshot}
		if ok := dispatcher.Enqueue(func(ctx context.Context) { eng.Pass(ctx, trigger) }); !ok {
			// The signal is already durable; losing the trigger only
			// means no statement this pass.
			metrics.ObserveTriggerDropped()
			slog.Warn("orchestration trigger dropped", "signal_type", signalType)
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
