// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velumlabs/communion/services/collective/dispatch"
	"github.com/velumlabs/communion/services/collective/engine"
	"github.com/velumlabs/communion/services/collective/handlers"
	"github.com/velumlabs/communion/services/collective/observability"
	"github.com/velumlabs/communion/services/collective/stats"
	"github.com/velumlabs/communion/services/collective/storage"
	"github.com/velumlabs/communion/services/collective/stream"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Signals    *storage.SignalStore
	Debates    *storage.DebateStore
	Aggregator *stats.Aggregator
	Dispatcher *dispatch.Dispatcher
	Engine     *engine.Engine
	Hub        *stream.Hub
	Metrics    *observability.Metrics
}

// SetupRoutes wires the service's endpoints onto the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/signals", handlers.SubmitSignal(deps.Signals, deps.Aggregator,
			deps.Dispatcher, deps.Engine, deps.Metrics))
		v1.GET("/stats", handlers.GetStats(deps.Aggregator))
		v1.GET("/debate", handlers.GetDebateLog(deps.Debates))
		v1.GET("/debate/ws", handlers.HandleDebateStream(deps.Hub))
	}
}
