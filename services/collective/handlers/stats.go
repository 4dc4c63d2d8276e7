// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velumlabs/communion/services/collective/stats"
)

// GetStats returns the collective statistics view, recomputed per
// request.
func GetStats(aggregator *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collective, err := aggregator.Compute()
		if err != nil {
			slog.Error("failed to compute collective stats", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
			return
		}
		c.JSON(http.StatusOK, collective)
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
