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
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/storage"
)

const (
	defaultDebateLimit = 20
	maxDebateLimit     = 100
)

// GetDebateLog returns recent debate entries oldest-to-newest, up to
// ?limit= (default 20, capped at 100).
func GetDebateLog(debates *storage.DebateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultDebateLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}
		if limit > maxDebateLimit {
			limit = maxDebateLimit
		}

		recent, err := debates.Recent(limit)
		if err != nil {
			slog.Error("failed to read debate log", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read debate log"})
			return
		}
		// Recent is newest-first; the log is served chronologically.
		chronological := make([]datatypes.DebateEntry, 0, len(recent))
		for i := len(recent) - 1; i >= 0; i-- {
			chronological = append(chronological, recent[i])
		}
		c.JSON(http.StatusOK, gin.H{"debates": chronological})
	}
}
