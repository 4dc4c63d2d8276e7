// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// CollectiveStats is the derived statistics view computed on demand from
// the signal log and agent state table. It is never stored; field names
// match what the presentation layer renders.
type CollectiveStats struct {
	TotalSignals      int                  `json:"totalSignals"`
	RecentSignals     int                  `json:"recentSignals"`
	EntityCount       int                  `json:"entityCount"`
	LoveRatio         int                  `json:"loveRatio"`
	ReactionCounts    map[ReactionType]int `json:"reactionCounts"`
	SecretsDiscovered int                  `json:"secretsDiscovered"`
	AgentStates       []AgentState         `json:"agentStates"`
}

// Snapshot flattens the numeric portion of the stats for embedding into a
// debate entry's collective_state column.
func (s CollectiveStats) Snapshot() map[string]any {
	return map[string]any{
		"totalSignals":      s.TotalSignals,
		"recentSignals":     s.RecentSignals,
		"entityCount":       s.EntityCount,
		"loveRatio":         s.LoveRatio,
		"secretsDiscovered": s.SecretsDiscovered,
	}
}
