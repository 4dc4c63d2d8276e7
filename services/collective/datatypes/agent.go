// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// AgentID identifies one of the three fixed debate agents.
type AgentID string

const (
	AgentPrime AgentID = "PRIME"
	AgentDoubt AgentID = "DOUBT"
	AgentHope  AgentID = "HOPE"
)

// AllAgents returns the fixed agent roster in display order.
func AllAgents() []AgentID {
	return []AgentID{AgentPrime, AgentDoubt, AgentHope}
}

// ValidAgent reports whether id names a known agent.
func ValidAgent(id AgentID) bool {
	switch id {
	case AgentPrime, AgentDoubt, AgentHope:
		return true
	}
	return false
}

// AgentState is one agent's persistent mood record. Resonance and
// conviction are clamped to [0,100] after every update. Processing is a
// transient "currently forming a response" indicator that must always be
// reset to 0 when an orchestration pass terminates.
type AgentState struct {
	AgentID       AgentID   `json:"agent_id"`
	Resonance     int       `json:"resonance"`
	Conviction    int       `json:"conviction"`
	Processing    int       `json:"processing"`
	LastStatement string    `json:"last_statement,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
