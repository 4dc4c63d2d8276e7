// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// DebateEntry is one immutable agent statement in the shared debate log.
// Append-only, ordered by CreatedAt. TriggeredBy records the signal that
// provoked the statement as "<signal_type>:<content_id|general>".
type DebateEntry struct {
	ID              string         `json:"id"`
	AgentID         AgentID        `json:"agent_id"`
	Statement       string         `json:"statement"`
	TriggeredBy     string         `json:"triggered_by"`
	CollectiveState map[string]any `json:"collective_state,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
