// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/velumlabs/communion/services/collective/datatypes"

// MoodDelta is one bounded adjustment to an agent's mood scores.
type MoodDelta struct {
	Resonance  int
	Conviction int
}

// moodDeltas returns the per-agent mood adjustment for a signal. Every
// agent receives a delta on every pass; signals with no table entry leave
// moods unchanged. The magnitudes are tuning, not contract.
func moodDeltas(st datatypes.SignalType, rt datatypes.ReactionType) map[datatypes.AgentID]MoodDelta {
	switch st {
	case datatypes.SignalSecretDiscovered:
		return map[datatypes.AgentID]MoodDelta{
			datatypes.AgentPrime: {Resonance: 3, Conviction: 2},
			datatypes.AgentHope:  {Resonance: 4, Conviction: 3},
			datatypes.AgentDoubt: {Resonance: -1, Conviction: -2},
		}
	case datatypes.SignalReaction:
		switch rt {
		case datatypes.ReactionLove:
			return map[datatypes.AgentID]MoodDelta{
				datatypes.AgentPrime: {Resonance: 2, Conviction: 1},
				datatypes.AgentHope:  {Resonance: 3, Conviction: 2},
				datatypes.AgentDoubt: {Resonance: 0, Conviction: -1},
			}
		case datatypes.ReactionCorrupt, datatypes.ReactionStatic:
			return map[datatypes.AgentID]MoodDelta{
				datatypes.AgentDoubt: {Resonance: 2, Conviction: 2},
				datatypes.AgentPrime: {Resonance: -1, Conviction: 0},
				datatypes.AgentHope:  {Resonance: -2, Conviction: -1},
			}
		case datatypes.ReactionVoid:
			return map[datatypes.AgentID]MoodDelta{
				datatypes.AgentDoubt: {Resonance: 3, Conviction: 1},
				datatypes.AgentPrime: {Resonance: 1, Conviction: 0},
				datatypes.AgentHope:  {Resonance: -1, Conviction: -2},
			}
		}
	}
	return nil
}
