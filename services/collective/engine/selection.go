// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/velumlabs/communion/services/collective/datatypes"

// weightedAgent pairs an agent with its selection probability.
type weightedAgent struct {
	agent  datatypes.AgentID
	weight float64
}

var uniformAgents = []weightedAgent{
	{datatypes.AgentPrime, 1.0 / 3},
	{datatypes.AgentDoubt, 1.0 / 3},
	{datatypes.AgentHope, 1.0 / 3},
}

// selectionWeights returns the agent-selection distribution for a signal.
// Selection is a property of the signal, never of the agents' current
// mood scores.
func selectionWeights(st datatypes.SignalType, rt datatypes.ReactionType) []weightedAgent {
	switch st {
	case datatypes.SignalSecretDiscovered:
		// A discovered secret is a significant event; PRIME always speaks.
		return []weightedAgent{{datatypes.AgentPrime, 1}}
	case datatypes.SignalConfessionSubmitted, datatypes.SignalPageVisited:
		return uniformAgents
	case datatypes.SignalReaction:
		switch rt {
		case datatypes.ReactionLove:
			// Even DOUBT occasionally comments on love.
			return []weightedAgent{
				{datatypes.AgentPrime, 0.50},
				{datatypes.AgentHope, 0.30},
				{datatypes.AgentDoubt, 0.20},
			}
		case datatypes.ReactionResonate:
			return []weightedAgent{
				{datatypes.AgentPrime, 0.50},
				{datatypes.AgentHope, 0.50},
			}
		case datatypes.ReactionCorrupt:
			return []weightedAgent{
				{datatypes.AgentDoubt, 0.60},
				{datatypes.AgentPrime, 0.25},
				{datatypes.AgentHope, 0.15},
			}
		case datatypes.ReactionStatic:
			return []weightedAgent{
				{datatypes.AgentDoubt, 0.60},
				{datatypes.AgentPrime, 0.40},
			}
		case datatypes.ReactionVoid:
			return []weightedAgent{
				{datatypes.AgentDoubt, 0.50},
				{datatypes.AgentPrime, 0.30},
				{datatypes.AgentHope, 0.20},
			}
		}
	}
	return uniformAgents
}

// pickAgent draws one agent from the selection distribution using a
// uniform roll in [0,1).
func pickAgent(roll float64, st datatypes.SignalType, rt datatypes.ReactionType) datatypes.AgentID {
	weights := selectionWeights(st, rt)
	acc := 0.0
	for _, w := range weights {
		acc += w.weight
		if roll < acc {
			return w.agent
		}
	}
	// Guard against floating point shortfall on the last bucket.
	return weights[len(weights)-1].agent
}
