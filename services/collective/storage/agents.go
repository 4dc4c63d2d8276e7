// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/velumlabs/communion/services/collective/datatypes"
)

const agentPrefix = "agent:"

// ErrUnknownAgent is returned for agent IDs outside the fixed roster.
var ErrUnknownAgent = errors.New("unknown agent")

const (
	initialResonance  = 50
	initialConviction = 50
)

// AgentStateStore owns the three agent mood rows. All mutation goes
// through this single in-process owner under one mutex, which removes the
// read-modify-write lost-update race between concurrent orchestration
// passes; BadgerDB is pure write-through durable backing.
//
// The three rows exist for the lifetime of the system. New seeds them on
// first start and reloads them afterwards; they are never created or
// destroyed again, only updated.
type AgentStateStore struct {
	db     *badger.DB
	mu     sync.Mutex
	states map[datatypes.AgentID]*datatypes.AgentState
}

// NewAgentStateStore loads the agent rows from the database, seeding any
// missing row at neutral mood (resonance 50, conviction 50, processing 0).
func NewAgentStateStore(db *badger.DB) (*AgentStateStore, error) {
	s := &AgentStateStore{
		db:     db,
		states: make(map[datatypes.AgentID]*datatypes.AgentState, 3),
	}
	for _, id := range datatypes.AllAgents() {
		state, err := s.load(id)
		if err != nil {
			return nil, err
		}
		if state == nil {
			state = &datatypes.AgentState{
				AgentID:    id,
				Resonance:  initialResonance,
				Conviction: initialConviction,
				UpdatedAt:  time.Now().UTC(),
			}
			if err := s.persist(state); err != nil {
				return nil, err
			}
		}
		s.states[id] = state
	}
	return s, nil
}

func (s *AgentStateStore) load(id datatypes.AgentID) (*datatypes.AgentState, error) {
	var state *datatypes.AgentState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(agentPrefix + string(id)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			state = &datatypes.AgentState{}
			return json.Unmarshal(val, state)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load agent state %s: %w", id, err)
	}
	return state, nil
}

func (s *AgentStateStore) persist(state *datatypes.AgentState) error {
	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(agentPrefix+string(state.AgentID)), val)
	})
	if err != nil {
		return fmt.Errorf("persist agent state %s: %w", state.AgentID, err)
	}
	return nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ApplyDelta adjusts one agent's resonance and conviction, clamping both
// to [0,100], and returns the updated state.
func (s *AgentStateStore) ApplyDelta(id datatypes.AgentID, dResonance, dConviction int) (datatypes.AgentState, error) {
	return s.mutate(id, func(state *datatypes.AgentState) {
		state.Resonance = clamp(state.Resonance + dResonance)
		state.Conviction = clamp(state.Conviction + dConviction)
	})
}

// SetProcessing updates the transient "currently forming a response"
// indicator, clamped to [0,100].
func (s *AgentStateStore) SetProcessing(id datatypes.AgentID, value int) (datatypes.AgentState, error) {
	return s.mutate(id, func(state *datatypes.AgentState) {
		state.Processing = clamp(value)
	})
}

// SetLastStatement records the agent's most recent debate statement.
func (s *AgentStateStore) SetLastStatement(id datatypes.AgentID, text string) (datatypes.AgentState, error) {
	return s.mutate(id, func(state *datatypes.AgentState) {
		state.LastStatement = text
	})
}

func (s *AgentStateStore) mutate(id datatypes.AgentID, fn func(*datatypes.AgentState)) (datatypes.AgentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return datatypes.AgentState{}, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	fn(state)
	state.UpdatedAt = time.Now().UTC()
	if err := s.persist(state); err != nil {
		return datatypes.AgentState{}, err
	}
	return *state, nil
}

// Get returns a copy of one agent's state.
func (s *AgentStateStore) Get(id datatypes.AgentID) (datatypes.AgentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return datatypes.AgentState{}, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	return *state, nil
}

// All returns copies of the three agent states in roster order.
func (s *AgentStateStore) All() []datatypes.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]datatypes.AgentState, 0, len(s.states))
	for _, id := range datatypes.AllAgents() {
		if state, ok := s.states[id]; ok {
			out = append(out, *state)
		}
	}
	return out
}
