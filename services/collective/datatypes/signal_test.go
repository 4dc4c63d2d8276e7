// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignalType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  SignalType
		ok    bool
	}{
		{"lowercase reaction", "reaction", SignalReaction, true},
		{"uppercase accepted", "REACTION", SignalReaction, true},
		{"mixed case secret", "Secret_Discovered", SignalSecretDiscovered, true},
		{"surrounding whitespace", "  page_visited  ", SignalPageVisited, true},
		{"confession", "confession_submitted", SignalConfessionSubmitted, true},
		{"unknown type", "telepathy", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSignalType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitSignalRequest_Validate(t *testing.T) {
	t.Run("valid request normalizes type", func(t *testing.T) {
		req := SubmitSignalRequest{
			EntityFingerprint: "entity-7f3a",
			SignalType:        "REACTION",
			Payload:           map[string]any{"reaction_type": "LOVE"},
		}
		st, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, SignalReaction, st)
	})

	t.Run("missing fingerprint rejected", func(t *testing.T) {
		req := SubmitSignalRequest{SignalType: "reaction"}
		_, err := req.Validate()
		require.Error(t, err)
	})

	t.Run("missing signal type rejected", func(t *testing.T) {
		req := SubmitSignalRequest{EntityFingerprint: "entity-7f3a"}
		_, err := req.Validate()
		require.Error(t, err)
	})

	t.Run("unknown signal type rejected", func(t *testing.T) {
		req := SubmitSignalRequest{EntityFingerprint: "entity-7f3a", SignalType: "whisper"}
		_, err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "whisper")
	})
}

func TestSignal_ReactionType(t *testing.T) {
	t.Run("extracts payload label", func(t *testing.T) {
		sig := Signal{Type: SignalReaction, Payload: map[string]any{"reaction_type": "VOID"}}
		assert.Equal(t, ReactionVoid, sig.ReactionType())
	})

	t.Run("empty for non-reaction", func(t *testing.T) {
		sig := Signal{Type: SignalSecretDiscovered, Payload: map[string]any{"reaction_type": "LOVE"}}
		assert.Equal(t, ReactionType(""), sig.ReactionType())
	})

	t.Run("empty for missing payload", func(t *testing.T) {
		sig := Signal{Type: SignalReaction}
		assert.Equal(t, ReactionType(""), sig.ReactionType())
	})

	t.Run("empty for non-string label", func(t *testing.T) {
		sig := Signal{Type: SignalReaction, Payload: map[string]any{"reaction_type": 42}}
		assert.Equal(t, ReactionType(""), sig.ReactionType())
	})
}

func TestSignal_TriggerRef(t *testing.T) {
	sig := Signal{Type: SignalConfessionSubmitted, ContentID: "confession-9"}
	assert.Equal(t, "confession_submitted:confession-9", sig.TriggerRef())

	sig.ContentID = ""
	assert.Equal(t, "confession_submitted:general", sig.TriggerRef())
}
