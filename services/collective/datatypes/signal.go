// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the wire and storage types shared by the
// collective service: visitor signals, agent mood state, debate entries
// and the derived collective statistics view.
package datatypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// SignalType classifies a visitor interaction. Wire values are lowercase
// snake case; ParseSignalType accepts any casing.
type SignalType string

const (
	SignalReaction            SignalType = "reaction"
	SignalSecretDiscovered    SignalType = "secret_discovered"
	SignalPageVisited         SignalType = "page_visited"
	SignalConfessionSubmitted SignalType = "confession_submitted"
)

// ParseSignalType normalizes a client-supplied signal type string.
func ParseSignalType(s string) (SignalType, bool) {
	switch SignalType(strings.ToLower(strings.TrimSpace(s))) {
	case SignalReaction:
		return SignalReaction, true
	case SignalSecretDiscovered:
		return SignalSecretDiscovered, true
	case SignalPageVisited:
		return SignalPageVisited, true
	case SignalConfessionSubmitted:
		return SignalConfessionSubmitted, true
	}
	return "", false
}

// ReactionType is the vocabulary of reaction signals. Unrecognized labels
// are ignored by aggregation, not rejected.
type ReactionType string

const (
	ReactionLove     ReactionType = "LOVE"
	ReactionResonate ReactionType = "RESONATE"
	ReactionCorrupt  ReactionType = "CORRUPT"
	ReactionStatic   ReactionType = "STATIC"
	ReactionVoid     ReactionType = "VOID"
)

// KnownReactions lists every recognized reaction label in display order.
func KnownReactions() []ReactionType {
	return []ReactionType{ReactionLove, ReactionResonate, ReactionCorrupt, ReactionStatic, ReactionVoid}
}

// Signal is an immutable visitor interaction. Append-only: never mutated
// or deleted once persisted.
type Signal struct {
	ID                string         `json:"id"`
	EntityFingerprint string         `json:"entity_fingerprint"`
	Type              SignalType     `json:"signal_type"`
	ContentID         string         `json:"content_id,omitempty"`
	Payload           map[string]any `json:"payload,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ReactionType extracts the reaction label from the payload, or "" when
// the signal is not a reaction or carries no label.
func (s Signal) ReactionType() ReactionType {
	if s.Type != SignalReaction || s.Payload == nil {
		return ""
	}
	if v, ok := s.Payload["reaction_type"].(string); ok {
		return ReactionType(v)
	}
	return ""
}

// TriggerRef renders the "<signal_type>:<content_id|general>" tag recorded
// on debate entries spawned by this signal.
func (s Signal) TriggerRef() string {
	contentID := s.ContentID
	if contentID == "" {
		contentID = "general"
	}
	return fmt.Sprintf("%s:%s", s.Type, contentID)
}

var validate = validator.New()

// SubmitSignalRequest is the ingestion request body.
type SubmitSignalRequest struct {
	EntityFingerprint string         `json:"entity_fingerprint" validate:"required"`
	SignalType        string         `json:"signal_type" validate:"required"`
	ContentID         string         `json:"content_id,omitempty"`
	Payload           map[string]any `json:"payload,omitempty"`
}

// Validate checks the request and returns the normalized signal type.
func (r *SubmitSignalRequest) Validate() (SignalType, error) {
	if err := validate.Struct(r); err != nil {
		return "", fmt.Errorf("invalid signal submission: %w", err)
	}
	st, ok := ParseSignalType(r.SignalType)
	if !ok {
		return "", fmt.Errorf("unknown signal_type %q", r.SignalType)
	}
	return st, nil
}
