// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package oracle abstracts the generative text service that produces the
// agents' debate statements. Backends are unreliable, rate-limited
// external collaborators; callers must treat every error as terminal for
// the current orchestration pass.
package oracle

import (
	"context"
	"errors"
)

// ErrRateLimited marks an explicit rate-limit rejection from the backend,
// distinguished so observers can avoid hammering it.
var ErrRateLimited = errors.New("oracle rate limited")

// ErrEmptyResponse is returned when the backend answered without usable
// text.
var ErrEmptyResponse = errors.New("oracle returned no text")

// GenerationParams bounds a generation request.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// Oracle is the standard interface for any generative backend.
type Oracle interface {
	// Generate produces one statement given fixed persona instructions
	// and a per-signal context prompt.
	Generate(ctx context.Context, persona, prompt string, params GenerationParams) (string, error)
}
