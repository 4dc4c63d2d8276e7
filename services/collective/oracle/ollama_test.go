package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaFixture(t *testing.T, handler http.HandlerFunc) *OllamaOracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("OLLAMA_BASE_URL", srv.URL)
	t.Setenv("OLLAMA_MODEL", "test-model")
	o, err := NewOllamaOracle()
	require.NoError(t, err)
	return o
}

func TestOllamaGenerate_Success(t *testing.T) {
	var captured ollamaGenerateRequest
	o := newOllamaFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    "test-model",
			Response: "  The collective stirs.  ",
			Done:     true,
		})
	})

	temp := float32(0.8)
	maxTokens := 150
	text, err := o.Generate(context.Background(), "you are the persona", "the prompt",
		GenerationParams{Temperature: &temp, MaxTokens: &maxTokens})
	require.NoError(t, err)
	assert.Equal(t, "The collective stirs.", text, "response is trimmed")

	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, "you are the persona", captured.System)
	assert.Equal(t, "the prompt", captured.Prompt)
	assert.False(t, captured.Stream)
	assert.InDelta(t, 0.8, captured.Options["temperature"], 0.001)
	assert.EqualValues(t, 150, captured.Options["num_predict"])
}

func TestOllamaGenerate_RateLimited(t *testing.T) {
	o := newOllamaFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := o.Generate(context.Background(), "p", "q", GenerationParams{})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestOllamaGenerate_ServerError(t *testing.T) {
	o := newOllamaFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})
	_, err := o.Generate(context.Background(), "p", "q", GenerationParams{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "500")
}

func TestOllamaGenerate_EmptyResponse(t *testing.T) {
	o := newOllamaFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "   ", Done: true})
	})
	_, err := o.Generate(context.Background(), "p", "q", GenerationParams{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewOllamaOracle_RequiresBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	_, err := NewOllamaOracle()
	assert.Error(t, err)
}
