package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/clearpath-assistant/services/providers"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := providers.DefaultProviderConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL
	return NewAdapter("", cfg)
}

func TestNewAdapter_Defaults(t *testing.T) {
	a := NewAdapter("", providers.ProviderConfig{APIKey: "k"})

	assert.Equal(t, "groq", a.Name())
	assert.Equal(t, DefaultBaseURL, a.config.BaseURL)
	assert.Equal(t, providers.DefaultSystemPrompt, a.config.SystemPrompt)
}

func TestAdapter_Complete(t *testing.T) {
	var got chatRequest
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama-3.1-8b-instant",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Pro costs $49."}, "finish_reason": "stop"}]
		}`))
	})

	out, err := a.Complete(context.Background(), "llama-3.1-8b-instant", "How much is Pro?")

	require.NoError(t, err)
	assert.Equal(t, "Pro costs $49.", out)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, providers.DefaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "How much is Pro?", got.Messages[1].Content)
}

func TestAdapter_Complete_Errors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "tokens"}}`))
		})

		_, err := a.Complete(context.Background(), "m", "p")

		require.Error(t, err)
		assert.True(t, providers.IsRateLimited(err))
	})

	t.Run("server error", func(t *testing.T) {
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": {"message": "over capacity", "type": "server_error"}}`))
		})

		_, err := a.Complete(context.Background(), "m", "p")

		require.Error(t, err)
		assert.False(t, providers.IsRateLimited(err))
		var provErr *providers.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "UPSTREAM_ERROR", provErr.Code)
		assert.Equal(t, "groq", provErr.Provider)
	})

	t.Run("no choices", func(t *testing.T) {
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
		})

		_, err := a.Complete(context.Background(), "m", "p")

		var provErr *providers.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "EMPTY_RESPONSE", provErr.Code)
	})
}
