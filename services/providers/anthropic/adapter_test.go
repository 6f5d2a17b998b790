package anthropic

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

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := providers.DefaultProviderConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL
	return NewAdapter(cfg)
}

func TestAdapter_Complete(t *testing.T) {
	var body map[string]any
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Pro costs "}, {"type": "text", "text": "$49."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	})

	out, err := a.Complete(context.Background(), "claude-3-5-haiku-latest", "How much is Pro?")

	require.NoError(t, err)
	assert.Equal(t, "Pro costs $49.", out)
	assert.Equal(t, "anthropic", a.Name())
	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
	assert.NotEmpty(t, body["system"])
}

func TestAdapter_Complete_RateLimited(t *testing.T) {
	calls := 0
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`))
	})

	_, err := a.Complete(context.Background(), "claude-3-5-haiku-latest", "p")

	require.Error(t, err)
	assert.True(t, providers.IsRateLimited(err))
	assert.Equal(t, 1, calls)
}

func TestAdapter_Complete_Empty(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "msg_2", "type": "message", "role": "assistant", "model": "m", "content": [], "stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	})

	_, err := a.Complete(context.Background(), "m", "p")

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "EMPTY_RESPONSE", provErr.Code)
}
