package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestClient(t *testing.T, batchSize int, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{APIKey: "k", BaseURL: server.URL, BatchSize: batchSize})
	require.NoError(t, err)
	return c
}

// echoHandler returns one single-dimension vector per input, in reverse index order
func echoHandler(t *testing.T, requests *[]embeddingRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req)

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i]))},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "http://localhost:8081/v1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
}

func TestClient_Embed(t *testing.T) {
	var requests []embeddingRequest
	c := newTestClient(t, 0, echoHandler(t, &requests))

	v, err := c.Embed(context.Background(), "pricing")

	require.NoError(t, err)
	assert.Equal(t, []float64{7}, v)
	require.Len(t, requests, 1)
	assert.Equal(t, DefaultModel, requests[0].Model)
}

func TestClient_EmbedBatch_PreservesOrder(t *testing.T) {
	var requests []embeddingRequest
	c := newTestClient(t, 2, echoHandler(t, &requests))

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, vectors)
	assert.Len(t, requests, 2)
}

func TestClient_Embed_Error(t *testing.T) {
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "loading", "type": "server_error"}}`))
	})

	_, err := c.Embed(context.Background(), "q")
	assert.Error(t, err)
}
