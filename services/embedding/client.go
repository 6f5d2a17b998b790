// Package embedding provides query and passage embedders backed by an
// OpenAI-compatible embeddings endpoint, plus an LRU cache for query vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel matches the 384-dimension MiniLM vectors the corpus was built with
	DefaultModel = "all-MiniLM-L6-v2"

	// DefaultBatchSize bounds inputs per embeddings request during ingestion
	DefaultBatchSize = 64
)

// Config contains configuration for the embeddings client
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// Client implements rag.Embedder over an OpenAI-compatible API
type Client struct {
	client    *openai.Client
	model     string
	batchSize int
}

// NewClient creates an embeddings client
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("embedding base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:    openai.NewClientWithConfig(config),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}, nil
}

// Model returns the embedding model id
func (c *Client) Model() string {
	return c.model
}

// Embed generates an embedding for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in request-sized batches, preserving input order
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, 0, len(texts))

	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data))
		}

		vectors := make([][]float64, len(batch))
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", data.Index)
			}
			vectors[data.Index] = toFloat64(data.Embedding)
		}
		results = append(results, vectors...)
	}

	return results, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
