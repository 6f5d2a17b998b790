package rag

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when two vectors of different length are compared
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingFailure is returned when the query embedding could not be produced
	ErrEmbeddingFailure = errors.New("embedding failure")
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed calls f(ctx, text)
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
