package answer

import (
	"context"

	"github.com/upb/clearpath-assistant/models"
)

// Retriever returns the passages most similar to a query
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error)
}

// Shaper narrows retrieved passages for a specific query
type Shaper interface {
	Shape(query string, chunks []models.Passage) []models.Passage
}

// RoutingRecorder accepts routing log entries without blocking
type RoutingRecorder interface {
	Record(entry *models.RoutingLogEntry) error
}

// Config holds pipeline tuning knobs
type Config struct {
	// TopK is the number of passages retrieved before shaping
	TopK int

	// MaxQueryLength bounds accepted queries in runes; 0 disables the check
	MaxQueryLength int
}

// DefaultConfig returns the pipeline defaults
func DefaultConfig() Config {
	return Config{
		TopK:           5,
		MaxQueryLength: 2000,
	}
}

// pipelineState carries intermediate values through one Answer call
type pipelineState struct {
	requestID      string
	sessionID      string
	query          string
	lowered        string
	classification models.Classification
	model          string
	chunks         []models.Passage
	prompt         string
}
