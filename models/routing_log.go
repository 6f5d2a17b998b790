package models

import (
	"time"

	"github.com/google/uuid"
)

// RoutingLogEntry records how a single answered query was routed
type RoutingLogEntry struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	RequestID      string         `json:"request_id,omitempty" db:"request_id"`
	SessionID      string         `json:"session_id,omitempty" db:"session_id"`
	Query          string         `json:"query" db:"query"`
	Classification Classification `json:"classification" db:"classification"`
	ModelUsed      string         `json:"model_used" db:"model_used"`
	LatencyMs      int64          `json:"latency_ms" db:"latency_ms"`
	Flagged        bool           `json:"flagged" db:"flagged"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the RoutingLogEntry model
func (RoutingLogEntry) TableName() string {
	return "routing_logs"
}

// NewRoutingLogEntry creates an entry for the given query
func NewRoutingLogEntry(query string, classification Classification, modelUsed string, latencyMs int64) *RoutingLogEntry {
	return &RoutingLogEntry{
		ID:             uuid.New(),
		Query:          query,
		Classification: classification,
		ModelUsed:      modelUsed,
		LatencyMs:      latencyMs,
		CreatedAt:      time.Now().UTC(),
	}
}

// WithRequest sets the request and session identifiers
func (e *RoutingLogEntry) WithRequest(requestID, sessionID string) *RoutingLogEntry {
	e.RequestID = requestID
	e.SessionID = sessionID
	return e
}

// WithFlagged records whether the answer was flagged
func (e *RoutingLogEntry) WithFlagged(flagged bool) *RoutingLogEntry {
	e.Flagged = flagged
	return e
}
