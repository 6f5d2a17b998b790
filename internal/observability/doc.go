// Package observability provides structured logging and Prometheus metrics
// for the ClearPath assistant.
//
// This package implements:
//   - zap logger construction from configuration (json or console)
//   - Prometheus collectors for answers, guardrails, retrieval and completion
//
// Every answer pipeline stage reports through these collectors.
package observability
