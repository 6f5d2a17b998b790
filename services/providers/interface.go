package providers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultSystemPrompt is sent ahead of every completion prompt
const DefaultSystemPrompt = "You are a helpful Clearpath support assistant."

// Completer produces a completion for a single prompt
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface
type CompleterFunc func(ctx context.Context, model, prompt string) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// Provider is a named Completer backed by a hosted model API
type Provider interface {
	Completer

	// Name returns the provider name (e.g., "groq", "anthropic")
	Name() string
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// Temperature controls randomness
	Temperature float64

	// MaxTokens limits the response length
	MaxTokens int

	// SystemPrompt overrides DefaultSystemPrompt
	SystemPrompt string
}

// DefaultProviderConfig returns the configuration used against Groq
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:      30 * time.Second,
		Temperature:  0.2,
		MaxTokens:    1024,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// FromStatus builds a ProviderError for a non-2xx upstream status.
// Only 429 is marked retryable.
func FromStatus(provider string, statusCode int, cause error) *ProviderError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewProviderError(provider, "RATE_LIMITED", "provider rate limit exceeded", statusCode, true, cause)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewProviderError(provider, "UNAUTHORIZED", "provider rejected credentials", statusCode, false, cause)
	case statusCode >= 500:
		return NewProviderError(provider, "UPSTREAM_ERROR", "provider unavailable", statusCode, false, cause)
	default:
		return NewProviderError(provider, "REQUEST_FAILED", "provider request failed", statusCode, false, cause)
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

// IsRateLimited reports whether err carries an upstream 429
func IsRateLimited(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
