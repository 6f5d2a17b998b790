package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/clearpath-assistant/internal/rag"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "session not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "session not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeExternal,
				Message: "embedding provider failure",
				Err:     errors.New("timeout"),
			},
			wantMsg: "external: embedding provider failure (timeout)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "missing query",
			},
			wantMsg: "validation: missing query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Wrap(t *testing.T) {
	cause := fmt.Errorf("retrieve: %w", rag.ErrEmbeddingFailure)
	err := ErrEmbeddingFailure.Wrap(cause)

	assert.ErrorIs(t, err, ErrEmbeddingFailure)
	assert.ErrorIs(t, err, rag.ErrEmbeddingFailure)
	assert.NotErrorIs(t, err, ErrCompletionFailure)
	assert.Nil(t, ErrEmbeddingFailure.Err, "sentinel must not be mutated")
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "query too long", nil).
		WithDetail("max_length", 2000)

	assert.Equal(t, 2000, GetErrorDetails(err)["max_length"])
}

func TestErrorTypeHelpers(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrMissingQuery)

	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsExternalError(wrapped))
	assert.True(t, IsNotFoundError(ErrSessionNotFound))
	assert.True(t, IsRateLimitError(ErrProviderRateLimit))
	assert.True(t, IsInternalError(ErrDimensionMismatch))
	assert.True(t, IsExternalError(WrapExternal("x", errors.New("y"))))
	assert.True(t, IsInternalError(WrapInternal("x", errors.New("y"))))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}
