package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterProvider(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterProvider(newMockProvider("groq"), "llama-3.3-70b-versatile"))
	assert.ErrorIs(t, r.RegisterProvider(newMockProvider("groq")), ErrProviderAlreadyRegistered)
	assert.Error(t, r.RegisterProvider(nil))
	assert.Error(t, r.RegisterProvider(newMockProvider("")))
	assert.Equal(t, []string{"groq"}, r.ListProviders())
}

func TestRegistry_ProviderForModel(t *testing.T) {
	r := NewRegistry()
	groq := newMockProvider("groq")
	anthropic := newMockProvider("anthropic")

	require.NoError(t, r.RegisterProvider(groq, "llama-3.1-8b-instant"))
	require.NoError(t, r.RegisterProvider(anthropic))
	require.NoError(t, r.RegisterModelPrefix("claude-", "anthropic"))
	assert.ErrorIs(t, r.RegisterModelPrefix("gpt-", "openai"), ErrProviderNotFound)

	tests := []struct {
		model    string
		provider string
	}{
		{"llama-3.1-8b-instant", "groq"},
		{"claude-3-5-haiku-latest", "anthropic"},
		{"llama-3.3-70b-versatile", "groq"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := r.ProviderForModel(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, p.Name())
		})
	}
}

func TestRegistry_Complete(t *testing.T) {
	t.Run("routes to provider", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.RegisterProvider(newMockProvider("groq")))
		require.NoError(t, r.RegisterProvider(newMockProvider("anthropic")))
		require.NoError(t, r.RegisterModelPrefix("claude-", "anthropic"))

		out, err := r.Complete(context.Background(), "claude-x", "hello")
		require.NoError(t, err)
		assert.Equal(t, "anthropic:claude-x", out)
	})

	t.Run("empty registry", func(t *testing.T) {
		_, err := NewRegistry().Complete(context.Background(), "any", "hello")
		assert.ErrorIs(t, err, ErrModelNotSupported)
	})
}
