// Package openai adapts OpenAI-compatible chat completion APIs (Groq by
// default) to providers.Completer.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	oai "github.com/sashabaranov/go-openai"

	"github.com/upb/clearpath-assistant/services/providers"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	defaultName = "groq"
)

// Adapter implements providers.Provider over an OpenAI-compatible API
type Adapter struct {
	name   string
	config providers.ProviderConfig
	client *oai.Client
}

// NewAdapter creates an adapter. An empty name defaults to "groq".
func NewAdapter(name string, config providers.ProviderConfig) *Adapter {
	if name == "" {
		name = defaultName
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = providers.DefaultSystemPrompt
	}

	clientConfig := oai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &Adapter{
		name:   name,
		config: config,
		client: oai.NewClientWithConfig(clientConfig),
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.name
}

// Complete sends the prompt as a single user message after the system prompt
func (a *Adapter) Complete(ctx context.Context, model, prompt string) (string, error) {
	req := oai.ChatCompletionRequest{
		Model: model,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: a.config.SystemPrompt},
			{Role: oai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(a.config.Temperature),
		MaxTokens:   a.config.MaxTokens,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", a.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(a.name, "EMPTY_RESPONSE", "no choices returned", http.StatusOK, false, nil)
	}

	return resp.Choices[0].Message.Content, nil
}

func (a *Adapter) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		return providers.FromStatus(a.name, apiErr.HTTPStatusCode, err)
	}

	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) {
		return providers.FromStatus(a.name, reqErr.HTTPStatusCode, err)
	}

	return providers.NewProviderError(a.name, "HTTP_ERROR", "HTTP request failed", 0, false, err)
}
