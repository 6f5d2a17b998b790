// Package anthropic adapts the Anthropic Messages API to providers.Completer.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/upb/clearpath-assistant/services/providers"
)

const providerName = "anthropic"

// Adapter implements providers.Provider for Claude models
type Adapter struct {
	config providers.ProviderConfig
	client anthropic.Client
}

// NewAdapter creates an Anthropic adapter. SDK-level retries are disabled;
// rate limits are retried by providers.RetryingCompleter.
func NewAdapter(config providers.ProviderConfig) *Adapter {
	if config.SystemPrompt == "" {
		config.SystemPrompt = providers.DefaultSystemPrompt
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(config.BaseURL) != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		options = append(options, option.WithRequestTimeout(config.Timeout))
	}

	return &Adapter{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// Complete sends a single user turn and joins the returned text blocks
func (a *Adapter) Complete(ctx context.Context, model, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(a.config.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: a.config.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(a.config.Temperature),
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", a.mapError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", providers.NewProviderError(providerName, "EMPTY_RESPONSE", "no text content returned", http.StatusOK, false, nil)
	}

	return sb.String(), nil
}

func (a *Adapter) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return providers.FromStatus(providerName, apiErr.StatusCode, err)
	}

	return providers.NewProviderError(providerName, "HTTP_ERROR", "HTTP request failed", 0, false, err)
}
