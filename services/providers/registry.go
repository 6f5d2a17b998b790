package providers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrModelNotSupported is returned when no provider serves a model
	ErrModelNotSupported = errors.New("model not supported")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry routes a model id to the provider serving it.
// A Registry is itself a Completer.
type Registry struct {
	mu             sync.RWMutex
	providers      map[string]Provider
	modelProviders map[string]string // model -> provider name
	modelPrefixes  map[string]string // model prefix -> provider name
	fallback       string
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers:      make(map[string]Provider),
		modelProviders: make(map[string]string),
		modelPrefixes:  make(map[string]string),
	}
}

// RegisterProvider registers a provider and the exact model ids it serves.
// The first registered provider becomes the fallback for unknown models.
func (r *Registry) RegisterProvider(provider Provider, models ...string) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	if _, exists := r.providers[name]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.providers[name] = provider
	for _, model := range models {
		r.modelProviders[model] = name
	}
	if r.fallback == "" {
		r.fallback = name
	}

	return nil
}

// RegisterModelPrefix registers a model prefix to provider mapping (e.g., "claude-" -> "anthropic")
func (r *Registry) RegisterModelPrefix(prefix, providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[providerName]; !exists {
		return ErrProviderNotFound
	}

	r.modelPrefixes[prefix] = providerName
	return nil
}

// ProviderForModel resolves a model: exact id, then longest prefix, then fallback
func (r *Registry) ProviderForModel(model string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.modelProviders[model]; ok {
		return r.providers[name], nil
	}

	best := ""
	for prefix := range r.modelPrefixes {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return r.providers[r.modelPrefixes[best]], nil
	}

	if r.fallback != "" {
		return r.providers[r.fallback], nil
	}

	return nil, ErrModelNotSupported
}

// Complete routes the call to the provider serving model
func (r *Registry) Complete(ctx context.Context, model, prompt string) (string, error) {
	provider, err := r.ProviderForModel(model)
	if err != nil {
		return "", err
	}
	return provider.Complete(ctx, model, prompt)
}

// ListProviders returns all registered provider names, sorted
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
