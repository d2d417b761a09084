// Package provider defines the uniform adapter interface over heterogeneous
// LLM backends and the closed registry of supported providers.
//
// The set of providers is fixed: openai, groq, gemini, claude. Adding one is
// a new registry entry, not an open class hierarchy. Lookup of an unknown id
// always fails; there is no silent default.
package provider

import (
	"context"
	"sort"

	"github.com/aide-lsp/aide/internal/domain"
	"github.com/aide-lsp/aide/internal/provider/anthropic"
	"github.com/aide-lsp/aide/internal/provider/gemini"
	"github.com/aide-lsp/aide/internal/provider/openai"
)

// Provider identifiers accepted in configuration.
const (
	OpenAI = "openai"
	Groq   = "groq"
	Gemini = "gemini"
	Claude = "claude"
)

// Provider translates a provider-neutral message list into one backend call
// and normalizes the textual result. Implementations cache their underlying
// client per API key and never retry.
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []domain.Message, model, apiKey string) (string, error)
}

// Registry is the fixed provider-id to adapter mapping.
type Registry struct {
	providers map[string]Provider
}

// Option overrides a registry entry, mainly for configuration-driven base
// URL changes and for tests.
type Option func(*Registry)

// WithProvider replaces the adapter registered under id.
func WithProvider(id string, p Provider) Option {
	return func(r *Registry) {
		r.providers[id] = p
	}
}

// NewRegistry builds the default registry. groq shares the openai adapter
// logic at Groq's OpenAI-compatible endpoint.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		providers: map[string]Provider{
			OpenAI: openai.NewProvider(OpenAI),
			Groq:   openai.NewProvider(Groq, openai.WithBaseURL(openai.GroqBaseURL)),
			Gemini: gemini.NewProvider(),
			Claude: anthropic.NewProvider(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the adapter for id, or an unsupported-provider error.
func (r *Registry) Resolve(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, domain.ErrUnsupportedProvider(id)
	}
	return p, nil
}

// IDs returns the registered provider ids sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
