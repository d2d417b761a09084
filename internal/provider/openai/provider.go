// Package openai implements the provider adapter for the OpenAI chat
// completions protocol. Groq exposes the same protocol at a different base
// URL, so one adapter serves both registrations.
package openai

import (
	"context"
	"net/http"
	"sync"

	"github.com/aide-lsp/aide/internal/domain"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider adapts the OpenAI protocol to the provider-neutral contract.
// The underlying client is constructed lazily and reused while the API key
// stays the same; a key rotation rebuilds it on the next call.
type Provider struct {
	name       string
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	clientKey string
	client    *Client
}

// NewProvider creates an adapter registered under name ("openai" or "groq").
func NewProvider(name string, opts ...ProviderOption) *Provider {
	p := &Provider{name: name}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) getClient(apiKey string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil || p.clientKey != apiKey {
		var clientOpts []ClientOption
		if p.baseURL != "" {
			clientOpts = append(clientOpts, WithClientBaseURL(p.baseURL))
		}
		if p.httpClient != nil {
			clientOpts = append(clientOpts, WithClientHTTPClient(p.httpClient))
		}
		p.client = NewClient(apiKey, clientOpts...)
		p.clientKey = apiKey
	}
	return p.client
}

// Generate passes the full role-tagged message sequence through verbatim and
// returns the first completion's text, or empty string if absent.
func (p *Provider) Generate(ctx context.Context, messages []domain.Message, model, apiKey string) (string, error) {
	req := &ChatCompletionRequest{
		Model:    model,
		Messages: make([]ChatMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = ChatMessage{Role: string(m.Role), Content: m.Content}
	}

	resp, err := p.getClient(apiKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.ErrProvider(p.name, err.Error())
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
