// Package anthropic implements the provider adapter for the Anthropic
// Messages API (registered as "claude").
//
// The Messages API takes the system prompt as a separate top-level string
// and requires an explicit output token bound, so the adapter extracts the
// first system message and filters the rest to user/assistant turns.
package anthropic

import (
	"context"
	"net/http"
	"sync"

	"github.com/aide-lsp/aide/internal/domain"
)

// maxOutputTokens is the fixed output bound sent with every request.
const maxOutputTokens = 4096

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

// Provider adapts the Anthropic Messages API to the provider-neutral
// contract. The underlying client is reused while the API key stays the
// same.
type Provider struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	clientKey string
	client    *Client
}

// NewProvider creates the Anthropic adapter.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "claude"
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

// Generate sends the system prompt top-level, the remaining messages as
// user/assistant turns, and returns the first text content block, or empty
// string if none is present.
func (p *Provider) Generate(ctx context.Context, messages []domain.Message, model, apiKey string) (string, error) {
	var system string
	var chat []ChatMessage
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			if system == "" {
				system = m.Content
			}
			continue
		}
		chat = append(chat, ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	req := &MessageRequest{
		Model:     model,
		System:    system,
		Messages:  chat,
		MaxTokens: maxOutputTokens,
	}

	resp, err := p.getClient(apiKey).CreateMessage(ctx, req)
	if err != nil {
		return "", domain.ErrProvider(p.Name(), err.Error())
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
