// Package gemini implements the provider adapter for Google's Gemini API.
//
// Gemini has no native system role, so the adapter folds the first system
// message and the first user message into a single labeled prompt.
package gemini

import (
	"context"
	"net/http"
	"strings"
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

// Provider adapts the Gemini API to the provider-neutral contract. The
// underlying client is reused while the API key stays the same.
type Provider struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	clientKey string
	client    *Client
}

// NewProvider creates the Gemini adapter.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "gemini"
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

// foldPrompt concatenates the first system message and the first user
// message into one prompt string.
func foldPrompt(messages []domain.Message) string {
	var system, user string
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			if system == "" {
				system = m.Content
			}
		case domain.RoleUser:
			if user == "" {
				user = m.Content
			}
		}
	}
	if system == "" {
		return user
	}
	if user == "" {
		return system
	}
	return system + "\n\nUser: " + user
}

// Generate sends the folded prompt as a single user turn and returns the
// concatenated text of the first candidate.
func (p *Provider) Generate(ctx context.Context, messages []domain.Message, model, apiKey string) (string, error) {
	req := &GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: foldPrompt(messages)}}},
		},
	}

	resp, err := p.getClient(apiKey).GenerateContent(ctx, model, req)
	if err != nil {
		return "", domain.ErrProvider(p.Name(), err.Error())
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
