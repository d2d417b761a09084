// Package gateway is the single choke point for AI invocations. Every
// component that needs model output goes through Invoke rather than reading
// provider settings directly, so the active {provider, apiKey, model} triple
// is read exactly once per call.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aide-lsp/aide/internal/domain"
	"github.com/aide-lsp/aide/internal/provider"
	"github.com/aide-lsp/aide/internal/settings"
	"github.com/aide-lsp/aide/internal/storage"
	"github.com/aide-lsp/aide/internal/tokens"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyAction
)

// WithRequestID tags ctx with the request id recorded per invocation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithAction tags ctx with the action name recorded per invocation.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, ctxKeyAction, action)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

func actionFrom(ctx context.Context) string {
	action, _ := ctx.Value(ctxKeyAction).(string)
	return action
}

// Option configures the gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithStore attaches an interaction store. Recording is best-effort and
// never fails a request.
func WithStore(store storage.InteractionStore) Option {
	return func(g *Gateway) {
		g.store = store
	}
}

// Gateway reads the settings store, resolves the provider adapter and
// executes one generation call.
type Gateway struct {
	settings *settings.Store
	registry *provider.Registry
	store    storage.InteractionStore
	counter  *tokens.Counter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a gateway over the given settings store and registry.
func New(st *settings.Store, registry *provider.Registry, opts ...Option) *Gateway {
	g := &Gateway{
		settings: st,
		registry: registry,
		counter:  tokens.NewCounter(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("aide/gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke snapshots the active settings, resolves the adapter and runs one
// generation. Provider failures propagate unchanged after logging; there is
// no retry and no transformation.
func (g *Gateway) Invoke(ctx context.Context, messages []domain.Message) (string, error) {
	cfg := g.settings.Snapshot()

	if cfg.APIKey == "" {
		err := domain.ErrMissingAPIKey(cfg.Provider)
		g.fail(ctx, cfg.Provider, cfg.Model, 0, 0, err)
		return "", err
	}

	p, err := g.registry.Resolve(cfg.Provider)
	if err != nil {
		g.fail(ctx, cfg.Provider, cfg.Model, 0, 0, err)
		return "", err
	}

	promptTokens := g.counter.Estimate(cfg.Model, messages)

	ctx, span := g.tracer.Start(ctx, "gateway.invoke", trace.WithAttributes(
		attribute.String("provider", cfg.Provider),
		attribute.String("model", cfg.Model),
		attribute.Int("prompt_tokens", promptTokens),
	))
	defer span.End()

	start := time.Now()
	text, err := p.Generate(ctx, messages, cfg.Model, cfg.APIKey)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.fail(ctx, cfg.Provider, cfg.Model, promptTokens, elapsed, err)
		return "", err
	}

	g.logger.Debug("invocation completed",
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model),
		slog.Int("prompt_tokens", promptTokens),
		slog.Int64("duration_ms", elapsed.Milliseconds()))
	g.record(ctx, &storage.Interaction{
		RequestID:    requestIDFrom(ctx),
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		Action:       actionFrom(ctx),
		Status:       storage.StatusOK,
		PromptTokens: promptTokens,
		Duration:     elapsed,
	})
	return text, nil
}

func (g *Gateway) fail(ctx context.Context, providerID, model string, promptTokens int, elapsed time.Duration, err error) {
	g.logger.Error("invocation failed",
		slog.String("provider", providerID),
		slog.String("model", model),
		slog.String("request_id", requestIDFrom(ctx)),
		slog.String("error", err.Error()))
	g.record(ctx, &storage.Interaction{
		RequestID:    requestIDFrom(ctx),
		Provider:     providerID,
		Model:        model,
		Action:       actionFrom(ctx),
		Status:       storage.StatusError,
		Error:        err.Error(),
		PromptTokens: promptTokens,
		Duration:     elapsed,
	})
}

func (g *Gateway) record(ctx context.Context, rec *storage.Interaction) {
	if g.store == nil {
		return
	}
	if err := g.store.AppendInteraction(ctx, rec); err != nil {
		g.logger.Warn("failed to record interaction", slog.String("error", err.Error()))
	}
}
