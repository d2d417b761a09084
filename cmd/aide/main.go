package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/aide-lsp/aide/internal/actions"
	"github.com/aide-lsp/aide/internal/config"
	"github.com/aide-lsp/aide/internal/dispatch"
	"github.com/aide-lsp/aide/internal/gateway"
	"github.com/aide-lsp/aide/internal/intent"
	"github.com/aide-lsp/aide/internal/provider"
	"github.com/aide-lsp/aide/internal/provider/anthropic"
	"github.com/aide-lsp/aide/internal/provider/gemini"
	"github.com/aide-lsp/aide/internal/provider/openai"
	"github.com/aide-lsp/aide/internal/rpc"
	"github.com/aide-lsp/aide/internal/settings"
	"github.com/aide-lsp/aide/internal/storage/sqldb"
	"github.com/aide-lsp/aide/internal/telemetry"
)

const version = "0.3.0"

// stdio bundles stdin and stdout into one framed stream. Closing it
// only closes stdin so the final responses still flush.
type stdio struct {
	io.Reader
	io.Writer
}

func (s stdio) Close() error { return os.Stdin.Close() }

func main() {
	configPath := flag.String("config", "aide.yaml", "path to the configuration file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Logs go to stderr; in stdio mode stdout belongs to the protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Tracing {
		shutdown, err := telemetry.InitTracer("aide", os.Stderr, logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	registry := provider.NewRegistry(registryOverrides(cfg)...)
	store := settings.NewStore(cfg.InitialSettings())

	gwOpts := []gateway.Option{gateway.WithLogger(logger)}
	if cfg.Storage.Type != "none" {
		db, err := sqldb.Open(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to open interaction store: %v", err)
		}
		defer db.Close()
		gwOpts = append(gwOpts, gateway.WithStore(db))
	}
	gw := gateway.New(store, registry, gwOpts...)

	dispatcher := dispatch.New(
		intent.New(gw, logger),
		actions.New(gw),
		gw,
		logger,
	)

	srv := rpc.NewServer(dispatcher, store, logger, version)

	switch cfg.Server.Mode {
	case "tcp":
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	default:
		logger.Info("serving on stdio", slog.String("version", version))
		if err := srv.ServeConn(ctx, stdio{Reader: os.Stdin, Writer: os.Stdout}); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

// registryOverrides rebuilds adapters whose base URL was overridden in
// the configuration.
func registryOverrides(cfg *config.Config) []provider.Option {
	var opts []provider.Option
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, provider.WithProvider(provider.OpenAI,
			openai.NewProvider(provider.OpenAI, openai.WithBaseURL(cfg.OpenAI.BaseURL))))
	}
	if cfg.Groq.BaseURL != "" {
		opts = append(opts, provider.WithProvider(provider.Groq,
			openai.NewProvider(provider.Groq, openai.WithBaseURL(cfg.Groq.BaseURL))))
	}
	if cfg.Gemini.BaseURL != "" {
		opts = append(opts, provider.WithProvider(provider.Gemini,
			gemini.NewProvider(gemini.WithBaseURL(cfg.Gemini.BaseURL))))
	}
	if cfg.Claude.BaseURL != "" {
		opts = append(opts, provider.WithProvider(provider.Claude,
			anthropic.NewProvider(anthropic.WithBaseURL(cfg.Claude.BaseURL))))
	}
	return opts
}
