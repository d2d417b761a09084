// Package config loads daemon configuration from an optional YAML file
// and AIDE_-prefixed environment variables, with fallbacks to the
// providers' canonical key variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aide-lsp/aide/internal/provider"
	"github.com/aide-lsp/aide/internal/settings"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Defaults  DefaultsConfig  `koanf:"defaults"`
	OpenAI    ProviderConfig  `koanf:"openai"`
	Groq      ProviderConfig  `koanf:"groq"`
	Gemini    ProviderConfig  `koanf:"gemini"`
	Claude    ProviderConfig  `koanf:"claude"`
	Storage   StorageConfig   `koanf:"storage"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	// Mode is "stdio" or "tcp".
	Mode string `koanf:"mode"`
	Addr string `koanf:"addr"`
}

// DefaultsConfig seeds the runtime settings before the first updateConfig.
type DefaultsConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
}

type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type StorageConfig struct {
	// Type is "sqlite" or "none".
	Type string `koanf:"type"`
	Path string `koanf:"path"`
}

type TelemetryConfig struct {
	Tracing bool `koanf:"tracing"`
}

// Load reads path (skipped when empty or missing) and then the
// environment on top of code defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Code defaults
	k.Set("server.mode", "stdio")
	k.Set("server.addr", "127.0.0.1:7430")
	k.Set("defaults.provider", "openai")
	k.Set("defaults.model", "gpt-4o")
	k.Set("storage.type", "sqlite")
	k.Set("storage.path", "aide.db")
	k.Set("telemetry.tracing", false)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("AIDE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "AIDE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Providers' canonical key variables win only when the config left
	// the key empty.
	fallbackKey(&cfg.OpenAI, "OPENAI_API_KEY")
	fallbackKey(&cfg.Groq, "GROQ_API_KEY")
	fallbackKey(&cfg.Gemini, "GEMINI_API_KEY")
	fallbackKey(&cfg.Claude, "ANTHROPIC_API_KEY")

	return &cfg, nil
}

func fallbackKey(pc *ProviderConfig, envVar string) {
	if pc.APIKey == "" {
		pc.APIKey = os.Getenv(envVar)
	}
}

// KeyFor returns the configured API key for a provider id.
func (c *Config) KeyFor(id string) string {
	switch id {
	case provider.OpenAI:
		return c.OpenAI.APIKey
	case provider.Groq:
		return c.Groq.APIKey
	case provider.Gemini:
		return c.Gemini.APIKey
	case provider.Claude:
		return c.Claude.APIKey
	}
	return ""
}

// InitialSettings builds the runtime settings seeded from the defaults
// section, with the matching provider key resolved from the environment.
func (c *Config) InitialSettings() settings.Settings {
	return settings.Settings{
		Provider: c.Defaults.Provider,
		Model:    c.Defaults.Model,
		APIKey:   c.KeyFor(c.Defaults.Provider),
	}
}
