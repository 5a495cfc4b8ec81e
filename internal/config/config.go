// Package config loads the curator configuration from layered sources:
// struct defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jonathan/content-curator/internal/types"
)

const (
	// ConfigPathEnvVar names a YAML config file when no path is passed explicitly.
	ConfigPathEnvVar = "CONFIG_PATH"
	// DefaultConfigFile is looked up in the working directory as a last resort.
	DefaultConfigFile = "curator.yaml"
	// EnvPrefix marks generic overrides, e.g. CURATOR_PIPELINE__HYBRID_SCORE_MIN.
	EnvPrefix = "CURATOR_"
)

// Config is the complete curator configuration.
type Config struct {
	Database  DatabaseConfig       `koanf:"database"`
	LLM       LLMConfig            `koanf:"llm"`
	Logging   LoggingConfig        `koanf:"logging"`
	Pipeline  types.PipelineConfig `koanf:"pipeline"`
	Embedding EmbeddingConfig      `koanf:"embedding"`
	Metrics   MetricsConfig        `koanf:"metrics"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	APIKey          string        `koanf:"api_key"`
	ChatModel       string        `koanf:"chat_model" validate:"required"`
	EmbeddingModel  string        `koanf:"embedding_model" validate:"required"`
	TimeoutSeconds  int           `koanf:"timeout_seconds" validate:"gte=1"`
	MaxOutputTokens int           `koanf:"max_output_tokens" validate:"gte=0"`
	Breaker         BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the provider circuit breaker.
type BreakerConfig struct {
	Enabled             bool `koanf:"enabled"`
	ConsecutiveFailures int  `koanf:"consecutive_failures" validate:"gte=1"`
	OpenSeconds         int  `koanf:"open_seconds" validate:"gte=1"`
	HalfOpenRequests    int  `koanf:"half_open_requests" validate:"gte=1"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// EmbeddingConfig tunes catalog embedding regeneration.
type EmbeddingConfig struct {
	BatchSize   int `koanf:"batch_size" validate:"gte=1,lte=100"`
	PauseMillis int `koanf:"pause_millis" validate:"gte=0"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			ChatModel:       "gemini-2.5-flash",
			EmbeddingModel:  "text-embedding-004",
			TimeoutSeconds:  60,
			MaxOutputTokens: 2048,
			Breaker: BreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				OpenSeconds:         30,
				HalfOpenRequests:    1,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Pipeline: types.DefaultPipelineConfig(),
		Embedding: EmbeddingConfig{
			BatchSize:   50,
			PauseMillis: 1000,
		},
	}
}

// LoadConfig builds the configuration. path may be empty, in which case
// CONFIG_PATH and then ./curator.yaml are tried; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

var envMappings = map[string]string{
	"database_url":   "database.url",
	"gemini_api_key": "llm.api_key",
	"log_level":      "logging.level",
	"log_format":     "logging.format",
	"metrics_addr":   "metrics.addr",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped names return "" and are skipped.
//
//	DATABASE_URL                        -> database.url
//	CURATOR_PIPELINE__HYBRID_SCORE_MIN  -> pipeline.hybrid_score_min
//	CURATOR_PIPELINE__WEIGHTS__RECENCY  -> pipeline.weights.recency
func envTransformFunc(key string) string {
	if strings.HasPrefix(key, EnvPrefix) {
		rest := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if rest == "" {
			return ""
		}
		return strings.ReplaceAll(rest, "__", ".")
	}
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// Validate checks field constraints and that the hybrid weights sum to 1.0.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if err := c.Pipeline.Weights.Check(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL or database.url)")
	}
	return nil
}

// RequireLLM returns an error when no provider API key is configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("API key is required (set GEMINI_API_KEY or llm.api_key)")
	}
	return nil
}
