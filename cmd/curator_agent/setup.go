package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/content-curator/internal/config"
	"github.com/jonathan/content-curator/internal/db"
	"github.com/jonathan/content-curator/internal/llm"
	"github.com/jonathan/content-curator/internal/logging"
)

// loadConfig reads the layered configuration and configures logging from it.
func loadConfig(verbose bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	logging.Init(logCfg)
	return cfg, nil
}

// openDatabase connects and makes sure the curator tables exist.
func openDatabase(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// llmConfig maps the file/env configuration onto the provider config.
func llmConfig(cfg *config.Config) *llm.Config {
	out := llm.DefaultGeminiConfig().WithModel(llm.TierStandard, cfg.LLM.ChatModel)
	out.EmbeddingModel = cfg.LLM.EmbeddingModel
	out.Timeout = time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	out.MaxOutputTokens = int32(cfg.LLM.MaxOutputTokens)
	return out
}

// newLLMClient creates the Gemini client, behind a circuit breaker when enabled.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, llmConfig(cfg), cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	b := cfg.LLM.Breaker
	if !b.Enabled {
		return client, nil
	}
	return llm.NewBreakerClient(client, llm.BreakerSettings{
		Name:                "gemini",
		ConsecutiveFailures: uint32(b.ConsecutiveFailures),
		OpenTimeout:         time.Duration(b.OpenSeconds) * time.Second,
		HalfOpenRequests:    uint32(b.HalfOpenRequests),
	}), nil
}

// serveMetrics exposes /metrics on addr until the returned stop func is called.
func serveMetrics(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	logging.Info().Str("addr", addr).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
