package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-curator/internal/observability"
	"github.com/jonathan/content-curator/internal/pipeline"
	"github.com/jonathan/content-curator/internal/types"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Build and store a training package for a requirement profile",
	Long: `Runs the recommendation pipeline for the requirement profile in --profile (JSON)
and stores the resulting package. On an empty result the structured error, with
its suggestions and any near-miss candidates, is printed and written to --out.`,
	RunE: runRecommend,
}

var (
	recommendProfile     string
	recommendOut         string
	recommendVerbose     bool
	recommendMetricsAddr string
)

func init() {
	recommendCommand.Flags().StringVarP(&recommendProfile, "profile", "p", "", "Path to requirement profile JSON")
	recommendCommand.Flags().StringVarP(&recommendOut, "out", "o", "", "Write the result (or error payload) as JSON to this path")
	recommendCommand.Flags().BoolVarP(&recommendVerbose, "verbose", "v", false, "Print intent, funnel and debug logs")
	recommendCommand.Flags().StringVar(&recommendMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")

	if err := recommendCommand.MarkFlagRequired("profile"); err != nil {
		panic(fmt.Sprintf("failed to mark profile flag as required: %v", err))
	}

	rootCmd.AddCommand(recommendCommand)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(recommendVerbose)
	if err != nil {
		return err
	}

	profile, err := loadProfile(recommendProfile)
	if err != nil {
		return err
	}

	metricsAddr := cfg.Metrics.Addr
	if cmd.Flags().Changed("metrics-addr") {
		metricsAddr = recommendMetricsAddr
	}
	if metricsAddr != "" {
		stop := serveMetrics(metricsAddr)
		defer stop()
	}

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	printer := observability.NewPrinter(os.Stdout)
	p := pipeline.New(client, database, pipeline.Options{
		Config:   cfg.Pipeline,
		Recorder: database,
		Out:      os.Stdout,
		OnProgress: func(e pipeline.ProgressEvent) {
			if !recommendVerbose {
				return
			}
			if intent, ok := e.Content.(*types.SearchIntent); ok {
				printer.PrintIntent(intent)
			}
		},
	})

	result, runErr := p.Run(ctx, profile)
	if runErr != nil {
		var recErr *types.RecommendationError
		if !errors.As(runErr, &recErr) {
			return runErr
		}
		printer.PrintError(recErr)
		if err := writeJSON(recommendOut, recErr); err != nil {
			return err
		}
		return fmt.Errorf("no package created: %s", recErr.Message)
	}

	printer.PrintResult(result)
	if recommendVerbose {
		printer.PrintMetrics(result.Metrics)
	}
	return writeJSON(recommendOut, result)
}

// loadProfile reads and validates a requirement profile JSON file.
func loadProfile(path string) (*types.RequirementProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile types.RequirementProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &profile, nil
}

// writeJSON writes v as indented JSON; an empty path is a no-op.
func writeJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
