package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-curator/internal/embedding"
)

var embedCommand = &cobra.Command{
	Use:   "embed",
	Short: "Regenerate catalog embeddings",
	Long: `Builds the embedding text of every catalog item and stores a fresh vector for it.
Items are embedded in batches with a pause between batches; a failed batch is retried
one item at a time. Use --missing-only to embed only items without a stored vector.`,
	RunE: runEmbed,
}

var (
	embedBatch       int
	embedPause       time.Duration
	embedMissingOnly bool
	embedVerbose     bool
)

func init() {
	embedCommand.Flags().IntVar(&embedBatch, "batch", 0, "Items per embedding request (defaults to embedding.batch_size)")
	embedCommand.Flags().DurationVar(&embedPause, "pause", 0, "Pause between batches (defaults to embedding.pause_millis)")
	embedCommand.Flags().BoolVar(&embedMissingOnly, "missing-only", false, "Only embed items that have no stored vector")
	embedCommand.Flags().BoolVarP(&embedVerbose, "verbose", "v", false, "Print debug logs")

	rootCmd.AddCommand(embedCommand)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(embedVerbose)
	if err != nil {
		return err
	}

	opts := embedding.Options{
		BatchSize:   cfg.Embedding.BatchSize,
		Pause:       time.Duration(cfg.Embedding.PauseMillis) * time.Millisecond,
		MissingOnly: embedMissingOnly,
		Model:       cfg.LLM.EmbeddingModel,
	}
	if cmd.Flags().Changed("batch") {
		opts.BatchSize = embedBatch
	}
	if cmd.Flags().Changed("pause") {
		opts.Pause = embedPause
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

	regen := embedding.NewRegenerator(database, database, client, opts)
	regen.OnProgress = func(done, total int) {
		fmt.Printf("Embedded %d/%d items\n", done, total)
	}

	report, err := regen.Run(ctx)
	if report != nil {
		fmt.Printf("Done! %d written, %d failed.\n", report.Written, len(report.FailedIDs))
		if len(report.FailedIDs) > 0 {
			fmt.Printf("Failed content ids: %v\n", report.FailedIDs)
		}
	}
	if err != nil {
		return fmt.Errorf("embedding regeneration failed: %w", err)
	}
	return nil
}
