package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/metrics"
	"github.com/jonathan/content-curator/internal/types"
)

// Defaults for a regeneration run.
const (
	DefaultBatchSize  = 20
	DefaultPause      = time.Second
	DefaultRetryPause = 200 * time.Millisecond
)

// ItemSource pages through the catalog in id order.
type ItemSource interface {
	ListItemsPage(ctx context.Context, afterID int64, limit int, missingOnly bool) ([]types.CatalogItem, error)
	CountItems(ctx context.Context, missingOnly bool) (int, error)
}

// VectorSink stores one item's embedding.
type VectorSink interface {
	UpsertEmbedding(ctx context.Context, contentID int64, vec []float32, model string) error
}

// Embedder produces embeddings one at a time or in batches.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Options configure a regeneration run.
type Options struct {
	BatchSize   int
	Pause       time.Duration
	RetryPause  time.Duration
	MissingOnly bool
	// Model is recorded next to each stored vector.
	Model string
}

// Report summarises a regeneration run.
type Report struct {
	Total     int
	Written   int
	FailedIDs []int64
}

// Progress is called after each batch with the running totals.
type Progress func(done, total int)

// Regenerator rebuilds catalog embeddings.
type Regenerator struct {
	source   ItemSource
	sink     VectorSink
	embedder Embedder
	opts     Options

	// OnProgress is optional.
	OnProgress Progress

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRegenerator creates a Regenerator, filling unset options with defaults.
func NewRegenerator(source ItemSource, sink VectorSink, embedder Embedder, opts Options) *Regenerator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	if opts.RetryPause <= 0 {
		opts.RetryPause = DefaultRetryPause
	}
	return &Regenerator{
		source:   source,
		sink:     sink,
		embedder: embedder,
		opts:     opts,
		sleep:    sleepContext,
	}
}

// Run embeds every catalog item (or only those without a vector) batch by
// batch. A failed batch is retried item by item; items that still fail are
// listed in the report and do not stop the run. Store errors abort it.
func (r *Regenerator) Run(ctx context.Context) (*Report, error) {
	log := logging.Ctx(ctx)

	total, err := r.source.CountItems(ctx, r.opts.MissingOnly)
	if err != nil {
		return nil, err
	}
	report := &Report{Total: total, FailedIDs: []int64{}}
	log.Info().
		Int("total", total).
		Int("batch_size", r.opts.BatchSize).
		Bool("missing_only", r.opts.MissingOnly).
		Msg("embedding regeneration started")

	var afterID int64
	done := 0
	for batchNum := 1; ; batchNum++ {
		items, err := r.source.ListItemsPage(ctx, afterID, r.opts.BatchSize, r.opts.MissingOnly)
		if err != nil {
			return report, err
		}
		if len(items) == 0 {
			break
		}
		afterID = items[len(items)-1].ID

		if err := r.processBatch(ctx, batchNum, items, report); err != nil {
			return report, err
		}
		done += len(items)
		if r.OnProgress != nil {
			r.OnProgress(done, total)
		}

		if len(items) < r.opts.BatchSize {
			break
		}
		if err := r.sleep(ctx, r.opts.Pause); err != nil {
			return report, err
		}
	}

	log.Info().
		Int("written", report.Written).
		Int("failed", len(report.FailedIDs)).
		Msg("embedding regeneration finished")
	return report, nil
}

func (r *Regenerator) processBatch(ctx context.Context, batchNum int, items []types.CatalogItem, report *Report) error {
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = BuildText(&items[i])
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) != len(items) {
		err = fmt.Errorf("embedding batch returned %d vectors for %d items", len(vectors), len(items))
	}
	if err == nil {
		for i := range items {
			if err := r.store(ctx, items[i].ID, vectors[i], report); err != nil {
				return err
			}
		}
		return nil
	}

	logging.Ctx(ctx).Warn().Err(err).
		Int("batch", batchNum).
		Int("items", len(items)).
		Msg("embedding batch failed, retrying items individually")

	for i := range items {
		vec, err := r.embedder.Embed(ctx, texts[i])
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("content_id", items[i].ID).Msg("failed to embed item")
			report.FailedIDs = append(report.FailedIDs, items[i].ID)
		} else if err := r.store(ctx, items[i].ID, vec, report); err != nil {
			return err
		}
		if err := r.sleep(ctx, r.opts.RetryPause); err != nil {
			return err
		}
	}
	return nil
}

func (r *Regenerator) store(ctx context.Context, id int64, vec []float32, report *Report) error {
	if err := r.sink.UpsertEmbedding(ctx, id, vec, r.opts.Model); err != nil {
		return err
	}
	report.Written++
	metrics.EmbeddingsWritten.Inc()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
