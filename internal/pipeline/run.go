// Package pipeline provides the high-level orchestration of a recommendation run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/content-curator/internal/assembly"
	"github.com/jonathan/content-curator/internal/db"
	"github.com/jonathan/content-curator/internal/grounding"
	"github.com/jonathan/content-curator/internal/intent"
	"github.com/jonathan/content-curator/internal/llm"
	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/metrics"
	"github.com/jonathan/content-curator/internal/prompts"
	"github.com/jonathan/content-curator/internal/ranking"
	"github.com/jonathan/content-curator/internal/retrieval"
	"github.com/jonathan/content-curator/internal/types"
	"github.com/jonathan/content-curator/internal/verification"
)

// Progress categories.
const (
	CategoryRetrieval  = "retrieval"
	CategoryValidation = "validation"
	CategoryAssembly   = "assembly"
)

// Run outcomes reported to metrics.
const (
	outcomeCompleted = "completed"
	outcomeNoResult  = "no_result"
	outcomeFailed    = "failed"
)

// retryKeywords is how many primary keywords the retry hint suggests.
const retryKeywords = 3

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Store is the persistence a run reads from and writes the package to.
type Store interface {
	retrieval.CatalogStore
	ranking.EmbeddingStore
	assembly.PackageSink
}

// RunRecorder journals a run. Failures are logged and never change the outcome.
type RunRecorder interface {
	CreateRun(ctx context.Context, runID uuid.UUID, learningGoal string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, packageID int64) error
}

// Options holds optional collaborators of a Pipeline.
type Options struct {
	Config     types.PipelineConfig
	OnProgress ProgressCallback
	// Recorder is nil when runs are not journaled.
	Recorder RunRecorder
	// Out receives the step narration; nil discards it.
	Out io.Writer
	// Now is the clock used for recency; nil means time.Now.
	Now func() time.Time
}

// Pipeline runs the seven recommendation stages in order.
type Pipeline struct {
	store    Store
	opts     Options
	out      io.Writer
	recorder RunRecorder

	extractor *intent.Extractor
	scorer    *ranking.Scorer
	validator *ranking.Validator
	generator *grounding.Generator
	assembler *assembly.Assembler
}

// New wires a Pipeline around an LLM client and a store. Both are required.
func New(client llm.Client, store Store, opts Options) *Pipeline {
	cfg := opts.Config
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	return &Pipeline{
		store:     store,
		opts:      opts,
		out:       out,
		recorder:  opts.Recorder,
		extractor: intent.NewExtractor(client, cfg),
		scorer:    ranking.NewScorer(client, store, cfg).WithClock(now),
		validator: ranking.NewValidator(client, cfg),
		generator: grounding.NewGenerator(client, cfg),
		assembler: assembly.NewAssembler(store).WithClock(now),
	}
}

// runState is the per-run bookkeeping shared with the recovery handler.
type runState struct {
	id       uuid.UUID
	stage    types.Stage
	metrics  types.PipelineMetrics
	noResult bool
}

// Run executes one recommendation. On failure the error is always a
// *types.RecommendationError; at most one package is persisted.
func (p *Pipeline) Run(ctx context.Context, profile *types.RequirementProfile) (result *types.Result, err error) {
	if profile == nil {
		profile = &types.RequirementProfile{}
	}

	state := &runState{id: uuid.New(), stage: types.StageIntent}
	ctx = logging.ContextWithCorrelationID(ctx, state.id.String())
	log := logging.Ctx(ctx)
	started := time.Now()

	log.Info().Str("learning_goal", profile.LearningGoal).Msg("recommendation run started")
	p.journal(ctx, "create run", func() error {
		return p.recorder.CreateRun(ctx, state.id, profile.LearningGoal)
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("stage", string(state.stage)).
				Interface("panic", r).
				Msg("recommendation run panicked")
			result = nil
			err = genericError(state.stage, fmt.Errorf("panic: %v", r))
		}
		p.finish(ctx, state, result, err, time.Since(started))
	}()

	result, err = p.run(ctx, state, profile)
	return result, err
}

func (p *Pipeline) run(ctx context.Context, state *runState, profile *types.RequirementProfile) (*types.Result, error) {
	cfg := p.opts.Config
	log := logging.Ctx(ctx)

	// Stage 1
	state.stage = types.StageIntent
	fmt.Fprintf(p.out, "Step 1/7: Extracting search intent...\n")
	stageStart := time.Now()
	searchIntent, source := p.extractor.Extract(ctx, profile)
	keywords := searchIntent.AllKeywords()
	state.metrics.Stage1Keywords = len(keywords)
	p.stageDone(ctx, state, types.StageIntent, CategoryRetrieval, len(keywords), stageStart,
		fmt.Sprintf("Extracted %d keywords (%s), domain %s", len(keywords), source, searchIntent.Domain), searchIntent)
	p.journal(ctx, "save intent", func() error {
		return p.recorder.SaveArtifact(ctx, state.id, db.StepIntent, searchIntent)
	})

	// Stage 2
	state.stage = types.StageHardFilter
	fmt.Fprintf(p.out, "Step 2/7: Filtering catalog...\n")
	stageStart = time.Now()
	filtered, err := retrieval.HardFilter(ctx, p.store, searchIntent, cfg.CandidateLimit)
	if err != nil {
		return nil, genericError(state.stage, err)
	}
	state.metrics.Stage2Filtered = len(filtered)
	p.stageDone(ctx, state, types.StageHardFilter, CategoryRetrieval, len(filtered), stageStart,
		fmt.Sprintf("Hard filter kept %d items", len(filtered)), nil)
	if len(filtered) == 0 {
		state.noResult = true
		return nil, noResultError(state.stage, "no_result_hard_filter", searchIntent, nil)
	}

	// Stage 3
	state.stage = types.StageScoring
	fmt.Fprintf(p.out, "Step 3/7: Scoring %d candidates...\n", len(filtered))
	stageStart = time.Now()
	scored, err := p.scorer.Score(ctx, filtered, searchIntent, profile)
	if err != nil {
		return nil, genericError(state.stage, err)
	}
	state.metrics.Stage3Scored = len(scored)
	p.stageDone(ctx, state, types.StageScoring, CategoryRetrieval, len(scored), stageStart,
		fmt.Sprintf("%d items passed the hybrid score threshold", len(scored)), nil)
	if len(scored) == 0 {
		state.noResult = true
		return nil, noResultError(state.stage, "no_result_scoring", searchIntent, nil)
	}

	// Stage 4
	state.stage = types.StageValidation
	fmt.Fprintf(p.out, "Step 4/7: Validating relevance of %d items...\n", len(scored))
	stageStart = time.Now()
	validated := p.validator.Validate(ctx, scored, profile)
	state.metrics.Stage4Validated = len(validated)
	p.stageDone(ctx, state, types.StageValidation, CategoryValidation, len(validated), stageStart,
		fmt.Sprintf("%d items judged relevant", len(validated)), nil)
	if len(validated) == 0 {
		state.noResult = true
		return nil, noResultError(state.stage, "no_result_validation", searchIntent, nearMisses(scored, cfg.NearMissLimit))
	}

	// Stage 5
	state.stage = types.StageGrounding
	fmt.Fprintf(p.out, "Step 5/7: Generating grounded reasons...\n")
	stageStart = time.Now()
	recs := p.generator.Generate(ctx, validated, profile)
	state.metrics.Stage5Grounded = len(recs)
	p.stageDone(ctx, state, types.StageGrounding, CategoryValidation, len(recs), stageStart,
		fmt.Sprintf("Generated %d reasons", len(recs)), nil)

	// Stage 6
	state.stage = types.StageVerification
	fmt.Fprintf(p.out, "Step 6/7: Verifying citations...\n")
	stageStart = time.Now()
	scoredByID := make(map[int64]types.ScoredItem, len(validated))
	for _, v := range validated {
		scoredByID[v.Scored.Item.ID] = v.Scored
	}
	outcomes := verification.Verify(recs, scoredByID, cfg)
	verified := 0
	for _, o := range outcomes {
		if o.Verified {
			verified++
		} else {
			log.Debug().Int64("content_id", o.ItemID).Strs("failed", o.FailedCitations).Msg("recommendation failed verification")
		}
	}
	state.metrics.Stage6Verified = verified
	p.stageDone(ctx, state, types.StageVerification, CategoryValidation, verified, stageStart,
		fmt.Sprintf("%d of %d reasons verified", verified, len(outcomes)), nil)

	// Stage 7
	state.stage = types.StageAssembly
	fmt.Fprintf(p.out, "Step 7/7: Assembling package...\n")
	stageStart = time.Now()
	result, err := p.assembler.Assemble(ctx, outcomes, validated, profile, state.metrics)
	if err != nil {
		return nil, genericError(state.stage, err)
	}
	state.metrics = result.Metrics
	p.stageDone(ctx, state, types.StageAssembly, CategoryAssembly, result.Metrics.Stage7Final, stageStart,
		fmt.Sprintf("Package #%d with %d items", result.PackageID, result.Metrics.Stage7Final), nil)

	fmt.Fprintf(p.out, "Done! Package #%d stored with %d contents.\n", result.PackageID, len(result.SelectedContents))
	return result, nil
}

// stageDone records metrics, logs and emits progress for a finished stage.
func (p *Pipeline) stageDone(ctx context.Context, state *runState, stage types.Stage, category string, items int, started time.Time, message string, content any) {
	elapsed := time.Since(started)
	metrics.RecordStage(string(stage), items, elapsed)
	logging.Ctx(ctx).Info().
		Str("stage", string(stage)).
		Int("items", items).
		Dur("duration", elapsed).
		Msg("stage completed")

	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{
			Step:     string(stage),
			Category: category,
			Message:  message,
			RunID:    state.id.String(),
			Content:  content,
		})
	}
}

// finish closes the run journal and records the run outcome.
func (p *Pipeline) finish(ctx context.Context, state *runState, result *types.Result, err error, elapsed time.Duration) {
	log := logging.Ctx(ctx)

	outcome := outcomeCompleted
	status := db.RunStatusCompleted
	var packageID int64
	switch {
	case result != nil:
		packageID = result.PackageID
		p.journal(ctx, "save result", func() error {
			return p.recorder.SaveArtifact(ctx, state.id, db.StepResult, result)
		})
	case state.noResult:
		outcome, status = outcomeNoResult, db.RunStatusNoResult
	default:
		outcome, status = outcomeFailed, db.RunStatusFailed
	}

	if err != nil {
		p.journal(ctx, "save error", func() error {
			return p.recorder.SaveArtifact(ctx, state.id, db.StepError, err)
		})
	}
	p.journal(ctx, "save metrics", func() error {
		return p.recorder.SaveArtifact(ctx, state.id, db.StepMetrics, state.metrics)
	})
	p.journal(ctx, "complete run", func() error {
		return p.recorder.CompleteRun(ctx, state.id, status, packageID)
	})

	metrics.RecordRun(outcome)
	event := log.Info()
	if outcome == outcomeFailed {
		event = log.Error().Err(err)
	}
	event.Str("outcome", outcome).
		Str("stage", string(state.stage)).
		Int64("package_id", packageID).
		Dur("duration", elapsed).
		Msg("recommendation run finished")
}

// journal runs fn when a recorder is configured and logs its failure.
func (p *Pipeline) journal(ctx context.Context, action string, fn func() error) {
	if p.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("run journal write failed")
	}
}

// noResultError builds the empty-stage error with retry hints.
func noResultError(stage types.Stage, messageKey string, searchIntent *types.SearchIntent, candidates []types.CatalogItem) *types.RecommendationError {
	primary := searchIntent.PrimaryKeywords
	if len(primary) > retryKeywords {
		primary = primary[:retryKeywords]
	}
	return &types.RecommendationError{
		Stage:      stage,
		Message:    prompts.MustGet(prompts.RecommendFile, messageKey),
		Suggestion: prompts.MustGet(prompts.RecommendFile, "no_result_suggestion"),
		Alternatives: []string{
			prompts.Render(prompts.RecommendFile, "no_result_retry", map[string]string{
				"Keywords": strings.Join(primary, ", "),
			}),
			prompts.MustGet(prompts.RecommendFile, "no_result_specific_goal"),
			prompts.MustGet(prompts.RecommendFile, "no_result_tech_stack"),
		},
		Candidates:           candidates,
		RequiresManualReview: len(candidates) > 0,
	}
}

// genericError hides an unexpected failure behind the generic message.
func genericError(stage types.Stage, cause error) *types.RecommendationError {
	return &types.RecommendationError{
		Stage:      stage,
		Message:    prompts.MustGet(prompts.RecommendFile, "error_message"),
		Suggestion: prompts.MustGet(prompts.RecommendFile, "error_suggestion"),
		Alternatives: []string{
			prompts.MustGet(prompts.RecommendFile, "error_alt_specific"),
			prompts.MustGet(prompts.RecommendFile, "error_alt_keywords"),
		},
		Cause: cause,
	}
}

// nearMisses returns up to limit of the best scored items for manual review.
func nearMisses(scored []types.ScoredItem, limit int) []types.CatalogItem {
	limit = min(limit, types.MaxNearMissCandidates, len(scored))
	if limit <= 0 {
		return nil
	}
	out := make([]types.CatalogItem, limit)
	for i := range out {
		out[i] = scored[i].Item
	}
	return out
}
