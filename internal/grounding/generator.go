// Package grounding generates recommendation reasons that quote the item's own text.
package grounding

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/content-curator/internal/llm"
	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/metrics"
	"github.com/jonathan/content-curator/internal/prompts"
	"github.com/jonathan/content-curator/internal/types"
)

const (
	temperature       = 0.3
	curriculumPreview = 5
	missingField      = "정보 없음"
	missingCurriculum = "없음"
	defaultSkillLevel = "해당"
)

// citationPattern captures text between straight or curly quotation marks.
var citationPattern = regexp.MustCompile(`['"‘’“”]([^'"‘’“”]+)['"‘’“”]`)

// Generator writes one grounded reason per validated item.
type Generator struct {
	client llm.Client
	cfg    types.PipelineConfig
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client, cfg types.PipelineConfig) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Generate returns recommendations in input order. Items in a batch are
// requested concurrently; batches run one after another. An item whose call
// fails or panics gets a generic reason with no citations.
func (g *Generator) Generate(ctx context.Context, validated []types.ValidatedItem, profile *types.RequirementProfile) []types.GroundedRecommendation {
	batchSize := g.cfg.ReasoningBatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	results := make([]types.GroundedRecommendation, len(validated))
	for start := 0; start < len(validated); start += batchSize {
		end := min(start+batchSize, len(validated))

		var eg errgroup.Group
		eg.SetLimit(batchSize)
		for i := start; i < end; i++ {
			eg.Go(func() error {
				item := &validated[i].Scored.Item
				defer func() {
					if r := recover(); r != nil {
						logging.Ctx(ctx).Error().
							Interface("panic", r).
							Int64("item_id", item.ID).
							Msg("reason generation panicked, using fallback reason")
						metrics.RecordFallback(string(types.StageGrounding))
						results[i] = FallbackRecommendation(item, profile)
					}
				}()
				results[i] = g.generateOne(ctx, item, profile)
				return nil
			})
		}
		_ = eg.Wait()
	}
	return results
}

func (g *Generator) generateOne(ctx context.Context, item *types.CatalogItem, profile *types.RequirementProfile) types.GroundedRecommendation {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet(prompts.RecommendFile, "grounding_system")},
		{Role: llm.RoleUser, Content: buildGroundingPrompt(item, profile)},
	}

	response, err := g.client.Complete(ctx, messages, llm.CompletionOptions{
		Tier:        llm.TierStandard,
		Temperature: temperature,
	})
	reason := strings.TrimSpace(response)
	if err == nil && reason == "" {
		err = &llm.EmptyResponseError{Message: "empty recommendation reason"}
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("item_id", item.ID).Msg("reason generation failed, using fallback reason")
		metrics.RecordFallback(string(types.StageGrounding))
		return FallbackRecommendation(item, profile)
	}

	return types.GroundedRecommendation{
		ItemID:    item.ID,
		Reason:    reason,
		Citations: ExtractCitations(reason),
	}
}

// FallbackRecommendation is the generic reason used when generation fails.
func FallbackRecommendation(item *types.CatalogItem, profile *types.RequirementProfile) types.GroundedRecommendation {
	skill := profile.SkillLevel
	if strings.TrimSpace(skill) == "" {
		skill = defaultSkillLevel
	}
	return types.GroundedRecommendation{
		ItemID: item.ID,
		Reason: prompts.Render(prompts.RecommendFile, "grounding_fallback", map[string]string{
			"Title":      item.Title,
			"SkillLevel": skill,
		}),
		Citations: []string{},
	}
}

// ExtractCitations returns every quoted substring of text, in order.
func ExtractCitations(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	citations := make([]string, 0, len(matches))
	for _, m := range matches {
		citations = append(citations, m[1])
	}
	return citations
}

func buildGroundingPrompt(item *types.CatalogItem, profile *types.RequirementProfile) string {
	return prompts.Render(prompts.RecommendFile, "grounding_user", map[string]string{
		"LearningGoal":   profile.LearningGoal,
		"Title":          item.Title,
		"Intro":          orDefault(item.Intro, missingField),
		"Objective":      orDefault(item.Objective, missingField),
		"TargetAudience": orDefault(item.TargetAudience, missingField),
		"Curriculum":     curriculumSummary(item.Curriculum),
		"MajorCategory":  item.MajorCategory,
		"MiddleCategory": item.MiddleCategory,
	})
}

// curriculumSummary lists the first few curriculum entries.
func curriculumSummary(curriculum []string) string {
	if len(curriculum) == 0 {
		return missingCurriculum
	}
	if len(curriculum) > curriculumPreview {
		curriculum = curriculum[:curriculumPreview]
	}
	return strings.Join(curriculum, ", ")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
