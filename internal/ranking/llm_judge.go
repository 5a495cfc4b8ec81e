package ranking

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/content-curator/internal/llm"
	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/metrics"
	"github.com/jonathan/content-curator/internal/prompts"
	"github.com/jonathan/content-curator/internal/schemas"
	"github.com/jonathan/content-curator/internal/types"
)

const (
	judgeTemperature = 0.1
	minJudgeScore    = 1
	maxJudgeScore    = 10
	notProvided      = "없음"
	unspecifiedField = "미지정"
)

// judgeResponse is one element of the LLM's judgment array.
type judgeResponse struct {
	ItemID         int64   `json:"itemId"`
	RelevanceScore float64 `json:"relevanceScore"`
	Reason         string  `json:"reason"`
}

// Validator asks the LLM to judge scored items in fixed-size batches.
type Validator struct {
	client llm.Client
	cfg    types.PipelineConfig
}

// NewValidator creates a Validator.
func NewValidator(client llm.Client, cfg types.PipelineConfig) *Validator {
	return &Validator{client: client, cfg: cfg}
}

// Validate keeps items judged relevant, in their ranked order. Batches run one
// after another; a batch whose call fails or cannot be parsed falls back to
// keeping its items with a high hybrid score.
func (v *Validator) Validate(ctx context.Context, scored []types.ScoredItem, profile *types.RequirementProfile) []types.ValidatedItem {
	batchSize := v.cfg.ValidationBatchSize
	if batchSize <= 0 {
		batchSize = len(scored)
	}

	results := make([]types.ValidatedItem, 0, len(scored))
	for start := 0; start < len(scored); start += batchSize {
		end := min(start+batchSize, len(scored))
		batch := scored[start:end]

		judgments, err := v.judgeBatch(ctx, batch, profile)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Int("batch_start", start).
				Int("batch_size", len(batch)).
				Msg("relevance validation batch failed, using hybrid score fallback")
			metrics.RecordFallback(string(types.StageValidation))
			results = append(results, v.fallback(batch)...)
			continue
		}

		for _, item := range batch {
			judgment, ok := judgments[item.Item.ID]
			if !ok || !judgment.Relevant {
				continue
			}
			results = append(results, types.ValidatedItem{Scored: item, Judgment: judgment})
		}
	}
	return results
}

// judgeBatch returns judgments keyed by item id. When the LLM repeats an id the
// first judgment wins.
func (v *Validator) judgeBatch(ctx context.Context, batch []types.ScoredItem, profile *types.RequirementProfile) (map[int64]types.RelevanceJudgment, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet(prompts.RecommendFile, "validation_system")},
		{Role: llm.RoleUser, Content: buildValidationPrompt(batch, profile)},
	}

	response, err := v.client.Complete(ctx, messages, llm.CompletionOptions{
		Tier:        llm.TierLite,
		Temperature: judgeTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	block := llm.ExtractJSONArray(response)
	if block == "" {
		return nil, &llm.EmptyResponseError{Message: "no JSON array in relevance response"}
	}
	if err := schemas.ValidateDocument(schemas.RelevanceJudgments, []byte(block)); err != nil {
		return nil, err
	}

	var raw []judgeResponse
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, err
	}

	judgments := make(map[int64]types.RelevanceJudgment, len(raw))
	for _, r := range raw {
		if _, seen := judgments[r.ItemID]; seen {
			continue
		}
		score := clampJudgeScore(r.RelevanceScore)
		judgments[r.ItemID] = types.RelevanceJudgment{
			ItemID:   r.ItemID,
			Score:    score,
			Relevant: score >= v.cfg.RelevanceScoreMin,
			Reason:   strings.TrimSpace(r.Reason),
		}
	}
	return judgments, nil
}

func (v *Validator) fallback(batch []types.ScoredItem) []types.ValidatedItem {
	reason := prompts.MustGet(prompts.RecommendFile, "validation_fallback_reason")
	kept := make([]types.ValidatedItem, 0, len(batch))
	for _, item := range batch {
		if item.Scores.Total < v.cfg.FallbackHybridMin {
			continue
		}
		kept = append(kept, types.ValidatedItem{
			Scored: item,
			Judgment: types.RelevanceJudgment{
				ItemID:   item.Item.ID,
				Score:    v.cfg.FallbackRelevanceScore,
				Relevant: true,
				Reason:   reason,
			},
		})
	}
	return kept
}

func clampJudgeScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < minJudgeScore {
		return minJudgeScore
	}
	if rounded > maxJudgeScore {
		return maxJudgeScore
	}
	return rounded
}

// buildValidationPrompt lists the batch with 1-based indices for the judge.
func buildValidationPrompt(batch []types.ScoredItem, profile *types.RequirementProfile) string {
	entries := make([]string, 0, len(batch))
	for i := range batch {
		entries = append(entries, formatItemForValidation(&batch[i].Item, i))
	}

	return prompts.Render(prompts.RecommendFile, "validation_user", map[string]string{
		"LearningGoal": profile.LearningGoal,
		"TargetGroup":  orDefault(profile.TargetGroup, unspecifiedField),
		"JobLevel":     orDefault(profile.JobLevel, unspecifiedField),
		"SkillLevel":   orDefault(profile.SkillLevel, unspecifiedField),
		"Industry":     orDefault(profile.Industry, unspecifiedField),
		"ContentList":  strings.Join(entries, "\n"),
	})
}

func formatItemForValidation(item *types.CatalogItem, index int) string {
	return prompts.Render(prompts.RecommendFile, "validation_item", map[string]string{
		"Index":          strconv.Itoa(index + 1),
		"ID":             strconv.FormatInt(item.ID, 10),
		"Title":          item.Title,
		"Intro":          orDefault(item.Intro, notProvided),
		"Objective":      orDefault(item.Objective, notProvided),
		"TargetAudience": orDefault(item.TargetAudience, notProvided),
		"MajorCategory":  item.MajorCategory,
		"MiddleCategory": item.MiddleCategory,
	})
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
