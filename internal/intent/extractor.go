// Package intent turns a requirement profile into a structured search intent.
package intent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/content-curator/internal/llm"
	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/metrics"
	"github.com/jonathan/content-curator/internal/prompts"
	"github.com/jonathan/content-curator/internal/schemas"
	"github.com/jonathan/content-curator/internal/types"
)

// Source tells where an intent came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

const (
	temperature    = 0.1
	unspecified    = "미지정"
	minTokenLength = 2
)

var tokenSeparator = regexp.MustCompile(`[\s,，、·]+`)

// Extractor derives a SearchIntent with one LLM call and a deterministic fallback.
type Extractor struct {
	client        llm.Client
	defaultDomain string
	defaultLevel  string
}

// NewExtractor creates an Extractor using the configured default domain and level.
func NewExtractor(client llm.Client, cfg types.PipelineConfig) *Extractor {
	return &Extractor{
		client:        client,
		defaultDomain: cfg.DefaultDomain,
		defaultLevel:  cfg.DefaultTargetLevel,
	}
}

// Extract never fails: any LLM, parse or schema problem yields the fallback intent.
func (e *Extractor) Extract(ctx context.Context, profile *types.RequirementProfile) (*types.SearchIntent, Source) {
	if profile == nil {
		profile = &types.RequirementProfile{}
	}

	if e.client != nil {
		intent, err := e.extractWithLLM(ctx, profile)
		if err == nil {
			return intent, SourceLLM
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("intent extraction failed, using keyword fallback")
	}

	metrics.RecordFallback(string(types.StageIntent))
	return Fallback(profile, e.defaultDomain, e.defaultLevel), SourceFallback
}

func (e *Extractor) extractWithLLM(ctx context.Context, profile *types.RequirementProfile) (*types.SearchIntent, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet(prompts.RecommendFile, "intent_system")},
		{Role: llm.RoleUser, Content: buildIntentPrompt(profile)},
	}

	response, err := e.client.Complete(ctx, messages, llm.CompletionOptions{
		Tier:        llm.TierLite,
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	intent, err := parseIntent(response)
	if err != nil {
		return nil, err
	}
	e.normalize(intent, profile)
	return intent, nil
}

func buildIntentPrompt(profile *types.RequirementProfile) string {
	table := types.DomainTable()
	domains := make([]string, 0, len(table))
	for _, d := range table {
		domains = append(domains, d.Domain)
	}

	return prompts.Render(prompts.RecommendFile, "intent_user", map[string]string{
		"LearningGoal": profile.LearningGoal,
		"Industry":     orDefault(profile.Industry, unspecified),
		"TargetGroup":  orDefault(profile.TargetGroup, unspecified),
		"JobLevel":     orDefault(profile.JobLevel, unspecified),
		"SkillLevel":   orDefault(profile.SkillLevel, unspecified),
		"Domains":      strings.Join(domains, ", "),
	})
}

// parseIntent extracts the first balanced object and checks it against the intent schema.
func parseIntent(response string) (*types.SearchIntent, error) {
	block := llm.ExtractJSONObject(response)
	if block == "" {
		return nil, &ParseError{Message: "no JSON object in response"}
	}
	if err := schemas.ValidateDocument(schemas.SearchIntent, []byte(block)); err != nil {
		return nil, &ParseError{Message: "intent does not match schema", Cause: err}
	}

	var intent types.SearchIntent
	if err := json.Unmarshal([]byte(block), &intent); err != nil {
		return nil, &ParseError{Message: "failed to parse intent JSON", Cause: err}
	}
	return &intent, nil
}

func (e *Extractor) normalize(intent *types.SearchIntent, profile *types.RequirementProfile) {
	intent.PrimaryKeywords = capList(types.DedupeFold(intent.PrimaryKeywords), types.MaxPrimaryKeywords)
	intent.SecondaryKeywords = capList(types.DedupeFold(intent.SecondaryKeywords), types.MaxSecondaryKeywords)
	intent.ExclusionKeywords = capList(types.DedupeFold(intent.ExclusionKeywords), types.MaxExclusionKeywords)
	intent.TechnicalStack = capList(types.DedupeFold(intent.TechnicalStack), types.MaxTechnicalStack)

	intent.Domain = strings.TrimSpace(intent.Domain)
	if !types.IsKnownDomain(intent.Domain) {
		intent.Domain = types.DetectDomain(profile.LearningGoal+" "+profile.Industry, e.defaultDomain)
	}

	intent.TargetLevel = strings.TrimSpace(intent.TargetLevel)
	if intent.TargetLevel == "" {
		intent.TargetLevel = orDefault(profile.SkillLevel, e.defaultLevel)
	}
}

// Fallback builds an intent from the learning goal alone: tokens of at least
// two runes become primary keywords and the domain comes from the keyword table.
func Fallback(profile *types.RequirementProfile, defaultDomain, defaultLevel string) *types.SearchIntent {
	primary := make([]string, 0, types.MaxPrimaryKeywords)
	for _, token := range tokenSeparator.Split(profile.LearningGoal, -1) {
		if utf8.RuneCountInString(token) < minTokenLength {
			continue
		}
		primary = append(primary, token)
		if len(primary) == types.MaxPrimaryKeywords {
			break
		}
	}

	return &types.SearchIntent{
		PrimaryKeywords:   primary,
		SecondaryKeywords: []string{},
		Domain:            types.DetectDomain(profile.LearningGoal+" "+profile.Industry, defaultDomain),
		TargetLevel:       orDefault(profile.SkillLevel, defaultLevel),
		ExclusionKeywords: []string{},
		TechnicalStack:    []string{},
	}
}

func capList(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
