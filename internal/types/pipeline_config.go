package types

import (
	"fmt"
	"math"
)

// ScoreWeights are the hybrid score weights. They must sum to 1.0.
type ScoreWeights struct {
	KeywordMatch      float64 `koanf:"keyword_match" json:"keywordMatch" validate:"gte=0,lte=1"`
	VectorSimilarity  float64 `koanf:"vector_similarity" json:"vectorSimilarity" validate:"gte=0,lte=1"`
	CategoryRelevance float64 `koanf:"category_relevance" json:"categoryRelevance" validate:"gte=0,lte=1"`
	Recency           float64 `koanf:"recency" json:"recency" validate:"gte=0,lte=1"`
}

// Sum returns the total of all weights.
func (w ScoreWeights) Sum() float64 {
	return w.KeywordMatch + w.VectorSimilarity + w.CategoryRelevance + w.Recency
}

// WeightSumTolerance is the allowed deviation of ScoreWeights.Sum from 1.0.
const WeightSumTolerance = 1e-9

// Check returns an error when the weights do not sum to 1.0.
func (w ScoreWeights) Check() error {
	if math.Abs(w.Sum()-1.0) > WeightSumTolerance {
		return fmt.Errorf("score weights must sum to 1.0, got %.6f", w.Sum())
	}
	return nil
}

// PipelineConfig holds the tunable thresholds of the recommendation pipeline.
type PipelineConfig struct {
	Weights                ScoreWeights `koanf:"weights" json:"weights"`
	HybridScoreMin         float64      `koanf:"hybrid_score_min" json:"hybridScoreMin" validate:"gte=0,lte=1"`
	RelevanceScoreMin      int          `koanf:"relevance_score_min" json:"relevanceScoreMin" validate:"gte=1,lte=10"`
	CitationSimilarityMin  float64      `koanf:"citation_similarity_min" json:"citationSimilarityMin" validate:"gte=0,lte=1"`
	FallbackHybridMin      float64      `koanf:"fallback_hybrid_min" json:"fallbackHybridMin" validate:"gte=0,lte=1"`
	FallbackRelevanceScore int          `koanf:"fallback_relevance_score" json:"fallbackRelevanceScore" validate:"gte=1,lte=10"`
	MissingEmbeddingScore  float64      `koanf:"missing_embedding_score" json:"missingEmbeddingScore" validate:"gte=0,lte=1"`
	MissingYearScore       float64      `koanf:"missing_year_score" json:"missingYearScore" validate:"gte=0,lte=1"`
	ValidationBatchSize    int          `koanf:"validation_batch_size" json:"validationBatchSize" validate:"gte=1"`
	ReasoningBatchSize     int          `koanf:"reasoning_batch_size" json:"reasoningBatchSize" validate:"gte=1"`
	CandidateLimit         int          `koanf:"candidate_limit" json:"candidateLimit" validate:"gte=1"`
	NearMissLimit          int          `koanf:"near_miss_limit" json:"nearMissLimit" validate:"gte=0,lte=10"`
	MinCitationLength      int          `koanf:"min_citation_length" json:"minCitationLength" validate:"gte=0"`
	DefaultDomain          string       `koanf:"default_domain" json:"defaultDomain" validate:"required"`
	DefaultTargetLevel     string       `koanf:"default_target_level" json:"defaultTargetLevel" validate:"required"`
}

// DefaultPipelineConfig returns the stock thresholds.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Weights: ScoreWeights{
			KeywordMatch:      0.40,
			VectorSimilarity:  0.25,
			CategoryRelevance: 0.20,
			Recency:           0.15,
		},
		HybridScoreMin:         0.5,
		RelevanceScoreMin:      6,
		CitationSimilarityMin:  0.7,
		FallbackHybridMin:      0.6,
		FallbackRelevanceScore: 7,
		MissingEmbeddingScore:  0.3,
		MissingYearScore:       0.5,
		ValidationBatchSize:    10,
		ReasoningBatchSize:     5,
		CandidateLimit:         300,
		NearMissLimit:          MaxNearMissCandidates,
		MinCitationLength:      5,
		DefaultDomain:          "IT/개발",
		DefaultTargetLevel:     "중급",
	}
}
