package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/content-curator/internal/types"
)

// Embedder produces the query embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingStore looks up stored item embeddings by catalog id.
type EmbeddingStore interface {
	GetEmbeddings(ctx context.Context, ids []int64) (map[int64][]float32, error)
}

// Scorer computes hybrid scores for hard-filtered items.
type Scorer struct {
	embedder Embedder
	store    EmbeddingStore
	cfg      types.PipelineConfig
	now      func() time.Time
}

// NewScorer creates a Scorer. store may be nil when items carry their own embeddings.
func NewScorer(embedder Embedder, store EmbeddingStore, cfg types.PipelineConfig) *Scorer {
	return &Scorer{embedder: embedder, store: store, cfg: cfg, now: time.Now}
}

// WithClock replaces the clock used for recency scoring.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score ranks items by weighted hybrid score, keeping those at or above the
// configured threshold. Ties are broken by ascending catalog id.
func (s *Scorer) Score(ctx context.Context, items []types.CatalogItem, intent *types.SearchIntent, profile *types.RequirementProfile) ([]types.ScoredItem, error) {
	if len(items) == 0 {
		return []types.ScoredItem{}, nil
	}
	if err := s.cfg.Weights.Check(); err != nil {
		return nil, err
	}

	keywords := intent.AllKeywords()
	query, err := s.embedQuery(ctx, keywords, profile)
	if err != nil {
		return nil, err
	}
	embeddings, err := s.lookupEmbeddings(ctx, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	w := s.cfg.Weights
	scored := make([]types.ScoredItem, 0, len(items))
	for i := range items {
		item := &items[i]

		keywordMatch, matched := computeKeywordMatchScore(item, keywords)
		vectorSimilarity := computeVectorSimilarityScore(query, embeddings[item.ID], s.cfg.MissingEmbeddingScore)
		categoryRelevance := computeCategoryRelevanceScore(item, intent.Domain)
		recency := computeRecencyScore(item.DevelopmentYear, now, s.cfg.MissingYearScore)

		total := (w.KeywordMatch * keywordMatch) +
			(w.VectorSimilarity * vectorSimilarity) +
			(w.CategoryRelevance * categoryRelevance) +
			(w.Recency * recency)

		if total < s.cfg.HybridScoreMin {
			continue
		}

		scored = append(scored, types.ScoredItem{
			Item: *item,
			Scores: types.Scores{
				KeywordMatch:      keywordMatch,
				VectorSimilarity:  vectorSimilarity,
				CategoryRelevance: categoryRelevance,
				RecencyScore:      recency,
				Total:             total,
			},
			MatchedKeywords: matched,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Scores.Total != scored[j].Scores.Total {
			return scored[i].Scores.Total > scored[j].Scores.Total
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	return scored, nil
}

// embedQuery embeds the keywords followed by the raw learning goal.
func (s *Scorer) embedQuery(ctx context.Context, keywords []string, profile *types.RequirementProfile) ([]float32, error) {
	if s.embedder == nil {
		return nil, nil
	}
	parts := append(append([]string{}, keywords...), profile.LearningGoal)
	query, err := s.embedder.Embed(ctx, strings.Join(parts, " "))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return query, nil
}

// lookupEmbeddings fetches stored embeddings in one batch, falling back to
// embeddings already attached to the items.
func (s *Scorer) lookupEmbeddings(ctx context.Context, items []types.CatalogItem) (map[int64][]float32, error) {
	out := make(map[int64][]float32, len(items))
	if s.store != nil {
		ids := make([]int64, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		stored, err := s.store.GetEmbeddings(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load embeddings: %w", err)
		}
		for id, vec := range stored {
			out[id] = vec
		}
	}
	for _, item := range items {
		if _, ok := out[item.ID]; !ok && len(item.Embedding) > 0 {
			out[item.ID] = item.Embedding
		}
	}
	return out, nil
}
