package types

// Scores holds the hybrid score components, each in [0,1].
type Scores struct {
	KeywordMatch      float64 `json:"keywordMatch"`
	VectorSimilarity  float64 `json:"vectorSimilarity"`
	CategoryRelevance float64 `json:"categoryRelevance"`
	RecencyScore      float64 `json:"recencyScore"`
	Total             float64 `json:"total"`
}

// ScoredItem is a catalog item with its hybrid scores.
type ScoredItem struct {
	Item            CatalogItem `json:"item"`
	Scores          Scores      `json:"scores"`
	MatchedKeywords []string    `json:"matchedKeywords"`
}

// RelevanceJudgment is the validator's verdict on one item.
type RelevanceJudgment struct {
	ItemID   int64  `json:"itemId"`
	Score    int    `json:"relevanceScore"`
	Relevant bool   `json:"relevant"`
	Reason   string `json:"reason"`
}

// ValidatedItem is a scored item that survived relevance validation.
type ValidatedItem struct {
	Scored   ScoredItem        `json:"scored"`
	Judgment RelevanceJudgment `json:"judgment"`
}
