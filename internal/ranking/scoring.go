// Package ranking scores hard-filtered catalog items and validates their relevance.
package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/jonathan/content-curator/internal/types"
)

// Recency decays linearly by this much per year of age.
const recencyDecayPerYear = 0.1

// Category relevance saturates at this many domain keyword hits.
const categoryHitsForFullScore = 3.0

// computeKeywordMatchScore returns the fraction of distinct keywords found in the
// item's title, intro, objective and major category, plus the matched keywords.
func computeKeywordMatchScore(item *types.CatalogItem, keywords []string) (float64, []string) {
	matched := make([]string, 0)
	if len(keywords) == 0 {
		return 0.0, matched
	}

	text := strings.ToLower(item.Title + " " + item.Intro + " " + item.Objective + " " + item.MajorCategory)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}

	return float64(len(matched)) / float64(len(keywords)), matched
}

// computeVectorSimilarityScore returns the cosine similarity clamped to [0,1],
// or missing when either vector is absent or the dimensions differ.
func computeVectorSimilarityScore(query, item []float32, missing float64) float64 {
	sim, ok := cosineSimilarity(query, item)
	if !ok {
		return missing
	}
	return clamp01(sim)
}

func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// computeCategoryRelevanceScore counts domain keywords present in the item's
// category hierarchy, saturating at three hits.
func computeCategoryRelevanceScore(item *types.CatalogItem, domain string) float64 {
	keywords := types.DomainKeywordsFor(domain)
	if len(keywords) == 0 {
		return 0.0
	}

	text := strings.ToLower(item.MajorCategory + " " + item.MiddleCategory + " " + item.MinorCategory)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			hits++
		}
	}
	return math.Min(float64(hits)/categoryHitsForFullScore, 1.0)
}

// computeRecencyScore scores the development year relative to now: the current
// year scores 1.0 and each year of age costs 0.1. Unparsable years score missing.
func computeRecencyScore(developmentYear string, now time.Time, missing float64) float64 {
	year, ok := ParseYear(developmentYear)
	if !ok {
		return missing
	}
	return clamp01(1.0 - recencyDecayPerYear*float64(now.Year()-year))
}

// ParseYear reads the leading digits of a development year such as "2023" or
// "2023년". It reports false when there are none.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	year, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if digits == 9 {
			break
		}
		year = year*10 + int(r-'0')
		digits++
	}
	return year, digits > 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
