// Package verification checks that recommendation reasons only claim what the
// catalog item itself says.
package verification

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/content-curator/internal/types"
)

// ContentNotFound is recorded when a recommendation names an unknown item.
const ContentNotFound = "콘텐츠를 찾을 수 없음"

// Verify checks each recommendation's citations and technology mentions against
// its item's corpus. It makes no external calls.
func Verify(recs []types.GroundedRecommendation, scoredByID map[int64]types.ScoredItem, cfg types.PipelineConfig) []types.VerificationOutcome {
	techTerms := types.TechKeywords()

	outcomes := make([]types.VerificationOutcome, 0, len(recs))
	for _, rec := range recs {
		scored, ok := scoredByID[rec.ItemID]
		if !ok {
			outcomes = append(outcomes, types.VerificationOutcome{
				ItemID:          rec.ItemID,
				Reason:          rec.Reason,
				Verified:        false,
				FailedCitations: []string{ContentNotFound},
			})
			continue
		}

		corpus := Corpus(&scored.Item)
		failed := make([]string, 0)

		for _, citation := range rec.Citations {
			if utf8.RuneCountInString(citation) <= cfg.MinCitationLength {
				continue
			}
			lowered := strings.ToLower(citation)
			if strings.Contains(corpus, lowered) {
				continue
			}
			if JaccardSimilarity(lowered, corpus) < cfg.CitationSimilarityMin {
				failed = append(failed, citation)
			}
		}

		reason := strings.ToLower(rec.Reason)
		for _, term := range techTerms {
			lowered := strings.ToLower(term)
			if strings.Contains(reason, lowered) && !strings.Contains(corpus, lowered) {
				failed = append(failed, fmt.Sprintf("%s가 추천 이유에 있지만 콘텐츠에 없음", term))
			}
		}

		outcomes = append(outcomes, types.VerificationOutcome{
			ItemID:          rec.ItemID,
			Reason:          rec.Reason,
			Verified:        len(failed) == 0,
			FailedCitations: failed,
		})
	}
	return outcomes
}

// Corpus is the lowercased verifiable text of an item: title, intro, objective,
// target audience and the full curriculum.
func Corpus(item *types.CatalogItem) string {
	parts := make([]string, 0, 4+len(item.Curriculum))
	for _, p := range []string{item.Title, item.Intro, item.Objective, item.TargetAudience} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(item.Curriculum) > 0 {
		parts = append(parts, strings.Join(item.Curriculum, ", "))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// JaccardSimilarity compares the whitespace token sets of a and b.
func JaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
