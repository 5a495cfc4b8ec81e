// Package embedding builds catalog embedding texts and regenerates stored vectors.
package embedding

import (
	"fmt"
	"strings"

	"github.com/jonathan/content-curator/internal/types"
)

const (
	// MaxTextRunes caps the text sent to the embedding model.
	MaxTextRunes = 8000

	curriculumEntries = 10
	emptyCurriculum   = "없음"
)

// BuildText renders the labelled text embedded for a catalog item.
func BuildText(item *types.CatalogItem) string {
	lines := []string{
		"과정명: " + item.Title,
		fmt.Sprintf("카테고리: %s > %s > %s", item.MajorCategory, item.MiddleCategory, item.MinorCategory),
	}

	if item.Intro != "" {
		lines = append(lines, "과정소개: "+item.Intro)
	}
	if item.Objective != "" {
		lines = append(lines, "학습목표: "+item.Objective)
	}
	if item.TargetAudience != "" {
		lines = append(lines, "학습대상: "+item.TargetAudience)
	}
	if curriculum := FormatCurriculum(item.Curriculum); curriculum != emptyCurriculum {
		lines = append(lines, "학습내용: "+curriculum)
	}
	if item.DetailContent != "" {
		lines = append(lines, "세부내용: "+item.DetailContent)
	}

	levels := make([]string, 0, 4)
	for _, l := range []string{item.Level0, item.Level1, item.Level2, item.Level3} {
		if l != "" {
			levels = append(levels, l)
		}
	}
	if len(levels) > 0 {
		lines = append(lines, "난이도: "+strings.Join(levels, " > "))
	}

	lines = append(lines,
		fmt.Sprintf("차시: %d차시", item.Sessions),
		fmt.Sprintf("교육비: %d원", item.Fee),
	)
	if item.DevelopmentYear != "" {
		lines = append(lines, "개발연도: "+item.DevelopmentYear)
	}

	return truncate(strings.Join(lines, "\n"), MaxTextRunes)
}

// FormatCurriculum joins the first ten entries with ", ", marking the cut
// with "...". An empty curriculum renders as "없음".
func FormatCurriculum(curriculum []string) string {
	if len(curriculum) == 0 {
		return emptyCurriculum
	}
	if len(curriculum) <= curriculumEntries {
		return strings.Join(curriculum, ", ")
	}
	return strings.Join(curriculum[:curriculumEntries], ", ") + "..."
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
