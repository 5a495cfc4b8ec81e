package types

import "strings"

// SearchIntent is the structured search query derived from a RequirementProfile.
type SearchIntent struct {
	PrimaryKeywords   []string `json:"primaryKeywords"`
	SecondaryKeywords []string `json:"secondaryKeywords"`
	Domain            string   `json:"domain"`
	TargetLevel       string   `json:"targetLevel"`
	ExclusionKeywords []string `json:"exclusionKeywords"`
	TechnicalStack    []string `json:"technicalStack"`
}

// Intent field caps.
const (
	MaxPrimaryKeywords   = 5
	MaxSecondaryKeywords = 10
	MaxExclusionKeywords = 10
	MaxTechnicalStack    = 5
)

// AllKeywords returns primary then secondary keywords, deduplicated
// case-insensitively with the first spelling kept.
func (s *SearchIntent) AllKeywords() []string {
	return DedupeFold(append(append([]string{}, s.PrimaryKeywords...), s.SecondaryKeywords...))
}

// DedupeFold trims entries, drops empties and removes case-insensitive duplicates.
func DedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
