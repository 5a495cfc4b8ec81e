package types

import (
	"encoding/json"
	"time"
)

// PackageStatus is the lifecycle state of a persisted package.
type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusArchived PackageStatus = "archived"
)

// Package is the persisted curriculum package.
type Package struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	TargetCompany       string          `json:"targetCompany,omitempty"`
	TargetGroup         string          `json:"targetGroup,omitempty"`
	RequirementSnapshot json.RawMessage `json:"requirementSnapshot"`
	Status              PackageStatus   `json:"status"`
	Items               []PackageItem   `json:"items"`
	CreatedAt           time.Time       `json:"createdAt,omitempty"`
}

// PackageItem is one ordered entry of a package.
type PackageItem struct {
	ContentID int64  `json:"contentId"`
	Order     int    `json:"order"`
	Reason    string `json:"reason"`
	Score     int    `json:"score"`
}

// SelectedContent is a package entry as returned to the caller.
type SelectedContent struct {
	ContentID       int64    `json:"contentId"`
	Title           string   `json:"title"`
	Order           int      `json:"order"`
	Reason          string   `json:"reason"`
	Score           int      `json:"score"`
	RelevanceScore  int      `json:"relevanceScore"`
	MatchedKeywords []string `json:"matchedKeywords"`
	Verified        bool     `json:"verified"`
}

// Summary aggregates package totals.
type Summary struct {
	TotalFee           int64  `json:"totalFee"`
	TotalSessions      int    `json:"totalSessions"`
	EstimatedDuration  string `json:"estimatedDuration"`
	LatestContentRatio int    `json:"latestContentRatio"`
	TotalRecommended   int    `json:"totalRecommended"`
}

// LearningPath buckets content ids by difficulty.
type LearningPath struct {
	Foundation   []int64 `json:"foundation"`
	Intermediate []int64 `json:"intermediate"`
	Advanced     []int64 `json:"advanced"`
}

// PipelineMetrics records how many items survived each stage.
type PipelineMetrics struct {
	Stage1Keywords  int `json:"stage1Keywords"`
	Stage2Filtered  int `json:"stage2Filtered"`
	Stage3Scored    int `json:"stage3Scored"`
	Stage4Validated int `json:"stage4Validated"`
	Stage5Grounded  int `json:"stage5Grounded"`
	Stage6Verified  int `json:"stage6Verified"`
	Stage7Final     int `json:"stage7Final"`
}

// Result is the successful output of a pipeline run.
type Result struct {
	PackageID        int64             `json:"packageId"`
	PackageName      string            `json:"packageName"`
	Description      string            `json:"description"`
	SelectedContents []SelectedContent `json:"selectedContents"`
	Summary          Summary           `json:"summary"`
	LearningPath     LearningPath      `json:"learningPath"`
	Metrics          PipelineMetrics   `json:"metrics"`
	Degraded         bool              `json:"degraded"`
}
