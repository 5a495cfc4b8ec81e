package types

import "fmt"

// Stage identifies a pipeline stage.
type Stage string

// Pipeline stages.
const (
	StageIntent       Stage = "intent"
	StageHardFilter   Stage = "hard_filter"
	StageScoring      Stage = "scoring"
	StageValidation   Stage = "validation"
	StageGrounding    Stage = "grounding"
	StageVerification Stage = "verification"
	StageAssembly     Stage = "assembly"
	StageUnknown      Stage = "unknown"
)

// MaxNearMissCandidates caps RecommendationError.Candidates.
const MaxNearMissCandidates = 10

// RecommendationError is the structured failure returned by a pipeline run.
type RecommendationError struct {
	Stage                Stage         `json:"stage"`
	Message              string        `json:"message"`
	Suggestion           string        `json:"suggestion"`
	Alternatives         []string      `json:"alternatives,omitempty"`
	Candidates           []CatalogItem `json:"candidates,omitempty"`
	RequiresManualReview bool          `json:"requiresManualReview"`
	Cause                error         `json:"-"`
}

func (e *RecommendationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *RecommendationError) Unwrap() error {
	return e.Cause
}
