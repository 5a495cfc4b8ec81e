package types

// GroundedRecommendation is a generated reason with the quoted citations it makes.
type GroundedRecommendation struct {
	ItemID    int64    `json:"itemId"`
	Reason    string   `json:"reason"`
	Citations []string `json:"citations"`
}

// VerificationOutcome records whether a recommendation's claims are supported.
type VerificationOutcome struct {
	ItemID          int64    `json:"itemId"`
	Reason          string   `json:"reason"`
	Verified        bool     `json:"verified"`
	FailedCitations []string `json:"failedCitations,omitempty"`
}
