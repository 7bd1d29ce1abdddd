// Package advisor implements the AI Advisor: a consultative, non-authoritative
// recommender that enriches the observability log but never changes a
// pipeline outcome.
package advisor

import "context"

var allowedActions = map[string]bool{
	"dry_run": true, "block": true, "review": true, "proceed": true,
}

var allowedRiskLevels = map[string]bool{
	"low": true, "medium": true, "high": true,
}

// RiskAssessment is the normalized risk portion of a Recommendation.
type RiskAssessment struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// Recommendation is the normalized shape every provider's raw output is
// coerced into before it is logged.
type Recommendation struct {
	SuggestedAction string         `json:"suggested_action"`
	RiskAssessment  RiskAssessment `json:"risk_assessment"`
	Confidence      float64        `json:"confidence"`
	Explanation     string         `json:"explanation"`
	Provider        string         `json:"provider"`
	Model           string         `json:"model"`
	Timestamp       string         `json:"timestamp"`
}

// RawRecommendation is a provider's unnormalized response. Any field may be
// absent or of an unexpected type; normalize() is responsible for coercing
// it into a Recommendation.
type RawRecommendation struct {
	SuggestedAction string                 `json:"suggested_action"`
	RiskAssessment  map[string]interface{} `json:"risk_assessment"`
	Confidence      interface{}            `json:"confidence"`
	Explanation     string                 `json:"explanation"`
}

// Provider abstracts a single upstream recommender. A Provider with name
// "none" is never invoked by Analyze.
type Provider interface {
	Name() string
	Model() string
	Recommend(ctx context.Context, plan, adviceContext map[string]interface{}) (*RawRecommendation, error)
}
