package domain

import "time"

// ClassificationResult is the outcome of classifying one ticket. Results are
// immutable once produced; cached copies are returned as-is.
type ClassificationResult struct {
	Department     Department    `json:"department"`
	AssignedTeam   string        `json:"assigned_team"`
	Confidence     float64       `json:"confidence"`
	Reasoning      string        `json:"reasoning"`
	ProcessingTime time.Duration `json:"processing_time"`
	ModelVersion   string        `json:"model_version"`
}

// ClampConfidence forces a confidence score into [0, 1].
func ClampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
