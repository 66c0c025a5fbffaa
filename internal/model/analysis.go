// SPDX-License-Identifier: MIT

package model

import "time"

// Verdict is the categorical outcome of a fraud evaluation.
type Verdict string

const (
	VerdictAllow  Verdict = "ALLOW"
	VerdictReview Verdict = "REVIEW"
	VerdictBlock  Verdict = "BLOCK"
)

// Verdict thresholds on the weight-normalized confidence score.
const (
	ReviewThreshold = 0.3
	BlockThreshold  = 0.7
)

// VerdictForScore maps a confidence score to its verdict.
// The mapping is total and deterministic.
func VerdictForScore(score float64) Verdict {
	switch {
	case score < ReviewThreshold:
		return VerdictAllow
	case score < BlockThreshold:
		return VerdictReview
	default:
		return VerdictBlock
	}
}

// RiskFactor is a named, weighted risk contribution emitted by a rule or
// by the ML scorer. Score and Weight are both in [0,1].
type RiskFactor struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// FraudAnalysis is the persisted outcome of evaluating one session.
type FraudAnalysis struct {
	SessionID       string       `json:"sessionId"`
	Verdict         Verdict      `json:"verdict"`
	ConfidenceScore float64      `json:"confidenceScore"`
	RiskFactors     []RiskFactor `json:"riskFactors"`
	ModelVersion    string       `json:"modelVersion"`
	EvaluatedAt     time.Time    `json:"evaluatedAt"`
}
