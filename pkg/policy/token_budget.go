// Package policy holds the pure scoring functions of the pipeline: the
// trust-driven token budget and the confidence heuristic.
package policy

// DefaultTrustScore applies when moderation returned no score.
const DefaultTrustScore = 0.5

// Completion-size ceilings by trust band.
const (
	lowTrustBudget    = 500
	mediumTrustBudget = 1000
	highTrustBudget   = 2000
)

// BudgetFor maps a trust score to the maximum completion size passed to
// generation. It is a ceiling, not a request for that many tokens.
func BudgetFor(trustScore float64) int {
	switch {
	case trustScore < 0.3:
		return lowTrustBudget
	case trustScore < 0.6:
		return mediumTrustBudget
	default:
		return highTrustBudget
	}
}
