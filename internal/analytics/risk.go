package analytics

import (
	"github.com/lox/loan-record-search/internal/types"
)

const baseRiskScore = 50.0

// Risk categories, from highest to lowest
const (
	HighRisk       = "High Risk"
	MediumHighRisk = "Medium-High Risk"
	MediumRisk     = "Medium Risk"
	LowMediumRisk  = "Low-Medium Risk"
	LowRisk        = "Low Risk"
)

// RiskScore applies the risk rules in order and clamps the result to [0, 100]. Rules are
// order sensitive: a "Default" status replaces everything accumulated before it.
func RiskScore(r types.LoanRecord, ageDays int, balanceRatio float64) float64 {
	score := baseRiskScore

	if r.InterestRate > 6 {
		score += (r.InterestRate - 6) * 10
	}

	if balanceRatio > 0.9 {
		score += 20
	} else if balanceRatio < 0.5 {
		score -= 10
	}

	if ageDays > 3*365 && balanceRatio > 0.8 {
		score += 15
	}

	switch r.Status {
	case "Current":
		score -= 10
	case "30 Days Late":
		score += 25
	case "60 Days Late":
		score += 50
	case "90+ Days Late":
		score += 75
	case "Default":
		score = 100
	}

	return min(max(score, 0), 100)
}

// RiskCategory buckets a risk score
func RiskCategory(score float64) string {
	switch {
	case score >= 80:
		return HighRisk
	case score >= 60:
		return MediumHighRisk
	case score >= 40:
		return MediumRisk
	case score >= 20:
		return LowMediumRisk
	default:
		return LowRisk
	}
}
