// Package analytics derives per-loan metrics, a rule-based risk score and similarity
// rankings from loan records.
package analytics

import (
	"github.com/lox/loan-record-search/internal/types"
)

// Analytics are the derived metrics of one loan as of a given date
type Analytics struct {
	LoanAgeDays       int     `json:"loan_age_days"`
	RemainingTermDays int     `json:"remaining_term_days"`
	PaymentRatio      float64 `json:"payment_ratio"`
	BalanceRatio      float64 `json:"balance_ratio"`
	RiskScore         float64 `json:"risk_score"`
	RiskCategory      string  `json:"risk_category"`
}

// Compute derives the analytics of r as of asOf
func Compute(r types.LoanRecord, asOf types.Date) Analytics {
	a := Analytics{
		LoanAgeDays:       asOf.DaysSince(r.OriginationDate),
		RemainingTermDays: r.MaturityDate.DaysSince(asOf),
	}
	if r.LoanAmount != 0 {
		// annualised payment against the original principal
		a.PaymentRatio = r.MonthlyPayment / r.LoanAmount * 12
		a.BalanceRatio = r.RemainingBalance / r.LoanAmount
	}
	a.RiskScore = RiskScore(r, a.LoanAgeDays, a.BalanceRatio)
	a.RiskCategory = RiskCategory(a.RiskScore)
	return a
}

// Features is the vector used to compare loans: payment ratio, balance ratio, risk
// score scaled to [0,1] and age scaled by ten years
func (a Analytics) Features() []float64 {
	return []float64{
		a.PaymentRatio,
		a.BalanceRatio,
		a.RiskScore / 100,
		float64(a.LoanAgeDays) / 3650,
	}
}
