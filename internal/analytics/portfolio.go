package analytics

import (
	"github.com/lox/loan-record-search/internal/types"
	"github.com/shopspring/decimal"
)

// Summary describes a set of loans
type Summary struct {
	TotalLoans               int            `json:"total_loans"`
	TotalLoanAmount          float64        `json:"total_loan_amount"`
	TotalRemainingBalance    float64        `json:"total_remaining_balance"`
	AverageInterestRate      float64        `json:"average_interest_rate"`
	AverageRiskScore         float64        `json:"average_risk_score"`
	StatusDistribution       map[string]int `json:"status_distribution"`
	ProductTypeDistribution  map[string]int `json:"product_type_distribution"`
	RiskCategoryDistribution map[string]int `json:"risk_category_distribution"`
}

// Summarize totals records and counts them by status, product type and risk category
// as of asOf. Averages are zero for an empty set.
func Summarize(records []types.LoanRecord, asOf types.Date) Summary {
	summary := Summary{
		TotalLoans:               len(records),
		StatusDistribution:       make(map[string]int),
		ProductTypeDistribution:  make(map[string]int),
		RiskCategoryDistribution: make(map[string]int),
	}

	var totalAmount, totalBalance, totalRate, totalRisk decimal.Decimal
	for _, r := range records {
		a := Compute(r, asOf)

		totalAmount = totalAmount.Add(decimal.NewFromFloat(r.LoanAmount))
		totalBalance = totalBalance.Add(decimal.NewFromFloat(r.RemainingBalance))
		totalRate = totalRate.Add(decimal.NewFromFloat(r.InterestRate))
		totalRisk = totalRisk.Add(decimal.NewFromFloat(a.RiskScore))

		summary.StatusDistribution[r.Status]++
		summary.ProductTypeDistribution[r.ProductType]++
		summary.RiskCategoryDistribution[a.RiskCategory]++
	}

	summary.TotalLoanAmount = totalAmount.InexactFloat64()
	summary.TotalRemainingBalance = totalBalance.InexactFloat64()
	if len(records) > 0 {
		count := decimal.NewFromInt(int64(len(records)))
		summary.AverageInterestRate = totalRate.Div(count).InexactFloat64()
		summary.AverageRiskScore = totalRisk.Div(count).InexactFloat64()
	}

	return summary
}
