package search

import (
	"github.com/lox/loan-record-search/internal/types"
	"github.com/shopspring/decimal"
)

// AggregationPolicy selects which record set aggregates are computed over
type AggregationPolicy string

const (
	// AggregateReturned aggregates over the returned, possibly limited, records
	AggregateReturned AggregationPolicy = "returned"
	// AggregateMatched aggregates over every matching record, ignoring the limit
	AggregateMatched AggregationPolicy = "matched"
)

// Aggregate computes summary statistics over records. Sums are accumulated in decimal
// to keep money totals exact. An empty input yields an empty map.
func Aggregate(records []types.LoanRecord) map[string]float64 {
	aggregations := make(map[string]float64)
	if len(records) == 0 {
		return aggregations
	}

	var totalAmount, totalBalance, totalRate, totalPayment decimal.Decimal
	for _, r := range records {
		totalAmount = totalAmount.Add(decimal.NewFromFloat(r.LoanAmount))
		totalBalance = totalBalance.Add(decimal.NewFromFloat(r.RemainingBalance))
		totalRate = totalRate.Add(decimal.NewFromFloat(r.InterestRate))
		totalPayment = totalPayment.Add(decimal.NewFromFloat(r.MonthlyPayment))
	}
	count := decimal.NewFromInt(int64(len(records)))

	aggregations[types.AggTotalLoanAmount] = totalAmount.InexactFloat64()
	aggregations[types.AggTotalRemainingBalance] = totalBalance.InexactFloat64()
	aggregations[types.AggAvgInterestRate] = totalRate.Div(count).InexactFloat64()
	aggregations[types.AggAvgMonthlyPayment] = totalPayment.Div(count).InexactFloat64()
	aggregations[types.AggCount] = float64(len(records))

	return aggregations
}
