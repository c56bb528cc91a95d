package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/lox/loan-record-search/internal/analytics"
	"github.com/lox/loan-record-search/internal/types"
)

// PrintRecords writes one loan per block
func PrintRecords(w io.Writer, records []types.LoanRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "%s: %s - $%.2f\n", r.LoanID, r.CustomerName, r.LoanAmount)
		fmt.Fprintf(w, "  Status: %s\n", r.Status)
		fmt.Fprintf(w, "  Product: %s (%s)\n", r.ProductName, r.ProductType)
		fmt.Fprintf(w, "  Rate: %.3f%%  Balance: $%.2f  Payment: $%.2f\n", r.InterestRate, r.RemainingBalance, r.MonthlyPayment)
		fmt.Fprintf(w, "  Originated: %s  Matures: %s\n", r.OriginationDate, r.MaturityDate)
		if r.PropertyAddress != "" {
			fmt.Fprintf(w, "  Property: %s\n", r.PropertyAddress)
		}
		if r.ServicerName != "" {
			fmt.Fprintf(w, "  Servicer: %s\n", r.ServicerName)
		}
		fmt.Fprintln(w)
	}
}

// PrintResult writes a search result with its aggregations
func PrintResult(w io.Writer, result types.SearchResult) {
	if result.TotalMatches == 0 {
		fmt.Fprintln(w, "No loans found")
		return
	}

	fmt.Fprintf(w, "Found %d loans", result.TotalMatches)
	if len(result.Records) < result.TotalMatches {
		fmt.Fprintf(w, " (showing %d)", len(result.Records))
	}
	fmt.Fprintf(w, " in %s:\n\n", result.QueryTime)

	PrintRecords(w, result.Records)

	if len(result.Aggregations) > 0 {
		fmt.Fprintf(w, "Total Loan Amount:       $%.2f\n", result.Aggregations[types.AggTotalLoanAmount])
		fmt.Fprintf(w, "Total Remaining Balance: $%.2f\n", result.Aggregations[types.AggTotalRemainingBalance])
		fmt.Fprintf(w, "Average Interest Rate:   %.3f%%\n", result.Aggregations[types.AggAvgInterestRate])
		fmt.Fprintf(w, "Average Monthly Payment: $%.2f\n", result.Aggregations[types.AggAvgMonthlyPayment])
	}
}

// PrintAnalytics writes the derived metrics for one loan
func PrintAnalytics(w io.Writer, a analytics.Analytics) {
	fmt.Fprintf(w, "  Loan Age:       %d days\n", a.LoanAgeDays)
	fmt.Fprintf(w, "  Remaining Term: %d days\n", a.RemainingTermDays)
	fmt.Fprintf(w, "  Payment Ratio:  %.4f\n", a.PaymentRatio)
	fmt.Fprintf(w, "  Balance Ratio:  %.4f\n", a.BalanceRatio)
	fmt.Fprintf(w, "  Risk:           %.0f (%s)\n", a.RiskScore, a.RiskCategory)
}

// PrintSummary writes a portfolio summary
func PrintSummary(w io.Writer, s analytics.Summary) {
	fmt.Fprintf(w, "Total Loans:             %d\n", s.TotalLoans)
	fmt.Fprintf(w, "Total Loan Amount:       $%.2f\n", s.TotalLoanAmount)
	fmt.Fprintf(w, "Total Remaining Balance: $%.2f\n", s.TotalRemainingBalance)
	fmt.Fprintf(w, "Average Interest Rate:   %.3f%%\n", s.AverageInterestRate)
	fmt.Fprintf(w, "Average Risk Score:      %.1f\n", s.AverageRiskScore)

	printDistribution(w, "Status", s.StatusDistribution)
	printDistribution(w, "Product Type", s.ProductTypeDistribution)
	printDistribution(w, "Risk Category", s.RiskCategoryDistribution)
}

func printDistribution(w io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-30s %d\n", k, counts[k])
	}
}
