package mcp

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/store"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoan(id, customer, status string, amount float64) types.LoanRecord {
	return types.LoanRecord{
		LoanID:           id,
		CustomerName:     customer,
		PropertyAddress:  "10 Main St, Austin, TX 78701",
		OriginationDate:  types.NewDate(2020, time.January, 1),
		MaturityDate:     types.NewDate(2050, time.January, 1),
		LoanAmount:       amount,
		RemainingBalance: amount / 2,
		InterestRate:     5,
		MonthlyPayment:   1500,
		Status:           status,
		ProductName:      "30 Year Fixed",
		ProductType:      "Conventional",
		ServicerName:     "Acme Servicing",
	}
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	logger := log.New(io.Discard)
	s := store.New(logger)
	require.NoError(t, s.Load([]types.LoanRecord{
		testLoan("LN001", "John Smith", "Current", 350000),
		testLoan("LN002", "Ann Lee", "Default", 900000),
		testLoan("LN003", "Jane Smith", "Current", 150000),
	}))

	asOf := types.NewDate(2025, time.January, 1)
	return New(s, search.New(s, logger), query.DefaultPolicy(), func() types.Date { return asOf }, logger)
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestSearchLoansHandler(t *testing.T) {
	s := setupTestServer(t)

	result, err := s.searchLoansHandler(context.Background(), callRequest(map[string]interface{}{
		"status": "current",
		"sort":   "amount",
		"order":  "desc",
		"limit":  float64(1),
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 loans (showing 1)")
	assert.Contains(t, text, "LN001: John Smith")
	assert.NotContains(t, text, "LN003")
	// aggregates cover the returned record
	assert.Contains(t, text, "Total Loan Amount: 350000.00")
}

func TestSearchLoansHandlerBadArguments(t *testing.T) {
	s := setupTestServer(t)

	_, err := s.searchLoansHandler(context.Background(), callRequest(map[string]interface{}{"sort": "colour"}))
	assert.Error(t, err)

	_, err = s.searchLoansHandler(context.Background(), callRequest(map[string]interface{}{"min_amount": "lots"}))
	assert.Error(t, err)
}

func TestAskLoansHandler(t *testing.T) {
	s := setupTestServer(t)

	result, err := s.askLoansHandler(context.Background(), callRequest(map[string]interface{}{
		"question": "default loans",
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Found 1 loans")
	assert.Contains(t, text, "LN002: Ann Lee")

	_, err = s.askLoansHandler(context.Background(), callRequest(map[string]interface{}{}))
	assert.Error(t, err)
}

func TestGetLoanHandler(t *testing.T) {
	s := setupTestServer(t)

	result, err := s.getLoanHandler(context.Background(), callRequest(map[string]interface{}{"loan_id": "LN002"}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "LN002: Ann Lee")
	assert.Contains(t, text, "Risk: 100 (High Risk)")

	result, err = s.getLoanHandler(context.Background(), callRequest(map[string]interface{}{"loan_id": "LN999"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSimilarLoansHandler(t *testing.T) {
	s := setupTestServer(t)

	result, err := s.similarLoansHandler(context.Background(), callRequest(map[string]interface{}{
		"loan_id": "LN001",
		"limit":   "1",
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Loans similar to LN001 (1)")
	assert.NotContains(t, text, "Loan ID: LN001")

	result, err = s.similarLoansHandler(context.Background(), callRequest(map[string]interface{}{"loan_id": "LN999"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestPortfolioSummaryHandler(t *testing.T) {
	s := setupTestServer(t)

	result, err := s.portfolioSummaryHandler(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Total Loans: 3")
	assert.Contains(t, text, "Total Loan Amount: 1400000.00")
	assert.Contains(t, text, "By Status")
}

func TestIntArgument(t *testing.T) {
	args := map[string]interface{}{"a": 3, "b": float64(4), "c": "5", "d": "x", "e": true}

	for name, want := range map[string]int{"a": 3, "b": 4, "c": 5, "missing": 7} {
		got, err := intArgument(args, name, 7)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := intArgument(args, "d", 0)
	assert.Error(t, err)
	_, err = intArgument(args, "e", 0)
	assert.Error(t, err)
}
