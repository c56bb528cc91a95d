package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/loan-record-search/internal/analytics"
	"github.com/lox/loan-record-search/internal/db"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `[
  {"loan_id":"LN001","customer_name":"John Smith","property_address":"1 Main St, Austin, TX","origination_date":"2021-01-01","maturity_date":"2051-01-01","loan_amount":350000,"remaining_balance":300000,"interest_rate":5.5,"monthly_payment":1900,"status":"Current","product_type":"Conventional"},
  {"loan_id":"LN002","customer_name":"Ann Lee","property_address":"2 Elm Rd, Denver, CO","origination_date":"2019-06-01","maturity_date":"2049-06-01","loan_amount":500000,"remaining_balance":450000,"interest_rate":7,"monthly_payment":3300,"status":"Default","product_type":"FHA"}
]`

func TestLoadConfigFlagOverrides(t *testing.T) {
	common := CommonConfig{LogLevel: "warn", DatabaseDriver: db.DriverPostgres, DatabaseDSN: "postgres://localhost/loans"}

	cfg, err := common.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, db.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/loans", cfg.Database.DSN)

	common.DatabaseDSN = ""
	_, err = common.LoadConfig()
	assert.ErrorContains(t, err, "database.dsn is required")
}

func TestSetupFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	c, err := Setup(context.Background(), CommonConfig{DataDir: t.TempDir(), LogLevel: "error"}, path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Store.Snapshot().Len())

	result := c.Engine.Search(types.SearchQuery{})
	assert.Equal(t, 2, result.TotalMatches)
}

func TestSetupFromDatabase(t *testing.T) {
	dataDir := t.TempDir()
	common := CommonConfig{DataDir: dataDir, LogLevel: "error"}

	cfg, err := common.LoadConfig()
	require.NoError(t, err)
	database, err := OpenDatabase(cfg, dataDir, common.Logger())
	require.NoError(t, err)

	record := types.LoanRecord{
		LoanID:          "LN009",
		CustomerName:    "Stored",
		OriginationDate: types.NewDate(2020, time.January, 1),
		MaturityDate:    types.NewDate(2050, time.January, 1),
		LoanAmount:      1000,
		Status:          "Current",
	}
	require.NoError(t, database.StoreLoans(context.Background(), []types.LoanRecord{record}))
	require.NoError(t, database.Close())

	c, err := Setup(context.Background(), common, "")
	require.NoError(t, err)

	got, err := c.Store.Snapshot().ByID("LN009")
	require.NoError(t, err)
	assert.Equal(t, "Stored", got.CustomerName)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	PrintResult(&buf, types.SearchResult{Aggregations: map[string]float64{}})
	assert.Equal(t, "No loans found\n", buf.String())

	buf.Reset()
	PrintResult(&buf, types.SearchResult{
		Records:      []types.LoanRecord{{LoanID: "LN001", CustomerName: "John Smith", LoanAmount: 1000}},
		TotalMatches: 3,
		Aggregations: map[string]float64{types.AggTotalLoanAmount: 1000},
	})
	assert.Contains(t, buf.String(), "Found 3 loans (showing 1)")
	assert.Contains(t, buf.String(), "LN001: John Smith - $1000.00")
	assert.Contains(t, buf.String(), "Total Loan Amount:       $1000.00")
}

func TestPrintSummarySortsDistributions(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, analytics.Summary{
		TotalLoans:         2,
		StatusDistribution: map[string]int{"Default": 1, "Current": 1},
	})
	out := buf.String()
	assert.Less(t, bytes.Index([]byte(out), []byte("Current")), bytes.Index([]byte(out), []byte("Default")))
}
