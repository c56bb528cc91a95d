package db

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	logger := log.New(io.Discard)
	logger.SetLevel(log.DebugLevel)

	db, err := New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func testLoan(id, customer, status string, amount float64) types.LoanRecord {
	return types.LoanRecord{
		LoanID:           id,
		CustomerName:     customer,
		PropertyAddress:  "10 Main St, Austin, TX 78701",
		OriginationDate:  types.NewDate(2021, time.June, 1),
		MaturityDate:     types.NewDate(2051, time.June, 1),
		LoanAmount:       amount,
		RemainingBalance: amount * 0.9,
		InterestRate:     5.5,
		MonthlyPayment:   amount / 300,
		Status:           status,
		ProductName:      "30 Year Fixed",
		ProductType:      "Conventional",
		SecurityName:     "SEC-A",
		ServicerName:     "Acme Servicing",
		CurrentStatus:    status,
	}
}

func seed(t *testing.T, db *DB) []types.LoanRecord {
	t.Helper()
	records := []types.LoanRecord{
		testLoan("LN003", "Jane Smith", "Default", 900000),
		testLoan("LN001", "John Smith", "Current", 350000),
		testLoan("LN002", "Ann Lee", "30 Days Late", 500000),
		testLoan("LN004", "Bob Stone", "current", 150000),
	}
	records[2].PropertyAddress = "5 Elm Rd, Denver, CO"
	records[2].ServicerName = "Big Bank"
	records[3].OriginationDate = types.NewDate(2023, time.March, 3)
	require.NoError(t, db.StoreLoans(context.Background(), records))
	return records
}

func ids(records []types.LoanRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.LoanID
	}
	return out
}

func TestStoreAndGetLoan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	records := seed(t, db)

	got, err := db.GetLoan(ctx, "LN002")
	require.NoError(t, err)
	assert.Equal(t, records[2], got)

	_, err = db.GetLoan(ctx, "LN999")
	assert.ErrorIs(t, err, types.ErrRecordNotFound)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestStoreLoansUpserts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seed(t, db)

	updated := testLoan("LN001", "John Smith", "Paid Off", 350000)
	require.NoError(t, db.StoreLoans(ctx, []types.LoanRecord{updated}))

	got, err := db.GetLoan(ctx, "LN001")
	require.NoError(t, err)
	assert.Equal(t, "Paid Off", got.Status)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAllLoansOrderedByID(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	all, err := db.AllLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"LN001", "LN002", "LN003", "LN004"}, ids(all))
}

func TestSearchLoans(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	minAmount := 300000.0
	maxAmount := 600000.0
	from := types.NewDate(2023, time.January, 1)

	tests := []struct {
		name    string
		filters types.Filters
		want    []string
	}{
		{name: "no_filters", want: []string{"LN001", "LN002", "LN003", "LN004"}},
		{name: "status_ignores_case", filters: types.Filters{Status: "CURRENT"}, want: []string{"LN001", "LN004"}},
		{name: "customer_contains", filters: types.Filters{Customer: "smith"}, want: []string{"LN001", "LN003"}},
		{name: "servicer_contains", filters: types.Filters{Servicer: "big"}, want: []string{"LN002"}},
		{name: "amount_range", filters: types.Filters{MinAmount: &minAmount, MaxAmount: &maxAmount}, want: []string{"LN001", "LN002"}},
		{name: "originated_from", filters: types.Filters{OriginatedFrom: &from}, want: []string{"LN004"}},
		{name: "state", filters: types.Filters{State: "co"}, want: []string{"LN002"}},
		{name: "conjunction", filters: types.Filters{Customer: "smith", Status: "default"}, want: []string{"LN003"}},
		{name: "no_match", filters: types.Filters{ProductType: "Jumbo"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := db.SearchLoans(context.Background(), tt.filters, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(records))
			assert.Equal(t, len(tt.want), total)
		})
	}
}

func TestSearchLoansWildcardsMatchLiterally(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records := []types.LoanRecord{
		testLoan("LN001", "John Smith", "Current", 350000),
		testLoan("LN002", "Ann_Lee", "Current", 500000),
		testLoan("LN003", "Rate 100% Fixed", "Current", 200000),
		testLoan("LN004", `Back\Slash`, "Current", 100000),
	}
	require.NoError(t, db.StoreLoans(ctx, records))

	tests := []struct {
		name     string
		customer string
		want     []string
	}{
		{name: "underscore", customer: "_", want: []string{"LN002"}},
		{name: "percent", customer: "%", want: []string{"LN003"}},
		{name: "backslash", customer: `\`, want: []string{"LN004"}},
		{name: "plain", customer: "smith", want: []string{"LN001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := db.SearchLoans(ctx, types.Filters{Customer: tt.customer}, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, len(tt.want), total)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\d`, escapeLike(`a_b%c\d`))
}

func TestSearchLoansPagination(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()

	page1, total, err := db.SearchLoans(ctx, types.Filters{}, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"LN001", "LN002", "LN003"}, ids(page1))

	page2, total, err := db.SearchLoans(ctx, types.Filters{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"LN004"}, ids(page2))

	unbounded, total, err := db.SearchLoans(ctx, types.Filters{}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"LN001", "LN002", "LN003", "LN004"}, ids(unbounded))
}

func TestStatistics(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	stats, err := db.Statistics(context.Background(), types.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalLoans)
	assert.InDelta(t, 1900000, stats.TotalLoanAmount, 1e-6)
	assert.InDelta(t, 1710000, stats.TotalRemainingBalance, 1e-6)
	assert.InDelta(t, 5.5, stats.AverageInterestRate, 1e-9)
	assert.Equal(t, map[string]int{"Default": 1, "Current": 1, "current": 1, "30 Days Late": 1}, stats.StatusDistribution)

	empty, err := db.Statistics(context.Background(), types.Filters{Status: "Foreclosed"})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalLoans)
	assert.Empty(t, empty.StatusDistribution)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard)

	first, err := New(dir, logger)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(dir, logger)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&applied))
	assert.Equal(t, len(migrations), applied)
}

func TestRebind(t *testing.T) {
	query := "SELECT * FROM loans WHERE a = ? AND b = ?"
	assert.Equal(t, query, sqliteDialect.rebind(query))
	assert.Equal(t, "SELECT * FROM loans WHERE a = $1 AND b = $2", postgresDialect.rebind(query))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", log.New(io.Discard))
	assert.Error(t, err)
}
