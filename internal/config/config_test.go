package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "returned", cfg.Search.Aggregation)
	require.NotNil(t, cfg.Search.UseIndex)
	assert.True(t, *cfg.Search.UseIndex)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 500, cfg.Import.BatchSize)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, query.DefaultPolicy(), policy)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("LOAN_TEST_DSN", "postgres://loans@localhost/loans?sslmode=disable")

	path := writeConfig(t, `
search:
  aggregation: matched
  use_index: false
query:
  loan_id_match: exact
  customer_match: fuzzy
  fuzzy_threshold: 0.7
  default_limit: -1
  default_sort: rate
  default_order: asc
database:
  driver: postgres
  dsn: ${LOAN_TEST_DSN}
http:
  addr: ${LOAN_TEST_ADDR:-127.0.0.1:9090}
analytics:
  as_of: "2024-06-30"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://loans@localhost/loans?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.False(t, *cfg.Search.UseIndex)
	assert.Len(t, cfg.SearchOptions(), 2)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, query.LoanIDExact, policy.LoanIDMatch)
	assert.Equal(t, query.CustomerFuzzy, policy.CustomerMatch)
	assert.Equal(t, 0.7, policy.FuzzyThreshold)
	assert.Equal(t, 0, policy.DefaultLimit)
	assert.Equal(t, types.SortInterestRate, policy.DefaultSort)
	assert.Equal(t, types.Ascending, policy.DefaultOrder)

	assert.Equal(t, types.NewDate(2024, time.June, 30), cfg.AsOf(time.Now()))
}

func TestLoadExplicitZeroThreshold(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
query:
  customer_match: fuzzy
  fuzzy_threshold: 0
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Query.FuzzyThreshold)
	assert.Zero(t, *cfg.Query.FuzzyThreshold)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Zero(t, policy.FuzzyThreshold)

	_, err = Load(writeConfig(t, "query:\n  fuzzy_threshold: 1.5\n"))
	assert.ErrorContains(t, err, "fuzzy threshold")
}

func TestAsOfDefaultsToToday(t *testing.T) {
	cfg := Default()
	now := time.Date(2025, time.March, 4, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, types.NewDate(2025, time.March, 4), cfg.AsOf(now))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "bad_aggregation",
			mutate: func(c *Config) { c.Search.Aggregation = "sampled" },
			errMsg: `search.aggregation must be "returned" or "matched", got "sampled"`,
		},
		{
			name:   "bad_loan_id_match",
			mutate: func(c *Config) { c.Query.LoanIDMatch = "prefix" },
			errMsg: `query: unknown loan id match "prefix"`,
		},
		{
			name:   "bad_sort",
			mutate: func(c *Config) { c.Query.DefaultSort = "colour" },
			errMsg: `query: unknown default sort "colour"`,
		},
		{
			name:   "bad_driver",
			mutate: func(c *Config) { c.Database.Driver = "mysql" },
			errMsg: `database.driver must be "sqlite3" or "postgres", got "mysql"`,
		},
		{
			name:   "postgres_without_dsn",
			mutate: func(c *Config) { c.Database.Driver = "postgres" },
			errMsg: "database.dsn is required for postgres",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.errMsg, err.Error())
		})
	}

	cfg := Default()
	cfg.Analytics.AsOf = "30/06/2024"
	assert.ErrorContains(t, cfg.Validate(), "analytics.as_of")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "search: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "search:\n  aggregation: everything\n"))
	assert.ErrorContains(t, err, "invalid config")
}
