// Package config loads the optional YAML settings file shared by the binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lox/loan-record-search/internal/db"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/types"
	"gopkg.in/yaml.v3"
)

// Config holds the loan search configuration
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Query     QueryConfig     `yaml:"query"`
	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Import    ImportConfig    `yaml:"import"`
}

// SearchConfig holds search engine settings.
type SearchConfig struct {
	Aggregation string `yaml:"aggregation"` // returned (default) or matched
	UseIndex    *bool  `yaml:"use_index"`
}

// QueryConfig holds the matching policy for user input.
type QueryConfig struct {
	LoanIDMatch    string  `yaml:"loan_id_match"`  // substring (default) or exact
	CustomerMatch  string  `yaml:"customer_match"` // substring (default) or fuzzy
	FuzzyThreshold *float64 `yaml:"fuzzy_threshold"`
	DefaultLimit   int     `yaml:"default_limit"` // -1 for no limit
	DefaultSort    string  `yaml:"default_sort"`
	DefaultOrder   string  `yaml:"default_order"`
}

// DatabaseConfig holds the persistent store connection. An empty DSN means the SQLite
// file in the data directory.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 (default) or postgres
	DSN    string `yaml:"dsn"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
}

// AnalyticsConfig holds analytics settings.
type AnalyticsConfig struct {
	AsOf string `yaml:"as_of"` // YYYY-MM-DD; empty means today
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	BatchSize     int `yaml:"batch_size"`
	RetryAttempts int `yaml:"retry_attempts"`
	Concurrency   int `yaml:"concurrency"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Search.Aggregation == "" {
		c.Search.Aggregation = string(search.AggregateReturned)
	}
	if c.Search.UseIndex == nil {
		enabled := true
		c.Search.UseIndex = &enabled
	}

	policy := query.DefaultPolicy()
	if c.Query.LoanIDMatch == "" {
		c.Query.LoanIDMatch = string(policy.LoanIDMatch)
	}
	if c.Query.CustomerMatch == "" {
		c.Query.CustomerMatch = string(policy.CustomerMatch)
	}
	if c.Query.FuzzyThreshold == nil {
		threshold := policy.FuzzyThreshold
		c.Query.FuzzyThreshold = &threshold
	}
	if c.Query.DefaultLimit == 0 {
		c.Query.DefaultLimit = policy.DefaultLimit
	}
	if c.Query.DefaultSort == "" {
		c.Query.DefaultSort = string(policy.DefaultSort)
	}
	if c.Query.DefaultOrder == "" {
		c.Query.DefaultOrder = string(policy.DefaultOrder)
	}

	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverSQLite
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = 500
	}
	if c.Import.RetryAttempts <= 0 {
		c.Import.RetryAttempts = 3
	}
	if c.Import.Concurrency <= 0 {
		c.Import.Concurrency = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch search.AggregationPolicy(c.Search.Aggregation) {
	case search.AggregateReturned, search.AggregateMatched:
	default:
		return fmt.Errorf("search.aggregation must be \"returned\" or \"matched\", got %q", c.Search.Aggregation)
	}

	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("query: %w", err)
	}

	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", db.DriverSQLite, db.DriverPostgres, c.Database.Driver)
	}
	if c.Database.Driver == db.DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}

	if c.Analytics.AsOf != "" {
		if _, err := types.ParseDate(c.Analytics.AsOf); err != nil {
			return fmt.Errorf("analytics.as_of: %w", err)
		}
	}

	return nil
}

// Policy returns the query matching policy
func (c *Config) Policy() (query.Policy, error) {
	sortField, ok := search.ParseSortField(c.Query.DefaultSort)
	if !ok {
		return query.Policy{}, fmt.Errorf("unknown default sort %q", c.Query.DefaultSort)
	}

	limit := c.Query.DefaultLimit
	if limit < 0 {
		limit = 0
	}

	threshold := query.DefaultPolicy().FuzzyThreshold
	if c.Query.FuzzyThreshold != nil {
		threshold = *c.Query.FuzzyThreshold
	}

	policy := query.Policy{
		LoanIDMatch:    query.LoanIDMatch(strings.ToLower(c.Query.LoanIDMatch)),
		CustomerMatch:  query.CustomerMatch(strings.ToLower(c.Query.CustomerMatch)),
		FuzzyThreshold: threshold,
		DefaultLimit:   limit,
		DefaultSort:    sortField,
		DefaultOrder:   search.ParseSortOrder(c.Query.DefaultOrder),
	}
	if err := policy.Validate(); err != nil {
		return query.Policy{}, err
	}
	return policy, nil
}

// SearchOptions returns the engine options for the search settings
func (c *Config) SearchOptions() []search.Option {
	useIndex := c.Search.UseIndex == nil || *c.Search.UseIndex
	return []search.Option{
		search.WithAggregation(search.AggregationPolicy(c.Search.Aggregation)),
		search.WithIndex(useIndex),
	}
}

// AsOf returns the date analytics are computed relative to
func (c *Config) AsOf(now time.Time) types.Date {
	if c.Analytics.AsOf != "" {
		if d, err := types.ParseDate(c.Analytics.AsOf); err == nil {
			return d
		}
	}
	return types.DateOf(now)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
