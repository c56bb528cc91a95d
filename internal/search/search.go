// Package search filters, sorts, limits and aggregates loan records held in a store.
package search

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/store"
	"github.com/lox/loan-record-search/internal/types"
)

type engineOptions struct {
	aggregation AggregationPolicy
	useIndex    bool
}

// Option configures an Engine
type Option func(*engineOptions)

// WithAggregation sets the aggregation policy (default AggregateReturned)
func WithAggregation(policy AggregationPolicy) Option {
	return func(opts *engineOptions) {
		opts.aggregation = policy
	}
}

// WithIndex enables or disables index lookups for equality criteria (default enabled)
func WithIndex(enabled bool) Option {
	return func(opts *engineOptions) {
		opts.useIndex = enabled
	}
}

// Engine runs searches against the current snapshot of a store. It holds no mutable
// state of its own and is safe for concurrent use.
type Engine struct {
	store  *store.Store
	logger *log.Logger
	opts   engineOptions
}

// New creates a search engine over s
func New(s *store.Store, logger *log.Logger, opts ...Option) *Engine {
	options := engineOptions{
		aggregation: AggregateReturned,
		useIndex:    true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{
		store:  s,
		logger: logger,
		opts:   options,
	}
}

// Search runs query against the store's current snapshot
func (e *Engine) Search(query types.SearchQuery) types.SearchResult {
	return e.SearchSnapshot(e.store.Snapshot(), query)
}

// SearchSnapshot runs query against a specific snapshot
func (e *Engine) SearchSnapshot(snap *store.Snapshot, query types.SearchQuery) types.SearchResult {
	startTime := time.Now()

	candidates := make([]int, snap.Len())
	for i := range candidates {
		candidates[i] = i
	}

	for _, criterion := range query.Criteria {
		if len(candidates) == 0 {
			break
		}
		candidates = e.narrow(snap, candidates, criterion)
	}

	records := make([]types.LoanRecord, len(candidates))
	for i, pos := range candidates {
		records[i] = snap.Record(pos)
	}

	if query.SortBy != types.SortNone {
		SortRecords(records, query.SortBy, query.Order)
	}

	matched := records
	totalMatches := len(records)
	if query.Limit > 0 && len(records) > query.Limit {
		records = records[:query.Limit]
	}

	aggregateOver := records
	if e.opts.aggregation == AggregateMatched {
		aggregateOver = matched
	}

	result := types.SearchResult{
		Records:      records,
		TotalMatches: totalMatches,
		Aggregations: Aggregate(aggregateOver),
		QueryTime:    time.Since(startTime),
	}

	e.logger.Debug("Search completed",
		"criteria", len(query.Criteria),
		"total_matches", result.TotalMatches,
		"returned", len(result.Records),
		"sort", query.SortBy,
		"limit", query.Limit,
		"duration", result.QueryTime)

	return result
}

// narrow keeps the candidates satisfying criterion, preserving their order
func (e *Engine) narrow(snap *store.Snapshot, candidates []int, criterion types.Criterion) []int {
	if exact, ok := criterion.(types.Exact); ok && e.opts.useIndex && snap.Indexed(exact.Field) {
		return intersect(candidates, snap.Lookup(exact.Field, exact.Value))
	}

	kept := candidates[:0:0]
	for _, pos := range candidates {
		if Matches(snap.Record(pos), snap.State(pos), criterion) {
			kept = append(kept, pos)
		}
	}
	return kept
}

// intersect merges two ascending position lists
func intersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// SortRecords stably sorts records by field. Equal keys keep their relative order in
// both directions.
func SortRecords(records []types.LoanRecord, field types.SortField, order types.SortOrder) {
	compare := comparator(field)
	if compare == nil {
		return
	}
	slices.SortStableFunc(records, func(a, b types.LoanRecord) int {
		if order == types.Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func comparator(field types.SortField) func(a, b types.LoanRecord) int {
	switch field {
	case types.SortLoanAmount:
		return func(a, b types.LoanRecord) int { return cmp.Compare(a.LoanAmount, b.LoanAmount) }
	case types.SortInterestRate:
		return func(a, b types.LoanRecord) int { return cmp.Compare(a.InterestRate, b.InterestRate) }
	case types.SortBalance:
		return func(a, b types.LoanRecord) int { return cmp.Compare(a.RemainingBalance, b.RemainingBalance) }
	case types.SortOriginationDate:
		return func(a, b types.LoanRecord) int { return a.OriginationDate.Compare(b.OriginationDate.Time) }
	case types.SortCustomerName:
		return func(a, b types.LoanRecord) int { return strings.Compare(a.CustomerName, b.CustomerName) }
	}
	return nil
}

// ParseSortField maps user input to a sort field. Unknown names report false.
func ParseSortField(s string) (types.SortField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return types.SortNone, true
	case "amount", "loan_amount":
		return types.SortLoanAmount, true
	case "rate", "interest_rate":
		return types.SortInterestRate, true
	case "origination_date", "date":
		return types.SortOriginationDate, true
	case "balance", "remaining_balance":
		return types.SortBalance, true
	case "customer_name", "customer", "name":
		return types.SortCustomerName, true
	}
	return types.SortNone, false
}

// ParseSortOrder maps user input to a sort order, defaulting to ascending
func ParseSortOrder(s string) types.SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return types.Descending
	}
	return types.Ascending
}
