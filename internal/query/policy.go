// Package query turns user input, free text or structured filters, into search queries.
package query

import (
	"fmt"

	"github.com/lox/loan-record-search/internal/types"
)

// LoanIDMatch selects how loan id filters compare
type LoanIDMatch string

const (
	LoanIDSubstring LoanIDMatch = "substring"
	LoanIDExact     LoanIDMatch = "exact"
)

// CustomerMatch selects how customer name filters compare
type CustomerMatch string

const (
	CustomerSubstring CustomerMatch = "substring"
	CustomerFuzzy     CustomerMatch = "fuzzy"
)

// Policy holds the matching choices applied when building criteria from user input
type Policy struct {
	LoanIDMatch    LoanIDMatch
	CustomerMatch  CustomerMatch
	FuzzyThreshold float64

	// Shaping applied to interpreted free-text queries
	DefaultLimit int
	DefaultSort  types.SortField
	DefaultOrder types.SortOrder
}

// DefaultPolicy returns substring matching for ids and customers, with interpreted
// queries limited to 100 records sorted by amount, largest first
func DefaultPolicy() Policy {
	return Policy{
		LoanIDMatch:    LoanIDSubstring,
		CustomerMatch:  CustomerSubstring,
		FuzzyThreshold: 0.8,
		DefaultLimit:   100,
		DefaultSort:    types.SortLoanAmount,
		DefaultOrder:   types.Descending,
	}
}

// Validate checks that the policy names known modes and a usable threshold
func (p Policy) Validate() error {
	switch p.LoanIDMatch {
	case LoanIDSubstring, LoanIDExact:
	default:
		return fmt.Errorf("unknown loan id match %q", p.LoanIDMatch)
	}
	switch p.CustomerMatch {
	case CustomerSubstring, CustomerFuzzy:
	default:
		return fmt.Errorf("unknown customer match %q", p.CustomerMatch)
	}
	if p.FuzzyThreshold < 0 || p.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold %v must be between 0 and 1", p.FuzzyThreshold)
	}
	if p.DefaultLimit < 0 {
		return fmt.Errorf("default limit %d must not be negative", p.DefaultLimit)
	}
	return nil
}

func (p Policy) loanIDCriterion(id string) types.Criterion {
	if p.LoanIDMatch == LoanIDExact {
		return types.Exact{Field: types.FieldLoanID, Value: id}
	}
	return types.Substring{Field: types.FieldLoanID, Value: id}
}

func (p Policy) customerCriterion(name string) types.Criterion {
	if p.CustomerMatch == CustomerFuzzy {
		return types.Fuzzy{Field: types.FieldCustomerName, Value: name, Threshold: p.FuzzyThreshold}
	}
	return types.Substring{Field: types.FieldCustomerName, Value: name}
}
