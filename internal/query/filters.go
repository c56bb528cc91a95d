package query

import (
	"strings"

	"github.com/lox/loan-record-search/internal/types"
)

// FromFilters builds the criteria for a set of structured filters. Status, product type
// and state compare exactly; product name, servicer and address by substring.
func FromFilters(f types.Filters, policy Policy) []types.Criterion {
	var criteria []types.Criterion

	if v := strings.TrimSpace(f.LoanID); v != "" {
		criteria = append(criteria, policy.loanIDCriterion(v))
	}
	if v := strings.TrimSpace(f.Customer); v != "" {
		criteria = append(criteria, policy.customerCriterion(v))
	}

	exact := []struct {
		field types.Field
		value string
	}{
		{types.FieldStatus, f.Status},
		{types.FieldProductType, f.ProductType},
		{types.FieldState, f.State},
	}
	for _, e := range exact {
		if v := strings.TrimSpace(e.value); v != "" {
			criteria = append(criteria, types.Exact{Field: e.field, Value: v})
		}
	}

	substring := []struct {
		field types.Field
		value string
	}{
		{types.FieldProductName, f.ProductName},
		{types.FieldServicerName, f.Servicer},
		{types.FieldPropertyAddress, f.Address},
	}
	for _, s := range substring {
		if v := strings.TrimSpace(s.value); v != "" {
			criteria = append(criteria, types.Substring{Field: s.field, Value: v})
		}
	}

	if f.MinAmount != nil || f.MaxAmount != nil {
		criteria = append(criteria, types.NumericRange{Field: types.FieldLoanAmount, Min: f.MinAmount, Max: f.MaxAmount})
	}
	if f.MinRate != nil || f.MaxRate != nil {
		criteria = append(criteria, types.NumericRange{Field: types.FieldInterestRate, Min: f.MinRate, Max: f.MaxRate})
	}
	if f.OriginatedFrom != nil || f.OriginatedTo != nil {
		criteria = append(criteria, types.DateRange{Field: types.FieldOriginationDate, From: f.OriginatedFrom, To: f.OriginatedTo})
	}

	return criteria
}
