package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/types"
)

// parseFilters reads structured filters from query parameters
func parseFilters(values url.Values) (types.Filters, error) {
	f := types.Filters{
		LoanID:      values.Get("loan_id"),
		Customer:    values.Get("customer"),
		Status:      values.Get("status"),
		ProductName: values.Get("product_name"),
		ProductType: values.Get("product_type"),
		Servicer:    values.Get("servicer"),
		State:       values.Get("state"),
		Address:     values.Get("address"),
	}

	numbers := []struct {
		name string
		dest **float64
	}{
		{"min_amount", &f.MinAmount},
		{"max_amount", &f.MaxAmount},
		{"min_rate", &f.MinRate},
		{"max_rate", &f.MaxRate},
	}
	for _, n := range numbers {
		raw := strings.TrimSpace(values.Get(n.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("invalid %s %q", n.name, raw)
		}
		*n.dest = &v
	}

	dates := []struct {
		name string
		dest **types.Date
	}{
		{"originated_from", &f.OriginatedFrom},
		{"originated_to", &f.OriginatedTo},
	}
	for _, d := range dates {
		raw := strings.TrimSpace(values.Get(d.name))
		if raw == "" {
			continue
		}
		v, err := types.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dest = &v
	}

	return f, nil
}

// parseShaping reads sort, order and limit
func parseShaping(values url.Values) (types.SortField, types.SortOrder, int, error) {
	sortBy, ok := search.ParseSortField(values.Get("sort"))
	if !ok {
		return "", "", 0, fmt.Errorf("invalid sort %q", values.Get("sort"))
	}
	limit, err := parseLimit(values, 0)
	if err != nil {
		return "", "", 0, err
	}
	return sortBy, search.ParseSortOrder(values.Get("order")), limit, nil
}

// parseLimit reads a non-negative limit, returning def when absent
func parseLimit(values url.Values, def int) (int, error) {
	raw := strings.TrimSpace(values.Get("limit"))
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}
