package store

import (
	"regexp"
	"strings"

	"github.com/lox/loan-record-search/internal/types"
)

var stateRe = regexp.MustCompile(`\b([A-Z]{2})\b`)

// indexedFields are the fields with an equality index
var indexedFields = map[types.Field]bool{
	types.FieldStatus:       true,
	types.FieldProductName:  true,
	types.FieldProductType:  true,
	types.FieldServicerName: true,
	types.FieldState:        true,
}

// ExtractState returns the first standalone two-uppercase-letter token in an address,
// which is taken to be the state code
func ExtractState(address string) (string, bool) {
	m := stateRe.FindStringSubmatch(address)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// indexKey builds the composite bucket key for a field value
func indexKey(field types.Field, value string) string {
	return string(field) + ":" + strings.ToLower(value)
}

// buildIndex maps each indexed field value to the ascending positions holding it
func buildIndex(records []types.LoanRecord, states []string) map[string][]int {
	index := make(map[string][]int)
	add := func(field types.Field, value string, pos int) {
		key := indexKey(field, value)
		index[key] = append(index[key], pos)
	}

	for i, r := range records {
		add(types.FieldStatus, r.Status, i)
		add(types.FieldProductName, r.ProductName, i)
		add(types.FieldProductType, r.ProductType, i)
		add(types.FieldServicerName, r.ServicerName, i)
		if states[i] != "" {
			add(types.FieldState, states[i], i)
		}
	}

	return index
}
