package search

import (
	"strings"

	"github.com/lox/loan-record-search/internal/fuzzy"
	"github.com/lox/loan-record-search/internal/types"
	"golang.org/x/exp/constraints"
)

// Matches reports whether record satisfies criterion. state is the state code extracted
// from the record's address ("" when it has none).
func Matches(record types.LoanRecord, state string, criterion types.Criterion) bool {
	switch c := criterion.(type) {
	case types.Exact:
		// lowercase both sides, as index keys are, so scans and index lookups agree
		v, ok := textValue(record, state, c.Field)
		return ok && strings.ToLower(v) == strings.ToLower(c.Value)

	case types.Substring:
		v, ok := textValue(record, state, c.Field)
		return ok && strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))

	case types.Fuzzy:
		v, ok := textValue(record, state, c.Field)
		return ok && fuzzy.Match(strings.ToLower(v), strings.ToLower(c.Value), c.Threshold)

	case types.NumericRange:
		v, ok := record.Number(c.Field)
		return ok && within(v, c.Min, c.Max)

	case types.DateRange:
		d, ok := record.DateValue(c.Field)
		if !ok {
			return false
		}
		if c.From != nil && d.Before(c.From.Time) {
			return false
		}
		if c.To != nil && d.After(c.To.Time) {
			return false
		}
		return true
	}

	return false
}

// textValue resolves a string field, including the derived state. A record without a
// state code has no state value.
func textValue(record types.LoanRecord, state string, field types.Field) (string, bool) {
	if field == types.FieldState {
		return state, state != ""
	}
	return record.Text(field)
}

// within checks inclusive bounds, treating nil bounds as unconstrained
func within[T constraints.Ordered](v T, min, max *T) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
