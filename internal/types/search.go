package types

import "time"

// Criterion is one typed filter condition over a single field. The set of criteria is
// closed: Exact, Substring, NumericRange, DateRange and Fuzzy.
type Criterion interface {
	// Target returns the field the criterion tests
	Target() Field
	criterion()
}

// Exact matches when the field equals Value, ignoring ASCII case
type Exact struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Substring matches when the field contains Value, ignoring ASCII case
type Substring struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// NumericRange matches when Min <= field <= Max. A nil bound is unconstrained.
type NumericRange struct {
	Field Field    `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// DateRange matches when From <= field <= To at calendar-date granularity. A nil bound is
// unconstrained.
type DateRange struct {
	Field Field `json:"field"`
	From  *Date `json:"from,omitempty"`
	To    *Date `json:"to,omitempty"`
}

// Fuzzy matches when the edit-distance similarity between the field and Value is at least
// Threshold
type Fuzzy struct {
	Field     Field   `json:"field"`
	Value     string  `json:"value"`
	Threshold float64 `json:"threshold"`
}

func (c Exact) Target() Field        { return c.Field }
func (c Substring) Target() Field    { return c.Field }
func (c NumericRange) Target() Field { return c.Field }
func (c DateRange) Target() Field    { return c.Field }
func (c Fuzzy) Target() Field        { return c.Field }

func (Exact) criterion()        {}
func (Substring) criterion()    {}
func (NumericRange) criterion() {}
func (DateRange) criterion()    {}
func (Fuzzy) criterion()        {}

// Between builds a numeric range with both bounds set
func Between(field Field, min, max float64) NumericRange {
	return NumericRange{Field: field, Min: &min, Max: &max}
}

// SortField selects the key search results are ordered by
type SortField string

const (
	SortNone            SortField = ""
	SortLoanAmount      SortField = "amount"
	SortInterestRate    SortField = "rate"
	SortOriginationDate SortField = "origination_date"
	SortBalance         SortField = "balance"
	SortCustomerName    SortField = "customer_name"
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// SearchQuery is a conjunction of criteria plus result shaping
type SearchQuery struct {
	Criteria []Criterion
	// Limit caps the returned records; 0 means no limit
	Limit  int
	SortBy SortField
	Order  SortOrder
}

// Aggregation keys reported in SearchResult.Aggregations
const (
	AggTotalLoanAmount       = "total_loan_amount"
	AggTotalRemainingBalance = "total_remaining_balance"
	AggAvgInterestRate       = "avg_interest_rate"
	AggAvgMonthlyPayment     = "avg_monthly_payment"
	AggCount                 = "count"
)

// SearchResult is the outcome of a search
type SearchResult struct {
	Records []LoanRecord `json:"records"`
	// TotalMatches counts every matching record, before the limit is applied
	TotalMatches int `json:"total_matches"`
	// Aggregations is empty, never nil, when there is nothing to aggregate
	Aggregations map[string]float64 `json:"aggregations"`
	QueryTime    time.Duration      `json:"query_time"`
}
