package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/types"
)

var (
	amountRangeRe = regexp.MustCompile(`amount.*?(\d[\d,]*).*?to.*?(\d[\d,]*)`)
	loanTokenRe   = regexp.MustCompile(`\bloan\s+(\w+)`)
	customerRe    = regexp.MustCompile(`\bcustomer\s+(\S+)`)
	currentRe     = regexp.MustCompile(`\bcurrent\b(\s+status\b)?`)
	digitRe       = regexp.MustCompile(`\d`)
)

// keyword maps a whole word in the query to a criterion value
type keyword struct {
	re    *regexp.Regexp
	value string
}

func wordRe(word string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
}

// status keywords in priority order; "current" is handled separately
var statusKeywords = []keyword{
	{wordRe("active"), "Active"},
	{wordRe("default"), "Default"},
	{wordRe("paid"), "Paid Off"},
}

var productKeywords = []keyword{
	{wordRe("fha"), "FHA"},
	{wordRe("va"), "VA"},
	{wordRe("jumbo"), "Jumbo"},
}

// Interpreter maps free text onto search queries using a fixed list of keyword and
// pattern heuristics. It never fails: text it does not understand adds no criteria.
type Interpreter struct {
	policy Policy
	logger *log.Logger
}

// NewInterpreter creates an interpreter applying policy to the criteria it builds
func NewInterpreter(policy Policy, logger *log.Logger) *Interpreter {
	return &Interpreter{policy: policy, logger: logger}
}

// Interpret builds a query from text. Each heuristic contributes at most one criterion.
func (i *Interpreter) Interpret(text string) types.SearchQuery {
	lower := strings.ToLower(text)

	var criteria []types.Criterion
	for _, extract := range []func(string) (types.Criterion, bool){
		extractAmountRange,
		extractStatus,
		extractProduct,
		i.extractLoanID,
		i.extractCustomer,
	} {
		if c, ok := extract(lower); ok {
			criteria = append(criteria, c)
		}
	}

	i.logger.Debug("Interpreted query", "text", text, "criteria", len(criteria))

	return types.SearchQuery{
		Criteria: criteria,
		Limit:    i.policy.DefaultLimit,
		SortBy:   i.policy.DefaultSort,
		Order:    i.policy.DefaultOrder,
	}
}

func extractAmountRange(text string) (types.Criterion, bool) {
	m := amountRangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	min, err := parseAmount(m[1])
	if err != nil {
		return nil, false
	}
	max, err := parseAmount(m[2])
	if err != nil {
		return nil, false
	}
	return types.Between(types.FieldLoanAmount, min, max), true
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func extractStatus(text string) (types.Criterion, bool) {
	for _, kw := range statusKeywords {
		if kw.re.MatchString(text) {
			return types.Exact{Field: types.FieldStatus, Value: kw.value}, true
		}
	}
	// "current status" talks about the status column rather than asking for current loans
	for _, m := range currentRe.FindAllStringSubmatchIndex(text, -1) {
		if m[2] < 0 {
			return types.Exact{Field: types.FieldStatus, Value: "Current"}, true
		}
	}
	return nil, false
}

func extractProduct(text string) (types.Criterion, bool) {
	for _, kw := range productKeywords {
		if kw.re.MatchString(text) {
			return types.Substring{Field: types.FieldProductName, Value: kw.value}, true
		}
	}
	return nil, false
}

func (i *Interpreter) extractLoanID(text string) (types.Criterion, bool) {
	for _, m := range loanTokenRe.FindAllStringSubmatch(text, -1) {
		if digitRe.MatchString(m[1]) {
			return i.policy.loanIDCriterion(strings.ToUpper(m[1])), true
		}
	}
	return nil, false
}

func (i *Interpreter) extractCustomer(text string) (types.Criterion, bool) {
	m := customerRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return i.policy.customerCriterion(m[1]), true
}
