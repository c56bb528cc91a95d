package query

import (
	"strings"

	"github.com/lox/loan-record-search/internal/store"
)

// MaxSuggestions caps the suggestions returned by Suggest
const MaxSuggestions = 5

// Suggest proposes structured searches for partial input: canned filters for a few
// common intents, then ids of loans containing the input once it is at least three
// characters long.
func Suggest(input string, snap *store.Snapshot) []string {
	lower := strings.ToLower(input)
	suggestions := []string{}

	if strings.Contains(lower, "default") || strings.Contains(lower, "delinquent") {
		suggestions = append(suggestions, "status:Default", "status:90+ Days Late")
	}
	if strings.Contains(lower, "high") && strings.Contains(lower, "amount") {
		suggestions = append(suggestions, "amount_range:1000000-5000000")
	}
	if strings.Contains(lower, "recent") {
		suggestions = append(suggestions, "origination_date:2023-01-01 to 2024-12-31")
	}

	if len(input) >= 3 {
		for i := 0; i < snap.Len() && len(suggestions) < MaxSuggestions; i++ {
			id := snap.Record(i).LoanID
			if strings.Contains(strings.ToLower(id), lower) {
				suggestions = append(suggestions, "loan_id:"+id)
			}
		}
	}

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}
