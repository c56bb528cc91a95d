package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/lox/loan-record-search/internal/store"
	"github.com/lox/loan-record-search/internal/types"
)

// Related is a loan ranked by its similarity to a reference loan
type Related struct {
	Record     types.LoanRecord `json:"record"`
	Analytics  Analytics        `json:"analytics"`
	Similarity float64          `json:"similarity"`
}

// Similarity converts the Euclidean distance between two feature vectors into a score in
// (0, 1], where 1 means identical
func Similarity(a, b []float64) float64 {
	var sum float64
	for i := range min(len(a), len(b)) {
		d := a[i] - b[i]
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum))
}

// FindRelated ranks every other loan in snap by similarity to the loan with the given
// id and returns the k most similar. Loans sharing the reference id are skipped. Equal
// scores keep load order. A k of zero or less returns no loans.
func FindRelated(snap *store.Snapshot, loanID string, k int, asOf types.Date) ([]Related, error) {
	reference, err := snap.ByID(loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reference loan: %w", err)
	}
	if k <= 0 {
		return []Related{}, nil
	}
	refFeatures := Compute(reference, asOf).Features()

	related := make([]Related, 0, snap.Len())
	for i := range snap.Len() {
		r := snap.Record(i)
		if r.LoanID == reference.LoanID {
			continue
		}
		a := Compute(r, asOf)
		related = append(related, Related{
			Record:     r,
			Analytics:  a,
			Similarity: Similarity(refFeatures, a.Features()),
		})
	}

	slices.SortStableFunc(related, func(a, b Related) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if len(related) > k {
		related = related[:k]
	}
	return related, nil
}
