// Package fuzzy implements approximate string comparison based on Levenshtein edit distance.
package fuzzy

// Distance returns the Levenshtein edit distance between a and b, with unit cost for
// insertions, deletions and substitutions
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i, ca := range ra {
		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}
			matrix[i+1][j+1] = min(
				matrix[i][j+1]+1,
				matrix[i+1][j]+1,
				matrix[i][j]+cost,
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

// Similarity returns 1 - distance/max(len(a), len(b)), in [0, 1]. Two empty strings are
// identical.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Distance(a, b))/float64(maxLen)
}

// Match reports whether the similarity of a and b reaches threshold
func Match(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}
