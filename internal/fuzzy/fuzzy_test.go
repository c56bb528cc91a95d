package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "kitten_sitting", a: "kitten", b: "sitting", want: 3},
		{name: "identical", a: "john doe", b: "john doe", want: 0},
		{name: "empty_left", a: "", b: "abc", want: 3},
		{name: "empty_right", a: "abc", b: "", want: 3},
		{name: "both_empty", a: "", b: "", want: 0},
		{name: "single_substitution", a: "smith", b: "smyth", want: 1},
		{name: "transposition_costs_two", a: "ab", b: "ba", want: 2},
		{name: "multibyte", a: "josé", b: "jose", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a), "distance must be symmetric")
		})
	}
}

func TestSimilarityKittenSitting(t *testing.T) {
	sim := Similarity("kitten", "sitting")
	assert.InDelta(t, 1-3.0/7.0, sim, 1e-9)
	assert.False(t, Match("kitten", "sitting", 0.8))
	assert.True(t, Match("kitten", "sitting", 0.5))
}

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "Jane Smith", "90+ Days Late"} {
		assert.Equal(t, 1.0, Similarity(s, s), "similarity(%q, %q)", s, s)
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"", "x"},
		{"abc", "xyz"},
		{"jane smith", "jane smyth"},
		{"a", "a very long customer name"},
	}
	for _, p := range pairs {
		sim := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, sim, 0.0)
		assert.LessOrEqual(t, sim, 1.0)
	}
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

func TestMatchThresholdIsInclusive(t *testing.T) {
	// "abcd" vs "abce": distance 1, similarity exactly 0.75
	assert.True(t, Match("abcd", "abce", 0.75))
	assert.False(t, Match("abcd", "abce", 0.76))
}
