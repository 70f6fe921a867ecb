package recents

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil", input: nil, expected: []string{}},
		{name: "no duplicates", input: []string{"Milk", "Eggs"}, expected: []string{"Milk", "Eggs"}},
		{name: "keeps first occurrence", input: []string{"Milk", "Eggs", "Milk", "Bread", "Eggs"}, expected: []string{"Milk", "Eggs", "Bread"}},
		{name: "case sensitive", input: []string{"milk", "Milk"}, expected: []string{"milk", "Milk"}},
		{
			name:     "truncates to max",
			input:    []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n"},
			expected: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
		},
		{
			name:     "duplicates do not count toward cap",
			input:    []string{"a", "a", "b", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m"},
			expected: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitizeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		input := make([]string, rng.Intn(40))
		for i := range input {
			input[i] = fmt.Sprintf("item-%d", rng.Intn(20))
		}

		out := Sanitize(input)

		assert.LessOrEqual(t, len(out), MaxRecents)
		seen := map[string]bool{}
		for _, v := range out {
			assert.False(t, seen[v], "duplicate %q in %v", v, out)
			seen[v] = true
		}
		assert.Equal(t, out, Sanitize(out), "sanitize must be idempotent")

		// Relative order matches first occurrences in the input.
		pos := -1
		for _, v := range out {
			first := indexOf(input, v)
			assert.Greater(t, first, pos)
			pos = first
		}
	}
}

func TestPush(t *testing.T) {
	assert.Equal(t, []string{"Eggs", "Milk", "Bread"}, Push([]string{"Milk", "Eggs", "Bread"}, "Eggs"))
	assert.Equal(t, []string{"Tea"}, Push(nil, "Tea"))

	full := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	pushed := Push(full, "z")
	assert.Len(t, pushed, MaxRecents)
	assert.Equal(t, "z", pushed[0])
	assert.NotContains(t, pushed, "l")
}

func indexOf(items []string, v string) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}
