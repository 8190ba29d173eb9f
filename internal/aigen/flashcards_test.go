package aigen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlashcards(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		mode     string
		expected []Card
	}{
		{
			name:     "strict array",
			raw:      `[{"question":"What is H2O?","answer":"Water"},{"q":"2+2?","a":4}]`,
			mode:     ParseStrict,
			expected: []Card{{"What is H2O?", "Water"}, {"2+2?", "4"}},
		},
		{
			name:     "array wrapped in prose",
			raw:      "Here are your cards:\n[{\"question\":\"Capital of France?\",\"answer\":\"Paris\"}]\nGood luck!",
			mode:     ParseExtracted,
			expected: []Card{{"Capital of France?", "Paris"}},
		},
		{
			name:     "q and a lines",
			raw:      "Q: What is mitosis?\nA: Cell division.\n\nQ - Largest planet?\nA - Jupiter",
			mode:     ParseHeuristic,
			expected: []Card{{"What is mitosis?", "Cell division."}, {"Largest planet?", "Jupiter"}},
		},
		{
			name:     "dash and inline forms",
			raw:      "Photosynthesis - Converting light to energy\nQuestion: Who wrote Hamlet? Answer: Shakespeare",
			mode:     ParseHeuristic,
			expected: []Card{{"Photosynthesis", "Converting light to energy"}, {"Who wrote Hamlet?", "Shakespeare"}},
		},
		{
			name:     "blank pairs dropped",
			raw:      `[{"question":"  ","answer":"x"},{"question":"Kept?","answer":"Yes"},"junk"]`,
			mode:     ParseStrict,
			expected: []Card{{"Kept?", "Yes"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseFlashcards(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, result.ParseMode)
			assert.Equal(t, tc.mode != ParseStrict, result.Degraded())
			assert.Equal(t, tc.expected, result.Cards)
		})
	}
}

func TestParseFlashcardsFailures(t *testing.T) {
	_, err := ParseFlashcards("I cannot help with that.")
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseFlashcards(`[{"question":"","answer":""}]`)
	assert.ErrorIs(t, err, ErrNoValidPairs)
}
