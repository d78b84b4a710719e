package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finchat/errors"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g. "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Leet speak substitutions",
			input:    "watch the b4dg3r go",
			expected: "watch the ****** go",
		},
		{
			name:     "Uppercase and internal punctuation",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
		},
		{
			name:     "Nothing to censor",
			input:    "Stock quotes are amazing",
			expected: "Stock quotes are amazing",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestNewModerator_EmptyDictionary(t *testing.T) {
	_, err := NewModerator(nil, replacementChar)
	require.ErrorIs(t, err, errors.ErrEmptyWords)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	req.Equal("eng", DetectLanguage("The quick brown fox jumps over the lazy dog near the river bank"))
	req.Equal("und", DetectLanguage("x"))
}
