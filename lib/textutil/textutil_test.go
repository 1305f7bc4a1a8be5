package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{
			in:       "Horizon Forbidden West Deluxe Edition (PS5)",
			expected: "horizon forbidden west",
		},
		{
			in:       "Horizon Forbidden West",
			expected: "horizon forbidden west",
		},
		{
			in:       "The Last of Us™ Part II Remastered",
			expected: "the last of us part ii",
		},
		{
			in:       "God of War Ragnarök [PS4 & PS5]",
			expected: "god of war ragnarök",
		},
		{
			in:       "ELDEN RING Game of the Year Edition",
			expected: "elden ring",
		},
		{
			in:       "   spaced    out   ",
			expected: "spaced out",
		},
		{
			in:       "",
			expected: "",
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, NormalizeTitle(test.in), "input %q", test.in)
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Horizon Forbidden West Deluxe Edition (PS5)",
		"Ghost of Tsushima DIRECTOR'S CUT",
		"Stray™",
		"plain title",
	}
	for _, in := range inputs {
		once := NormalizeTitle(in)
		require.Equal(t, once, NormalizeTitle(once), "input %q", in)
	}
}
