package rstdirective_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstdirective"
)

func TestConvertUnicodeCode(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"U+27A4":   "➤",
		"u+27a4":   "➤",
		"0x2192":   "→",
		"129448":   "🦨",
		"&#x262E;": "☮",
		"&#9731;":  "☃",
	}
	for input, want := range cases {
		got, err := rstdirective.ConvertUnicodeCode(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}
}

func TestConvertUnicodeCodeRejectsMalformed(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"U+FFFFFFFFFFFFFFF", "99z", "", "U+", "&#;", "0xZZ"} {
		_, err := rstdirective.ConvertUnicodeCode(input)
		assert.Error(t, err, "input %q", input)
	}
}
