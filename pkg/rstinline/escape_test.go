package rstinline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i80and/snooty/pkg/rstinline"
)

func TestEscapeRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []string{
		"plain text",
		`a \*b\* c`,
		`trailing backslash\`,
		`\\double`,
		"",
		"no escapes here at all",
		`*emphasis* and \|not a sub\|`,
	}
	for _, text := range tests {
		got := rstinline.Unescape(rstinline.EscapeToNull(text), true)
		assert.Equal(t, text, got, "input %q", text)
	}
}

func TestUnescapeDropsWithoutRestoring(t *testing.T) {
	t.Parallel()
	escaped := rstinline.EscapeToNull(`a\*b`)
	assert.Equal(t, "a*b", rstinline.Unescape(escaped, false))
}
