package rstast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i80and/snooty/pkg/rstast"
)

func TestFullyNormalizeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello world", rstast.FullyNormalizeName("  hello   world\t\n"))
	assert.Equal(t, "", rstast.FullyNormalizeName("   "))
}

func TestMakeID(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"Hello, World!", "hello-world"},
		{"  123 leading digits", "leading-digits"},
		{"trailing---", "trailing"},
		{"Already-Fine", "already-fine"},
		{"a_b c", "a-b-c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rstast.MakeID(tt.in), "input %q", tt.in)
	}
}
