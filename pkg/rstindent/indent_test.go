package rstindent_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstindent"
	"github.com/i80and/snooty/pkg/rstline"
)

func lines(s *rstline.LineStore) []string {
	ls := s.Lines()
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Text
	}
	return out
}

func TestTextBlockStopsAtBlank(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("one\ntwo\n\nthree", 8, false, "s")
	block, err := rstindent.TextBlock(store, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines(block))
}

func TestTextBlockFlushLeftRejectsIndent(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("one\n  two\nthree", 8, false, "s")
	_, err := rstindent.TextBlock(store, 0, true)
	require.Error(t, err)
	var ui *rstindent.UnexpectedIndentation
	require.True(t, errors.As(err, &ui))
	assert.Equal(t, 1, ui.Line)
	assert.Equal(t, []string{"one"}, lines(ui.Block))
}

func TestIndentedMinimumAndStrip(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("    one\n      two\n    three\nnext", 8, false, "s")
	block, indent, blankFinish, err := rstindent.Indented(store, 0, rstindent.Options{StripIndent: true})
	require.NoError(t, err)
	assert.Equal(t, 4, indent)
	assert.True(t, blankFinish == false) // terminated by unindented "next", not blank/EOF
	assert.Equal(t, []string{"one", "  two", "three"}, lines(block))

	// Testable property: stripped block's minimum leading whitespace is 0.
	for _, l := range lines(block) {
		if l == "" {
			continue
		}
		assert.NotEqual(t, ' ', l[0])
	}
}

func TestIndentedUntilBlank(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("  a\n  b\n\n  c", 8, false, "s")
	block, _, blankFinish, err := rstindent.Indented(store, 0, rstindent.Options{UntilBlank: true})
	require.NoError(t, err)
	assert.True(t, blankFinish)
	assert.Equal(t, []string{"  a", "  b"}, lines(block))
}

func TestIndentedBlockIndent(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("   :opt: value\n   more\nend", 8, false, "s")
	three := 3
	block, indent, _, err := rstindent.Indented(store, 0, rstindent.Options{BlockIndent: &three})
	require.NoError(t, err)
	assert.Equal(t, 3, indent)
	assert.Equal(t, []string{"   :opt: value", "   more"}, lines(block))
}

func TestIndentedBlankFinishAtEOF(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("  a\n  b", 8, false, "s")
	_, _, blankFinish, err := rstindent.Indented(store, 0, rstindent.Options{})
	require.NoError(t, err)
	assert.True(t, blankFinish)
}

func TestFirstKnownIndentStripsFirstLineSeparately(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("name:: args\n    body one\n    body two", 8, false, "s")
	block, indent, _, err := rstindent.FirstKnownIndent(store, 0, 0, false, true)
	require.NoError(t, err)
	assert.Equal(t, 4, indent)
	assert.Equal(t, []string{"name:: args", "body one", "body two"}, lines(block))
}
