package rstline_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstline"
)

func TestFromSourceRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single line", "hello"},
		{"multi line", "hello\nworld\n"},
		{"trailing spaces", "hello   \nworld\t\n"},
		{"tabs", "a\tb\nc\t\td"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for w := 1; w <= 8; w++ {
				store := rstline.FromSource(tt.text, w, false, "<test>")
				got := store.Join()
				want := strings.ReplaceAll(tt.text, "\t", strings.Repeat(" ", w))
				want = trimTrailingPerLine(want)
				assert.Equal(t, want, got, "tab_width=%d", w)
			}
		})
	}
}

func trimTrailingPerLine(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Join(lines, "\n")
}

func TestFromSourceConvertWhitespace(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("a\vb\fc", 8, true, "<test>")
	require.Equal(t, 1, store.Len())
	assert.Equal(t, "a b c", store.Text(0))
}

func TestLineStoreInfo(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("one\ntwo\nthree", 8, false, "src")

	src, off := store.Info(0)
	assert.Equal(t, "src", src)
	assert.Equal(t, 0, off)

	src, off = store.Info(2)
	assert.Equal(t, "src", src)
	assert.Equal(t, 2, off)

	// One-past-end: previous line's source, empty offset.
	src, off = store.Info(3)
	assert.Equal(t, "src", src)
	assert.Equal(t, rstline.NoOffset, off)
}

func TestLineStoreSlicePropagation(t *testing.T) {
	t.Parallel()
	parent := rstline.FromSource("a\nb\nc\nd\ne", 8, false, "src")
	child, err := parent.Slice(1, 4) // b, c, d
	require.NoError(t, err)
	require.Equal(t, 3, child.Len())

	_, err = child.Pop(1) // remove "c" from child, should also remove from parent
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, texts(child))
	assert.Equal(t, []string{"a", "b", "d", "e"}, texts(parent))
}

func TestLineStoreDisconnectStopsPropagation(t *testing.T) {
	t.Parallel()
	parent := rstline.FromSource("a\nb\nc", 8, false, "src")
	child, err := parent.Slice(0, 3)
	require.NoError(t, err)
	child.Disconnect()

	_, err = child.Pop(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, texts(child))
	assert.Equal(t, []string{"a", "b", "c"}, texts(parent), "parent must be untouched after disconnect")
}

func TestLineStoreTrim(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("a\nb\nc\nd", 8, false, "src")

	require.NoError(t, store.TrimStart(1))
	assert.Equal(t, []string{"b", "c", "d"}, texts(store))

	require.NoError(t, store.TrimEnd(1))
	assert.Equal(t, []string{"b", "c"}, texts(store))

	assert.ErrorIs(t, store.TrimStart(-1), rstline.ErrBadTrim)
	assert.ErrorIs(t, store.TrimStart(99), rstline.ErrBadTrim)
}

func TestLineStoreOutOfRange(t *testing.T) {
	t.Parallel()
	store := rstline.FromSource("a\nb", 8, false, "src")
	_, err := store.Get(5)
	assert.ErrorIs(t, err, rstline.ErrOutOfRange)

	_, err = store.Slice(0, 5)
	assert.ErrorIs(t, err, rstline.ErrOutOfRange)
}

func texts(s *rstline.LineStore) []string {
	lines := s.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
