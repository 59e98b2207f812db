// Package rstline provides LineStore, the line-oriented buffer the parser's
// state machine walks. A LineStore never edits source text in place; it
// tracks per-line provenance so every downstream diagnostic can still point
// at the original file and line number even after blocks have been sliced,
// indented, and re-sliced many times over.
package rstline

import (
	"errors"
	"fmt"
	"strings"
)

// NoOffset marks a Line whose provenance offset is unknown, the way
// LineStore.Info reports for the one-past-end index.
const NoOffset = -1

// ErrOutOfRange is returned by indexed accessors when the index falls
// outside [0, Len()).
var ErrOutOfRange = errors.New("rstline: index out of range")

// ErrBadTrim is returned by TrimStart/TrimEnd when n is negative or larger
// than the store's length.
var ErrBadTrim = errors.New("rstline: bad trim count")

// Line is a single normalized line of source text plus where it came from.
type Line struct {
	Text     string
	SourceID string
	Offset   int // 0-based line number in the original source, or NoOffset
}

// LineStore is an ordered sequence of Lines. Slicing produces a child view
// that shares the same logical content as its parent; line removals made
// on a child (Pop, RemoveRange) also remove the parent's lines at the
// mapped indices, recursively, until a Disconnect call severs the link.
// SetText, TrimStart and TrimEnd change only the view they are called on.
type LineStore struct {
	lines  []Line
	parent *LineStore
	// parentOffset is the index into parent.lines corresponding to lines[0]
	// at the time this view was created.
	parentOffset int
}

// FromSource splits text on "\n", expands tabs to tabWidth spaces, strips
// trailing whitespace from every line, and (if convertWhitespace is set)
// replaces vertical-tab and form-feed characters with an ordinary space.
// Every produced Line carries sourceID and its 0-based position in text.
func FromSource(text string, tabWidth int, convertWhitespace bool, sourceID string) *LineStore {
	if tabWidth < 1 {
		tabWidth = 1
	}
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	tab := strings.Repeat(" ", tabWidth)
	for i, l := range raw {
		l = strings.ReplaceAll(l, "\t", tab)
		if convertWhitespace {
			l = strings.Map(func(r rune) rune {
				if r == '\v' || r == '\f' {
					return ' '
				}
				return r
			}, l)
		}
		l = strings.TrimRight(l, " \t\r")
		lines[i] = Line{Text: l, SourceID: sourceID, Offset: i}
	}
	return &LineStore{lines: lines}
}

// New wraps an already-prepared slice of Lines, with no parent.
func New(lines []Line) *LineStore {
	out := make([]Line, len(lines))
	copy(out, lines)
	return &LineStore{lines: out}
}

// Len returns the number of lines currently held.
func (s *LineStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Get returns the line at i.
func (s *LineStore) Get(i int) (Line, error) {
	if i < 0 || i >= s.Len() {
		return Line{}, fmt.Errorf("%w: %d (len=%d)", ErrOutOfRange, i, s.Len())
	}
	return s.lines[i], nil
}

// Text is a convenience that returns the text of line i, or "" if out of range.
func (s *LineStore) Text(i int) string {
	l, err := s.Get(i)
	if err != nil {
		return ""
	}
	return l.Text
}

// SetText overwrites the text of line i in place, preserving its
// provenance. Used by indentation stripping, which rewrites content
// without changing what line it came from.
func (s *LineStore) SetText(i int, text string) error {
	if i < 0 || i >= s.Len() {
		return fmt.Errorf("%w: %d (len=%d)", ErrOutOfRange, i, s.Len())
	}
	s.lines[i].Text = text
	return nil
}

// Lines returns a defensive copy of the store's current content.
func (s *LineStore) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Slice returns a child view over [start, end). Line removals performed on
// the child also remove the parent's lines at the mapped indices.
func (s *LineStore) Slice(start, end int) (*LineStore, error) {
	if start < 0 || end > s.Len() || start > end {
		return nil, fmt.Errorf("%w: slice [%d:%d) (len=%d)", ErrOutOfRange, start, end, s.Len())
	}
	child := make([]Line, end-start)
	copy(child, s.lines[start:end])
	return &LineStore{lines: child, parent: s, parentOffset: start}, nil
}

// Info reports the (source_id, offset) provenance for index i. When
// i == Len(), it returns the previous line's source with an empty offset
// (NoOffset), matching the one-past-end convention diagnostics rely on to
// point "just after" a block.
func (s *LineStore) Info(i int) (sourceID string, offset int) {
	n := s.Len()
	switch {
	case n == 0:
		return "", NoOffset
	case i == n:
		return s.lines[n-1].SourceID, NoOffset
	case i >= 0 && i < n:
		return s.lines[i].SourceID, s.lines[i].Offset
	default:
		return "", NoOffset
	}
}

// TrimStart removes n lines from the front without parent propagation.
func (s *LineStore) TrimStart(n int) error {
	if n < 0 || n > s.Len() {
		return fmt.Errorf("%w: %d (len=%d)", ErrBadTrim, n, s.Len())
	}
	s.lines = s.lines[n:]
	return nil
}

// TrimEnd removes n lines from the back without parent propagation.
func (s *LineStore) TrimEnd(n int) error {
	if n < 0 || n > s.Len() {
		return fmt.Errorf("%w: %d (len=%d)", ErrBadTrim, n, s.Len())
	}
	s.lines = s.lines[:s.Len()-n]
	return nil
}

// Pop removes the line at i, shifting later lines down by one, propagating
// the removal to the parent view (and its parent, and so on) unless this
// view has been disconnected.
func (s *LineStore) Pop(i int) (Line, error) {
	l, err := s.Get(i)
	if err != nil {
		return Line{}, err
	}
	if err := s.removeRange(i, 1, true); err != nil {
		return Line{}, err
	}
	return l, nil
}

// RemoveRange deletes n lines starting at i, propagating to the parent view.
func (s *LineStore) RemoveRange(i, n int) error {
	return s.removeRange(i, n, true)
}

func (s *LineStore) removeRange(i, n int, propagate bool) error {
	if n == 0 {
		return nil
	}
	if i < 0 || n < 0 || i+n > s.Len() {
		return fmt.Errorf("%w: remove [%d:%d) (len=%d)", ErrOutOfRange, i, i+n, s.Len())
	}
	s.lines = append(s.lines[:i], s.lines[i+n:]...)
	if propagate && s.parent != nil {
		return s.parent.removeRange(s.parentOffset+i, n, true)
	}
	return nil
}

// Disconnect drops the parent link so future mutations no longer propagate.
func (s *LineStore) Disconnect() {
	s.parent = nil
}

// Parent exposes the backing view, or nil if this store is disconnected or root.
func (s *LineStore) Parent() *LineStore {
	return s.parent
}

// Join concatenates the store's lines with "\n", the inverse of FromSource
// modulo tab expansion and trailing-whitespace trimming.
func (s *LineStore) Join() string {
	parts := make([]string, s.Len())
	for i, l := range s.lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}
