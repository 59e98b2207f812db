// Package rstindent extracts contiguous text blocks and indented blocks
// from a LineStore, computing their common indentation as it goes. It is
// used by every block state to carve out the sub-block it hands to a
// nested state machine.
package rstindent

import (
	"fmt"
	"strings"

	"github.com/i80and/snooty/pkg/rstline"
)

// UnexpectedIndentation is raised by TextBlock when flushLeft is set and
// an indented line appears inside what should be a flush-left run. It
// carries the partial block collected so far and the offending line's
// provenance so the caller can still report a precise diagnostic.
type UnexpectedIndentation struct {
	Block    *rstline.LineStore
	SourceID string
	Line     int
}

func (e *UnexpectedIndentation) Error() string {
	return fmt.Sprintf("%s:%d: unexpected indentation", e.SourceID, e.Line)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func leadingSpaces(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

// TextBlock returns the maximal contiguous run of non-blank lines
// starting at start. When flushLeft is set, any indented line within that
// run aborts with *UnexpectedIndentation, still carrying the lines
// collected up to (not including) the offending line.
func TextBlock(store *rstline.LineStore, start int, flushLeft bool) (*rstline.LineStore, error) {
	end := start
	for end < store.Len() {
		line := store.Text(end)
		if isBlank(line) {
			break
		}
		if flushLeft && leadingSpaces(line) > 0 {
			partial, _ := store.Slice(start, end)
			sourceID, lineNo := store.Info(end)
			return partial, &UnexpectedIndentation{Block: partial, SourceID: sourceID, Line: lineNo}
		}
		end++
	}
	block, err := store.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Options configures Indented.
type Options struct {
	UntilBlank  bool
	StripIndent bool
	// BlockIndent, when non-nil, fixes the indent used both to detect the
	// block's end and to strip leading space, instead of computing the
	// minimum observed indent ("known indent" form).
	BlockIndent *int
	// FirstIndent, when non-nil, is the amount of leading space already
	// known to be stripped from the first line ("first known indent"
	// form); it does not affect where the block ends.
	FirstIndent *int
}

// Indented walks forward from start collecting an indented block,
// following docutils' termination and indent-computation rules.
func Indented(store *rstline.LineStore, start int, opts Options) (block *rstline.LineStore, indent int, blankFinish bool, err error) {
	end := start
	minIndent := -1
	lastWasBlank := false

	for end < store.Len() {
		line := store.Text(end)
		blank := isBlank(line)
		if blank {
			lastWasBlank = true
			if opts.UntilBlank {
				break
			}
			end++
			continue
		}
		lastWasBlank = false

		// The line at start is exempt from the termination check when its
		// indent is already known via FirstIndent ("first known indent"):
		// it is included unconditionally and excluded from the minimum
		// computed below.
		if end == start && opts.FirstIndent != nil {
			end++
			continue
		}

		lead := leadingSpaces(line)
		if opts.BlockIndent != nil {
			if lead < *opts.BlockIndent {
				break
			}
		} else if lead == 0 {
			break
		}
		if minIndent == -1 || lead < minIndent {
			minIndent = lead
		}
		end++
	}

	blankFinish = end == store.Len() || lastWasBlank

	block, err = store.Slice(start, end)
	if err != nil {
		return nil, 0, false, err
	}

	switch {
	case opts.BlockIndent != nil:
		indent = *opts.BlockIndent
	case minIndent == -1:
		indent = 0
	default:
		indent = minIndent
	}

	if opts.StripIndent {
		stripBlock(block, indent, opts.FirstIndent)
	}

	return block, indent, blankFinish, nil
}

func stripBlock(block *rstline.LineStore, indent int, firstIndent *int) {
	for i := 0; i < block.Len(); i++ {
		strip := indent
		if i == 0 && firstIndent != nil {
			strip = *firstIndent
		}
		line, err := block.Get(i)
		if err != nil {
			continue
		}
		text := line.Text
		if isBlank(text) {
			continue
		}
		if strip > len(text) {
			strip = len(text)
		}
		// SetText keeps the line's provenance while rewriting content.
		block.SetText(i, text[strip:])
	}
}

// KnownIndent collects an indented block whose indentation is already
// fixed at indent for the whole block (docutils' "known indent"
// convenience form).
func KnownIndent(store *rstline.LineStore, start, indent int, untilBlank, stripIndent bool) (*rstline.LineStore, bool, error) {
	block, _, blankFinish, err := Indented(store, start, Options{
		UntilBlank:  untilBlank,
		StripIndent: stripIndent,
		BlockIndent: &indent,
	})
	return block, blankFinish, err
}

// FirstKnownIndent collects an indented block where only the first line's
// indent is known in advance; the rest of the block's common indent is
// discovered by Indented ("first known indent" convenience form).
func FirstKnownIndent(store *rstline.LineStore, start, firstIndent int, untilBlank, stripIndent bool) (*rstline.LineStore, int, bool, error) {
	return Indented(store, start, Options{
		UntilBlank:  untilBlank,
		StripIndent: stripIndent,
		FirstIndent: &firstIndent,
	})
}
