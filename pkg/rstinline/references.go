package rstinline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/i80and/snooty/pkg/rstast"
)

// uriSchemes is the allowlist of schemes standalone-URI recognition
// treats as live hyperlinks. Deliberately narrow: docutils' full
// scheme list is much longer, but these cover the overwhelming
// majority of real documents.
var uriSchemes = "https?|ftp|file|mailto"

var (
	footnoteRefPattern = regexp.MustCompile(`\[(#[A-Za-z][A-Za-z0-9_-]*|#|\*|[0-9]+|[A-Za-z][A-Za-z0-9_.-]*)\]_`)
	simpleRefPattern   = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9_.:+-]*__?`)
	uriPattern         = regexp.MustCompile(`(?:` + uriSchemes + `)://[^\s'"<>\x00]+[^\s'"<>\x00.,;:!?)\]]`)
	emailPattern       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// implicitMatch is one recognized construct inside a plain-text run:
// a footnote/citation reference, a simple reference, or a standalone
// URI/email (docutils' implicit inline markup).
type implicitMatch struct {
	start, end int
	build      func(raw string) *rstast.Node
	// trimBefore marks a footnote/citation reference, whose preceding
	// whitespace is right-trimmed under trim_footnote_reference_space.
	trimBefore bool
}

// scanImplicit finds every footnote reference, simple reference, and
// standalone URI/email in a plain-text run (still null-escaped, so it
// contains Null where an escape suppressed a construct; each piece is
// unescaped here for display) and returns the plain Text / constructed-node sequence in
// left-to-right order. text must not itself contain other live inline
// markup; that has already been carved out by the caller.
func (t *Tokenizer) scanImplicit(text string) []*rstast.Node {
	if text == "" {
		return nil
	}
	matches := t.collectImplicitMatches(text)
	if len(matches) == 0 {
		return []*rstast.Node{textNode(Unescape(text, false))}
	}
	var out []*rstast.Node
	pos := 0
	for _, m := range matches {
		if m.start > pos {
			before := text[pos:m.start]
			if m.trimBefore && t.trimFnRef {
				before = strings.TrimRight(before, " \t")
			}
			if before != "" {
				out = append(out, textNode(Unescape(before, false)))
			}
		}
		out = append(out, m.build(text[m.start:m.end]))
		pos = m.end
	}
	if pos < len(text) {
		out = append(out, textNode(Unescape(text[pos:], false)))
	}
	return out
}

func (t *Tokenizer) collectImplicitMatches(text string) []implicitMatch {
	var candidates []implicitMatch

	for _, loc := range footnoteRefPattern.FindAllStringIndex(text, -1) {
		label := Unescape(text[loc[0]+1:loc[1]-2], false)
		candidates = append(candidates, implicitMatch{loc[0], loc[1], func(raw string) *rstast.Node {
			return t.buildFootnoteRef(label)
		}, true})
	}

	for _, loc := range simpleRefPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if !runeBoundaryOK(text, start, end) {
			continue
		}
		name := Unescape(text[start:end], false)
		anonymous := strings.HasSuffix(name, "__")
		trimmed := strings.TrimSuffix(strings.TrimSuffix(name, "__"), "_")
		if trimmed == "" {
			continue
		}
		candidates = append(candidates, implicitMatch{start, end, func(raw string) *rstast.Node {
			return t.buildSimpleReference(trimmed, anonymous)
		}, false})
	}

	for _, loc := range uriPattern.FindAllStringIndex(text, -1) {
		raw := Unescape(text[loc[0]:loc[1]], false)
		candidates = append(candidates, implicitMatch{loc[0], loc[1], func(string) *rstast.Node {
			return t.buildURIReference(raw, false)
		}, false})
	}
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		raw := Unescape(text[loc[0]:loc[1]], false)
		candidates = append(candidates, implicitMatch{loc[0], loc[1], func(string) *rstast.Node {
			return t.buildURIReference(raw, true)
		}, false})
	}

	return resolveOverlaps(candidates)
}

// resolveOverlaps sorts candidate matches by start position and drops
// any that overlap an earlier, already-accepted match. Earlier entries
// in the slice (footnote refs, then simple refs, then URIs/emails) win
// ties at the same start, mirroring the priority a single alternation
// regex would give its earlier branches.
func resolveOverlaps(candidates []implicitMatch) []implicitMatch {
	// stable insertion sort by start, keeping the original priority
	// order for equal starts.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].start < candidates[j-1].start; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	var out []implicitMatch
	lastEnd := -1
	for _, c := range candidates {
		if c.start < lastEnd {
			continue
		}
		out = append(out, c)
		lastEnd = c.end
	}
	return out
}

// runeBoundaryOK rejects a simple-reference match that is a substring
// of a larger identifier, e.g. the "foo_" inside "xfoo_bar", by
// requiring the character before start (if any) not be an identifier
// rune and the character after end (if any) not be an identifier rune.
func runeBoundaryOK(text string, start, end int) bool {
	if start > 0 {
		r := []rune(text[:start])
		if isRefBoundaryRune(r[len(r)-1]) {
			return false
		}
	}
	if end < len(text) {
		r := []rune(text[end:])
		if isRefBoundaryRune(r[0]) {
			return false
		}
	}
	return true
}

func isRefBoundaryRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func textNode(s string) *rstast.Node {
	n := rstast.NewNode(rstast.NodeText)
	n.Text = s
	return n
}

func (t *Tokenizer) buildFootnoteRef(label string) *rstast.Node {
	switch {
	case label == "*":
		n := rstast.NewNode(rstast.NodeFootnoteReference)
		n.Attrs.SetBool("auto", true)
		n.Attrs.SetString("kind", "symbol")
		return n
	case label == "#":
		n := rstast.NewNode(rstast.NodeFootnoteReference)
		n.Attrs.SetBool("auto", true)
		n.Attrs.SetString("kind", "number")
		return n
	case strings.HasPrefix(label, "#"):
		n := rstast.NewNode(rstast.NodeFootnoteReference)
		n.Attrs.SetBool("auto", true)
		n.Attrs.SetString("kind", "number")
		name := rstast.FullyNormalizeName(label[1:])
		n.Names = []string{name}
		n.RawSource = label[1:]
		t.recordFootnoteRef(name, n)
		return n
	case isAllDigits(label):
		n := rstast.NewNode(rstast.NodeFootnoteReference)
		n.Attrs.SetBool("auto", false)
		n.RawSource = label
		n.Text = label
		t.recordFootnoteRef(label, n)
		return n
	default:
		n := rstast.NewNode(rstast.NodeCitationReference)
		name := rstast.FullyNormalizeName(label)
		n.Names = []string{name}
		n.RawSource = label
		n.Text = label
		if t.doc != nil {
			t.doc.CitationRefs[name] = append(t.doc.CitationRefs[name], n)
		}
		return n
	}
}

func (t *Tokenizer) recordFootnoteRef(refname string, n *rstast.Node) {
	if t.doc == nil || refname == "" {
		return
	}
	t.doc.FootnoteRefs[refname] = append(t.doc.FootnoteRefs[refname], n)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (t *Tokenizer) buildSimpleReference(name string, anonymous bool) *rstast.Node {
	n := rstast.NewNode(rstast.NodeReference)
	n.Text = name
	n.RawSource = name
	if anonymous {
		n.Attrs.SetBool("anonymous", true)
		return n
	}
	n.Names = []string{rstast.FullyNormalizeName(name)}
	if t.doc != nil {
		t.doc.RefNames[rstast.FullyNormalizeName(name)] = append(t.doc.RefNames[rstast.FullyNormalizeName(name)], n)
	}
	return n
}

func (t *Tokenizer) buildURIReference(raw string, isEmail bool) *rstast.Node {
	n := rstast.NewNode(rstast.NodeReference)
	n.Text = raw
	if isEmail {
		n.Attrs.SetString("refuri", "mailto:"+raw)
	} else {
		n.Attrs.SetString("refuri", raw)
	}
	return n
}
