// Package rstinline implements the inline-markup tokenizer: the part
// of the parser that turns the text of a paragraph, title, or other
// text-bearing block into a flat run of inline AST nodes. It
// recognizes the paired constructs (strong,
// emphasis, literal, interpreted text, inline targets, substitution
// references) by scanning for start characters and searching forward
// for a matching end, and recognizes the unpaired constructs (simple
// references, footnote/citation references, standalone URIs and email
// addresses) by regex over whatever plain text is left once the paired
// constructs have been carved out.
package rstinline

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/i80and/snooty/pkg/rstast"
)

// Context supplies the document-level state a Tokenizer needs to
// register names, emit diagnostics, and attribute messages to a
// source location. Doc and Reporter may be nil for tokenizing text in
// isolation (e.g. unit tests); name registration and diagnostic
// bookkeeping are simply skipped in that case.
type Context struct {
	Doc      *rstast.Document
	Reporter *rstast.Reporter
	SourceID string

	// Roles, when set, lets a caller override or extend the
	// tokenizer's hardcoded role set (emphasis/strong/literal/
	// doc/ref/download/title-reference) with a domain-qualified
	// lookup, e.g. backed by an rstdirective.Registry. Unresolved
	// names still fall back to the built-ins.
	Roles RoleLookup

	// CharacterLevel makes markup start/end boundaries character-
	// relative instead of whitespace/punctuation relative (the
	// character_level_inline_markup setting): "*x*y" parses as emphasis
	// followed by "y" instead of staying literal.
	CharacterLevel bool

	// TrimFootnoteRefSpace right-trims whitespace immediately before an
	// inline footnote reference (the trim_footnote_reference_space
	// setting).
	TrimFootnoteRefSpace bool
}

// RoleFunc is the shape a custom role handler must satisfy: given the
// raw interpreted-text source and its resolved text, produce the node
// to splice into the inline stream plus at most one diagnostic,
// mirroring docutils' role interface trimmed to what the tokenizer
// can propagate inline (a single message slot, not a list).
type RoleFunc func(roleName, rawSource, text, sourceID string, line int) (*rstast.Node, *rstast.Node)

// RoleLookup resolves a role name to a RoleFunc, the same shape
// rstdirective.Registry.LookupRole exposes.
type RoleLookup func(name string) (RoleFunc, bool)

// Tokenizer recognizes inline markup within a single line of text.
// It holds no state across calls to Parse other than the Context it
// was built with.
type Tokenizer struct {
	doc       *rstast.Document
	reporter  *rstast.Reporter
	sourceID  string
	line      int
	roles     RoleLookup
	charLevel bool
	trimFnRef bool
}

// New builds a Tokenizer bound to ctx.
func New(ctx Context) *Tokenizer {
	return &Tokenizer{
		doc: ctx.Doc, reporter: ctx.Reporter, sourceID: ctx.SourceID, roles: ctx.Roles,
		charLevel: ctx.CharacterLevel, trimFnRef: ctx.TrimFootnoteRefSpace,
	}
}

// Parse tokenizes a single logical line of text (already
// whitespace-normalized by the caller) at the given source line
// number, returning the inline node sequence and any system messages
// produced along the way (e.g. an unterminated-emphasis warning). The
// node sequence and the messages are independent: messages are not
// spliced into nodes, mirroring docutils' own separation between the
// paragraph's children and the messages it attaches after them.
func (t *Tokenizer) Parse(text string, line int) ([]*rstast.Node, []*rstast.Node) {
	t.line = line
	runes := []rune(EscapeToNull(text))

	var nodes []*rstast.Node
	var messages []*rstast.Node
	textStart := 0
	pos := 0

	emit := func(end int, node *rstast.Node, consumed int, msg *rstast.Node) bool {
		if msg != nil {
			messages = append(messages, msg)
		}
		if consumed == 0 {
			return false
		}
		if end > textStart {
			nodes = append(nodes, t.flushPlain(string(runes[textStart:end]))...)
		}
		if node != nil {
			nodes = append(nodes, node)
		}
		pos += consumed
		textStart = pos
		return true
	}

	for pos < len(runes) {
		c := runes[pos]
		switch {
		case c == '*' && pos+1 < len(runes) && runes[pos+1] == '*':
			node, consumed, msg := t.matchPaired(runes, pos, "**", rstast.NodeStrong)
			if emit(pos, node, consumed, msg) {
				continue
			}
		case c == '*':
			node, consumed, msg := t.matchPaired(runes, pos, "*", rstast.NodeEmphasis)
			if emit(pos, node, consumed, msg) {
				continue
			}
		case c == '`' && pos+1 < len(runes) && runes[pos+1] == '`':
			node, consumed, msg := t.matchPaired(runes, pos, "``", rstast.NodeLiteral)
			if emit(pos, node, consumed, msg) {
				continue
			}
		case c == '_' && pos+1 < len(runes) && runes[pos+1] == '`':
			node, consumed, msg := t.matchTarget(runes, pos)
			if emit(pos, node, consumed, msg) {
				continue
			}
		case c == '`':
			rolePrefixLen, node, consumed, msg := t.matchInterpreted(runes, pos, runes[textStart:pos])
			if consumed > 0 {
				emit(pos-rolePrefixLen, node, consumed, msg)
				continue
			}
			if msg != nil {
				messages = append(messages, msg)
			}
		case c == '|':
			node, consumed, msg := t.matchSubstitution(runes, pos)
			if emit(pos, node, consumed, msg) {
				continue
			}
		}
		pos++
	}
	if len(runes) > textStart {
		nodes = append(nodes, t.flushPlain(string(runes[textStart:]))...)
	}
	return nodes, messages
}

func (t *Tokenizer) flushPlain(s string) []*rstast.Node {
	return t.scanImplicit(s)
}

func (t *Tokenizer) warn(message string) *rstast.Node {
	if t.reporter != nil {
		n, _ := t.reporter.Warning(message, t.sourceID, t.line)
		return n
	}
	return rstast.System(rstast.LevelWarning, message, t.sourceID, t.line)
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matchPaired searches for marker again after pos+len(marker), honoring
// the quoting/boundary rules: the character after the
// opener and before the closer must not be whitespace, and the
// characters surrounding the whole construct must be valid open/close
// boundaries. Returns a warning message, and no node, when the opener
// is valid but no matching closer exists anywhere in the line.
func (t *Tokenizer) matchPaired(runes []rune, pos int, marker string, kind rstast.Kind) (*rstast.Node, int, *rstast.Node) {
	markerRunes := []rune(marker)
	ml := len(markerRunes)

	var prevRune rune
	hasPrev := pos > 0
	if hasPrev {
		prevRune = runes[pos-1]
	}
	if !t.charLevel && !isOpenBoundary(prevRune, hasPrev) {
		return nil, 0, nil
	}
	if pos+ml >= len(runes) || unicode.IsSpace(runes[pos+ml]) {
		return nil, 0, nil
	}
	if isQuoted(prevRune, hasPrev, runes[pos+ml], true) {
		return nil, 0, nil
	}

	for end := pos + ml + 1; end+ml <= len(runes); end++ {
		if !runesEqual(runes[end:end+ml], markerRunes) {
			continue
		}
		lastInner := runes[end-1]
		if unicode.IsSpace(lastInner) || lastInner == Null {
			continue
		}
		var nextRune rune
		hasNext := end+ml < len(runes)
		if hasNext {
			nextRune = runes[end+ml]
		}
		if !t.charLevel && !isCloseBoundary(nextRune, hasNext) {
			continue
		}
		inner := string(runes[pos+ml : end])
		n := rstast.NewNode(kind)
		n.Text = Unescape(inner, false)
		n.RawSource = inner
		return n, (end + ml) - pos, nil
	}
	return nil, 0, t.warn(fmt.Sprintf("Inline %s start-string without end-string.", marker))
}

// matchTarget recognizes an inline internal target, _`name`, and
// registers the whitespace-normalized name with the bound Document as
// an explicit target.
func (t *Tokenizer) matchTarget(runes []rune, pos int) (*rstast.Node, int, *rstast.Node) {
	if pos > 0 && runes[pos-1] == Null {
		return nil, 0, nil
	}
	end := -1
	for i := pos + 2; i < len(runes); i++ {
		if runes[i] == '`' {
			end = i
			break
		}
	}
	if end == -1 || end == pos+2 {
		return nil, 0, t.warn("Inline internal target start-string without end-string.")
	}
	raw := string(runes[pos+2 : end])
	n := rstast.NewNode(rstast.NodeTarget)
	n.RawSource = raw
	n.Text = Unescape(raw, false)
	name := rstast.FullyNormalizeName(n.Text)
	n.Names = []string{name}
	if t.doc != nil {
		t.doc.RegisterName(n, name, "", true)
	}
	return n, (end + 1) - pos, nil
}

var embeddedTargetPattern = regexp.MustCompile(`^(.*\S)\s*<([^<>]+)>$`)

// matchInterpreted recognizes interpreted text, `text`, with an
// optional :role: prefix already present in pending (the accumulated
// plain-text run immediately before this backtick) or an optional
// :role: suffix, and an optional trailing _/__ turning it into a
// phrase reference. It returns the rune length of a role prefix found
// in pending so the caller can exclude it from the plain-text flush.
func (t *Tokenizer) matchInterpreted(runes []rune, pos int, pending []rune) (int, *rstast.Node, int, *rstast.Node) {
	if pos > 0 && runes[pos-1] == Null {
		return 0, nil, 0, nil
	}
	end := -1
	for i := pos + 1; i < len(runes); i++ {
		if runes[i] == '`' {
			end = i
			break
		}
	}
	if end == -1 {
		return 0, nil, 0, t.warn("Inline interpreted text or phrase reference start-string without end-string.")
	}
	inner := string(runes[pos+1 : end])

	rolePrefixLen := 0
	role := ""
	if m := rolePrefixPattern.FindStringSubmatch(string(pending)); m != nil {
		role = m[1]
		rolePrefixLen = len([]rune(m[0]))
	}

	after := end + 1
	suffixLen := 0
	suffixRole := ""
	if after < len(runes) && runes[after] == ':' {
		for j := after + 1; j < len(runes); j++ {
			if !isRoleNameRune(runes[j]) {
				if runes[j] == ':' && j > after+1 {
					suffixRole = string(runes[after+1 : j])
					suffixLen = (j + 1) - after
				}
				break
			}
		}
	}
	var conflictMsg *rstast.Node
	switch {
	case suffixRole != "" && role != "":
		conflictMsg = t.warn("Multiple roles in interpreted text (both prefix and suffix present; only one allowed).")
	case suffixRole != "":
		role = suffixRole
	}

	phraseRef := false
	anonymous := false
	p := after + suffixLen
	if p < len(runes) && runes[p] == '_' {
		phraseRef = true
		suffixLen++
		if p+1 < len(runes) && runes[p+1] == '_' {
			anonymous = true
			suffixLen++
		}
	}

	var node, roleMsg *rstast.Node
	if phraseRef {
		node = t.buildPhraseRef(inner, anonymous)
	} else {
		node, roleMsg = t.buildRole(role, inner)
	}
	if conflictMsg != nil {
		roleMsg = conflictMsg
	}
	return rolePrefixLen, node, (end + 1 - pos) + suffixLen, roleMsg
}

var rolePrefixPattern = regexp.MustCompile(`:([A-Za-z][A-Za-z0-9_+.-]*):$`)

func isRoleNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '+' || r == '.' || r == '-'
}

func (t *Tokenizer) buildPhraseRef(inner string, anonymous bool) *rstast.Node {
	n := rstast.NewNode(rstast.NodeReference)
	text := inner
	target := ""
	if m := embeddedTargetPattern.FindStringSubmatch(inner); m != nil {
		text = strings.TrimSpace(m[1])
		target = strings.TrimSpace(m[2])
	}
	n.Text = Unescape(text, false)
	n.RawSource = inner
	switch {
	case target != "" && looksLikeURI(target):
		n.Attrs.SetString("refuri", Unescape(target, false))
	case target != "":
		n.Names = []string{rstast.FullyNormalizeName(Unescape(target, false))}
	case anonymous:
		n.Attrs.SetBool("anonymous", true)
	default:
		n.Names = []string{rstast.FullyNormalizeName(n.Text)}
		if t.doc != nil {
			name := n.Names[0]
			t.doc.RefNames[name] = append(t.doc.RefNames[name], n)
		}
	}
	return n
}

func looksLikeURI(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "mailto:")
}

func (t *Tokenizer) buildRole(role, inner string) (*rstast.Node, *rstast.Node) {
	text := Unescape(inner, false)
	if t.roles != nil {
		if handler, ok := t.roles(role); ok {
			return handler(role, inner, text, t.sourceID, t.line)
		}
	}
	switch role {
	case "emphasis":
		n := rstast.NewNode(rstast.NodeEmphasis)
		n.Text = text
		return n, nil
	case "strong":
		n := rstast.NewNode(rstast.NodeStrong)
		n.Text = text
		return n, nil
	case "literal":
		n := rstast.NewNode(rstast.NodeLiteral)
		n.Text = text
		return n, nil
	case "doc", "ref", "download":
		n := rstast.NewNode(rstast.NodeRefRole)
		n.Attrs.SetString("role", role)
		n.Text = text
		n.Names = []string{rstast.FullyNormalizeName(text)}
		return n, nil
	default:
		n := rstast.NewNode(rstast.NodeRole)
		if role == "" {
			role = "title-reference"
		}
		n.Attrs.SetString("role", role)
		n.Text = text
		return n, nil
	}
}

// matchSubstitution recognizes a substitution reference, |name|, with
// an optional trailing _/__ marking it as also being a hyperlink.
func (t *Tokenizer) matchSubstitution(runes []rune, pos int) (*rstast.Node, int, *rstast.Node) {
	var prevRune rune
	hasPrev := pos > 0
	if hasPrev {
		prevRune = runes[pos-1]
	}
	if !t.charLevel && !isOpenBoundary(prevRune, hasPrev) {
		return nil, 0, nil
	}
	if pos+1 >= len(runes) || unicode.IsSpace(runes[pos+1]) {
		return nil, 0, nil
	}
	if isQuoted(prevRune, hasPrev, runes[pos+1], true) {
		return nil, 0, nil
	}
	end := -1
	for i := pos + 1; i < len(runes); i++ {
		if runes[i] == '|' {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, 0, nil
	}
	name := string(runes[pos+1 : end])

	linked, anonymous := false, false
	suffixLen := 0
	p := end + 1
	if p < len(runes) && runes[p] == '_' {
		linked = true
		suffixLen = 1
		if p+1 < len(runes) && runes[p+1] == '_' {
			anonymous = true
			suffixLen = 2
		}
	}

	n := rstast.NewNode(rstast.NodeSubstitutionReference)
	n.RawSource = name
	n.Text = Unescape(name, false)
	n.Names = []string{rstast.FullyNormalizeName(n.Text)}
	n.Attrs.SetBool("linked", linked)
	n.Attrs.SetBool("anonymous", anonymous)
	return n, (end + 1 - pos) + suffixLen, nil
}
