package rstblocks

import (
	"regexp"
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstindent"
	"github.com/i80and/snooty/pkg/rstinline"
	"github.com/i80and/snooty/pkg/rstline"
	"github.com/i80and/snooty/pkg/rstsm"
)

var (
	bulletLine      = regexp.MustCompile(`^([-+*\x{2022}\x{2023}\x{2043}])(\s+(\S.*)?)?$`)
	enumLine        = regexp.MustCompile(`^(\(?)(\d+|#|[a-zA-Z]+)([.)])(\s+(\S.*)?)?$`)
	fieldLine       = regexp.MustCompile(`^:([^:\\]+):(\s+(\S.*)?)?$`)
	explicitLine    = regexp.MustCompile(`^\.\.(\s+(\S.*)?)?$`)
	lineBlockLine   = regexp.MustCompile(`^\|(\s(.*))?$`)
	doctestLine     = regexp.MustCompile(`^>>>( +|$)`)
	optionLine      = regexp.MustCompile(`^(-[A-Za-z], )?--?[A-Za-z][A-Za-z0-9-]*(=\S+| \S+)?(, (-[A-Za-z], )?--?[A-Za-z][A-Za-z0-9-]*(=\S+| \S+)?)*(\s\s+(\S.*)?)?$`)
	transitionChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

func isAllOneChar(s string, charset string) (rune, bool) {
	trimmed := strings.TrimRight(s, " ")
	if len(trimmed) < 4 {
		return 0, false
	}
	runes := []rune(trimmed)
	first := runes[0]
	if !strings.ContainsRune(charset, first) {
		return 0, false
	}
	for _, r := range runes {
		if r != first {
			return 0, false
		}
	}
	return first, true
}

// isUnderlineRun recognizes a title underline: the whole line one
// repeated 7-bit punctuation character. Unlike a transition marker
// (isAllOneChar), an underline has no minimum width; a too-short one
// still opens a section, with a diagnostic from warnShortDecoration.
func isUnderlineRun(s string) (rune, bool) {
	trimmed := strings.TrimRight(s, " ")
	if trimmed == "" {
		return 0, false
	}
	runes := []rune(trimmed)
	first := runes[0]
	if !strings.ContainsRune(transitionChars, first) {
		return 0, false
	}
	for _, r := range runes {
		if r != first {
			return 0, false
		}
	}
	return first, true
}

// Build constructs the full set of body-level states sharing memo,
// ready to be handed to rstsm.New. memo must already be attached as
// the StateMachine's Memo before Run is called.
func Build() map[string]*rstsm.State {
	states := map[string]*rstsm.State{}
	states["Body"] = bodyState()
	states["Text"] = textState()
	states["BulletList"] = bulletListState()
	states["EnumeratedList"] = enumeratedListState()
	states["Definition"] = definitionState()
	states["FieldList"] = fieldListState()
	states["OptionList"] = optionListState()
	states["LineBlock"] = lineBlockState()
	states["ExplicitMarkup"] = explicitMarkupState()
	states["SubstitutionDef"] = substitutionDefState()
	return states
}

func bodyState() *rstsm.State {
	return &rstsm.State{
		Name: "Body",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: runBlank},
			{Name: "transition-or-title", Match: func(line string) bool {
				_, ok := isAllOneChar(line, transitionChars)
				return ok
			}, Run: runTransitionOrTitleUnderline},
			{Name: "bullet", Match: bulletLine.MatchString, Run: runBulletStart},
			{Name: "enumerator", Match: enumLine.MatchString, Run: runEnumeratorStart},
			{Name: "field", Match: fieldLine.MatchString, Run: runFieldStart},
			{Name: "option", Match: func(line string) bool {
				return strings.HasPrefix(strings.TrimLeft(line, " "), "-") && optionLine.MatchString(strings.TrimLeft(line, " "))
			}, Run: runOptionStart},
			{Name: "doctest", Match: doctestLine.MatchString, Run: runDoctest},
			{Name: "line-block", Match: lineBlockLine.MatchString, Run: runLineBlockStart},
			{Name: "explicit", Match: explicitLine.MatchString, Run: runExplicitStart},
			{Name: "anonymous", Match: anonymousTarget.MatchString, Run: func(m *rstsm.StateMachine, line string) rstsm.Result {
				return buildTarget(m, line, true)
			}},
			{Name: "indented", Match: func(line string) bool {
				return leadingSpaces(line) > 0
			}, Run: runIndentedText},
			{Name: "text", Match: func(string) bool { return true }, Run: runTextStart},
		},
	}
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}

func runBlank(m *rstsm.StateMachine, _ string) rstsm.Result {
	m.NextLine()
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

// runTransitionOrTitleUnderline handles a line of repeated punctuation.
// If it is immediately preceded by non-blank text (the previous line,
// now already consumed as the title) this would have been consumed as
// part of a title match instead; reaching here directly means it is a
// bare transition marker, unless the line that follows it is
// non-blank text, in which case this line is the overline of an
// over/underlined title and runTitleWithOverline takes over.
func runTransitionOrTitleUnderline(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	marker, _ := isAllOneChar(line, transitionChars)
	sourceID, ln := m.GetSourceAndLine()
	next := m.NextLineText()
	if !m.IsNextLineBlank() && next != "" {
		if _, ok := isAllOneChar(next, transitionChars); !ok {
			return runTitleWithOverline(m, marker, line)
		}
	}
	if memo.Parent == memo.Doc.Root && memo.Parent.LastChild == nil {
		msg := memo.system(rstast.LevelSevere, "Document may not begin with a transition.", sourceID, ln)
		memo.Append(msg)
		m.NextLine()
		return rstsm.Continue
	}
	node := rstast.NewNode(rstast.NodeTransition)
	node.SourceID, node.Line = sourceID, ln
	memo.Append(node)
	m.NextLine()
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

func runTitleWithOverline(m *rstsm.StateMachine, overline rune, overlineText string) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()
	m.NextLine()
	titleLine := m.CurrentLine()
	m.NextLine()
	underlineText := m.CurrentLine()
	underlineMarker, ok := isAllOneChar(underlineText, transitionChars)
	if !ok || underlineMarker != overline {
		msg := memo.system(rstast.LevelSevere, "Title overline without matching underline.", sourceID, ln)
		memo.Append(msg)
		return rstsm.Continue
	}
	openSection(memo, overline, titleLine, sourceID, ln)
	warnShortDecoration(memo, overlineText, titleLine, sourceID, ln)
	warnShortDecoration(memo, underlineText, titleLine, sourceID, ln)
	m.NextLine()
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

func warnShortDecoration(memo *Memo, decoration, title, sourceID string, line int) {
	if rstinline.ColumnWidth(strings.TrimRight(decoration, " ")) < rstinline.ColumnWidth(strings.TrimSpace(title)) {
		level := rstast.LevelWarning
		if len(strings.TrimRight(decoration, " ")) < 4 {
			level = rstast.LevelInfo
		}
		msg := memo.system(level, "Title underline too short.", sourceID, line)
		memo.Append(msg)
	}
}

func openSection(memo *Memo, marker rune, titleText, sourceID string, line int) {
	for len(memo.sectionStack) > 0 {
		top := memo.sectionStack[len(memo.sectionStack)-1]
		if top.marker == marker {
			memo.sectionStack = memo.sectionStack[:len(memo.sectionStack)-1]
			if memo.Parent == top.node {
				memo.Parent = top.node.Parent
			}
			continue
		}
		break
	}
	section := rstast.NewNode(rstast.NodeSection)
	section.SourceID, section.Line = sourceID, line
	memo.Append(section)

	title := rstast.NewNode(rstast.NodeTitle)
	title.SourceID, title.Line = sourceID, line
	title.RawSource = titleText
	rstast.AppendChild(section, title)
	section.Names = append(section.Names, rstast.FullyNormalizeName(titleText))
	id := memo.Doc.AutoID(section, []string{titleText})
	memo.Doc.RegisterName(section, titleText, id, false)

	memo.sectionStack = append(memo.sectionStack, sectionFrame{marker: marker, node: section})
	memo.Parent = section
}

func runIndentedText(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()
	if memo.PendingLiteral {
		memo.PendingLiteral = false
		return consumeLiteralBlock(m, memo, sourceID, ln)
	}
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.Indented(m.Store(), start, rstindent.Options{StripIndent: true})
	if err != nil {
		memo.Append(memo.system(rstast.LevelError, err.Error(), sourceID, ln))
		m.NextLine()
		return rstsm.Continue
	}
	bq := rstast.NewNode(rstast.NodeBlockQuote)
	bq.SourceID, bq.Line = sourceID, ln
	memo.Append(bq)
	runBodySubMachine(m, block, memo, bq)
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

// runDoctest collects the contiguous non-blank run starting at a ">>>"
// prompt into a doctest block, output lines included, the way docutils
// does (a doctest block ends at the first blank line, not at the first
// non-prompt line).
func runDoctest(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()
	start := m.AbsLineOffset()
	block, err := rstindent.TextBlock(m.Store(), start, false)
	if err != nil || block.Len() == 0 {
		m.NextLine()
		return rstsm.Continue
	}
	node := rstast.NewNode(rstast.NodeDoctestBlock)
	node.SourceID, node.Line = sourceID, ln
	node.Text = block.Join()
	memo.Append(node)
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

func consumeLiteralBlock(m *rstsm.StateMachine, memo *Memo, sourceID string, line int) rstsm.Result {
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.Indented(m.Store(), start, rstindent.Options{StripIndent: true})
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	lb := rstast.NewNode(rstast.NodeLiteralBlock)
	lb.SourceID, lb.Line = sourceID, line
	lb.Text = strings.TrimRight(block.Join(), "\n")
	memo.Append(lb)
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

// runBodySubMachine drives a nested StateMachine (reused from m's pool
// when available) over block, starting in Body, and
// appending whatever it produces under parent instead of memo.Parent.
func runBodySubMachine(m *rstsm.StateMachine, block *rstline.LineStore, memo *Memo, parent *rstast.Node) {
	sub, err := m.Nested(block, "Body")
	if err != nil {
		return
	}
	childMemo := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: parent,
	}
	sub.Memo = childMemo
	_ = sub.Run()
	m.Release(sub)
}
