package rstblocks

import (
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstindent"
	"github.com/i80and/snooty/pkg/rstline"
	"github.com/i80and/snooty/pkg/rstsm"
)

// textState is reached only through runTextStart's direct call chain
// (Body's catch-all "text" transition); it carries no transitions of
// its own and exists so Build()'s state table has an entry matching
// docutils' Text state name.
func textState() *rstsm.State {
	return &rstsm.State{
		Name: "Text",
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

// joinParagraphLines collapses a flush-left text block's physical
// lines into one logical line, the shape rstinline.Tokenizer.Parse
// expects: newlines become single spaces, not preserved verbatim.
func joinParagraphLines(block *rstline.LineStore) string {
	lines := make([]string, block.Len())
	for i := 0; i < block.Len(); i++ {
		lines[i] = strings.TrimSpace(block.Text(i))
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

// runTextStart implements the Text state: a line that
// matched none of Body's other transitions. It decides, synchronously,
// among the three shapes a flush-left text run can take: a definition
// list item (an indented block follows with no intervening blank
// line), a section title (the very next line is an underline), or an
// ordinary paragraph.
func runTextStart(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()

	next := m.NextLineText()
	if !m.IsNextLineBlank() && leadingSpaces(next) > 0 {
		return runDefinitionListStart(m, line)
	}

	start := m.AbsLineOffset()

	// A single text line whose immediate successor is a punctuation run
	// is a section title, no matter how much more text follows the
	// underline; the underline check happens on the raw next line, not
	// on the collected block, so the underline is never swallowed into
	// a paragraph.
	if !m.IsNextLineBlank() {
		if marker, ok := isUnderlineRun(next); ok {
			openSection(memo, marker, line, sourceID, ln)
			warnShortDecoration(memo, next, line, sourceID, ln)
			m.GotoLine(start + 2)
			if m.AtEOF() {
				return rstsm.Result{EOF: true}
			}
			return rstsm.Continue
		}
	}

	block, err := rstindent.TextBlock(m.Store(), start, true)
	if ui, ok := err.(*rstindent.UnexpectedIndentation); ok {
		block = ui.Block
	} else if err != nil {
		memo.Append(memo.system(rstast.LevelError, err.Error(), sourceID, ln))
		m.NextLine()
		return rstsm.Continue
	}
	if block.Len() == 0 {
		m.NextLine()
		return rstsm.Continue
	}

	text := joinParagraphLines(block)
	trimmed := strings.TrimRight(text, " ")
	switch {
	case trimmed == "::":
		memo.PendingLiteral = true
		text = ""
	case strings.HasSuffix(trimmed, " ::"):
		text = strings.TrimRight(trimmed[:len(trimmed)-2], " ")
		memo.PendingLiteral = true
	case strings.HasSuffix(trimmed, "::"):
		text = trimmed[:len(trimmed)-1]
		memo.PendingLiteral = true
	}

	if text != "" {
		para := rstast.NewNode(rstast.NodeParagraph)
		para.SourceID, para.Line = sourceID, ln
		para.RawSource = text
		nodes, msgs := memo.Tokenizer.Parse(text, ln)
		for _, n := range nodes {
			rstast.AppendChild(para, n)
		}
		memo.Append(para)
		for _, msg := range msgs {
			memo.Append(msg)
		}
	}

	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

// --- Definition lists -------------------------------------------------

func definitionState() *rstsm.State {
	return &rstsm.State{
		Name: "Definition",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
				return rstsm.Result{EOF: true}
			}},
			{Name: "item", Match: func(string) bool { return true }, Run: runDefinitionItem},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func runDefinitionListStart(m *rstsm.StateMachine, line string) rstsm.Result {
	sourceID, ln := m.GetSourceAndLine()
	listNode := rstast.NewNode(rstast.NodeDefinitionList)
	listNode.SourceID, listNode.Line = sourceID, ln
	return runMarkerList(m, "Definition", listNode, func(*Memo) {})
}

// runDefinitionItem consumes one term line (with optional " : "
// classifiers) and the single indented block that must immediately
// follow it with no blank line between. Any other
// shape (no indent follows, or a blank line intervenes) reverts
// control to the parent list via EOF without consuming the line.
func runDefinitionItem(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	if m.IsNextLineBlank() || leadingSpaces(m.NextLineText()) == 0 {
		return rstsm.Result{EOF: true}
	}
	sourceID, ln := m.GetSourceAndLine()

	item := rstast.NewNode(rstast.NodeDefinitionListItem)
	item.SourceID, item.Line = sourceID, ln
	memo.Append(item)

	parts := strings.Split(line, " : ")
	termText := strings.TrimSpace(parts[0])
	term := rstast.NewNode(rstast.NodeTerm)
	term.SourceID, term.Line = sourceID, ln
	term.RawSource = termText
	nodes, msgs := memo.Tokenizer.Parse(termText, ln)
	for _, n := range nodes {
		rstast.AppendChild(term, n)
	}
	rstast.AppendChild(item, term)
	for _, msg := range msgs {
		memo.Append(msg)
	}
	for _, c := range parts[1:] {
		classifier := rstast.NewNode(rstast.NodeClassifier)
		classifier.Text = strings.TrimSpace(c)
		rstast.AppendChild(item, classifier)
	}

	definition := rstast.NewNode(rstast.NodeDefinition)
	definition.SourceID, definition.Line = sourceID, ln
	rstast.AppendChild(item, definition)

	m.NextLine()
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.Indented(m.Store(), start, rstindent.Options{StripIndent: true})
	if err != nil {
		return rstsm.Continue
	}
	runBodySubMachine(m, block, memo, definition)
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}
