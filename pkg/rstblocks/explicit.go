package rstblocks

import (
	"regexp"
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstindent"
	"github.com/i80and/snooty/pkg/rstline"
	"github.com/i80and/snooty/pkg/rstsm"
)

var (
	footnoteMarker     = regexp.MustCompile(`^\.\.\s+\[(#[A-Za-z][A-Za-z0-9_-]*|#|\*|[0-9]+)\](\s+(\S.*)?)?$`)
	citationMarker     = regexp.MustCompile(`^\.\.\s+\[([A-Za-z][A-Za-z0-9_.-]*)\](\s+(\S.*)?)?$`)
	targetMarker       = regexp.MustCompile(`^\.\.\s+_([^\\:]*(?:\\.[^\\:]*)*):(\s+(\S.*)?)?$`)
	substitutionMarker = regexp.MustCompile(`^\.\.\s+\|([^|]+)\|\s+(\S.*)$`)
	directiveMarker    = regexp.MustCompile(`^\.\.\s+([A-Za-z][A-Za-z0-9_+.-]*(?::[A-Za-z][A-Za-z0-9_+.-]*)?)::(\s+(\S.*)?)?$`)
	anonymousTarget    = regexp.MustCompile(`^__(\s+(\S.*)?)?$`)
)

// runExplicitStart dispatches a ".. " marker line to footnote,
// citation, hyperlink-target, substitution-definition, or directive
// handling, trying each in order and falling back to a comment, the
// same order docutils tries explicit constructs.
func runExplicitStart(m *rstsm.StateMachine, line string) rstsm.Result {
	switch {
	case footnoteMarker.MatchString(line):
		return buildFootnoteOrCitation(m, line, true)
	case citationMarker.MatchString(line):
		return buildFootnoteOrCitation(m, line, false)
	case targetMarker.MatchString(line):
		return buildTarget(m, line, false)
	case substitutionMarker.MatchString(line):
		return buildSubstitutionDef(m, line)
	case directiveMarker.MatchString(line):
		return buildDirective(m, line)
	default:
		return buildComment(m, line)
	}
}

func explicitMarkupState() *rstsm.State {
	return &rstsm.State{
		Name: "ExplicitMarkup",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(m *rstsm.StateMachine, _ string) rstsm.Result {
				m.NextLine()
				return rstsm.Continue
			}},
			{Name: "explicit", Match: explicitLine.MatchString, Run: func(m *rstsm.StateMachine, line string) rstsm.Result {
				return runExplicitStart(m, line)
			}},
			{Name: "anonymous", Match: anonymousTarget.MatchString, Run: func(m *rstsm.StateMachine, line string) rstsm.Result {
				return buildTarget(m, line, true)
			}},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func buildFootnoteOrCitation(m *rstsm.StateMachine, line string, isFootnote bool) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()

	var label string
	var firstIndent int
	var kind rstast.Kind
	var auto bool
	var autoKind string
	if isFootnote {
		match := footnoteMarker.FindStringSubmatch(line)
		label = match[1]
		firstIndent = markerContentIndent(line, strings.Index(line, "]")+1)
		kind = rstast.NodeFootnote
		switch {
		case label == "*":
			auto, autoKind = true, "symbol"
		case label == "#":
			auto, autoKind = true, "number"
		case strings.HasPrefix(label, "#"):
			auto, autoKind = true, "number"
			label = label[1:]
		}
	} else {
		match := citationMarker.FindStringSubmatch(line)
		label = match[1]
		firstIndent = markerContentIndent(line, strings.Index(line, "]")+1)
		kind = rstast.NodeCitation
	}

	node := rstast.NewNode(kind)
	node.SourceID, node.Line = sourceID, ln
	memo.Append(node)

	if label != "" {
		labelNode := rstast.NewNode(rstast.NodeLabel)
		labelNode.Text = label
		rstast.AppendChild(node, labelNode)
	}
	node.Attrs.SetBool("auto", auto)
	if autoKind != "" {
		node.Attrs.SetString("kind", autoKind)
	}

	name := label
	if auto && autoKind == "symbol" {
		name = ""
	}
	if name != "" {
		id := memo.Doc.AutoID(node, []string{name})
		memo.Doc.RegisterName(node, name, id, true)
		node.Names = append(node.Names, rstast.FullyNormalizeName(name))
	}
	if isFootnote {
		memo.Doc.Footnotes = append(memo.Doc.Footnotes, node)
		switch {
		case auto && autoKind == "symbol":
			memo.Doc.SymbolFootnotes = append(memo.Doc.SymbolFootnotes, node)
		case auto:
			memo.Doc.Autofootnotes = append(memo.Doc.Autofootnotes, node)
		}
	} else {
		memo.Doc.Citations = append(memo.Doc.Citations, node)
	}

	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	bodyMemo := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: node,
	}
	runItemSubMachine(m, block, bodyMemo, node)
	m.GotoLine(start + block.Len())
	return rstsm.Continue
}

func buildTarget(m *rstsm.StateMachine, line string, anonymous bool) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()

	node := rstast.NewNode(rstast.NodeTarget)
	node.SourceID, node.Line = sourceID, ln

	var firstIndent int
	if anonymous {
		node.Attrs.SetBool("anonymous", true)
		firstIndent = markerContentIndent(line, 2)
	} else {
		idx := targetMarker.FindStringSubmatchIndex(line)
		name := strings.ReplaceAll(line[idx[2]:idx[3]], `\`, "")
		node.Names = []string{rstast.FullyNormalizeName(name)}
		// idx[3] is the end of the captured name, immediately before
		// the terminating colon.
		firstIndent = markerContentIndent(line, idx[3]+1)
	}
	memo.Append(node)

	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, true, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	uri := strings.TrimSpace(strings.Join(strings.Fields(block.Join()), " "))
	switch {
	case strings.HasSuffix(uri, "_") && !strings.Contains(uri, "://"):
		// Indirect target: the "uri" is really a reference to another
		// target's name (".. _a: b_").
		refname := strings.TrimSuffix(strings.TrimSuffix(uri, "_"), "`")
		refname = strings.TrimPrefix(refname, "`")
		node.Attrs.SetString("refname", rstast.FullyNormalizeName(refname))
		memo.Doc.IndirectTargets = append(memo.Doc.IndirectTargets, node)
	case uri != "":
		node.Attrs.SetString("refuri", uri)
	}
	if !anonymous {
		memo.Doc.RegisterName(node, node.Names[0], memo.Doc.AutoID(node, node.Names), true)
	}
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

// bareDirectiveLine matches a directive invocation line with its ".. "
// prefix already stripped, as found inside a substitution definition's
// body, which expects an embedded directive as its single content.
var bareDirectiveLine = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_+.-]*(?::[A-Za-z][A-Za-z0-9_+.-]*)?)::(\s+(\S.*)?)?$`)

func buildSubstitutionDef(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	match := substitutionMarker.FindStringSubmatch(line)
	name := strings.TrimSpace(match[1])
	sourceID, ln := m.GetSourceAndLine()

	node := rstast.NewNode(rstast.NodeSubstitutionDefinition)
	node.SourceID, node.Line = sourceID, ln
	node.Names = []string{rstast.FullyNormalizeName(name)}

	idx := strings.LastIndex(line, "|")
	firstIndent := markerContentIndent(line, idx+1)

	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	memo.Append(node)

	first := block.Text(0)
	directiveMatch := bareDirectiveLine.FindStringSubmatch(first)
	if directiveMatch == nil || memo.Directives == nil {
		memo.Append(memo.system(rstast.LevelError,
			"Substitution definition \""+name+"\" missing contents.", sourceID, ln))
		memo.Doc.RegisterName(node, node.Names[0], "", true)
		m.GotoLine(start + block.Len())
		if m.AtEOF() {
			return rstsm.Result{EOF: true}
		}
		return rstsm.Continue
	}

	fullName := directiveMatch[1]
	dirName, domain := fullName, ""
	if i := strings.Index(fullName, ":"); i >= 0 {
		domain, dirName = fullName[:i], fullName[i+1:]
	}
	markerEnd := strings.Index(first, "::") + 2
	dirIndent := markerContentIndent(first, markerEnd)
	content, _, _, err := rstindent.FirstKnownIndent(block, 0, dirIndent, false, true)
	if err != nil {
		content = block
	}
	result, msgs := memo.Directives.Run(dirName, domain, "", content, sourceID, ln, func(nestedContent *rstline.LineStore, parent *rstast.Node) {
		runBodySubMachine(m, nestedContent, memo, parent)
	})
	if result != nil {
		for c := result.FirstChild; c != nil; {
			next := c.Next
			rstast.AppendChild(node, c)
			c = next
		}
		if result.FirstChild == nil && result.Text != "" {
			node.Text = result.Text
		}
	}
	for _, msg := range msgs {
		memo.Append(msg)
	}
	memo.Doc.RegisterName(node, node.Names[0], "", true)
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

func buildDirective(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	match := directiveMarker.FindStringSubmatch(line)
	fullName := match[1]
	sourceID, ln := m.GetSourceAndLine()

	name, domain := fullName, ""
	if idx := strings.Index(fullName, ":"); idx >= 0 {
		domain, name = fullName[:idx], fullName[idx+1:]
	}

	markerEnd := strings.Index(line, "::") + 2
	firstIndent := markerContentIndent(line, markerEnd)
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}

	if memo.Directives == nil {
		memo.Append(memo.system(rstast.LevelError, "Unknown directive type \""+name+"\".", sourceID, ln))
		m.GotoLine(start + block.Len())
		if m.AtEOF() {
			return rstsm.Result{EOF: true}
		}
		return rstsm.Continue
	}
	node, msgs := memo.Directives.Run(name, domain, "", block, sourceID, ln, func(content *rstline.LineStore, parent *rstast.Node) {
		runBodySubMachine(m, content, memo, parent)
	})
	if node != nil {
		memo.Append(node)
	}
	for _, msg := range msgs {
		memo.Append(msg)
	}
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

func buildComment(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	sourceID, ln := m.GetSourceAndLine()
	node := rstast.NewNode(rstast.NodeComment)
	node.SourceID, node.Line = sourceID, ln

	firstIndent := markerContentIndent(line, 2)
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	node.Text = block.Join()
	memo.Append(node)
	m.GotoLine(start + block.Len())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

func substitutionDefState() *rstsm.State {
	return &rstsm.State{
		Name:        "SubstitutionDef",
		Transitions: []rstsm.Transition{},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}
