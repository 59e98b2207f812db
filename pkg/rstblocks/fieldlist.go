package rstblocks

import (
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstindent"
	"github.com/i80and/snooty/pkg/rstsm"
)

func fieldListState() *rstsm.State {
	return &rstsm.State{
		Name: "FieldList",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(m *rstsm.StateMachine, _ string) rstsm.Result {
				m.NextLine()
				return rstsm.Continue
			}},
			{Name: "field", Match: fieldLine.MatchString, Run: runFieldItem},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func runFieldStart(m *rstsm.StateMachine, line string) rstsm.Result {
	sourceID, ln := m.GetSourceAndLine()
	listNode := rstast.NewNode(rstast.NodeFieldList)
	listNode.SourceID, listNode.Line = sourceID, ln
	return runMarkerList(m, "FieldList", listNode, func(*Memo) {})
}

func runFieldItem(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	match := fieldLine.FindStringSubmatch(line)
	name := match[1]
	sourceID, ln := m.GetSourceAndLine()

	field := rstast.NewNode(rstast.NodeField)
	field.SourceID, field.Line = sourceID, ln
	memo.Append(field)

	fieldName := rstast.NewNode(rstast.NodeFieldName)
	fieldName.SourceID, fieldName.Line = sourceID, ln
	fieldName.Text = name
	rstast.AppendChild(field, fieldName)

	body := rstast.NewNode(rstast.NodeFieldBody)
	body.SourceID, body.Line = sourceID, ln
	rstast.AppendChild(field, body)

	markerEnd := len(name) + 2
	firstIndent := markerContentIndent(line, markerEnd)
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	bodyMemo := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: body,
	}
	runItemSubMachine(m, block, bodyMemo, body)
	m.GotoLine(start + block.Len())
	return rstsm.Continue
}

// --- Option lists -------------------------------------------------

func optionListState() *rstsm.State {
	return &rstsm.State{
		Name: "OptionList",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(m *rstsm.StateMachine, _ string) rstsm.Result {
				m.NextLine()
				return rstsm.Continue
			}},
			{Name: "option", Match: func(line string) bool {
				return strings.HasPrefix(strings.TrimLeft(line, " "), "-") && optionLine.MatchString(strings.TrimLeft(line, " "))
			}, Run: runOptionItem},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func runOptionStart(m *rstsm.StateMachine, line string) rstsm.Result {
	sourceID, ln := m.GetSourceAndLine()
	listNode := rstast.NewNode(rstast.NodeOptionList)
	listNode.SourceID, listNode.Line = sourceID, ln
	return runMarkerList(m, "OptionList", listNode, func(*Memo) {})
}

// optionTokenSplit splits one "-o ARG" / "--long=ARG" / "--long ARG"
// token within an option group at the first "=", else the first space,
// else after the two-character "-oVAL" form. An argument that itself
// contains a space, like "-o <val1 val2>", never reaches this split:
// optionLine does not match such a line, so it is not read as an option.
var optionTokenSplit = func(tok string) (flag, arg string) {
	tok = strings.TrimSpace(tok)
	if i := strings.Index(tok, "="); i >= 0 {
		return tok[:i], tok[i+1:]
	}
	if i := strings.Index(tok, " "); i >= 0 {
		return tok[:i], strings.TrimSpace(tok[i+1:])
	}
	if len(tok) > 2 && tok[0] == '-' && tok[1] != '-' && len(tok) > 2 {
		return tok[:2], tok[2:]
	}
	return tok, ""
}

func runOptionItem(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	trimmed := strings.TrimLeft(line, " ")
	indent := len(line) - len(trimmed)
	sourceID, ln := m.GetSourceAndLine()

	item := rstast.NewNode(rstast.NodeOptionListItem)
	item.SourceID, item.Line = sourceID, ln
	memo.Append(item)

	group := rstast.NewNode(rstast.NodeOptionGroup)
	group.SourceID, group.Line = sourceID, ln
	rstast.AppendChild(item, group)

	// Split on two-or-more-space runs to separate option group from
	// description, then on ", " within the group for multiple
	// spellings of the same option.
	head := trimmed
	descOnLine := ""
	if idx := strings.Index(trimmed, "  "); idx >= 0 {
		head = trimmed[:idx]
		descOnLine = strings.TrimSpace(trimmed[idx:])
	}
	for _, tok := range strings.Split(head, ", ") {
		opt := rstast.NewNode(rstast.NodeOption)
		rstast.AppendChild(group, opt)
		flag, arg := optionTokenSplit(tok)
		optStr := rstast.NewNode(rstast.NodeOptionString)
		optStr.Text = flag
		rstast.AppendChild(opt, optStr)
		if arg != "" {
			optArg := rstast.NewNode(rstast.NodeOptionArgument)
			optArg.Text = arg
			rstast.AppendChild(opt, optArg)
		}
	}

	desc := rstast.NewNode(rstast.NodeDescription)
	rstast.AppendChild(item, desc)

	firstIndent := indent + len(head)
	if descOnLine != "" {
		firstIndent = len(line) - len(strings.TrimLeft(line[indent+len(head):], " "))
	}
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil || block.Len() == 0 {
		m.NextLine()
		return rstsm.Continue
	}
	descMemo := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: desc,
	}
	runItemSubMachine(m, block, descMemo, desc)
	m.GotoLine(start + block.Len())
	return rstsm.Continue
}

// --- Line blocks -------------------------------------------------

func lineBlockState() *rstsm.State {
	return &rstsm.State{
		Name: "LineBlock",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
				return rstsm.Result{EOF: true}
			}},
			{Name: "line", Match: lineBlockLine.MatchString, Run: runLineBlockItem},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func runLineBlockStart(m *rstsm.StateMachine, line string) rstsm.Result {
	sourceID, ln := m.GetSourceAndLine()
	listNode := rstast.NewNode(rstast.NodeLineBlock)
	listNode.SourceID, listNode.Line = sourceID, ln
	return runMarkerList(m, "LineBlock", listNode, func(*Memo) {})
}

func runLineBlockItem(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	match := lineBlockLine.FindStringSubmatch(line)
	text := ""
	if len(match) > 2 {
		text = match[2]
	}
	sourceID, ln := m.GetSourceAndLine()
	lineNode := rstast.NewNode(rstast.NodeLine)
	lineNode.SourceID, lineNode.Line = sourceID, ln
	lineNode.RawSource = text
	nodes, msgs := memo.Tokenizer.Parse(text, ln)
	for _, n := range nodes {
		rstast.AppendChild(lineNode, n)
	}
	memo.Append(lineNode)
	for _, msg := range msgs {
		memo.Append(msg)
	}
	m.NextLine()
	return rstsm.Continue
}
