package rstblocks

import (
	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstline"
	"github.com/i80and/snooty/pkg/rstsm"
)

// runMarkerList is the shared engine behind BulletList, EnumeratedList,
// FieldList, OptionList and LineBlock: it spawns a nested sub-machine
// rooted at the current line in the named marker state, runs it to
// completion (the marker state reverts control with an EOF Result as
// soon as a line no longer belongs to the list), and resynchronizes the
// outer cursor to wherever the nested machine stopped. Specialized
// sub-states revert to the parent via EOF on any non-matching line.
func runMarkerList(m *rstsm.StateMachine, state string, listNode *rstast.Node, build func(child *Memo)) rstsm.Result {
	memo := m.Memo.(*Memo)
	start := m.AbsLineOffset()
	rest, err := m.Store().Slice(start, m.Store().Len())
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	sub, err := m.Nested(rest, state)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	memo.Append(listNode)
	child := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: listNode,
	}
	build(child)
	sub.Memo = child
	_ = sub.Run()
	m.Release(sub)
	m.GotoLine(start + sub.AbsLineOffset())
	if m.AtEOF() {
		return rstsm.Result{EOF: true}
	}
	return rstsm.Continue
}

// runItemSubMachine parses an item's content block (already sliced to
// its own indentation) under itemParent via a nested Body sub-machine,
// exactly like a block quote's contents.
func runItemSubMachine(m *rstsm.StateMachine, block *rstline.LineStore, memo *Memo, itemParent *rstast.Node) {
	runBodySubMachine(m, block, memo, itemParent)
}
