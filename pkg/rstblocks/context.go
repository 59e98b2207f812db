// Package rstblocks implements the body-level states of the parser's
// state machine: Body, BulletList, EnumeratedList, FieldList,
// OptionList, LineBlock, ExplicitMarkup, Definition, and the Text/
// paragraph-assembly state. Each state is built as
// an ordered rstsm.Transition list operating against a shared *Memo
// carried in the StateMachine's Memo field.
package rstblocks

import (
	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstinline"
	"github.com/i80and/snooty/pkg/rstline"
)

// DirectiveRunner is the narrow surface rstblocks needs from the
// directive/role registry to dispatch an explicit
// markup block of the form ".. name:: arguments". It is satisfied by
// *rstdirective.Registry; kept as a local interface so this package
// does not need to import rstdirective's option-validation machinery
// to recognize the *syntax* of a directive block.
type DirectiveRunner interface {
	Run(name, domain, argText string, body *rstline.LineStore, sourceID string, line int, nested func(content *rstline.LineStore, parent *rstast.Node)) (*rstast.Node, []*rstast.Node)
}

// Memo is the shared, mutable parse state every rstblocks transition
// reaches through m.Memo.(*Memo). It plays the role docutils'
// RSTStateMachine instance attributes play: current insertion point,
// section-nesting bookkeeping, and the document-wide services
// (Document, Reporter, Tokenizer).
type Memo struct {
	Doc        *rstast.Document
	Reporter   *rstast.Reporter
	Tokenizer  *rstinline.Tokenizer
	Directives DirectiveRunner

	SourceID string
	TabWidth int

	// Parent is the node new block-level children are appended to.
	Parent *rstast.Node

	// sectionStack records, innermost last, the (underline rune,
	// section node) pairs currently open, per docutils' section
	// nesting-by-first-use-order rule.
	sectionStack []sectionFrame

	// PendingLiteral is set by the Text state when a paragraph ends in
	// "::" (on its own, after a space, or directly after text), so Body knows the next
	// indented block is a literal block rather than a block quote.
	PendingLiteral bool

	// BulletChar fixes the bullet rune a BulletList sub-machine accepts
	// for subsequent items; set once, before the sub-machine runs.
	BulletChar rune

	// Enum carries the per-list ordinal bookkeeping an EnumeratedList
	// sub-machine needs to reject items that do not extend the
	// sequence.
	Enum *EnumContext

	// The FieldList/OptionList/LineBlock sub-machines need nothing
	// beyond "marker, then indented body", so Memo carries no extra
	// per-list state for them the way it does for bullet/enum lists.
}

// EnumContext is the per-list context an EnumeratedList sub-machine
// tracks across items: the last ordinal seen, the numbering format
// (arabic/loweralpha/upperalpha/lowerroman/upperroman), whether the
// sequence is auto-numbered ("#"), and the affix (parens/rparen/period).
type EnumContext struct {
	Format      string
	Affix       string
	Auto        bool
	LastOrdinal int
}

type sectionFrame struct {
	marker rune
	node   *rstast.Node
}

// NewMemo builds a fresh Memo rooted at doc.Root.
func NewMemo(doc *rstast.Document, reporter *rstast.Reporter, tok *rstinline.Tokenizer, directives DirectiveRunner, sourceID string, tabWidth int) *Memo {
	return &Memo{
		Doc:        doc,
		Reporter:   reporter,
		Tokenizer:  tok,
		Directives: directives,
		SourceID:   sourceID,
		TabWidth:   tabWidth,
		Parent:     doc.Root,
	}
}

// Append adds child as the last child of Memo's current Parent.
func (mo *Memo) Append(child *rstast.Node) {
	rstast.AppendChild(mo.Parent, child)
}

// system builds a system_message node at the given level, preferring
// Reporter.Report (which also tallies against ReportLevel/HaltLevel)
// and falling back to the package-level rstast.System when no Reporter
// is attached.
func (mo *Memo) system(level rstast.Severity, message, sourceID string, line int) *rstast.Node {
	if mo.Reporter != nil {
		node, _ := mo.Reporter.Report(level, message, sourceID, line)
		return node
	}
	return rstast.System(level, message, sourceID, line)
}
