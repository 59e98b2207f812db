// Package rst is the parser's public entry point: it wires the line
// store, inline tokenizer, block states, state machine, and directive
// runtime together and exposes the single Parse call external
// collaborators consume.
package rst

import (
	"errors"
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstblocks"
	"github.com/i80and/snooty/pkg/rstdirective"
	"github.com/i80and/snooty/pkg/rstinline"
	"github.com/i80and/snooty/pkg/rstline"
	"github.com/i80and/snooty/pkg/rstsm"
)

// Parse parses text as reStructuredText and returns the completed
// Document. Syntax problems become SystemMessage nodes in the tree and
// Diagnostic records on the Document's Reporter; only a genuine
// programming error (rstsm.ParserBug) yields a non-nil error, in which
// case no Document is returned. Reaching options.HaltLevel stops
// consuming input but still returns the Document built so far.
func Parse(sourceID, text string, options *OptionParser) (*rstast.Document, error) {
	if options == nil {
		options = NewOptionParser()
	}
	opts := options.normalized()

	reporter := rstast.NewReporter(opts.reportSeverity(), opts.haltSeverity())
	doc := rstast.NewDocument(opts.IDPrefix, opts.AutoIDPrefix, reporter)
	doc.CurrentSource = sourceID

	store := rstline.FromSource(text, opts.TabWidth, true, sourceID)

	tok := rstinline.New(rstinline.Context{
		Doc:                  doc,
		Reporter:             reporter,
		SourceID:             sourceID,
		Roles:                roleAdapter(opts.LookupRole),
		CharacterLevel:       opts.CharacterLevelInlineMarkup,
		TrimFootnoteRefSpace: opts.TrimFootnoteReferenceSpace,
	})

	runner := &lookupRunner{lookup: opts.LookupDirective}
	memo := rstblocks.NewMemo(doc, reporter, tok, runner, sourceID, opts.TabWidth)

	machine, err := rstsm.New(store, rstblocks.Build(), "Body")
	if err != nil {
		return nil, err
	}
	machine.Memo = memo
	machine.StopCheck = reporter.Halted
	machine.WithObserver(&documentObserver{doc: doc})
	for _, obs := range opts.Observers {
		machine.WithObserver(obs)
	}

	if runErr := machine.Run(); runErr != nil {
		if errors.Is(runErr, rstast.ErrHalted) {
			return doc, nil
		}
		return nil, runErr
	}
	return doc, nil
}

// documentObserver keeps the Document's current_source/current_line
// bookkeeping in step with the state machine's cursor, in place of the
// process-wide globals the design notes rule out.
type documentObserver struct {
	doc *rstast.Document
}

func (o *documentObserver) OnLine(sourceID string, line int, _ string, _ string) {
	o.doc.CurrentSource = sourceID
	o.doc.CurrentLine = line
}

func (o *documentObserver) OnStateChange(string, string) {}

// lookupRunner satisfies rstblocks.DirectiveRunner on top of a bare
// lookup callback, so a caller overriding lookup_directive still goes
// through the standard option-validation runtime.
type lookupRunner struct {
	lookup func(name string) (*rstdirective.DirectiveSpec, bool)
}

func (r *lookupRunner) Run(name, domain, argText string, body *rstline.LineStore, sourceID string, line int, nested func(content *rstline.LineStore, parent *rstast.Node)) (*rstast.Node, []*rstast.Node) {
	qualified := name
	if domain != "" {
		qualified = domain + ":" + name
	}
	spec, ok := r.lookup(qualified)
	if !ok && domain != "" {
		spec, ok = r.lookup(name)
	}
	if !ok {
		return nil, []*rstast.Node{rstdirective.UnknownDirective(qualified, sourceID, line)}
	}
	return rstdirective.RunSpec(spec, name, domain, argText, body, sourceID, line, nested)
}

// roleAdapter narrows an rstdirective.RoleHandler (node plus message
// list) to the single-message shape the tokenizer can propagate inline.
func roleAdapter(lookup func(name string) (rstdirective.RoleHandler, bool)) rstinline.RoleLookup {
	if lookup == nil {
		return nil
	}
	return func(name string) (rstinline.RoleFunc, bool) {
		handler, ok := lookup(name)
		if !ok {
			return nil, false
		}
		return func(roleName, rawSource, text, sourceID string, line int) (*rstast.Node, *rstast.Node) {
			node, msgs := handler(roleName, rawSource, text, sourceID, line)
			if len(msgs) > 0 {
				return node, msgs[0]
			}
			return node, nil
		}, true
	}
}

// Diagnostics returns doc's accumulated diagnostic records, ordered by
// emission; a convenience over doc.Reporter.Messages() for callers that
// only have the Document in hand.
func Diagnostics(doc *rstast.Document) []rstast.Diagnostic {
	if doc == nil || doc.Reporter == nil {
		return nil
	}
	return doc.Reporter.Messages()
}

// Outline renders the tree rooted at root as an indented one-node-per-
// line listing, the form cmd/snooty-parse prints. Each line carries the
// node kind, its names/ids when present, and a short text excerpt.
func Outline(root *rstast.Node) string {
	var b strings.Builder
	var walk func(n *rstast.Node, depth int)
	walk = func(n *rstast.Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(kindName(n.Kind))
		if len(n.Names) > 0 {
			b.WriteString(" names=")
			b.WriteString(strings.Join(n.Names, ","))
		}
		if len(n.IDs) > 0 {
			b.WriteString(" ids=")
			b.WriteString(strings.Join(n.IDs, ","))
		}
		if excerpt := excerptText(n.Text); excerpt != "" {
			b.WriteString(" ")
			b.WriteString(excerpt)
		}
		b.WriteString("\n")
		for c := n.FirstChild; c != nil; c = c.Next {
			walk(c, depth+1)
		}
	}
	if root != nil {
		walk(root, 0)
	}
	return b.String()
}

func excerptText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	const max = 50
	if len(text) > max {
		text = text[:max] + "…"
	}
	return `"` + text + `"`
}

func kindName(k rstast.Kind) string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "node"
}

var kindNames = map[rstast.Kind]string{
	rstast.NodeRoot:                   "document",
	rstast.NodeSection:                "section",
	rstast.NodeTitle:                  "title",
	rstast.NodeTransition:             "transition",
	rstast.NodeParagraph:              "paragraph",
	rstast.NodeBulletList:             "bullet_list",
	rstast.NodeEnumeratedList:         "enumerated_list",
	rstast.NodeListItem:               "list_item",
	rstast.NodeDefinitionList:         "definition_list",
	rstast.NodeDefinitionListItem:     "definition_list_item",
	rstast.NodeTerm:                   "term",
	rstast.NodeClassifier:             "classifier",
	rstast.NodeDefinition:             "definition",
	rstast.NodeFieldList:              "field_list",
	rstast.NodeField:                  "field",
	rstast.NodeFieldName:              "field_name",
	rstast.NodeFieldBody:              "field_body",
	rstast.NodeOptionList:             "option_list",
	rstast.NodeOptionListItem:         "option_list_item",
	rstast.NodeOptionGroup:            "option_group",
	rstast.NodeOption:                 "option",
	rstast.NodeOptionString:           "option_string",
	rstast.NodeOptionArgument:         "option_argument",
	rstast.NodeDescription:            "description",
	rstast.NodeLiteralBlock:           "literal_block",
	rstast.NodeDoctestBlock:           "doctest_block",
	rstast.NodeLineBlock:              "line_block",
	rstast.NodeLine:                   "line",
	rstast.NodeBlockQuote:             "block_quote",
	rstast.NodeComment:                "comment",
	rstast.NodeSubstitutionDefinition: "substitution_definition",
	rstast.NodeTarget:                 "target",
	rstast.NodeFootnote:               "footnote",
	rstast.NodeCitation:               "citation",
	rstast.NodeLabel:                  "label",
	rstast.NodeTable:                  "table",
	rstast.NodeCaption:                "caption",
	rstast.NodeEntry:                  "entry",
	rstast.NodeText:                   "text",
	rstast.NodeEmphasis:               "emphasis",
	rstast.NodeStrong:                 "strong",
	rstast.NodeLiteral:                "literal",
	rstast.NodeReference:              "reference",
	rstast.NodeFootnoteReference:      "footnote_reference",
	rstast.NodeCitationReference:      "citation_reference",
	rstast.NodeSubstitutionReference:  "substitution_reference",
	rstast.NodeDirective:              "directive",
	rstast.NodeDirectiveArgument:      "directive_argument",
	rstast.NodeRole:                   "role",
	rstast.NodeRefRole:                "ref_role",
	rstast.NodeCode:                   "code",
	rstast.NodeTargetIdentifier:       "target_identifier",
	rstast.NodeSystemMessage:          "system_message",
}
