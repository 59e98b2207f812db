package rstblocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstblocks"
	"github.com/i80and/snooty/pkg/rstdirective"
	"github.com/i80and/snooty/pkg/rstinline"
	"github.com/i80and/snooty/pkg/rstline"
	"github.com/i80and/snooty/pkg/rstsm"
)

// parseSource drives the full block-state stack over text, the way
// pkg/rst wires it but without the option plumbing, so failures point
// at this package rather than the entry point.
func parseSource(t *testing.T, text string) *rstast.Document {
	t.Helper()
	reporter := rstast.NewReporter(rstast.LevelInfo, rstast.Severity(5))
	doc := rstast.NewDocument("", "id", reporter)
	tok := rstinline.New(rstinline.Context{Doc: doc, Reporter: reporter, SourceID: "<test>"})
	memo := rstblocks.NewMemo(doc, reporter, tok, rstdirective.NewDefaultRegistry(), "<test>", 8)
	store := rstline.FromSource(text, 8, true, "<test>")
	machine, err := rstsm.New(store, rstblocks.Build(), "Body")
	require.NoError(t, err)
	machine.Memo = memo
	require.NoError(t, machine.Run())
	return doc
}

func kinds(nodes []*rstast.Node) []rstast.Kind {
	out := make([]rstast.Kind, len(nodes))
	for i, n := range nodes {
		out[i] = n.Kind
	}
	return out
}

func TestParagraph(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "Just a paragraph\nspanning two lines.\n")
	children := doc.Root.Children()
	require.Len(t, children, 1)
	para := children[0]
	assert.Equal(t, rstast.NodeParagraph, para.Kind)
	require.Equal(t, 1, para.ChildCount())
	assert.Equal(t, "Just a paragraph spanning two lines.", para.FirstChild.Text)
}

func TestBulletList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "* one\n* two\n* three\n")
	children := doc.Root.Children()
	require.Len(t, children, 1)
	list := children[0]
	assert.Equal(t, rstast.NodeBulletList, list.Kind)
	assert.Equal(t, "*", list.Attrs.GetString("bullet"))
	items := list.Children()
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, rstast.NodeListItem, item.Kind)
		assert.Equal(t, rstast.NodeParagraph, item.FirstChild.Kind)
	}
}

func TestBulletListMultiParagraphItem(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "* first paragraph\n\n  second paragraph\n* next item\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	items := list.Children()
	require.Len(t, items, 2)
	assert.Equal(t, []rstast.Kind{rstast.NodeParagraph, rstast.NodeParagraph}, kinds(items[0].Children()))
}

func TestBulletMarkerChangeEndsTheList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "* one\n- two\n")
	children := doc.Root.Children()
	require.NotEmpty(t, children)
	assert.Equal(t, rstast.NodeBulletList, children[0].Kind)
	assert.Equal(t, 1, children[0].ChildCount())
}

func TestNestedBulletList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "* - inner one\n  - inner two\n")
	outer := doc.Root.FirstChild
	require.NotNil(t, outer)
	assert.Equal(t, rstast.NodeBulletList, outer.Kind)
	require.Equal(t, 1, outer.ChildCount())
	inner := outer.FirstChild.FirstChild
	require.NotNil(t, inner)
	assert.Equal(t, rstast.NodeBulletList, inner.Kind)
	assert.Equal(t, 2, inner.ChildCount())
}

func TestEnumeratedList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "1. first\n2. second\n3. third\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeEnumeratedList, list.Kind)
	assert.Equal(t, "arabic", list.Attrs.GetString("enumtype"))
	assert.Equal(t, ".", list.Attrs.GetString("suffix"))
	assert.Equal(t, 1, list.Attrs.GetInt("start"))
	assert.Equal(t, 3, list.ChildCount())
}

func TestEnumeratedListStartNotOne(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "3. first\n4. second\n")
	var list *rstast.Node
	var info *rstast.Node
	for _, c := range doc.Root.Children() {
		switch c.Kind {
		case rstast.NodeEnumeratedList:
			list = c
		case rstast.NodeSystemMessage:
			info = c
		}
	}
	require.NotNil(t, list)
	assert.Equal(t, "arabic", list.Attrs.GetString("enumtype"))
	assert.Equal(t, "", list.Attrs.GetString("prefix"))
	assert.Equal(t, ".", list.Attrs.GetString("suffix"))
	assert.Equal(t, 3, list.Attrs.GetInt("start"))
	assert.Equal(t, 2, list.ChildCount())
	require.NotNil(t, info)
	assert.Contains(t, info.Text, "ordinal-1")
}

func TestEnumeratedListBreaksOnSequenceGap(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "1. first\n\n3. third\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeEnumeratedList, list.Kind)
	assert.Equal(t, 1, list.ChildCount())
}

func TestEnumeratedAutoItems(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "#. first\n#. second\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeEnumeratedList, list.Kind)
	assert.Equal(t, 2, list.ChildCount())
}

func TestEnumeratorFalsePositiveIsText(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "A. Smith wrote a book.\nIt was long.\n")
	children := doc.Root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, rstast.NodeParagraph, children[0].Kind)
}

func TestFieldList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ":author: Someone\n:version: 1.0\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeFieldList, list.Kind)
	fields := list.Children()
	require.Len(t, fields, 2)
	name := fields[0].FirstChild
	require.NotNil(t, name)
	assert.Equal(t, rstast.NodeFieldName, name.Kind)
	assert.Equal(t, "author", name.Text)
	body := name.Next
	require.NotNil(t, body)
	assert.Equal(t, rstast.NodeFieldBody, body.Kind)
	assert.Equal(t, rstast.NodeParagraph, body.FirstChild.Kind)
}

func TestDefinitionList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "term : classifier\n    definition body\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeDefinitionList, list.Kind)
	item := list.FirstChild
	require.NotNil(t, item)
	assert.Equal(t, []rstast.Kind{rstast.NodeTerm, rstast.NodeClassifier, rstast.NodeDefinition}, kinds(item.Children()))
	def := item.LastChild
	assert.Equal(t, rstast.NodeParagraph, def.FirstChild.Kind)
}

func TestSectionTitleWithUnderline(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "Title Here\n==========\n\nBody text.\n")
	section := doc.Root.FirstChild
	require.NotNil(t, section)
	assert.Equal(t, rstast.NodeSection, section.Kind)
	assert.Equal(t, []string{"title-here"}, section.IDs)
	title := section.FirstChild
	require.NotNil(t, title)
	assert.Equal(t, rstast.NodeTitle, title.Kind)
	assert.Equal(t, "Title Here", title.RawSource)
	assert.Equal(t, rstast.NodeParagraph, title.Next.Kind)
}

func TestSectionTitleWithOverline(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "==========\nTitle Here\n==========\n\nBody.\n")
	section := doc.Root.FirstChild
	require.NotNil(t, section)
	assert.Equal(t, rstast.NodeSection, section.Kind)
	assert.Equal(t, rstast.NodeTitle, section.FirstChild.Kind)
}

func TestSiblingSectionsShareLevel(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "One\n===\n\ntext\n\nTwo\n===\n\nmore\n")
	children := doc.Root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, rstast.NodeSection, children[0].Kind)
	assert.Equal(t, rstast.NodeSection, children[1].Kind)
}

func TestSubsectionNesting(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "Top\n===\n\nSub\n---\n\ntext\n")
	top := doc.Root.FirstChild
	require.NotNil(t, top)
	var sub *rstast.Node
	for c := top.FirstChild; c != nil; c = c.Next {
		if c.Kind == rstast.NodeSection {
			sub = c
		}
	}
	require.NotNil(t, sub, "subsection should nest under the top section")
}

func TestShortUnderlineWarns(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "A Long Title\n====\n\ntext\n")
	msgs := rstast.FindByKind(doc.Root, rstast.NodeSystemMessage)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Text, "underline too short")
}

func TestTransition(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "Before.\n\n----\n\nAfter.\n")
	assert.Equal(t, []rstast.Kind{
		rstast.NodeParagraph, rstast.NodeTransition, rstast.NodeParagraph,
	}, kinds(doc.Root.Children()))
}

func TestDocumentMayNotBeginWithTransition(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "----\n\nAfter.\n")
	first := doc.Root.FirstChild
	require.NotNil(t, first)
	assert.Equal(t, rstast.NodeSystemMessage, first.Kind)
}

func TestBlockQuote(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "Lead paragraph.\n\n   quoted text\n")
	children := doc.Root.Children()
	require.Len(t, children, 2)
	bq := children[1]
	assert.Equal(t, rstast.NodeBlockQuote, bq.Kind)
	assert.Equal(t, rstast.NodeParagraph, bq.FirstChild.Kind)
}

func TestLiteralBlockAfterDoubleColon(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "Code follows::\n\n   x = 1\n\n   y = 2\n")
	children := doc.Root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, rstast.NodeParagraph, children[0].Kind)
	assert.Equal(t, "Code follows:", children[0].FirstChild.Text)
	lit := children[1]
	assert.Equal(t, rstast.NodeLiteralBlock, lit.Kind)
	assert.Equal(t, "x = 1\n\ny = 2", lit.Text)
}

func TestLiteralBlockBareMarker(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "::\n\n   literal\n")
	children := doc.Root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, rstast.NodeLiteralBlock, children[0].Kind)
	assert.Equal(t, "literal", children[0].Text)
}

func TestDoctestBlock(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ">>> print(1)\n1\n\nAfter.\n")
	children := doc.Root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, rstast.NodeDoctestBlock, children[0].Kind)
	assert.Equal(t, ">>> print(1)\n1", children[0].Text)
}

func TestLineBlock(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "| first line\n| second line\n")
	block := doc.Root.FirstChild
	require.NotNil(t, block)
	assert.Equal(t, rstast.NodeLineBlock, block.Kind)
	lines := block.Children()
	require.Len(t, lines, 2)
	assert.Equal(t, rstast.NodeLine, lines[0].Kind)
	assert.Equal(t, "first line", lines[0].FirstChild.Text)
}

func TestOptionList(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "-a            description of a\n--long=VALUE  description of long\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeOptionList, list.Kind)
	items := list.Children()
	require.Len(t, items, 2)

	group := items[0].FirstChild
	require.Equal(t, rstast.NodeOptionGroup, group.Kind)
	opt := group.FirstChild
	require.Equal(t, rstast.NodeOption, opt.Kind)
	assert.Equal(t, "-a", opt.FirstChild.Text)

	group2 := items[1].FirstChild
	opt2 := group2.FirstChild
	assert.Equal(t, "--long", opt2.FirstChild.Text)
	require.NotNil(t, opt2.LastChild)
	assert.Equal(t, rstast.NodeOptionArgument, opt2.LastChild.Kind)
	assert.Equal(t, "VALUE", opt2.LastChild.Text)
}

func TestComment(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. just a comment\n   with a second line\n")
	children := doc.Root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, rstast.NodeComment, children[0].Kind)
	assert.Contains(t, children[0].Text, "just a comment")
}

func TestHyperlinkTarget(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. _example: https://example.com\n")
	target := doc.Root.FirstChild
	require.NotNil(t, target)
	assert.Equal(t, rstast.NodeTarget, target.Kind)
	assert.Equal(t, []string{"example"}, target.Names)
	assert.Equal(t, "https://example.com", target.Attrs.GetString("refuri"))
}

func TestIndirectTarget(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. _alias: example_\n.. _example: https://example.com\n")
	targets := rstast.FindByKind(doc.Root, rstast.NodeTarget)
	require.Len(t, targets, 2)
	assert.Equal(t, "example", targets[0].Attrs.GetString("refname"))
	assert.Empty(t, targets[0].Attrs.GetString("refuri"))
	require.Len(t, doc.IndirectTargets, 1)
	assert.Same(t, targets[0], doc.IndirectTargets[0])
}

func TestAnonymousTarget(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "__ https://example.com\n")
	target := doc.Root.FirstChild
	require.NotNil(t, target)
	assert.Equal(t, rstast.NodeTarget, target.Kind)
	assert.True(t, target.Attrs.GetBool("anonymous"))
	assert.Equal(t, "https://example.com", target.Attrs.GetString("refuri"))
}

func TestFootnote(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. [1] The footnote body.\n")
	fn := doc.Root.FirstChild
	require.NotNil(t, fn)
	assert.Equal(t, rstast.NodeFootnote, fn.Kind)
	require.Len(t, doc.Footnotes, 1)
	label := fn.FirstChild
	require.NotNil(t, label)
	assert.Equal(t, rstast.NodeLabel, label.Kind)
	assert.Equal(t, "1", label.Text)
}

func TestAutoNumberedFootnote(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. [#note] Labeled auto footnote.\n")
	fn := doc.Root.FirstChild
	require.NotNil(t, fn)
	assert.True(t, fn.Attrs.GetBool("auto"))
	assert.Len(t, doc.Autofootnotes, 1)
}

func TestCitation(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. [Knuth84] The Art of Computer Programming.\n")
	cit := doc.Root.FirstChild
	require.NotNil(t, cit)
	assert.Equal(t, rstast.NodeCitation, cit.Kind)
	assert.Len(t, doc.Citations, 1)
}

func TestSubstitutionDefinitionWithUnicode(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. |arrow| unicode:: U+27A4\n")
	def := doc.Root.FirstChild
	require.NotNil(t, def)
	assert.Equal(t, rstast.NodeSubstitutionDefinition, def.Kind)
	assert.Equal(t, []string{"arrow"}, def.Names)
	assert.Equal(t, "➤", def.Text)
}

func TestSubstitutionDefinitionMissingContents(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. |bad| not-a-directive\n")
	msgs := rstast.FindByKind(doc.Root, rstast.NodeSystemMessage)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Text, "missing contents")
}

func TestDirectiveCodeBlock(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. code-block:: python\n   :linenos:\n\n   print(1)\n   print(2)\n")
	code := rstast.FindFirst(doc.Root, func(n *rstast.Node) bool { return n.Kind == rstast.NodeCode })
	require.NotNil(t, code)
	assert.Equal(t, "python", code.Attrs.GetString("lang"))
	assert.True(t, code.Attrs.GetBool("linenos"))
	assert.Equal(t, "print(1)\nprint(2)", code.Text)
}

func TestUnknownDirective(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, ".. no-such-thing:: arg\n")
	msgs := rstast.FindByKind(doc.Root, rstast.NodeSystemMessage)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Text, "Unknown directive type")
}

func TestUnicodeBulletCharacters(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "• one\n• two\n")
	list := doc.Root.FirstChild
	require.NotNil(t, list)
	assert.Equal(t, rstast.NodeBulletList, list.Kind)
	assert.Equal(t, "•", list.Attrs.GetString("bullet"))
	assert.Equal(t, 2, list.ChildCount())
}
