package rst_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rst"
	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstdirective"
)

func mustParse(t *testing.T, text string) *rstast.Document {
	t.Helper()
	doc, err := rst.Parse("<test>", text, nil)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

const landingPage = `:template: product-landing
:hidefeedback: header
:noprevnext:

================
What is MongoDB?
================

.. |arrow| unicode:: U+27A4

This is a test. |arrow| Use the **Select your language** drop-down menu in the list.

* - Introduction

       An introduction to things.
     - Developers
     - Administrators
     - Reference
`

func TestParseLandingPage(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, landingPage)

	children := doc.Root.Children()
	require.Len(t, children, 2)

	fieldList := children[0]
	assert.Equal(t, rstast.NodeFieldList, fieldList.Kind)
	fields := fieldList.Children()
	require.Len(t, fields, 3)
	var names []string
	for _, f := range fields {
		names = append(names, f.FirstChild.Text)
	}
	assert.Equal(t, []string{"template", "hidefeedback", "noprevnext"}, names)

	section := children[1]
	require.Equal(t, rstast.NodeSection, section.Kind)
	title := section.FirstChild
	require.Equal(t, rstast.NodeTitle, title.Kind)
	assert.Equal(t, "What is MongoDB?", title.RawSource)

	var para, list *rstast.Node
	var substDef *rstast.Node
	for c := section.FirstChild; c != nil; c = c.Next {
		switch c.Kind {
		case rstast.NodeSubstitutionDefinition:
			substDef = c
		case rstast.NodeParagraph:
			para = c
		case rstast.NodeBulletList:
			list = c
		}
	}

	require.NotNil(t, substDef)
	assert.Equal(t, []string{"arrow"}, substDef.Names)
	assert.Equal(t, "➤", substDef.Text)

	require.NotNil(t, para)
	inline := para.Children()
	var inlineKinds []rstast.Kind
	for _, n := range inline {
		inlineKinds = append(inlineKinds, n.Kind)
	}
	assert.Equal(t, []rstast.Kind{
		rstast.NodeText, rstast.NodeSubstitutionReference, rstast.NodeText,
		rstast.NodeStrong, rstast.NodeText,
	}, inlineKinds)
	assert.Equal(t, "arrow", inline[1].Text)
	assert.Equal(t, "Select your language", inline[3].Text)

	require.NotNil(t, list)
	require.Equal(t, 1, list.ChildCount())
	inner := list.FirstChild.FirstChild
	require.NotNil(t, inner)
	require.Equal(t, rstast.NodeBulletList, inner.Kind)
	items := inner.Children()
	require.Len(t, items, 4)
	first := items[0].Children()
	require.Len(t, first, 2)
	assert.Equal(t, "Introduction", first[0].FirstChild.Text)
	assert.Equal(t, "An introduction to things.", first[1].FirstChild.Text)
	assert.Equal(t, "Developers", items[1].FirstChild.FirstChild.Text)
	assert.Equal(t, "Administrators", items[2].FirstChild.FirstChild.Text)
	assert.Equal(t, "Reference", items[3].FirstChild.FirstChild.Text)
}

func TestParseEnumeratedListStartValue(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "3. first\n4. second\n")
	var list *rstast.Node
	for _, c := range doc.Root.Children() {
		if c.Kind == rstast.NodeEnumeratedList {
			list = c
		}
	}
	require.NotNil(t, list)
	assert.Equal(t, "arabic", list.Attrs.GetString("enumtype"))
	assert.Equal(t, "", list.Attrs.GetString("prefix"))
	assert.Equal(t, ".", list.Attrs.GetString("suffix"))
	assert.Equal(t, 3, list.Attrs.GetInt("start"))

	diags := rst.Diagnostics(doc)
	require.Len(t, diags, 1)
	assert.Equal(t, rstast.LevelInfo, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "ordinal-1")
}

func TestParseCodeBlockDirective(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, ".. code-block:: python\n   :linenos:\n   :emphasize-lines: 1-2\n\n   print(1)\n   print(2)\n")
	code := rstast.FindFirst(doc.Root, func(n *rstast.Node) bool { return n.Kind == rstast.NodeCode })
	require.NotNil(t, code)
	assert.Equal(t, "python", code.Attrs.GetString("lang"))
	assert.True(t, code.Attrs.GetBool("linenos"))
	assert.Equal(t, []string{"1-2"}, code.Attrs.GetStrings("emphasize-lines"))
	assert.Equal(t, "print(1)\nprint(2)", code.Text)
}

func TestParseUnterminatedEmphasis(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "this is *unfinished\n")
	children := doc.Root.Children()
	require.Len(t, children, 2)
	para := children[0]
	assert.Equal(t, rstast.NodeParagraph, para.Kind)
	var joined string
	for c := para.FirstChild; c != nil; c = c.Next {
		joined += c.Text
	}
	assert.Equal(t, "this is *unfinished", joined)

	msg := children[1]
	assert.Equal(t, rstast.NodeSystemMessage, msg.Kind)
	assert.Equal(t, int(rstast.LevelWarning), msg.Attrs.GetInt("level"))
	assert.Contains(t, msg.Text, "start-string without end-string")
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()
	first := mustParse(t, landingPage)
	second := mustParse(t, landingPage)
	assert.Equal(t, rst.Outline(first.Root), rst.Outline(second.Root))
	assert.Equal(t, rst.Diagnostics(first), rst.Diagnostics(second))
}

func TestParseArbitraryInputTerminates(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"\n",
		"\x00\x01\x02",
		strings.Repeat("*", 4096),
		strings.Repeat("`` ` ** * |", 512),
		strings.Repeat(".. x::\n", 256),
		strings.Repeat("a\n=\n", 512),
		strings.Repeat("   deep\n", 64) + "flush\n",
		"1. a\n#. b\nz. c\n(i) d\n",
		":f1: v\n:f2:\n\t* x\n\t* y\n",
		"�   text \v\f done",
		strings.Repeat("| line block\n", 128),
	}
	for i, input := range inputs {
		doc, err := rst.Parse("<fuzz>", input, nil)
		require.NoError(t, err, "input %d", i)
		require.NotNil(t, doc, "input %d", i)
	}
}

func TestParseIDUniqueness(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "One\n===\n\ntext\n\nTwo\n===\n\nmore\n\n.. _target: https://example.com\n")
	seen := map[string]bool{}
	err := rstast.Walk(doc.Root, func(n *rstast.Node) error {
		for _, id := range n.IDs {
			assert.False(t, seen[id], "duplicate id %q", id)
			seen[id] = true
			assert.Same(t, n, doc.IDToElement[id])
		}
		return nil
	})
	require.NoError(t, err)
	for id := range doc.IDToElement {
		assert.True(t, seen[id], "id_to_element key %q not found on any node", id)
	}
}

func TestParseHaltLevelStopsEarly(t *testing.T) {
	t.Parallel()
	opts := rst.NewOptionParser()
	opts.HaltLevel = int(rstast.LevelSevere)
	doc, err := rst.Parse("<test>", "----\n\nnever reached\n", opts)
	require.NoError(t, err)
	require.NotNil(t, doc)
	// The severe "may not begin with a transition" diagnostic halts the
	// parse before the trailing paragraph is consumed.
	assert.Nil(t, rstast.FindFirst(doc.Root, func(n *rstast.Node) bool {
		return n.Kind == rstast.NodeParagraph
	}))
}

func TestParseCustomDirectiveLookup(t *testing.T) {
	t.Parallel()
	spec := &rstdirective.DirectiveSpec{
		RequiredArgs: 1,
		Run: func(ctx *rstdirective.RunContext) (*rstast.Node, []*rstast.Node) {
			n := rstast.NewNode(rstast.NodeDirective)
			n.Attrs.SetString("directive", ctx.Name)
			n.Attrs.SetString("arg", ctx.Arguments[0])
			return n, nil
		},
	}
	opts := rst.NewOptionParser()
	opts.LookupDirective = func(name string) (*rstdirective.DirectiveSpec, bool) {
		if name == "custom" {
			return spec, true
		}
		return nil, false
	}
	doc, err := rst.Parse("<test>", ".. custom:: value\n", opts)
	require.NoError(t, err)
	node := rstast.FindFirst(doc.Root, func(n *rstast.Node) bool { return n.Kind == rstast.NodeDirective })
	require.NotNil(t, node)
	assert.Equal(t, "custom", node.Attrs.GetString("directive"))
	assert.Equal(t, "value", node.Attrs.GetString("arg"))

	doc, err = rst.Parse("<test>", ".. unknown:: value\n", opts)
	require.NoError(t, err)
	msg := rstast.FindFirst(doc.Root, func(n *rstast.Node) bool { return n.Kind == rstast.NodeSystemMessage })
	require.NotNil(t, msg)
	assert.Contains(t, msg.Text, "Unknown directive type")
}

func TestParseTabExpansion(t *testing.T) {
	t.Parallel()
	opts := rst.NewOptionParser()
	opts.TabWidth = 4
	doc, err := rst.Parse("<test>", "para\n\n\tquoted\n", opts)
	require.NoError(t, err)
	children := doc.Root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, rstast.NodeBlockQuote, children[1].Kind)
}

func TestParseTrimFootnoteReferenceSpace(t *testing.T) {
	t.Parallel()
	opts := rst.NewOptionParser()
	opts.TrimFootnoteReferenceSpace = true
	doc, err := rst.Parse("<test>", "text [1]_ done\n", opts)
	require.NoError(t, err)
	para := doc.Root.FirstChild
	require.NotNil(t, para)
	assert.Equal(t, "text", para.FirstChild.Text)
	assert.Equal(t, rstast.NodeFootnoteReference, para.FirstChild.Next.Kind)
}
