// Package rstast defines the AST produced by the RST parser: a tagged-
// variant Node hierarchy plus the Document-level bookkeeping (names, ids,
// references, footnotes, substitutions) that accumulates while a source is
// being parsed.
package rstast

//go:generate stringer -type=Kind -trimprefix=Node

// Kind classifies the variant a Node carries. Go has no sum types, so the
// "inheritance chain" docutils uses (Inline/Body/Structural/Titular
// category interfaces) is represented here as a flat enum plus predicate
// methods, rather than as a type hierarchy.
type Kind uint16

const (
	NodeRoot Kind = iota
	NodeSection
	NodeTransition

	// Block body.
	NodeParagraph
	NodeBulletList
	NodeEnumeratedList
	NodeListItem
	NodeDefinitionList
	NodeDefinitionListItem
	NodeTerm
	NodeClassifier
	NodeDefinition

	// Metadata blocks.
	NodeFieldList
	NodeField
	NodeFieldName
	NodeFieldBody

	// Option lists.
	NodeOptionList
	NodeOptionListItem
	NodeOptionGroup
	NodeOption
	NodeOptionString
	NodeOptionArgument
	NodeDescription

	// Other block elements.
	NodeLiteralBlock
	NodeDoctestBlock
	NodeLineBlock
	NodeLine
	NodeBlockQuote
	NodeComment
	NodeSubstitutionDefinition
	NodeTarget
	NodeFootnote
	NodeCitation
	NodeLabel
	NodeTable
	NodeCaption
	NodeEntry

	// Inline.
	NodeText
	NodeEmphasis
	NodeStrong
	NodeLiteral
	NodeReference
	NodeFootnoteReference
	NodeCitationReference
	NodeSubstitutionReference

	// Extension elements emitted by directive/role handlers.
	NodeDirective
	NodeDirectiveArgument
	NodeRole
	NodeRefRole
	NodeCode
	NodeTargetIdentifier

	// Diagnostics anchored in the tree.
	NodeSystemMessage
)

// inline, body, structural, and titular mirror the docutils marker
// "interfaces": category membership, not a supertype.
var inlineKinds = map[Kind]bool{
	NodeText: true, NodeEmphasis: true, NodeStrong: true, NodeLiteral: true,
	NodeReference: true, NodeFootnoteReference: true, NodeCitationReference: true,
	NodeSubstitutionReference: true, NodeRole: true, NodeRefRole: true,
}

var structuralKinds = map[Kind]bool{
	NodeRoot: true, NodeSection: true, NodeTransition: true,
}

var titularKinds = map[Kind]bool{
	NodeSection: true, NodeTitle: true,
}

// NodeTitle is a distinguished child every Section owns as its first child
// (docutils' `title` element); kept as its own kind rather than reusing
// NodeLine so Section title detection never depends on child position.
const NodeTitle Kind = 1000 + iota

// Node is a single element in the RST document tree.
type Node struct {
	Kind Kind

	// RawSource is the literal source text this node was built from, when
	// available (not all synthetic nodes carry one).
	RawSource string

	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node

	SourceID string
	Line     int

	Attrs AttrMap

	Names    []string
	IDs      []string
	DupNames []string

	// Text is the literal text payload for leaf inline nodes (NodeText,
	// NodeLiteral, NodeComment's single text child, ...).
	Text string
}

// NewNode allocates a bare node of kind k.
func NewNode(k Kind) *Node {
	return &Node{Kind: k, Attrs: AttrMap{}}
}

// IsInline reports whether n belongs to the Inline category.
func (n *Node) IsInline() bool { return inlineKinds[n.Kind] }

// IsStructural reports whether n belongs to the Structural category
// (Root, Section, Transition).
func (n *Node) IsStructural() bool { return structuralKinds[n.Kind] }

// IsTitular reports whether n is a Section or a title.
func (n *Node) IsTitular() bool { return titularKinds[n.Kind] }

// IsBody reports whether n is a block-body element: anything that is
// neither inline nor the bare structural/titular markers.
func (n *Node) IsBody() bool {
	return !n.IsInline() && !n.IsStructural() && n.Kind != NodeTitle
}

// HasChildren reports whether n owns at least one child.
func (n *Node) HasChildren() bool { return n.FirstChild != nil }

// Children returns a slice of n's direct children, in document order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		count++
	}
	return count
}
