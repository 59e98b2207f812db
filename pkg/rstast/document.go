package rstast

import "fmt"

// Document is the parse's root node plus the cross-reference bookkeeping
// that accumulates as elements are added.
type Document struct {
	Root *Node

	IDToElement map[string]*Node

	// nameIDs maps a fully-normalized name to the id currently chosen for
	// it. A present key with a nil value records an explicit null (the
	// name is known but deliberately has no resolvable id — row 5/6/9 of
	// the duplicate table).
	nameIDs map[string]*string
	// nameTypes maps a fully-normalized name to whether its current
	// registration is explicit (true) or implicit (false).
	nameTypes map[string]bool

	RefNames        map[string][]*Node
	CitationRefs    map[string][]*Node
	FootnoteRefs    map[string][]*Node
	Autofootnotes   []*Node
	SymbolFootnotes []*Node
	Footnotes       []*Node
	Citations       []*Node
	IndirectTargets []*Node

	CurrentSource string
	CurrentLine   int

	IDPrefix      string
	AutoIDPrefix  string
	autoIDCounter int

	Reporter *Reporter
}

// NewDocument creates an empty Document rooted at a fresh NodeRoot, ready
// to accumulate parse state.
func NewDocument(idPrefix, autoIDPrefix string, reporter *Reporter) *Document {
	root := NewNode(NodeRoot)
	d := &Document{
		Root:         root,
		IDToElement:  make(map[string]*Node),
		nameIDs:      make(map[string]*string),
		nameTypes:    make(map[string]bool),
		RefNames:     make(map[string][]*Node),
		CitationRefs: make(map[string][]*Node),
		FootnoteRefs: make(map[string][]*Node),
		IDPrefix:     idPrefix,
		AutoIDPrefix: autoIDPrefix,
		Reporter:     reporter,
	}
	root.SourceID = ""
	return d
}

// SetID registers id as belonging to node. If id collides with an
// existing, different node, a fresh auto-generated id is produced instead
// and returned; the caller should use the returned id, not the requested
// one, from that point on. The invariant id_to_element keys are unique is
// maintained either way.
func (d *Document) SetID(node *Node, id string) string {
	if id == "" {
		return id
	}
	if existing, ok := d.IDToElement[id]; ok && existing != node {
		id = d.GenerateID()
	}
	d.IDToElement[id] = node
	node.IDs = appendUnique(node.IDs, id)
	return id
}

// GenerateID returns a fresh, unused synthetic id of the form
// id_prefix + auto_id_prefix + counter.
func (d *Document) GenerateID() string {
	for {
		d.autoIDCounter++
		candidate := fmt.Sprintf("%s%s%d", d.IDPrefix, d.AutoIDPrefix, d.autoIDCounter)
		if _, exists := d.IDToElement[candidate]; !exists {
			return candidate
		}
	}
}

// AutoID derives an id for node from its names via MakeID, prefixed with
// IDPrefix, falling back to GenerateID on exhaustion or collision.
func (d *Document) AutoID(node *Node, names []string) string {
	for _, name := range names {
		candidate := d.IDPrefix + MakeID(name)
		if candidate == d.IDPrefix {
			continue
		}
		if existing, ok := d.IDToElement[candidate]; !ok || existing == node {
			d.IDToElement[candidate] = node
			node.IDs = appendUnique(node.IDs, candidate)
			return candidate
		}
	}
	id := d.GenerateID()
	d.IDToElement[id] = node
	node.IDs = appendUnique(node.IDs, id)
	return id
}

// RegisterName applies docutils' duplicate-name resolution rules for a
// single name being attached to node with the given id (empty
// means "no id assigned for this registration") and explicit flag. It
// returns the id that should actually be recorded as node's id for this
// name (may differ from the requested id, or be "" for an invalidated
// registration) plus the diagnostic level raised, if any. RegisterName
// does not itself enter id into IDToElement: the prior holder of a name
// is found through IDToElement, so a prior id never registered there
// (via AutoID or SetID) leaves the prior holder unknown, and the
// identical-refuri and demotion rules then do not apply to it.
func (d *Document) RegisterName(node *Node, name string, id string, explicit bool) (resolvedID string, level Severity, msg string) {
	norm := FullyNormalizeName(name)
	priorIDPtr, hadPrior := d.nameIDs[norm]
	priorExplicit := d.nameTypes[norm]

	var priorNode *Node
	if hadPrior && priorIDPtr != nil {
		priorNode = d.IDToElement[*priorIDPtr]
	}

	switch {
	case !hadPrior && explicit:
		d.setName(norm, id, true)
		return id, 0, ""

	case !hadPrior && !explicit:
		d.setName(norm, id, false)
		return id, 0, ""

	case hadPrior && priorIDPtr == nil && !priorExplicit && explicit:
		d.setName(norm, id, true)
		msg = fmt.Sprintf("Duplicate implicit target name: %q", name)
		level = LevelWarning
		return id, level, msg

	case hadPrior && priorIDPtr != nil && !priorExplicit && explicit:
		// Demote the prior (implicit) holder: it loses its name but keeps its id.
		if priorNode != nil {
			priorNode.Names = removeString(priorNode.Names, norm)
		}
		d.setName(norm, id, true)
		return id, 0, ""

	case hadPrior && priorIDPtr == nil && priorExplicit && explicit:
		level = LevelError
		msg = fmt.Sprintf("Duplicate explicit target name: %q", name)
		d.setName(norm, "", true)
		return "", level, msg

	case hadPrior && priorIDPtr != nil && priorExplicit && explicit:
		if priorNode != nil && sameRefURI(priorNode, node) {
			level = LevelInfo
			msg = fmt.Sprintf("Duplicate explicit target name, with identical reference: %q", name)
			// Keep the prior registration; node's own id for this name is invalidated.
			return "", level, msg
		}
		level = LevelError
		msg = fmt.Sprintf("Duplicate explicit target name: %q", name)
		if priorNode != nil {
			d.invalidateID(priorNode)
		}
		d.setName(norm, "", true)
		return "", level, msg

	case hadPrior && priorIDPtr == nil && !priorExplicit && !explicit:
		level = LevelInfo
		msg = fmt.Sprintf("Duplicate implicit target name: %q", name)
		d.setName(norm, "", false)
		return "", level, msg

	case hadPrior && priorIDPtr != nil && !priorExplicit && !explicit:
		level = LevelInfo
		msg = fmt.Sprintf("Duplicate implicit target name: %q", name)
		d.setName(norm, "", false)
		return "", level, msg

	case hadPrior && priorIDPtr == nil && priorExplicit && !explicit:
		level = LevelInfo
		msg = fmt.Sprintf("Duplicate implicit target name: %q", name)
		// nameTypes stays explicit=true, id stays null.
		return "", level, msg

	case hadPrior && priorIDPtr != nil && priorExplicit && !explicit:
		level = LevelInfo
		msg = fmt.Sprintf("Duplicate implicit target name: %q", name)
		// id and explicit=true both carried over from prior.
		return *priorIDPtr, level, msg
	}
	return "", 0, ""
}

func (d *Document) setName(norm, id string, explicit bool) {
	if id == "" {
		d.nameIDs[norm] = nil
	} else {
		idCopy := id
		d.nameIDs[norm] = &idCopy
	}
	d.nameTypes[norm] = explicit
}

func (d *Document) invalidateID(node *Node) {
	for _, id := range node.IDs {
		delete(d.IDToElement, id)
	}
}

func sameRefURI(a, b *Node) bool {
	au, aok := a.Attrs["refuri"]
	bu, bok := b.Attrs["refuri"]
	if !aok || !bok {
		return false
	}
	return au.Kind == AttrString && bu.Kind == AttrString && au.Str == bu.Str
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
