package rstdirective

import "github.com/i80and/snooty/pkg/rstast"

// registerRoles mirrors rstinline.Tokenizer's hardcoded role set in
// the registry, so a caller that only has a Registry in hand (e.g. a
// documentation generator enumerating supported roles) sees the same
// vocabulary the tokenizer falls back to when no registry is wired in
// at all. The tokenizer consults these only when given a non-nil
// Roles lookup; unregistered names still resolve via its built-ins.
func registerRoles(b *Builder) {
	b.Role("", "emphasis", simpleInlineRole(rstast.NodeEmphasis))
	b.Role("", "strong", simpleInlineRole(rstast.NodeStrong))
	b.Role("", "literal", simpleInlineRole(rstast.NodeLiteral))
	b.Role("", "doc", refRole("doc"))
	b.Role("", "ref", refRole("ref"))
	b.Role("", "download", refRole("download"))
}

func simpleInlineRole(kind rstast.Kind) RoleHandler {
	return func(_, _, text, _ string, _ int) (*rstast.Node, []*rstast.Node) {
		n := rstast.NewNode(kind)
		n.Text = text
		return n, nil
	}
}

func refRole(role string) RoleHandler {
	return func(roleName, _, text, _ string, _ int) (*rstast.Node, []*rstast.Node) {
		n := rstast.NewNode(rstast.NodeRefRole)
		n.Attrs.SetString("role", role)
		n.Text = text
		n.Names = []string{rstast.FullyNormalizeName(text)}
		return n, nil
	}
}
