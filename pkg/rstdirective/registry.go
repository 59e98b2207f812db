// Package rstdirective implements the directive/role registry and the
// runtime that parses a directive's header, validates its options
// against a per-directive spec, and invokes the handler, converting
// its return into AST nodes.
package rstdirective

import (
	"fmt"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstline"
)

// OptionValidator converts a raw option value (nil for a bodiless
// field) into a typed AttrValue, or fails with a message naming what
// went wrong; the runtime attaches the option name itself.
type OptionValidator func(value string, hasValue bool) (rstast.AttrValue, error)

// DirectiveSpec describes one directive's argument/option/content
// shape and its handler.
type DirectiveSpec struct {
	RequiredArgs       int
	OptionalArgs       int
	FinalArgWhitespace bool
	HasContent         bool
	OptionSpec         map[string]OptionValidator
	Run                func(ctx *RunContext) (*rstast.Node, []*rstast.Node)
}

// RunContext is everything a directive handler needs, already parsed
// and validated by the runtime.
type RunContext struct {
	Name      string
	Domain    string
	Arguments []string
	Options   map[string]rstast.AttrValue
	// Content is the directive's content block, already dedented to a
	// flush-left baseline; nil if the directive has no content.
	Content *rstline.LineStore

	SourceID string
	Line     int

	// Nested runs a Body sub-parse of content into parent, for
	// directives (e.g. "figure") whose content is itself a fragment
	// of RST rather than raw text. Set by the caller; nil if the
	// caller did not wire recursive parsing (e.g. isolated tests).
	Nested func(content *rstline.LineStore, parent *rstast.Node)
}

// RoleHandler implements docutils' role interface: given the raw
// interpreted-text source and its resolved text, produce the node(s)
// to splice into the surrounding inline stream plus any diagnostics.
type RoleHandler func(roleName, rawSource, text, sourceID string, line int) (*rstast.Node, []*rstast.Node)

// Builder accumulates directive and role registrations before Build
// freezes them into an immutable Registry.
type Builder struct {
	directives     map[string]map[string]*DirectiveSpec
	roles          map[string]map[string]RoleHandler
	defaultDomains []string
}

// NewBuilder starts a Builder whose default-domain resolution order is
// defaultDomains, most-specific first (e.g. ["mongodb", "std", ""]).
func NewBuilder(defaultDomains ...string) *Builder {
	return &Builder{
		directives:     map[string]map[string]*DirectiveSpec{},
		roles:          map[string]map[string]RoleHandler{},
		defaultDomains: append([]string{}, defaultDomains...),
	}
}

// Directive registers a directive under domain ("" for the global,
// domain-less namespace).
func (b *Builder) Directive(domain, name string, spec *DirectiveSpec) *Builder {
	if b.directives[domain] == nil {
		b.directives[domain] = map[string]*DirectiveSpec{}
	}
	b.directives[domain][name] = spec
	return b
}

// Role registers a role handler under domain.
func (b *Builder) Role(domain, name string, handler RoleHandler) *Builder {
	if b.roles[domain] == nil {
		b.roles[domain] = map[string]RoleHandler{}
	}
	b.roles[domain][name] = handler
	return b
}

// Build freezes the accumulated registrations into a Registry.
func (b *Builder) Build() *Registry {
	return &Registry{
		directives:     b.directives,
		roles:          b.roles,
		defaultDomains: append([]string{}, b.defaultDomains...),
	}
}

// Registry holds the domain-qualified directive and role maps built by
// a Builder. It is immutable and safe to share across parses.
type Registry struct {
	directives     map[string]map[string]*DirectiveSpec
	roles          map[string]map[string]RoleHandler
	defaultDomains []string
}

// LookupDirective resolves name, honoring an explicit "domain:name"
// qualification or falling back to the default domain order.
func (r *Registry) LookupDirective(name string) (*DirectiveSpec, bool) {
	return r.lookupDirective(name, "")
}

func (r *Registry) lookupDirective(name, domain string) (*DirectiveSpec, bool) {
	if domain != "" {
		spec, ok := r.directives[domain][name]
		return spec, ok
	}
	for _, d := range r.defaultDomains {
		if spec, ok := r.directives[d][name]; ok {
			return spec, true
		}
	}
	spec, ok := r.directives[""][name]
	return spec, ok
}

// LookupRole resolves a role name the same way LookupDirective does.
func (r *Registry) LookupRole(name string) (RoleHandler, bool) {
	return r.lookupRole(name, "")
}

func (r *Registry) lookupRole(name, domain string) (RoleHandler, bool) {
	if domain != "" {
		h, ok := r.roles[domain][name]
		return h, ok
	}
	for _, d := range r.defaultDomains {
		if h, ok := r.roles[d][name]; ok {
			return h, true
		}
	}
	h, ok := r.roles[""][name]
	return h, ok
}

// UnknownDirective builds the SystemMessage diagnostic for a directive
// name that resolves to nothing in any domain.
func UnknownDirective(name, sourceID string, line int) *rstast.Node {
	return rstast.System(rstast.LevelError, fmt.Sprintf("Unknown directive type %q.", name), sourceID, line)
}
