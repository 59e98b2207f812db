package rst

import (
	"sync"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstdirective"
	"github.com/i80and/snooty/pkg/rstsm"
)

// OptionParser carries the recognized parse configuration options,
// named after docutils' settings of the same spelling. NewOptionParser
// returns the documented defaults; Parse also accepts a zero or
// partially filled value, replacing each zero-valued field with its
// default (see normalized).
type OptionParser struct {
	// TabWidth is the number of spaces a tab expands to.
	TabWidth int

	// TrimFootnoteReferenceSpace right-trims whitespace before an
	// inline footnote reference.
	TrimFootnoteReferenceSpace bool

	// IDPrefix is attached to every generated id.
	IDPrefix string

	// AutoIDPrefix is the prefix for synthetic ids ("id" → id1, id2, ...).
	AutoIDPrefix string

	// ReportLevel is the minimum severity recorded in the parallel
	// diagnostics list (1=info ... 4=severe).
	ReportLevel int

	// HaltLevel is the severity that aborts further parsing; 5 means
	// never halt.
	HaltLevel int

	// CharacterLevelInlineMarkup makes inline markup start/end
	// boundaries character-relative instead of whitespace/punctuation
	// relative.
	CharacterLevelInlineMarkup bool

	// LookupDirective resolves a directive name (possibly
	// domain-qualified) to its spec. Nil means the built-in default
	// registry.
	LookupDirective func(name string) (*rstdirective.DirectiveSpec, bool)

	// LookupRole resolves a role name to its handler. Nil means the
	// built-in default registry.
	LookupRole func(name string) (rstdirective.RoleHandler, bool)

	// Observers receive each line the parse's state machine dispatches
	// and each of its state changes (see rstsm.Observer); the CLI's
	// --debug flag wires a logging observer here.
	Observers []rstsm.Observer
}

// NewOptionParser returns an OptionParser with every option at its
// documented default.
func NewOptionParser() *OptionParser {
	return &OptionParser{
		TabWidth:     8,
		AutoIDPrefix: "id",
		ReportLevel:  1,
		HaltLevel:    5,
	}
}

var defaultRegistryOnce = sync.OnceValue(func() *rstdirective.Registry {
	return rstdirective.NewDefaultRegistry()
})

// normalized fills in zero-valued fields so a partially-populated
// OptionParser still behaves, and wires the default registry into the
// lookup callbacks when the caller supplied none.
func (o *OptionParser) normalized() *OptionParser {
	out := *o
	if out.TabWidth < 1 {
		out.TabWidth = 8
	}
	if out.AutoIDPrefix == "" {
		out.AutoIDPrefix = "id"
	}
	if out.ReportLevel < 1 {
		out.ReportLevel = 1
	}
	if out.HaltLevel < 1 {
		out.HaltLevel = 5
	}
	if out.LookupDirective == nil {
		out.LookupDirective = defaultRegistryOnce().LookupDirective
	}
	if out.LookupRole == nil {
		out.LookupRole = defaultRegistryOnce().LookupRole
	}
	return &out
}

func (o *OptionParser) reportSeverity() rstast.Severity { return rstast.Severity(o.ReportLevel) }
func (o *OptionParser) haltSeverity() rstast.Severity   { return rstast.Severity(o.HaltLevel) }
