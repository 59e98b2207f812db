package rstdirective

import (
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
)

// NewDefaultRegistry builds a Registry carrying the common RST
// directive and role vocabulary (unicode, replace, code-block, image,
// figure, contents, raw, include). defaultDomains is the
// domain-resolution order, most-specific first; pass none for a
// single flat, domain-less namespace.
func NewDefaultRegistry(defaultDomains ...string) *Registry {
	b := NewBuilder(defaultDomains...)
	registerDirectives(b)
	registerRoles(b)
	return b.Build()
}

func registerDirectives(b *Builder) {
	b.Directive("", "unicode", &DirectiveSpec{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Run:                runUnicode,
	})
	b.Directive("", "replace", &DirectiveSpec{
		HasContent: true,
		Run:        runReplace,
	})
	b.Directive("", "code-block", &DirectiveSpec{
		OptionalArgs: 1,
		HasContent:   true,
		OptionSpec: map[string]OptionValidator{
			"linenos":         OptFlag,
			"emphasize-lines": OptLineRanges,
			"caption":         OptUnchanged,
		},
		Run: runCodeBlock,
	})
	b.Directive("", "image", &DirectiveSpec{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		OptionSpec: map[string]OptionValidator{
			"alt":    OptUnchanged,
			"height": OptUnchanged,
			"width":  OptUnchanged,
			"scale":  OptUnchanged,
			"align":  OptUnchanged,
			"target": OptUnchanged,
		},
		Run: runImage,
	})
	b.Directive("", "figure", &DirectiveSpec{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		HasContent:         true,
		OptionSpec: map[string]OptionValidator{
			"alt":      OptUnchanged,
			"height":   OptUnchanged,
			"width":    OptUnchanged,
			"scale":    OptUnchanged,
			"align":    OptUnchanged,
			"target":   OptUnchanged,
			"figwidth": OptUnchanged,
			"figclass": OptUnchanged,
		},
		Run: runFigure,
	})
	b.Directive("", "contents", &DirectiveSpec{
		OptionalArgs:       1,
		FinalArgWhitespace: true,
		OptionSpec: map[string]OptionValidator{
			"depth":     OptNonNegativeInt,
			"local":     OptFlag,
			"backlinks": OptUnchanged,
		},
		Run: runContents,
	})
	b.Directive("", "raw", &DirectiveSpec{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		HasContent:         true,
		OptionSpec: map[string]OptionValidator{
			"file": OptUnchanged,
			"url":  OptUnchanged,
		},
		Run: runRaw,
	})
	b.Directive("", "include", &DirectiveSpec{
		RequiredArgs: 1,
		OptionSpec: map[string]OptionValidator{
			"start-after": OptUnchanged,
			"end-before":  OptUnchanged,
			"literal":     OptFlag,
			"code":        OptUnchanged,
		},
		Run: runInclude,
	})
}

// runUnicode decodes the "unicode" directive. Its sole use in this
// codebase is as a substitution definition's embedded directive, so it
// returns a bare node carrying
// the decoded text rather than a structural element (buildSubstitutionDef
// reads Text off the returned node when it has no children).
func runUnicode(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	var b strings.Builder
	var msgs []*rstast.Node
	for i, tok := range strings.Fields(strings.Join(ctx.Arguments, " ")) {
		if i > 0 {
			b.WriteByte(' ')
		}
		decoded, err := ConvertUnicodeCode(tok)
		if err != nil {
			msgs = append(msgs, rstast.System(rstast.LevelError, err.Error(), ctx.SourceID, ctx.Line))
			continue
		}
		b.WriteString(decoded)
	}
	n := rstast.NewNode(rstast.NodeText)
	n.Text = b.String()
	return n, msgs
}

func runReplace(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := rstast.NewNode(rstast.NodeText)
	if ctx.Content != nil {
		lines := make([]string, ctx.Content.Len())
		for i := 0; i < ctx.Content.Len(); i++ {
			lines[i] = strings.TrimSpace(ctx.Content.Text(i))
		}
		n.Text = strings.TrimSpace(strings.Join(lines, " "))
	}
	return n, nil
}

func newDirectiveNode(ctx *RunContext) *rstast.Node {
	n := rstast.NewNode(rstast.NodeDirective)
	n.SourceID, n.Line = ctx.SourceID, ctx.Line
	n.Attrs.SetString("directive", ctx.Name)
	for k, v := range ctx.Options {
		n.Attrs[k] = v
	}
	return n
}

// runCodeBlock emits a Code node directly rather than a generic
// Directive wrapper: the code's language, line numbering, and
// emphasized ranges all live on the one node downstream renderers
// consume.
func runCodeBlock(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := rstast.NewNode(rstast.NodeCode)
	n.SourceID, n.Line = ctx.SourceID, ctx.Line
	for k, v := range ctx.Options {
		n.Attrs[k] = v
	}
	if len(ctx.Arguments) > 0 {
		n.Attrs.SetString("lang", ctx.Arguments[0])
	}
	if ctx.Content != nil {
		n.Text = ctx.Content.Join()
	}
	return n, nil
}

func runImage(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := newDirectiveNode(ctx)
	if len(ctx.Arguments) > 0 {
		n.Attrs.SetString("uri", ctx.Arguments[0])
	}
	return n, nil
}

func runFigure(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := newDirectiveNode(ctx)
	if len(ctx.Arguments) > 0 {
		n.Attrs.SetString("uri", ctx.Arguments[0])
	}
	if ctx.Content != nil {
		if ctx.Nested != nil {
			ctx.Nested(ctx.Content, n)
		} else {
			caption := rstast.NewNode(rstast.NodeCaption)
			caption.Text = strings.TrimSpace(ctx.Content.Join())
			rstast.AppendChild(n, caption)
		}
	}
	return n, nil
}

func runContents(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := newDirectiveNode(ctx)
	if len(ctx.Arguments) > 0 {
		n.Attrs.SetString("title", ctx.Arguments[0])
	}
	return n, nil
}

func runRaw(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := newDirectiveNode(ctx)
	if len(ctx.Arguments) > 0 {
		n.Attrs.SetString("format", ctx.Arguments[0])
	}
	if ctx.Content != nil {
		code := rstast.NewNode(rstast.NodeCode)
		code.Text = ctx.Content.Join()
		rstast.AppendChild(n, code)
	}
	return n, nil
}

// runInclude only records the directive's header: path and options.
// Actual file inclusion is the out-of-scope post-processing pass
// DESIGN.md carves out.
func runInclude(ctx *RunContext) (*rstast.Node, []*rstast.Node) {
	n := newDirectiveNode(ctx)
	if len(ctx.Arguments) > 0 {
		n.Attrs.SetString("path", ctx.Arguments[0])
	}
	return n, nil
}
