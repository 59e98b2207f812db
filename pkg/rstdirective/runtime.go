package rstdirective

import (
	"fmt"
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstline"
)

var fieldMarker = func(s string) (name string, value string, hasValue bool, ok bool) {
	if !strings.HasPrefix(s, ":") {
		return "", "", false, false
	}
	rest := s[1:]
	idx := strings.Index(rest, ":")
	if idx < 0 {
		return "", "", false, false
	}
	name = rest[:idx]
	tail := rest[idx+1:]
	trimmed := strings.TrimSpace(tail)
	return name, trimmed, trimmed != "", true
}

// Run implements the rstblocks.DirectiveRunner surface against an
// already-extracted, already-dedented body.
// argText is accepted for callers (e.g. substitution definitions) that
// have no body LineStore at all and only a bare inline argument.
// nested, when non-nil, lets the handler re-enter the parser over its
// content block (docutils' state.nested_parse); it may be nil for
// callers without a live state machine, e.g. isolated tests.
func (r *Registry) Run(name, domain, argText string, body *rstline.LineStore, sourceID string, line int, nested func(content *rstline.LineStore, parent *rstast.Node)) (*rstast.Node, []*rstast.Node) {
	spec, ok := r.lookupDirective(name, domain)
	if !ok {
		return nil, []*rstast.Node{UnknownDirective(name, sourceID, line)}
	}
	return RunSpec(spec, name, domain, argText, body, sourceID, line, nested)
}

// RunSpec executes an already-resolved DirectiveSpec the same way
// Registry.Run does after its lookup. Callers supplying their own
// lookup callbacks (the lookup_directive parse option) dispatch
// through this directly.
func RunSpec(spec *DirectiveSpec, name, domain, argText string, body *rstline.LineStore, sourceID string, line int, nested func(content *rstline.LineStore, parent *rstast.Node)) (*rstast.Node, []*rstast.Node) {
	var argLines []string
	var content *rstline.LineStore
	if argText != "" {
		argLines = []string{argText}
	}
	if body != nil {
		headLines, contentBlock := splitArgBlock(body)
		argLines = append(argLines, headLines...)
		content = contentBlock
	}

	var optionLines []string
	if len(spec.OptionSpec) > 0 {
		argLines, optionLines = peelOptionLines(argLines)
	}

	var msgs []*rstast.Node
	options, optMsgs := parseOptions(spec.OptionSpec, optionLines, sourceID, line)
	msgs = append(msgs, optMsgs...)

	argumentText := strings.TrimSpace(strings.Join(argLines, " "))
	var arguments []string
	if argumentText != "" {
		arguments = strings.Fields(argumentText)
	}

	total := spec.RequiredArgs + spec.OptionalArgs
	switch {
	case len(arguments) < spec.RequiredArgs:
		msgs = append(msgs, rstast.System(rstast.LevelError,
			fmt.Sprintf("%d argument(s) required, %d supplied.", spec.RequiredArgs, len(arguments)), sourceID, line))
		return nil, msgs
	case len(arguments) > total:
		if spec.FinalArgWhitespace && total > 0 {
			arguments = append(arguments[:total-1:total-1], strings.Join(arguments[total-1:], " "))
		} else {
			msgs = append(msgs, rstast.System(rstast.LevelError,
				fmt.Sprintf("maximum %d argument(s) allowed.", total), sourceID, line))
			return nil, msgs
		}
	}

	if content != nil && content.Len() > 0 && !spec.HasContent {
		msgs = append(msgs, rstast.System(rstast.LevelError,
			fmt.Sprintf("Error in %q directive: no content permitted.", name), sourceID, line))
		content = nil
	}

	ctx := &RunContext{
		Name: name, Domain: domain, Arguments: arguments, Options: options,
		Content: content, SourceID: sourceID, Line: line, Nested: nested,
	}
	node, runMsgs := spec.Run(ctx)
	msgs = append(msgs, runMsgs...)
	return node, msgs
}

// splitArgBlock divides a directive's dedented body into the argument
// block (up to the first blank line) and the content block (the rest,
// with leading/trailing blank lines trimmed).
func splitArgBlock(body *rstline.LineStore) (argLines []string, content *rstline.LineStore) {
	n := body.Len()
	i := 0
	for i < n && strings.TrimSpace(body.Text(i)) != "" {
		argLines = append(argLines, body.Text(i))
		i++
	}
	for i < n && strings.TrimSpace(body.Text(i)) == "" {
		i++
	}
	end := n
	for end > i && strings.TrimSpace(body.Text(end-1)) == "" {
		end--
	}
	if end > i {
		content, _ = body.Slice(i, end)
	}
	return argLines, content
}

// peelOptionLines scans backward from the end of argLines, pulling off
// the trailing run of lines that start with a field marker into a
// separate option-line list. Indented continuation lines are not
// recognized: one at the end of argLines stops the scan.
func peelOptionLines(argLines []string) (remainingArgs []string, optionLines []string) {
	end := len(argLines)
	for end > 0 {
		if _, _, _, ok := fieldMarker(argLines[end-1]); ok {
			end--
			continue
		}
		break
	}
	if end == len(argLines) {
		return argLines, nil
	}
	// end now marks the start of a contiguous run of field-marker
	// lines running to the end of argLines.
	return argLines[:end], argLines[end:]
}

// parseOptions runs each collected option line through the matching
// validator in spec, rejecting duplicate and unknown names.
func parseOptions(spec map[string]OptionValidator, lines []string, sourceID string, line int) (map[string]rstast.AttrValue, []*rstast.Node) {
	if len(lines) == 0 {
		return nil, nil
	}
	options := map[string]rstast.AttrValue{}
	var msgs []*rstast.Node
	for _, l := range lines {
		name, value, hasValue, ok := fieldMarker(l)
		if !ok {
			continue
		}
		if _, dup := options[name]; dup {
			msgs = append(msgs, rstast.System(rstast.LevelError,
				fmt.Sprintf("Duplicate option %q.", name), sourceID, line))
			continue
		}
		validator, known := spec[name]
		if !known {
			msgs = append(msgs, rstast.System(rstast.LevelError,
				fmt.Sprintf("Unknown option %q.", name), sourceID, line))
			continue
		}
		val, err := validator(value, hasValue)
		if err != nil {
			msgs = append(msgs, rstast.System(rstast.LevelError,
				fmt.Sprintf("Error in option %q: %s", name, err.Error()), sourceID, line))
			continue
		}
		options[name] = val
	}
	return options, msgs
}
