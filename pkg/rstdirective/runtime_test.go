package rstdirective_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstdirective"
	"github.com/i80and/snooty/pkg/rstline"
)

func body(text string) *rstline.LineStore {
	return rstline.FromSource(text, 8, false, "<test>")
}

// echoSpec records what the runtime handed to the handler.
func echoSpec(required, optional int, finalWhitespace, hasContent bool, options map[string]rstdirective.OptionValidator) (*rstdirective.DirectiveSpec, *rstdirective.RunContext) {
	captured := &rstdirective.RunContext{}
	spec := &rstdirective.DirectiveSpec{
		RequiredArgs:       required,
		OptionalArgs:       optional,
		FinalArgWhitespace: finalWhitespace,
		HasContent:         hasContent,
		OptionSpec:         options,
		Run: func(ctx *rstdirective.RunContext) (*rstast.Node, []*rstast.Node) {
			*captured = *ctx
			return rstast.NewNode(rstast.NodeDirective), nil
		},
	}
	return spec, captured
}

func TestRunSpecArgumentsAndContent(t *testing.T) {
	t.Parallel()
	spec, captured := echoSpec(1, 0, false, true, nil)
	node, msgs := rstdirective.RunSpec(spec, "x", "", "", body("argument\n\ncontent line\n"), "<test>", 1, nil)
	require.NotNil(t, node)
	assert.Empty(t, msgs)
	assert.Equal(t, []string{"argument"}, captured.Arguments)
	require.NotNil(t, captured.Content)
	assert.Equal(t, "content line", captured.Content.Join())
}

func TestRunSpecMissingRequiredArgument(t *testing.T) {
	t.Parallel()
	spec, _ := echoSpec(2, 0, false, false, nil)
	node, msgs := rstdirective.RunSpec(spec, "x", "", "", body("one\n"), "<test>", 1, nil)
	assert.Nil(t, node)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "2 argument(s) required, 1 supplied")
}

func TestRunSpecTooManyArguments(t *testing.T) {
	t.Parallel()
	spec, _ := echoSpec(1, 0, false, false, nil)
	node, msgs := rstdirective.RunSpec(spec, "x", "", "", body("one two three\n"), "<test>", 1, nil)
	assert.Nil(t, node)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "maximum 1 argument(s) allowed")
}

func TestRunSpecFinalArgWhitespaceJoins(t *testing.T) {
	t.Parallel()
	spec, captured := echoSpec(1, 0, true, false, nil)
	node, msgs := rstdirective.RunSpec(spec, "x", "", "", body("A multi word title\n"), "<test>", 1, nil)
	require.NotNil(t, node)
	assert.Empty(t, msgs)
	assert.Equal(t, []string{"A multi word title"}, captured.Arguments)
}

func TestRunSpecContentRejectedWithoutHasContent(t *testing.T) {
	t.Parallel()
	spec, captured := echoSpec(1, 0, false, false, nil)
	_, msgs := rstdirective.RunSpec(spec, "x", "", "", body("arg\n\nstray content\n"), "<test>", 1, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "no content permitted")
	assert.Nil(t, captured.Content)
}

func TestRunSpecOptions(t *testing.T) {
	t.Parallel()
	options := map[string]rstdirective.OptionValidator{
		"flag":  rstdirective.OptFlag,
		"depth": rstdirective.OptNonNegativeInt,
	}
	spec, captured := echoSpec(0, 1, false, false, options)
	_, msgs := rstdirective.RunSpec(spec, "x", "", "", body("arg\n:flag:\n:depth: 3\n"), "<test>", 1, nil)
	assert.Empty(t, msgs)
	assert.Equal(t, []string{"arg"}, captured.Arguments)
	assert.True(t, captured.Options["flag"].Bool)
	assert.Equal(t, 3, captured.Options["depth"].Int)
}

func TestRunSpecUnknownOption(t *testing.T) {
	t.Parallel()
	spec, _ := echoSpec(0, 0, false, false, map[string]rstdirective.OptionValidator{
		"known": rstdirective.OptFlag,
	})
	_, msgs := rstdirective.RunSpec(spec, "x", "", "", body(":mystery: value\n"), "<test>", 1, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, `Unknown option "mystery"`)
}

func TestRunSpecValidatorFailureReported(t *testing.T) {
	t.Parallel()
	spec, _ := echoSpec(0, 0, false, false, map[string]rstdirective.OptionValidator{
		"depth": rstdirective.OptNonNegativeInt,
	})
	_, msgs := rstdirective.RunSpec(spec, "x", "", "", body(":depth: minus-one\n"), "<test>", 1, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, `Error in option "depth"`)
}

func TestRunSpecFlagRejectsValue(t *testing.T) {
	t.Parallel()
	spec, _ := echoSpec(0, 0, false, false, map[string]rstdirective.OptionValidator{
		"flag": rstdirective.OptFlag,
	})
	_, msgs := rstdirective.RunSpec(spec, "x", "", "", body(":flag: surprise\n"), "<test>", 1, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "no argument permitted")
}

func TestRegistryLookupDomainOrder(t *testing.T) {
	t.Parallel()
	mongodbSpec := &rstdirective.DirectiveSpec{Run: func(*rstdirective.RunContext) (*rstast.Node, []*rstast.Node) { return nil, nil }}
	stdSpec := &rstdirective.DirectiveSpec{Run: func(*rstdirective.RunContext) (*rstast.Node, []*rstast.Node) { return nil, nil }}
	reg := rstdirective.NewBuilder("mongodb", "std").
		Directive("mongodb", "note", mongodbSpec).
		Directive("std", "note", stdSpec).
		Directive("std", "tip", stdSpec).
		Build()

	spec, ok := reg.LookupDirective("note")
	require.True(t, ok)
	assert.Same(t, mongodbSpec, spec)

	spec, ok = reg.LookupDirective("tip")
	require.True(t, ok)
	assert.Same(t, stdSpec, spec)

	_, ok = reg.LookupDirective("absent")
	assert.False(t, ok)
}

func TestRegistryRunUnknownDirective(t *testing.T) {
	t.Parallel()
	reg := rstdirective.NewBuilder().Build()
	node, msgs := reg.Run("mystery", "", "", nil, "<test>", 7, nil)
	assert.Nil(t, node)
	require.Len(t, msgs, 1)
	assert.Equal(t, rstast.NodeSystemMessage, msgs[0].Kind)
	assert.Contains(t, msgs[0].Text, "Unknown directive type")
}

func TestOptLineRanges(t *testing.T) {
	t.Parallel()
	val, err := rstdirective.OptLineRanges("1-2, 5", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"1-2", "5-5"}, val.Strings)

	_, err = rstdirective.OptLineRanges("2-1", true)
	assert.Error(t, err)
	_, err = rstdirective.OptLineRanges("x", true)
	assert.Error(t, err)
	_, err = rstdirective.OptLineRanges("", false)
	assert.Error(t, err)
}
