package rstast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstast"
)

func newDoc() *rstast.Document {
	reporter := rstast.NewReporter(rstast.LevelInfo, rstast.LevelSevere+1)
	return rstast.NewDocument("", "id", reporter)
}

func TestRegisterNameFreshEntries(t *testing.T) {
	t.Parallel()
	doc := newDoc()
	n1 := rstast.NewNode(rstast.NodeTarget)

	id, level, _ := doc.RegisterName(n1, "intro", "intro-id", true)
	assert.Equal(t, "intro-id", id)
	assert.Zero(t, level)

	n2 := rstast.NewNode(rstast.NodeParagraph)
	id, level, _ = doc.RegisterName(n2, "second", "", false)
	assert.Equal(t, "", id)
	assert.Zero(t, level)
}

func TestRegisterNameImplicitThenExplicitWarns(t *testing.T) {
	t.Parallel()
	doc := newDoc()
	implicit := rstast.NewNode(rstast.NodeSection)
	_, level, _ := doc.RegisterName(implicit, "overview", "", false)
	require.Zero(t, level)

	explicit := rstast.NewNode(rstast.NodeTarget)
	id, level, msg := doc.RegisterName(explicit, "overview", "overview-id", true)
	assert.Equal(t, "overview-id", id)
	assert.Equal(t, rstast.LevelWarning, level)
	assert.Contains(t, msg, "Duplicate implicit target name")
}

func TestRegisterNameExplicitDuplicateErrors(t *testing.T) {
	t.Parallel()
	doc := newDoc()
	first := rstast.NewNode(rstast.NodeTarget)
	_, _, _ = doc.RegisterName(first, "dup", "dup-id", true)

	second := rstast.NewNode(rstast.NodeTarget)
	id, level, msg := doc.RegisterName(second, "dup", "dup-id-2", true)
	assert.Equal(t, "", id)
	assert.Equal(t, rstast.LevelError, level)
	assert.Contains(t, msg, "Duplicate explicit target name")
}

func TestRegisterNameExplicitDuplicateSameRefuriDowngrades(t *testing.T) {
	t.Parallel()
	doc := newDoc()
	first := rstast.NewNode(rstast.NodeTarget)
	first.Attrs.SetString("refuri", "https://example.com")
	doc.SetID(first, "dup-id")
	_, _, _ = doc.RegisterName(first, "dup", "dup-id", true)

	second := rstast.NewNode(rstast.NodeTarget)
	second.Attrs.SetString("refuri", "https://example.com")
	id, level, msg := doc.RegisterName(second, "dup", "dup-id-2", true)
	assert.Equal(t, "", id)
	assert.Equal(t, rstast.LevelInfo, level)
	assert.Contains(t, msg, "identical reference")
}

func TestSetIDUniqueness(t *testing.T) {
	t.Parallel()
	doc := newDoc()
	a := rstast.NewNode(rstast.NodeParagraph)
	b := rstast.NewNode(rstast.NodeParagraph)

	idA := doc.SetID(a, "shared")
	idB := doc.SetID(b, "shared")
	assert.NotEqual(t, idA, idB, "colliding ids must be disambiguated")
	assert.Equal(t, a, doc.IDToElement[idA])
	assert.Equal(t, b, doc.IDToElement[idB])
}

func TestReporterHaltLevel(t *testing.T) {
	t.Parallel()
	r := rstast.NewReporter(rstast.LevelInfo, rstast.LevelError)
	_, err := r.Warning("just a warning", "src", 1)
	require.NoError(t, err)

	_, err = r.Error("boom", "src", 2)
	require.ErrorIs(t, err, rstast.ErrHalted)

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, rstast.LevelWarning, msgs[0].Severity)
	assert.Equal(t, rstast.LevelError, msgs[1].Severity)
}

func TestReporterBelowReportLevelNotRecorded(t *testing.T) {
	t.Parallel()
	r := rstast.NewReporter(rstast.LevelWarning, rstast.LevelSevere+1)
	_, err := r.Info("quiet", "src", 1)
	require.NoError(t, err)
	assert.Empty(t, r.Messages())
}
