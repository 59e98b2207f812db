package rstconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i80and/snooty/pkg/rstconfig"
)

func TestParseAndOptions(t *testing.T) {
	t.Parallel()
	file, err := rstconfig.Parse([]byte(`
tab_width: 4
id_prefix: doc-
report_level: 2
halt_level: 4
trim_footnote_reference_space: true
`))
	require.NoError(t, err)

	opts := file.Options()
	assert.Equal(t, 4, opts.TabWidth)
	assert.Equal(t, "doc-", opts.IDPrefix)
	assert.Equal(t, "id", opts.AutoIDPrefix)
	assert.Equal(t, 2, opts.ReportLevel)
	assert.Equal(t, 4, opts.HaltLevel)
	assert.True(t, opts.TrimFootnoteReferenceSpace)
	assert.False(t, opts.CharacterLevelInlineMarkup)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	t.Parallel()
	file, err := rstconfig.Parse(nil)
	require.NoError(t, err)
	opts := file.Options()
	assert.Equal(t, 8, opts.TabWidth)
	assert.Equal(t, "id", opts.AutoIDPrefix)
	assert.Equal(t, 1, opts.ReportLevel)
	assert.Equal(t, 5, opts.HaltLevel)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := rstconfig.Parse([]byte("tabwidth: 4\n"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "parser.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tab_width: 2\n"), 0o644))
	file, err := rstconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, file.Options().TabWidth)

	_, err = rstconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
