// Package rstconfig loads parser settings for the CLI from a YAML
// file. It configures the host invoking the parser; the parser library
// itself only ever sees the resulting rst.OptionParser.
package rstconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/i80and/snooty/pkg/rst"
)

// File is the YAML shape of a parser settings file. Absent keys keep
// their documented defaults; explicit zero values are honored where the
// distinction matters (report/halt levels, tab width).
type File struct {
	TabWidth                   *int   `yaml:"tab_width"`
	TrimFootnoteReferenceSpace bool   `yaml:"trim_footnote_reference_space"`
	IDPrefix                   string `yaml:"id_prefix"`
	AutoIDPrefix               string `yaml:"auto_id_prefix"`
	ReportLevel                *int   `yaml:"report_level"`
	HaltLevel                  *int   `yaml:"halt_level"`
	CharacterLevelInlineMarkup bool   `yaml:"character_level_inline_markup"`
}

// Load reads and decodes path. Unknown keys are rejected so a typo in
// a settings file fails loudly instead of silently keeping a default.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes an in-memory YAML settings document.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &f, nil
}

// Options converts the file into an rst.OptionParser, starting from
// the documented defaults and overriding only what the file sets.
func (f *File) Options() *rst.OptionParser {
	opts := rst.NewOptionParser()
	if f == nil {
		return opts
	}
	if f.TabWidth != nil {
		opts.TabWidth = *f.TabWidth
	}
	opts.TrimFootnoteReferenceSpace = f.TrimFootnoteReferenceSpace
	opts.IDPrefix = f.IDPrefix
	if f.AutoIDPrefix != "" {
		opts.AutoIDPrefix = f.AutoIDPrefix
	}
	if f.ReportLevel != nil {
		opts.ReportLevel = *f.ReportLevel
	}
	if f.HaltLevel != nil {
		opts.HaltLevel = *f.HaltLevel
	}
	opts.CharacterLevelInlineMarkup = f.CharacterLevelInlineMarkup
	return opts
}
