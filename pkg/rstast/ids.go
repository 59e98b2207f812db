package rstast

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	nonIDRun       = regexp.MustCompile(`[^a-z0-9]+`)
	leadingDigits  = regexp.MustCompile(`^[-0-9]+`)
	trailingHyphen = regexp.MustCompile(`-+$`)
)

// FullyNormalizeName collapses every run of whitespace in text to a single
// ordinary space and trims the result. Used to compare
// reference names, footnote labels, and substitution names.
func FullyNormalizeName(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// MakeID derives a valid identifier from text: lowercase, Unicode-NFKD
// decomposed, internal whitespace collapsed, every run of characters
// outside [a-z0-9] replaced with a single hyphen, then leading digits/
// hyphens and trailing hyphens trimmed, matching docutils' make_id.
func MakeID(text string) string {
	id := strings.ToLower(FullyNormalizeName(text))
	id = norm.NFKD.String(id)
	id = nonIDRun.ReplaceAllString(id, "-")
	id = leadingDigits.ReplaceAllString(id, "")
	id = trailingHyphen.ReplaceAllString(id, "")
	return id
}
