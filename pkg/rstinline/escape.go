package rstinline

import "strings"

// Null is the sentinel of the "null-escaped" encoding: every backslash
// escape \X is replaced by NUL X before the tokenizer scans for inline
// markup, so an escaped delimiter can never be mistaken for a live one.
const Null = '\x00'

// EscapeToNull replaces every backslash escape in text with Null followed
// by the escaped character. A trailing, unescaped backslash (nothing left
// to escape) becomes a lone Null.
func EscapeToNull(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' {
			b.WriteRune(Null)
			if i+1 < len(runes) {
				b.WriteRune(runes[i+1])
				i++
			}
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// Unescape reverses EscapeToNull. When restoreBackslashes is true, each
// Null is turned back into a backslash (round-tripping to the original
// text); otherwise each Null is simply dropped, leaving the literal
// escaped character behind for final display text.
func Unescape(text string, restoreBackslashes bool) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == Null {
			if restoreBackslashes {
				b.WriteRune('\\')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
