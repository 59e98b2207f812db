package rstinline

import "github.com/mattn/go-runewidth"

// ColumnWidth returns the number of terminal columns text occupies:
// combining marks contribute zero width, wide East Asian characters
// contribute two, everything else contributes one. Used to validate
// title-underline lengths against the title text they decorate, where
// byte or rune counts would misjudge combining sequences.
func ColumnWidth(text string) int {
	return runewidth.StringWidth(text)
}
