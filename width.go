package headlessterm

import (
	"github.com/unilibs/uniwidth"
	"golang.org/x/text/width"
)

// AmbiguousWidthMode controls how UAX #11 East Asian "Ambiguous" runes
// (box-drawing, Greek/Cyrillic letters, various symbols - narrow in most
// Western fonts but wide in legacy CJK fonts) are measured. Terminals
// differ on this; the correct choice depends on the font the host renders
// with, which this core has no visibility into.
type AmbiguousWidthMode int

const (
	// AmbiguousNarrow measures ambiguous-width runes as 1 column. Default.
	AmbiguousNarrow AmbiguousWidthMode = iota
	// AmbiguousWide measures ambiguous-width runes as 2 columns, matching
	// CJK-locale terminal conventions (e.g. common settings for East Asian
	// users running a Western-authored terminal emulator).
	AmbiguousWide
)

// WithAmbiguousWidth sets how East Asian "Ambiguous" category runes are
// measured. Default is AmbiguousNarrow.
func WithAmbiguousWidth(mode AmbiguousWidthMode) Option {
	return func(t *Terminal) {
		t.ambiguousWidth = mode
	}
}

// runeWidth returns the display width: 2 for wide characters (CJK, emoji), 1 for normal, 0 for zero-width (combining marks, control chars).
func runeWidth(r rune) int {
	return runeWidthMode(r, AmbiguousNarrow)
}

// runeWidthMode is runeWidth adjusted for the given AmbiguousWidthMode:
// uniwidth already measures most runes correctly, but East Asian
// Ambiguous-category runes are only re-measured as wide under
// AmbiguousWide.
func runeWidthMode(r rune, mode AmbiguousWidthMode) int {
	w := uniwidth.RuneWidth(r)
	if mode == AmbiguousWide && w == 1 && width.LookupRune(r).Kind() == width.EastAsianAmbiguous {
		return 2
	}
	return w
}

// isWideRune returns true if the rune occupies 2 columns (CJK ideographs, fullwidth forms, emoji).
func isWideRune(r rune) bool {
	return uniwidth.RuneWidth(r) == 2
}

// StringWidth returns the total display width of a string (sum of rune widths).
func StringWidth(s string) int {
	return uniwidth.StringWidth(s)
}
