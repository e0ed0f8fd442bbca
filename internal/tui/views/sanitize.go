package views

import (
	"strings"
	"unicode"
)

// dropRunes are codepoints tcell renders badly inside table cells.
var dropRunes = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1}, // zero width joiner
		{Lo: 0xfe00, Hi: 0xfe0f, Stride: 1}, // variation selectors
	},
	R32: []unicode.Range32{
		{Lo: 0x1f3fb, Hi: 0x1f3ff, Stride: 1}, // skin tone modifiers
		{Lo: 0xe0100, Hi: 0xe01ef, Stride: 1}, // variation selectors supplement
	},
}

// sanitizeForTerminal prepares backend text for a single table cell:
// control characters become spaces and emoji modifiers are dropped.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(dropRunes, r):
			return -1
		case unicode.IsControl(r):
			return ' '
		}
		return r
	}, s)
}
