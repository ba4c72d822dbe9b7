package headlessterm

import (
	"testing"
)

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r        rune
		expected int
	}{
		{'A', 1},
		{'a', 1},
		{'1', 1},
		{' ', 1},
		{'中', 2},
		{'日', 2},
		{'本', 2},
		{'한', 2},
		{'글', 2},
		{'가', 2},
		{'Ａ', 2}, // Fullwidth A
		{0, 0},
	}

	for _, tt := range tests {
		got := runeWidth(tt.r)
		if got != tt.expected {
			t.Errorf("runeWidth(%q) = %d, want %d", tt.r, got, tt.expected)
		}
	}
}

func TestIsWideRune(t *testing.T) {
	tests := []struct {
		r        rune
		expected bool
	}{
		{'A', false},
		{'a', false},
		{' ', false},
		{'中', true},
		{'日', true},
		{'한', true},
		{'가', true},
		{'Ａ', true}, // Fullwidth A
		{'0', false},
	}

	for _, tt := range tests {
		got := isWideRune(tt.r)
		if got != tt.expected {
			t.Errorf("isWideRune(%q) = %v, want %v", tt.r, got, tt.expected)
		}
	}
}

func TestRuneWidthModeAmbiguous(t *testing.T) {
	// U+00A7 SECTION SIGN is East Asian Ambiguous: narrow by default, wide
	// under AmbiguousWide.
	r := '§'

	if got := runeWidthMode(r, AmbiguousNarrow); got != 1 {
		t.Errorf("runeWidthMode(%q, AmbiguousNarrow) = %d, want 1", r, got)
	}
	if got := runeWidthMode(r, AmbiguousWide); got != 2 {
		t.Errorf("runeWidthMode(%q, AmbiguousWide) = %d, want 2", r, got)
	}

	// Already-wide and already-narrow runes are unaffected by the mode.
	if got := runeWidthMode('中', AmbiguousNarrow); got != 2 {
		t.Errorf("runeWidthMode('中', AmbiguousNarrow) = %d, want 2", got)
	}
	if got := runeWidthMode('A', AmbiguousWide); got != 1 {
		t.Errorf("runeWidthMode('A', AmbiguousWide) = %d, want 1", got)
	}
}

func TestWithAmbiguousWidthAffectsCursorAdvance(t *testing.T) {
	narrow := New(WithSize(24, 80))
	narrow.WriteString("§")
	if _, col := narrow.CursorPos(); col != 1 {
		t.Errorf("expected cursor at col 1 under default narrow width, got %d", col)
	}

	wide := New(WithSize(24, 80), WithAmbiguousWidth(AmbiguousWide))
	wide.WriteString("§")
	if _, col := wide.CursorPos(); col != 2 {
		t.Errorf("expected cursor at col 2 under AmbiguousWide, got %d", col)
	}
}

func TestStringWidth(t *testing.T) {
	tests := []struct {
		s        string
		expected int
	}{
		{"Hello", 5},
		{"中文", 4},
		{"Hello中文", 9},
		{"", 0},
		{"한글", 4},
	}

	for _, tt := range tests {
		got := StringWidth(tt.s)
		if got != tt.expected {
			t.Errorf("StringWidth(%q) = %d, want %d", tt.s, got, tt.expected)
		}
	}
}
