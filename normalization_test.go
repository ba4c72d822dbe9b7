package headlessterm

import "testing"

func TestDefaultNormalizationFormIsNFC(t *testing.T) {
	term := New()
	if term.NormalizationForm() != NormalizationNFC {
		t.Errorf("expected default NormalizationNFC, got %v", term.NormalizationForm())
	}
}

func TestSetNormalizationForm(t *testing.T) {
	term := New(WithNormalizationForm(NormalizationNFD))
	if term.NormalizationForm() != NormalizationNFD {
		t.Errorf("expected NormalizationNFD from option, got %v", term.NormalizationForm())
	}

	term.SetNormalizationForm(NormalizationNone)
	if term.NormalizationForm() != NormalizationNone {
		t.Errorf("expected NormalizationNone after setter, got %v", term.NormalizationForm())
	}
}

// decomposedE is "e" followed by U+0301 COMBINING ACUTE ACCENT - the
// decomposed spelling of "e with acute", sent as two runes the way a
// program emitting NFD text would.
const decomposedE = "é"

// TestCombiningMarkComposesUnderNFC writes the decomposed "e" + combining
// acute accent; under NFC these compose to the single precomposed rune
// U+00E9 and must occupy only the one cell the base character wrote.
func TestCombiningMarkComposesUnderNFC(t *testing.T) {
	term := New(WithSize(5, 20))
	term.WriteString(decomposedE)

	row, col := term.CursorPos()
	if col != 1 {
		t.Fatalf("expected cursor to advance by exactly 1 cell, got col=%d", col)
	}
	content := term.LineContent(row)
	want := "é"
	if content != want {
		t.Errorf("expected composed %q, got %q", want, content)
	}
}

func TestCombiningMarkDroppedUnderNormalizationNone(t *testing.T) {
	term := New(WithSize(5, 20), WithNormalizationForm(NormalizationNone))
	term.WriteString(decomposedE)

	content := term.LineContent(0)
	if content != "e" {
		t.Errorf("expected bare base rune under NormalizationNone, got %q", content)
	}
}
