package headlessterm

import "testing"

func TestSetLeftRightMarginClampsAndConverts(t *testing.T) {
	term := New(WithSize(24, 80))
	term.SetLeftRightMargin(3, 10)

	left, right := term.LeftRightMargin()
	if left != 2 || right != 10 {
		t.Errorf("expected (2, 10), got (%d, %d)", left, right)
	}
}

func TestSetLeftRightMarginRejectsInverted(t *testing.T) {
	term := New(WithSize(24, 80))
	term.SetLeftRightMargin(3, 10)
	term.SetLeftRightMargin(10, 3)

	left, right := term.LeftRightMargin()
	if left != 2 || right != 10 {
		t.Errorf("expected margins unchanged after inverted call, got (%d, %d)", left, right)
	}
}

func TestSetLeftRightMarginZeroResetsToFullWidth(t *testing.T) {
	term := New(WithSize(24, 80))
	term.SetLeftRightMargin(3, 10)
	term.SetLeftRightMargin(1, 0)

	left, right := term.LeftRightMargin()
	if left != 0 || right != 80 {
		t.Errorf("expected full-width margins, got (%d, %d)", left, right)
	}
}

func TestInsertBlankHonorsLeftRightMargin(t *testing.T) {
	term := New(WithSize(24, 80))
	for col := 0; col < 10; col++ {
		term.Cell(0, col).Char = rune('A' + col)
	}
	term.SetLeftRightMargin(3, 9) // 0-based [2, 9)

	term.Goto(0, 4)
	term.InsertBlank(2)

	if term.Cell(0, 1).Char != 'B' {
		t.Errorf("expected column left of margin untouched, got '%c'", term.Cell(0, 1).Char)
	}
	if term.Cell(0, 8).Char != 'G' {
		t.Errorf("expected 'G' shifted to col 8 inside right margin, got '%c'", term.Cell(0, 8).Char)
	}
	if term.Cell(0, 4).Char != ' ' {
		t.Errorf("expected blank inserted at cursor, got '%c'", term.Cell(0, 4).Char)
	}
}

func TestDeleteCharsHonorsLeftRightMargin(t *testing.T) {
	term := New(WithSize(24, 80))
	for col := 0; col < 10; col++ {
		term.Cell(0, col).Char = rune('A' + col)
	}
	term.SetLeftRightMargin(3, 9) // 0-based [2, 9)

	term.Goto(0, 4)
	term.DeleteChars(2)

	if term.Cell(0, 1).Char != 'B' {
		t.Errorf("expected column left of margin untouched, got '%c'", term.Cell(0, 1).Char)
	}
	if term.Cell(0, 9).Char != 'J' {
		t.Errorf("expected column at/after right margin untouched, got '%c'", term.Cell(0, 9).Char)
	}
	if term.Cell(0, 4).Char != 'G' {
		t.Errorf("expected 'G' shifted into col 4, got '%c'", term.Cell(0, 4).Char)
	}
}

func TestBCEDisabledFillsDefaultBackground(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("\x1b[41mX\x1b[0K") // red bg, print X, erase to end of line

	cell := term.Cell(0, 1)
	if nc, ok := cell.Bg.(*NamedColor); !ok || nc.Name != NamedColorBackground {
		t.Errorf("expected default background fill with BCE disabled, got %+v", cell.Bg)
	}
}

func TestBCEEnabledFillsCurrentBackground(t *testing.T) {
	term := New(WithSize(24, 80), WithBCE(true))
	term.WriteString("\x1b[41mX\x1b[0K") // red bg, print X, erase to end of line

	cell := term.Cell(0, 1)
	if nc, ok := cell.Bg.(*NamedColor); ok && nc.Name == NamedColorBackground {
		t.Errorf("expected non-default background fill with BCE enabled, got %+v", cell.Bg)
	}
}

func TestSetBCEEnabledToggledAtRuntime(t *testing.T) {
	term := New(WithSize(24, 80))
	if term.BCEEnabled() {
		t.Fatal("expected BCE disabled by default")
	}
	term.SetBCEEnabled(true)
	if !term.BCEEnabled() {
		t.Error("expected BCE enabled after SetBCEEnabled(true)")
	}
}

func TestCharacterProtectionMarksPrintedCells(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("A")
	term.SetCharacterProtection(true)
	term.WriteString("B")
	term.SetCharacterProtection(false)
	term.WriteString("C")

	if term.Cell(0, 0).HasFlag(CellFlagProtected) {
		t.Error("expected 'A' not protected")
	}
	if !term.Cell(0, 1).HasFlag(CellFlagProtected) {
		t.Error("expected 'B' protected")
	}
	if term.Cell(0, 2).HasFlag(CellFlagProtected) {
		t.Error("expected 'C' not protected")
	}
}

func TestSelectiveEraseSkipsProtectedCells(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("A")
	term.SetCharacterProtection(true)
	term.WriteString("B")
	term.SetCharacterProtection(false)
	term.WriteString("C")

	term.WriteString("\x1b[2K") // erase entire line

	if term.Cell(0, 0).Char != ' ' {
		t.Errorf("expected unprotected 'A' erased, got '%c'", term.Cell(0, 0).Char)
	}
	if term.Cell(0, 1).Char != 'B' {
		t.Errorf("expected protected 'B' preserved, got '%c'", term.Cell(0, 1).Char)
	}
	if term.Cell(0, 2).Char != ' ' {
		t.Errorf("expected unprotected 'C' erased, got '%c'", term.Cell(0, 2).Char)
	}
}

func TestCharacterProtectionResetOnRIS(t *testing.T) {
	term := New(WithSize(24, 80))
	term.SetCharacterProtection(true)
	term.WriteString("\x1bc") // RIS

	if term.CharacterProtection() {
		t.Error("expected character protection cleared after RIS")
	}
}
