package headlessterm

import "golang.org/x/text/unicode/norm"

// NormalizationForm selects the Unicode normalization form applied when a
// zero-width combining mark follows a printed character (see
// composeCombiningMarkLocked); other printed runes are stored as decoded.
// Terminal applications commonly emit combining-mark sequences (e.g. a
// base letter followed by a combining accent); normalizing keeps
// equivalent sequences comparable and keeps width calculations in
// width.go consistent regardless of how the source encoded the glyph.
type NormalizationForm int

const (
	// NormalizationNFC canonically composes input (the default - matches
	// what most terminal emulators assume when measuring display width).
	NormalizationNFC NormalizationForm = iota
	NormalizationNFD
	NormalizationNFKC
	NormalizationNFKD
	// NormalizationNone disables normalization; graphemes are stored
	// exactly as decoded from the byte stream.
	NormalizationNone
)

func (f NormalizationForm) form() (norm.Form, bool) {
	switch f {
	case NormalizationNFC:
		return norm.NFC, true
	case NormalizationNFD:
		return norm.NFD, true
	case NormalizationNFKC:
		return norm.NFKC, true
	case NormalizationNFKD:
		return norm.NFKD, true
	default:
		return norm.NFC, false
	}
}

// WithNormalizationForm sets the normalization form applied when a
// combining mark is composed with the preceding character. Defaults to
// NormalizationNFC.
func WithNormalizationForm(f NormalizationForm) Option {
	return func(t *Terminal) {
		t.normalizationForm = f
	}
}

// NormalizationForm returns the currently configured normalization form.
func (t *Terminal) NormalizationForm() NormalizationForm {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.normalizationForm
}

// SetNormalizationForm changes the grapheme normalization form at
// runtime. Only affects text written after this call.
func (t *Terminal) SetNormalizationForm(f NormalizationForm) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.normalizationForm = f
}

// composeCombiningMarkLocked attaches a zero-width combining mark to the
// previous cell's rune under the active normalization form. A Cell holds
// a single rune, so NFC/NFKC compose the pair down to one rune when a
// precomposed form exists; otherwise (NFD/NFKD/None, or no composition
// exists) the mark is dropped and the base rune is left as-is. Must be
// called with t.mu held.
func (t *Terminal) composeCombiningMarkLocked(mark rune) {
	col := t.cursor.Col - 1
	if col < 0 || col >= t.cols {
		return
	}
	cell := t.activeBuffer.Cell(t.cursor.Row, col)
	if cell == nil || cell.Char == 0 {
		return
	}
	combined := t.normalizeGraphemeLocked(string(cell.Char) + string(mark))
	runes := []rune(combined)
	if len(runes) == 0 || runes[0] == cell.Char {
		return
	}
	cell.Char = runes[0]
	t.activeBuffer.MarkDirty(t.cursor.Row, col)
}

// normalizeGraphemeLocked normalizes a single decoded grapheme string
// according to the active form. Must be called with t.mu held. Returns s
// unchanged for NormalizationNone or single-rune input with no combining
// marks, avoiding an allocation on the common ASCII path.
func (t *Terminal) normalizeGraphemeLocked(s string) string {
	f, ok := t.normalizationForm.form()
	if !ok {
		return s
	}
	if norm.NFC.IsNormalString(s) && f == norm.NFC {
		return s
	}
	return f.String(s)
}
