package headlessterm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/color"
)

// SnapshotDetail specifies the level of detail in a snapshot.
type SnapshotDetail string

const (
	// SnapshotDetailText returns plain text only.
	SnapshotDetailText SnapshotDetail = "text"
	// SnapshotDetailStyled returns text with style segments per line.
	SnapshotDetailStyled SnapshotDetail = "styled"
	// SnapshotDetailFull returns full cell-by-cell data.
	SnapshotDetailFull SnapshotDetail = "full"
)

// SnapshotScope controls how much beyond the visible screen a semantic
// snapshot includes.
type SnapshotScope string

const (
	// SnapshotScopeVisible includes only the on-screen grid (size, cursor,
	// lines, images) - equivalent to calling Snapshot directly.
	SnapshotScopeVisible SnapshotScope = "visible"
	// SnapshotScopeRecent adds recent command history with truncated output.
	SnapshotScopeRecent SnapshotScope = "recent"
	// SnapshotScopeFull adds full scrollback text, cwd history, and the
	// complete command list with untruncated output.
	SnapshotScopeFull SnapshotScope = "full"
)

// recentCommandOutputLimit bounds SnapshotCommand.Output under
// SnapshotScopeRecent, matching the "truncated output" requirement.
const recentCommandOutputLimit = 4096

// Snapshot represents a complete terminal screen capture.
type Snapshot struct {
	Size           SnapshotSize      `json:"size"`
	Cursor         SnapshotCursor    `json:"cursor"`
	Lines          []SnapshotLine    `json:"lines"`
	Images         []SnapshotImage   `json:"images,omitempty"`
	Commands       []SnapshotCommand `json:"commands,omitempty"`
	ScrollbackText string            `json:"scrollback_text,omitempty"`
	CwdHistory     []string          `json:"cwd_history,omitempty"`
}

// SnapshotCommand is the command-history entry attached to scope=recent
// and scope=full semantic snapshots.
type SnapshotCommand struct {
	Command    string `json:"command"`
	Cwd        string `json:"cwd,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Output     string `json:"output"`
	Truncated  bool   `json:"truncated,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// SnapshotSize holds terminal dimensions.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
	Style   string `json:"style"`
}

// SnapshotLine represents a single line in the snapshot.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
	Cells    []SnapshotCell    `json:"cells,omitempty"`
}

// SnapshotSegment represents a styled text segment within a line.
type SnapshotSegment struct {
	Text       string         `json:"text"`
	Fg         string         `json:"fg,omitempty"`
	Bg         string         `json:"bg,omitempty"`
	Attributes SnapshotAttrs  `json:"attrs,omitempty"`
	Hyperlink  *SnapshotLink  `json:"hyperlink,omitempty"`
}

// SnapshotCell represents a single cell with full attributes.
type SnapshotCell struct {
	Char           string        `json:"char"`
	Fg             string        `json:"fg"`
	Bg             string        `json:"bg"`
	UnderlineColor string        `json:"underline_color,omitempty"`
	Attributes     SnapshotAttrs `json:"attrs,omitempty"`
	Hyperlink      *SnapshotLink `json:"hyperlink,omitempty"`
	Wide           bool          `json:"wide,omitempty"`
	WideSpacer     bool          `json:"wide_spacer,omitempty"`
}

// SnapshotAttrs holds text formatting attributes. Underline is "" (none),
// "single", "double", "curly", "dotted", or "dashed"; Blink is "" (none),
// "slow", or "fast".
type SnapshotAttrs struct {
	Bold          bool   `json:"bold,omitempty"`
	Dim           bool   `json:"dim,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     string `json:"underline,omitempty"`
	Blink         string `json:"blink,omitempty"`
	Reverse       bool   `json:"reverse,omitempty"`
	Hidden        bool   `json:"hidden,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
}

// SnapshotLink holds hyperlink information.
type SnapshotLink struct {
	ID  string `json:"id,omitempty"`
	URI string `json:"uri"`
}

// SnapshotImage holds image placement metadata (without pixel data).
type SnapshotImage struct {
	ID          uint32 `json:"id"`           // Unique image ID
	PlacementID uint32 `json:"placement_id"` // Unique placement ID
	Row         int    `json:"row"`          // Position row (cells)
	Col         int    `json:"col"`          // Position column (cells)
	Rows        int    `json:"rows"`         // Size in rows (cells)
	Cols        int    `json:"cols"`         // Size in columns (cells)
	PixelWidth  uint32 `json:"pixel_width"`  // Original image width (pixels)
	PixelHeight uint32 `json:"pixel_height"` // Original image height (pixels)
	ZIndex      int32  `json:"z_index"`      // Z-index for layering
}

// ImageSnapshot holds complete image data for retrieval.
type ImageSnapshot struct {
	ID     uint32 `json:"id"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Format string `json:"format"` // "rgba" (raw RGBA pixels, base64 encoded)
	Data   string `json:"data"`   // Base64 encoded image data
}

// GetImageData returns the image data for the given ID, or nil if not found.
func (t *Terminal) GetImageData(id uint32) *ImageSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	img := t.images.Image(id)
	if img == nil {
		return nil
	}

	return &ImageSnapshot{
		ID:     img.ID,
		Width:  img.Width,
		Height: img.Height,
		Format: "rgba",
		Data:   base64.StdEncoding.EncodeToString(img.Data),
	}
}

// Snapshot creates a snapshot of the current terminal state.
// The detail parameter controls how much information is included.
func (t *Terminal) Snapshot(detail SnapshotDetail) *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := &Snapshot{
		Size: SnapshotSize{
			Rows: t.rows,
			Cols: t.cols,
		},
		Cursor: SnapshotCursor{
			Row:     t.cursor.Row,
			Col:     t.cursor.Col,
			Visible: t.cursor.Visible,
			Style:   cursorStyleToString(t.cursor.Style),
		},
		Lines: make([]SnapshotLine, t.rows),
	}

	for row := 0; row < t.rows; row++ {
		snap.Lines[row] = t.snapshotLine(row, detail)
	}

	// Include image placements
	snap.Images = t.snapshotImages()

	return snap
}

// SemanticSnapshot builds a structured document describing terminal
// state at the requested scope. maxCommands bounds how many recent
// commands are attached under SnapshotScopeRecent (0 means no limit).
// Returns ErrInvalidArgument for an unrecognized scope.
func (t *Terminal) SemanticSnapshot(scope SnapshotScope, detail SnapshotDetail, maxCommands int) (*Snapshot, error) {
	switch scope {
	case SnapshotScopeVisible, SnapshotScopeRecent, SnapshotScopeFull:
	default:
		return nil, ErrInvalidArgument
	}

	snap := t.Snapshot(detail)
	if scope == SnapshotScopeVisible {
		return snap, nil
	}

	history := t.GetCommandHistory()
	outputs := t.GetCommandOutputs()
	if scope == SnapshotScopeRecent && maxCommands > 0 && maxCommands < len(history) {
		history = history[:maxCommands]
		outputs = outputs[:maxCommands]
	}

	snap.Commands = make([]SnapshotCommand, len(history))
	for i, c := range history {
		out := outputs[i]
		truncated := false
		if scope == SnapshotScopeRecent && len(out) > recentCommandOutputLimit {
			out = out[:recentCommandOutputLimit]
			truncated = true
		}
		snap.Commands[i] = SnapshotCommand{
			Command:    c.Command,
			Cwd:        c.Cwd,
			ExitCode:   c.ExitCode,
			Output:     out,
			Truncated:  truncated,
			StartedAt:  c.StartedAt.Format(timeFormatRFC3339),
			FinishedAt: c.FinishedAt.Format(timeFormatRFC3339),
		}
	}

	if scope == SnapshotScopeFull {
		snap.ScrollbackText = t.fullScrollbackText()
		cwds := t.GetCwdHistory()
		snap.CwdHistory = make([]string, len(cwds))
		for i, c := range cwds {
			snap.CwdHistory[i] = c.Cwd
		}
	}

	return snap, nil
}

// SemanticSnapshotJSON returns the SemanticSnapshot result marshaled to
// JSON, for hosts that want the wire form directly.
func (t *Terminal) SemanticSnapshotJSON(scope SnapshotScope, detail SnapshotDetail, maxCommands int) ([]byte, error) {
	snap, err := t.SemanticSnapshot(scope, detail, maxCommands)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}

const timeFormatRFC3339 = "2006-01-02T15:04:05.000Z07:00"

// fullScrollbackText renders every retained scrollback line followed by
// the current screen, oldest first, for scope=full snapshots.
func (t *Terminal) fullScrollbackText() string {
	n := t.ScrollbackLen()
	lines := make([]string, 0, n+t.rows)
	for i := 0; i < n; i++ {
		lines = append(lines, t.cellsToString(t.ScrollbackLine(i)))
	}
	for row := 0; row < t.rows; row++ {
		lines = append(lines, t.LineContent(row))
	}

	result := ""
	for i, line := range lines {
		if i > 0 {
			result += "\n"
		}
		result += line
	}
	return result
}

// GraphicsExport is the versioned wire format for ExportGraphicsJSON /
// ImportGraphicsJSON.
type GraphicsExport struct {
	Version    int                   `json:"version"`
	Images     []GraphicsExportImage `json:"images"`
	Placements []GraphicsExportPlace `json:"placements"`
}

// GraphicsExportImage carries one stored image's pixels, base64 encoded.
type GraphicsExportImage struct {
	ID     uint32 `json:"id"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Data   string `json:"data"`
}

// GraphicsExportPlace carries one image placement.
type GraphicsExportPlace struct {
	ImageID uint32 `json:"image_id"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
	ZIndex  int32  `json:"z_index"`
}

const graphicsExportVersion = 1

// ExportGraphicsJSON serializes every stored image and placement to the
// versioned JSON schema above.
func (t *Terminal) ExportGraphicsJSON() ([]byte, error) {
	t.mu.RLock()
	placements := t.images.Placements()
	seen := make(map[uint32]bool)
	export := GraphicsExport{Version: graphicsExportVersion}
	for _, p := range placements {
		export.Placements = append(export.Placements, GraphicsExportPlace{
			ImageID: p.ImageID,
			Row:     p.Row,
			Col:     p.Col,
			Rows:    p.Rows,
			Cols:    p.Cols,
			ZIndex:  p.ZIndex,
		})
		if seen[p.ImageID] {
			continue
		}
		seen[p.ImageID] = true
		img := t.images.Image(p.ImageID)
		if img == nil {
			continue
		}
		export.Images = append(export.Images, GraphicsExportImage{
			ID:     img.ID,
			Width:  img.Width,
			Height: img.Height,
			Data:   base64.StdEncoding.EncodeToString(img.Data),
		})
	}
	t.mu.RUnlock()

	return json.Marshal(export)
}

// ImportGraphicsJSON restores images and placements from the wire format
// produced by ExportGraphicsJSON. Unknown versions are rejected with
// ErrInvalidArgument.
func (t *Terminal) ImportGraphicsJSON(data []byte) error {
	var export GraphicsExport
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("import graphics: %w", err)
	}
	if export.Version != graphicsExportVersion {
		return ErrInvalidArgument
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, img := range export.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			t.noteMalformedLocked()
			continue
		}
		t.images.StoreWithID(img.ID, img.Width, img.Height, data)
	}
	for _, p := range export.Placements {
		t.images.Place(&ImagePlacement{
			ImageID: p.ImageID,
			Row:     p.Row,
			Col:     p.Col,
			Rows:    p.Rows,
			Cols:    p.Cols,
			ZIndex:  p.ZIndex,
		})
	}
	return nil
}

// snapshotImages returns all image placements with metadata.
func (t *Terminal) snapshotImages() []SnapshotImage {
	placements := t.images.Placements()
	if len(placements) == 0 {
		return nil
	}

	images := make([]SnapshotImage, 0, len(placements))
	for _, p := range placements {
		img := t.images.Image(p.ImageID)
		if img == nil {
			continue
		}

		images = append(images, SnapshotImage{
			ID:          p.ImageID,
			PlacementID: p.ID,
			Row:         p.Row,
			Col:         p.Col,
			Rows:        p.Rows,
			Cols:        p.Cols,
			PixelWidth:  img.Width,
			PixelHeight: img.Height,
			ZIndex:      p.ZIndex,
		})
	}

	return images
}

// snapshotLine creates a snapshot of a single line.
func (t *Terminal) snapshotLine(row int, detail SnapshotDetail) SnapshotLine {
	line := SnapshotLine{
		Text: t.activeBuffer.LineContent(row),
	}

	switch detail {
	case SnapshotDetailText:
		// Just text, already set

	case SnapshotDetailStyled:
		line.Segments = t.lineToSegments(row)

	case SnapshotDetailFull:
		line.Cells = t.lineToCells(row)
	}

	return line
}

// lineToSegments converts a line to styled segments (runs of same style).
func (t *Terminal) lineToSegments(row int) []SnapshotSegment {
	var segments []SnapshotSegment
	var current *SnapshotSegment
	var currentChars []rune

	for col := 0; col < t.cols; col++ {
		cell := t.activeBuffer.Cell(row, col)
		if cell == nil {
			continue
		}
		if cell.IsWideSpacer() {
			continue
		}

		fg := colorToHex(cell.Fg)
		bg := colorToHex(cell.Bg)
		attrs := cellAttrsToSnapshot(cell)
		link := cellHyperlinkToSnapshot(cell)

		// Check if we need to start a new segment
		if current == nil || !segmentMatches(current, fg, bg, attrs, link) {
			// Save current segment if exists
			if current != nil && len(currentChars) > 0 {
				current.Text = string(currentChars)
				segments = append(segments, *current)
			}

			// Start new segment
			current = &SnapshotSegment{
				Fg:         fg,
				Bg:         bg,
				Attributes: attrs,
				Hyperlink:  link,
			}
			currentChars = nil
		}

		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		currentChars = append(currentChars, ch)
	}

	// Don't forget the last segment
	if current != nil && len(currentChars) > 0 {
		current.Text = string(currentChars)
		segments = append(segments, *current)
	}

	return segments
}

// lineToCells converts a line to full cell data.
func (t *Terminal) lineToCells(row int) []SnapshotCell {
	cells := make([]SnapshotCell, 0, t.cols)

	for col := 0; col < t.cols; col++ {
		cell := t.activeBuffer.Cell(row, col)
		if cell == nil {
			cells = append(cells, SnapshotCell{
				Char: " ",
				Fg:   colorToHex(nil),
				Bg:   colorToHex(nil),
			})
			continue
		}

		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}

		sc := SnapshotCell{
			Char:           string(ch),
			Fg:             colorToHex(cell.Fg),
			Bg:             colorToHex(cell.Bg),
			UnderlineColor: colorToHex(cell.UnderlineColor),
			Attributes:     cellAttrsToSnapshot(cell),
			Hyperlink:      cellHyperlinkToSnapshot(cell),
			Wide:           cell.IsWide(),
			WideSpacer:     cell.IsWideSpacer(),
		}

		cells = append(cells, sc)
	}

	return cells
}

// segmentMatches checks if segment matches the given style.
func segmentMatches(seg *SnapshotSegment, fg, bg string, attrs SnapshotAttrs, link *SnapshotLink) bool {
	if seg.Fg != fg || seg.Bg != bg {
		return false
	}
	if seg.Attributes != attrs {
		return false
	}
	// Compare hyperlinks
	if seg.Hyperlink == nil && link == nil {
		return true
	}
	if seg.Hyperlink == nil || link == nil {
		return false
	}
	return seg.Hyperlink.URI == link.URI && seg.Hyperlink.ID == link.ID
}

// colorToHex converts a color to hex string.
func colorToHex(c color.Color) string {
	if c == nil {
		return ""
	}

	rgba := resolveDefaultColor(c, true)
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// cellAttrsToSnapshot extracts cell attributes.
func cellAttrsToSnapshot(cell *Cell) SnapshotAttrs {
	return SnapshotAttrs{
		Bold:          cell.HasFlag(CellFlagBold),
		Dim:           cell.HasFlag(CellFlagDim),
		Italic:        cell.HasFlag(CellFlagItalic),
		Underline:     underlineStyleToSnapshot(cell),
		Blink:         blinkStyleToSnapshot(cell),
		Reverse:       cell.HasFlag(CellFlagReverse),
		Hidden:        cell.HasFlag(CellFlagHidden),
		Strikethrough: cell.HasFlag(CellFlagStrike),
	}
}

// underlineStyleToSnapshot maps a cell's underline flag to the wire name
// for its style, or "" if the cell isn't underlined at all.
func underlineStyleToSnapshot(cell *Cell) string {
	switch {
	case cell.HasFlag(CellFlagDoubleUnderline):
		return "double"
	case cell.HasFlag(CellFlagCurlyUnderline):
		return "curly"
	case cell.HasFlag(CellFlagDottedUnderline):
		return "dotted"
	case cell.HasFlag(CellFlagDashedUnderline):
		return "dashed"
	case cell.HasFlag(CellFlagUnderline):
		return "single"
	default:
		return ""
	}
}

// blinkStyleToSnapshot maps a cell's blink flag to the wire name for its
// speed, or "" if the cell doesn't blink.
func blinkStyleToSnapshot(cell *Cell) string {
	switch {
	case cell.HasFlag(CellFlagBlinkFast):
		return "fast"
	case cell.HasFlag(CellFlagBlinkSlow):
		return "slow"
	default:
		return ""
	}
}

// cellHyperlinkToSnapshot extracts hyperlink info.
func cellHyperlinkToSnapshot(cell *Cell) *SnapshotLink {
	if cell.Hyperlink == nil {
		return nil
	}
	return &SnapshotLink{
		ID:  cell.Hyperlink.ID,
		URI: cell.Hyperlink.URI,
	}
}

// cursorStyleToString converts cursor style to string.
func cursorStyleToString(style CursorStyle) string {
	switch style {
	case CursorStyleBlinkingBlock, CursorStyleSteadyBlock:
		return "block"
	case CursorStyleBlinkingUnderline, CursorStyleSteadyUnderline:
		return "underline"
	case CursorStyleBlinkingBar, CursorStyleSteadyBar:
		return "bar"
	default:
		return "block"
	}
}
