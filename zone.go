package headlessterm

import (
	"time"

	"github.com/danielgatis/go-ansicode"
)

// ZoneKind classifies a semantic region of the screen/scrollback as
// identified by shell integration (OSC 133) marks.
type ZoneKind int

const (
	ZoneKindPrompt ZoneKind = iota
	ZoneKindCommand
	ZoneKindOutput
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneKindPrompt:
		return "prompt"
	case ZoneKindCommand:
		return "command"
	case ZoneKindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Zone is a semantic region of the scrollback/screen bounded by Absolute
// Row IDs, produced by the OSC 133 A/B/C/D state machine. Open is true
// until the next transition (or reset) closes it; AbsRowEnd is only
// meaningful once Open is false.
type Zone struct {
	ID          int64
	Kind        ZoneKind
	AbsRowStart AbsRowID
	AbsRowEnd   AbsRowID
	Open        bool
	Command     string
	ExitCode    int // -1 unless Kind == ZoneKindOutput and closed with an exit code
	OpenedAt    time.Time
	ClosedAt    time.Time
}

// CommandExecution records one shell command's lifecycle, derived from
// zone transitions plus the explicit StartCommandExecution/
// EndCommandExecution calls. Ordered newest-first by GetCommandHistory.
type CommandExecution struct {
	Command          string
	Cwd              string
	ExitCode         int
	OutputStartRowID AbsRowID
	OutputEndRowID   AbsRowID
	StartedAt        time.Time
	FinishedAt       time.Time
	finished         bool
}

// CwdChange records one working-directory transition (OSC 7), used by
// scope=full semantic snapshots.
type CwdChange struct {
	Cwd string
	At  time.Time
}

// zoneTracker owns the per-Terminal zone/command-history state. It's a
// plain struct (not an interface) embedded in Terminal by pointer,
// mirroring how the teacher keeps other cross-cutting state (e.g.
// ImageManager) as a dedicated owned type rather than loose fields.
type zoneTracker struct {
	zones       []*Zone
	nextZoneID  int64
	current     *Zone // the currently open zone, nil if none
	history     []*CommandExecution
	pendingExec *CommandExecution // open via StartCommandExecution, not yet ended
	suspended   bool              // true while the alternate screen is active
	cwdHistory  []CwdChange
}

func newZoneTracker() *zoneTracker {
	return &zoneTracker{}
}

// ShellIntegrationMark processes an OSC 133 shell-integration mark,
// driving the zone state machine. Required by the ansicode.Handler
// interface.
func (t *Terminal) ShellIntegrationMark(mark ansicode.ShellIntegrationMark, exitCode int) {
	if t.middleware != nil && t.middleware.SemanticPromptMark != nil {
		t.middleware.SemanticPromptMark(mark, exitCode, t.shellIntegrationMarkInternal)
		return
	}
	t.shellIntegrationMarkInternal(mark, exitCode)
}

func (t *Terminal) shellIntegrationMarkInternal(mark ansicode.ShellIntegrationMark, exitCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	zt := t.zones
	if zt.suspended {
		return
	}

	row := t.screenRowAbsIDLocked(t.cursor.Row)
	now := time.Now()

	closeCurrent := func(endExitCode int, hasExitCode bool) {
		z := zt.current
		if z == nil {
			return
		}
		z.Open = false
		z.AbsRowEnd = row
		z.ClosedAt = now
		if hasExitCode {
			z.ExitCode = endExitCode
		}
		zt.current = nil
		t.emitLocked(EventZoneClosed, *z)
		t.emitLocked(EventShellIntegration, *z)
	}

	openZone := func(kind ZoneKind) *Zone {
		zt.nextZoneID++
		z := &Zone{
			ID:          zt.nextZoneID,
			Kind:        kind,
			AbsRowStart: row,
			Open:        true,
			ExitCode:    -1,
			OpenedAt:    now,
		}
		zt.zones = append(zt.zones, z)
		zt.current = z
		t.emitLocked(EventZoneOpened, *z)
		return z
	}

	switch mark {
	case ansicode.PromptStart:
		closeCurrent(-1, false)
		openZone(ZoneKindPrompt)
	case ansicode.CommandStart:
		closeCurrent(-1, false)
		openZone(ZoneKindCommand)
	case ansicode.CommandExecuted:
		closeCurrent(-1, false)
		z := openZone(ZoneKindOutput)
		if zt.pendingExec == nil {
			zt.pendingExec = &CommandExecution{StartedAt: now}
		}
		zt.pendingExec.OutputStartRowID = z.AbsRowStart
	case ansicode.CommandFinished:
		closeCurrent(exitCode, true)
		if zt.pendingExec != nil {
			zt.pendingExec.ExitCode = exitCode
			zt.pendingExec.OutputEndRowID = row
			zt.pendingExec.FinishedAt = now
			zt.pendingExec.finished = true
			zt.history = append([]*CommandExecution{zt.pendingExec}, zt.history...)
			zt.pendingExec = nil
		}
	}
}

// clampToOldestLocked enforces spec.md's scrollback eviction rule on
// zones: any zone whose start has fallen below oldest has its
// AbsRowStart clamped to oldest; any closed zone whose end is at or below
// oldest is removed and emits ZoneScrolledOut. Open zones are never
// removed here, only clamped. Must be called with t.mu held.
func (zt *zoneTracker) clampToOldestLocked(t *Terminal, oldest AbsRowID) {
	kept := zt.zones[:0]
	for _, z := range zt.zones {
		evicted := false
		if z.Open {
			evicted = false // open zone's end is unbounded (still "now"), never fully evicted
		} else if z.AbsRowEnd <= oldest {
			evicted = true
		}

		if evicted {
			if z == zt.current {
				zt.current = nil
			}
			t.emitLocked(EventZoneScrolledOut, *z)
			continue
		}

		if z.AbsRowStart < oldest {
			z.AbsRowStart = oldest
		}
		kept = append(kept, z)
	}
	zt.zones = kept
}

// suspendZonesLocked stops zone mutation while the alternate screen is
// active, per spec. Must be called with t.mu held.
func (t *Terminal) suspendZonesLocked() {
	t.zones.suspended = true
}

// resumeZonesLocked re-enables zone mutation when returning to the
// primary screen. Must be called with t.mu held.
func (t *Terminal) resumeZonesLocked() {
	t.zones.suspended = false
}

// resetZonesLocked clears all zone and command-history state, called on
// RIS (full reset). Must be called with t.mu held.
func (t *Terminal) resetZonesLocked() {
	t.zones = newZoneTracker()
}

// GetZones returns a snapshot of every zone currently tracked (open and
// recently closed, oldest first).
func (t *Terminal) GetZones() []Zone {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Zone, len(t.zones.zones))
	for i, z := range t.zones.zones {
		out[i] = *z
	}
	return out
}

// GetZoneAt returns the zone covering the given absolute row, or nil if
// no tracked zone covers it.
func (t *Terminal) GetZoneAt(absRow AbsRowID) *Zone {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, z := range t.zones.zones {
		end := z.AbsRowEnd
		if z.Open {
			end = t.nextAbsRowID + AbsRowID(t.rows)
		}
		if absRow >= z.AbsRowStart && absRow < end {
			cp := *z
			return &cp
		}
	}
	return nil
}

// GetZoneText returns the text content of the zone covering absRow, or
// nil if no zone covers it.
func (t *Terminal) GetZoneText(absRow AbsRowID) *string {
	z := t.GetZoneAt(absRow)
	if z == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	end := z.AbsRowEnd
	if z.Open {
		end = t.screenRowAbsIDLocked(t.rows)
	}
	s := t.extractTextBetweenAbsRowsLocked(z.AbsRowStart, end)
	return &s
}

// StartCommandExecution begins tracking a command's lifecycle explicitly,
// for hosts that know the command line before shell integration reports
// OSC 133 C (e.g. a host-side readline). cwd is taken from the terminal's
// current working directory (OSC 7).
func (t *Terminal) StartCommandExecution(command string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zones.pendingExec = &CommandExecution{
		Command:   command,
		Cwd:       t.workingDir,
		ExitCode:  -1,
		StartedAt: time.Now(),
	}
}

// EndCommandExecution finalizes the command started by StartCommandExecution
// (or by an OSC 133 C mark) with the given exit code. No-op if no command
// is currently pending.
func (t *Terminal) EndCommandExecution(exitCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pe := t.zones.pendingExec
	if pe == nil {
		return
	}
	pe.ExitCode = exitCode
	pe.FinishedAt = time.Now()
	pe.finished = true
	pe.OutputEndRowID = t.screenRowAbsIDLocked(t.cursor.Row)
	t.zones.history = append([]*CommandExecution{pe}, t.zones.history...)
	t.zones.pendingExec = nil
}

// recordCwdChangeLocked appends a cwd transition for scope=full semantic
// snapshots. Must be called with t.mu held.
func (t *Terminal) recordCwdChangeLocked(cwd string) {
	t.zones.cwdHistory = append(t.zones.cwdHistory, CwdChange{Cwd: cwd, At: time.Now()})
}

// GetCwdHistory returns every recorded working-directory transition,
// oldest first.
func (t *Terminal) GetCwdHistory() []CwdChange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]CwdChange, len(t.zones.cwdHistory))
	copy(out, t.zones.cwdHistory)
	return out
}

// GetCommandHistory returns recorded commands, newest first.
func (t *Terminal) GetCommandHistory() []CommandExecution {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]CommandExecution, len(t.zones.history))
	for i, c := range t.zones.history {
		out[i] = *c
	}
	return out
}

// GetCommandOutput returns the captured output text for the command at
// index (0 = most recent, matching GetCommandHistory's ordering), or
// empty string if index is out of range.
func (t *Terminal) GetCommandOutput(index int) string {
	t.mu.RLock()
	if index < 0 || index >= len(t.zones.history) {
		t.mu.RUnlock()
		return ""
	}
	c := t.zones.history[index]
	t.mu.RUnlock()
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.extractTextBetweenAbsRowsLocked(c.OutputStartRowID, c.OutputEndRowID)
}

// GetCommandOutputs returns captured output text for every recorded
// command, newest first, aligned with GetCommandHistory.
func (t *Terminal) GetCommandOutputs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.zones.history))
	for i, c := range t.zones.history {
		out[i] = t.extractTextBetweenAbsRowsLocked(c.OutputStartRowID, c.OutputEndRowID)
	}
	return out
}

// GetLastCommandOutput returns the output of the most recently finished
// command, or "" if none has finished yet.
func (t *Terminal) GetLastCommandOutput() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.zones.history) == 0 {
		return ""
	}
	c := t.zones.history[0]
	return t.extractTextBetweenAbsRowsLocked(c.OutputStartRowID, c.OutputEndRowID)
}

// extractTextBetweenAbsRowsLocked extracts and joins line text for the
// half-open Absolute Row ID range [start, end), reaching into scrollback
// for rows that have since scrolled off-screen. Must be called with at
// least t.mu.RLock held.
func (t *Terminal) extractTextBetweenAbsRowsLocked(start, end AbsRowID) string {
	if end <= start {
		return ""
	}
	oldest := t.oldestAbsRowIDLocked()
	scrollbackLen := t.scrollbackStorage.Len()

	var lines []string
	for row := start; row < end; row++ {
		var content string
		switch {
		case row < oldest:
			// evicted, nothing retrievable
		case row < oldest+AbsRowID(scrollbackLen):
			idx := int(row - oldest)
			if cells := t.scrollbackStorage.Line(idx); cells != nil {
				content = t.cellsToString(cells)
			}
		default:
			screenRow := int(row - t.nextAbsRowID)
			if screenRow >= 0 && screenRow < t.rows {
				content = t.primaryBuffer.LineContent(screenRow)
			}
		}
		lines = append(lines, content)
	}

	lastNonEmpty := -1
	for i, line := range lines {
		if line != "" {
			lastNonEmpty = i
		}
	}
	if lastNonEmpty < 0 {
		return ""
	}

	result := ""
	for i := 0; i <= lastNonEmpty; i++ {
		if i > 0 {
			result += "\n"
		}
		result += lines[i]
	}
	return result
}

// cellsToString renders a row of cells as text, trimming trailing blanks
// and skipping wide-character spacer cells.
func (t *Terminal) cellsToString(cells []Cell) string {
	lastNonSpace := -1
	for i := len(cells) - 1; i >= 0; i-- {
		cell := &cells[i]
		if cell.Char != ' ' && cell.Char != 0 && !cell.IsWideSpacer() {
			lastNonSpace = i
			break
		}
	}
	if lastNonSpace < 0 {
		return ""
	}

	runes := make([]rune, 0, lastNonSpace+1)
	for i := 0; i <= lastNonSpace; i++ {
		cell := &cells[i]
		if cell.IsWideSpacer() {
			continue
		}
		if cell.Char == 0 {
			runes = append(runes, ' ')
		} else {
			runes = append(runes, cell.Char)
		}
	}
	return string(runes)
}
