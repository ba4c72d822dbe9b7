package headlessterm

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TriggerActionKind enumerates the action types a Trigger can apply to a
// matched line.
type TriggerActionKind int

const (
	TriggerActionHighlight TriggerActionKind = iota
	TriggerActionNotify
	TriggerActionMarkLine
	TriggerActionSetVariable
	TriggerActionRunCommand
	TriggerActionPlaySound
	TriggerActionSendText
	TriggerActionStop
)

// TriggerAction is one step of a Trigger's action list. Which fields are
// meaningful depends on Kind; unused fields are left zero. Capture
// substitution ($0..$9) is applied to Title, Message, Label, Name, Value,
// Command and Text at evaluation time, not at registration time; SoundID
// is passed through as given, and Args is not read by any action.
type TriggerAction struct {
	Kind TriggerActionKind

	// Highlight
	Fg       color.Color
	Bg       color.Color
	Duration time.Duration // 0 means no expiry

	// Notify
	Title   string
	Message string

	// MarkLine
	Label string

	// SetVariable
	Name  string
	Value string

	// RunCommand
	Command string
	Args    []string

	// PlaySound
	SoundID string
	Volume  float64

	// SendText
	Text  string
	Delay time.Duration
}

// Trigger is a registered regex scan rule.
type Trigger struct {
	ID      int
	Name    string
	Pattern string
	re      *regexp.Regexp
	Actions []TriggerAction
	Enabled bool
}

// TriggerMatch is one trigger firing against a finalized row, returned by
// PollTriggerMatches.
type TriggerMatch struct {
	TriggerID int
	Row       int
	Captures  []string
}

// TriggerHighlight is a Highlight action's resulting overlay.
type TriggerHighlight struct {
	Row       int
	ColStart  int
	ColEnd    int
	Fg        color.Color
	Bg        color.Color
	expiresAt time.Time // zero means no expiry
}

type triggerEngine struct {
	triggers    []*Trigger
	nextID      int
	matches     []TriggerMatch
	highlights  []TriggerHighlight
	pendingRows map[int]bool // rows finalized since last scan but not yet scanned (defensive; scans run inline today)
}

func newTriggerEngine() *triggerEngine {
	return &triggerEngine{pendingRows: make(map[int]bool)}
}

// AddTrigger compiles pattern and registers it with the given actions,
// returning its id. Returns (0, ErrInvalidArgument) if pattern doesn't
// compile, per spec.md §7 ("invalid regex" is InvalidArgument).
func (t *Terminal) AddTrigger(name, pattern string, actions []TriggerAction) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, ErrInvalidArgument
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	te := t.triggers
	te.nextID++
	te.triggers = append(te.triggers, &Trigger{
		ID:      te.nextID,
		Name:    name,
		Pattern: pattern,
		re:      re,
		Actions: actions,
		Enabled: true,
	})
	return te.nextID, nil
}

// RemoveTrigger unregisters a trigger, returning false if id is unknown.
func (t *Terminal) RemoveTrigger(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	te := t.triggers
	for i, tr := range te.triggers {
		if tr.ID == id {
			te.triggers = append(te.triggers[:i], te.triggers[i+1:]...)
			return true
		}
	}
	return false
}

// SetTriggerEnabled enables or disables a registered trigger without
// unregistering it. No-op if id is unknown.
func (t *Terminal) SetTriggerEnabled(id int, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.triggers.triggers {
		if tr.ID == id {
			tr.Enabled = enabled
			return
		}
	}
}

// scanRowForTriggersLocked evaluates every enabled trigger against the
// finalized text of row (a screen row in the active buffer), appending
// matches/highlights/responses as actions dictate. Must be called with
// t.mu held. Highlights and matches are labelled with row, the on-screen
// row number.
func (t *Terminal) scanRowForTriggersLocked(row int, text string) {
	te := t.triggers
	if len(te.triggers) == 0 || text == "" {
		return
	}

	for _, tr := range te.triggers {
		if !tr.Enabled {
			continue
		}
		loc := tr.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		captures := make([]string, 0, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			if loc[i] < 0 {
				captures = append(captures, "")
				continue
			}
			captures = append(captures, text[loc[i]:loc[i+1]])
		}

		te.matches = append(te.matches, TriggerMatch{TriggerID: tr.ID, Row: row, Captures: captures})

		for _, action := range tr.Actions {
			if t.applyTriggerActionLocked(tr, row, loc, captures, action) {
				break // Stop
			}
		}
	}
}

// applyTriggerActionLocked applies one action and reports whether
// processing should stop (TriggerActionStop). Must be called with t.mu
// held.
func (t *Terminal) applyTriggerActionLocked(tr *Trigger, row int, loc []int, captures []string, action TriggerAction) bool {
	subst := func(s string) string { return substituteCaptures(s, captures) }

	switch action.Kind {
	case TriggerActionHighlight:
		colStart, colEnd := 0, len(captures)
		if len(loc) >= 2 {
			colStart, colEnd = loc[0], loc[1]
		}
		h := TriggerHighlight{Row: row, ColStart: colStart, ColEnd: colEnd, Fg: action.Fg, Bg: action.Bg}
		if action.Duration > 0 {
			h.expiresAt = time.Now().Add(action.Duration)
		}
		t.triggers.highlights = append(t.triggers.highlights, h)
	case TriggerActionNotify:
		t.emitLocked(EventShellIntegration, map[string]string{
			"trigger_action": "notify",
			"title":          subst(action.Title),
			"message":        subst(action.Message),
		})
	case TriggerActionMarkLine:
		t.emitLocked(EventShellIntegration, map[string]string{
			"trigger_action": "mark_line",
			"label":          subst(action.Label),
			"row":            strconv.Itoa(row),
		})
	case TriggerActionSetVariable:
		t.setUserVarInternal(subst(action.Name), subst(action.Value))
	case TriggerActionRunCommand:
		t.emitLocked(EventShellIntegration, map[string]string{
			"trigger_action": "run_command",
			"command":        subst(action.Command),
		})
	case TriggerActionPlaySound:
		t.emitLocked(EventShellIntegration, map[string]string{
			"trigger_action": "play_sound",
			"sound_id":       action.SoundID,
		})
	case TriggerActionSendText:
		t.writeResponseString(subst(action.Text))
	case TriggerActionStop:
		return true
	}
	return false
}

// substituteCaptures replaces $0..$9 in s with the corresponding regex
// capture group, leaving unmatched placeholders untouched.
func substituteCaptures(s string, captures []string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			idx := int(s[i+1] - '0')
			if idx < len(captures) {
				b.WriteString(captures[idx])
			}
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ProcessTriggerScans flushes trigger scanning for the current cursor
// row without waiting for it to finalize via wrap/scroll/CR-LF.
func (t *Terminal) ProcessTriggerScans() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanRowForTriggersLocked(t.cursor.Row, t.activeBuffer.LineContent(t.cursor.Row))
}

// PollTriggerMatches drains and returns every trigger match recorded
// since the last call.
func (t *Terminal) PollTriggerMatches() []TriggerMatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.triggers.matches
	t.triggers.matches = nil
	return out
}

// GetTriggerHighlights returns every non-expired highlight overlay.
func (t *Terminal) GetTriggerHighlights() []TriggerHighlight {
	t.mu.Lock()
	defer t.mu.Unlock()
	te := t.triggers
	now := time.Now()
	kept := te.highlights[:0]
	for _, h := range te.highlights {
		if !h.expiresAt.IsZero() && now.After(h.expiresAt) {
			continue
		}
		kept = append(kept, h)
	}
	te.highlights = kept
	out := make([]TriggerHighlight, len(kept))
	copy(out, kept)
	return out
}

// ClearTriggerHighlights removes every highlight overlay immediately.
func (t *Terminal) ClearTriggerHighlights() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.triggers.highlights = nil
}
