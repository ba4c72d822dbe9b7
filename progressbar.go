package headlessterm

import "strings"

// NamedProgressBar is one OSC 934 progress indicator, keyed by an
// arbitrary host-assigned ID (e.g. a download or build step). Fields are
// kept as strings rather than parsed numerics: the wire format never
// constrains "percent" or "state" to a fixed vocabulary, and round
// tripping the raw value avoids lossy reinterpretation.
type NamedProgressBar struct {
	ID      string
	State   string
	Percent string
	Label   string
}

// progressBarState owns the insertion-ordered set of named progress bars
// plus the single legacy OSC 9;4 value, embedded in Terminal.
type progressBarState struct {
	order []string
	bars  map[string]*NamedProgressBar

	legacySet     bool
	legacyPercent int
}

func newProgressBarState() *progressBarState {
	return &progressBarState{bars: make(map[string]*NamedProgressBar)}
}

func (p *progressBarState) clearAllLocked(t *Terminal) {
	if len(p.bars) == 0 {
		return
	}
	p.order = nil
	p.bars = make(map[string]*NamedProgressBar)
	p.legacySet = false
	t.emitLocked(EventProgressBarChanged, map[string]string{"action": "remove_all"})
}

// handleOSC934 parses and applies an OSC 934 payload (everything after
// "934;"), e.g. "set;dl-1;percent=50;label=Downloading", "remove;dl-1",
// or "remove_all". Unrecognized actions are silently dropped per the
// parser's tolerance model.
func (t *Terminal) handleOSC934(payload string) {
	parts := strings.Split(payload, ";")
	if len(parts) == 0 {
		return
	}
	action := parts[0]

	switch action {
	case "set":
		if len(parts) < 2 || parts[1] == "" {
			t.mu.Lock()
			t.noteMalformedLocked()
			t.mu.Unlock()
			return
		}
		id := parts[1]

		t.mu.RLock()
		bar, exists := t.progressBars.bars[id]
		if exists {
			cp := *bar
			bar = &cp
		} else {
			bar = &NamedProgressBar{ID: id, State: "normal"}
		}
		t.mu.RUnlock()

		for _, kv := range parts[2:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			switch k {
			case "state":
				bar.State = v
			case "percent":
				bar.Percent = v
			case "label":
				bar.Label = v
			}
		}
		t.applyProgressBarSet(bar)
	case "remove":
		if len(parts) < 2 {
			return
		}
		t.applyProgressBarRemove(parts[1])
	case "remove_all":
		t.mu.Lock()
		t.progressBars.clearAllLocked(t)
		t.mu.Unlock()
	default:
		t.mu.Lock()
		t.noteMalformedLocked()
		t.mu.Unlock()
	}
}

// applyProgressBarSet creates or updates a named progress bar, going
// through Middleware.ProgressBarSet if configured.
func (t *Terminal) applyProgressBarSet(bar *NamedProgressBar) {
	if t.middleware != nil && t.middleware.ProgressBarSet != nil {
		t.middleware.ProgressBarSet(bar, t.applyProgressBarSetInternal)
		return
	}
	t.applyProgressBarSetInternal(bar)
}

func (t *Terminal) applyProgressBarSetInternal(bar *NamedProgressBar) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pb := t.progressBars
	if _, exists := pb.bars[bar.ID]; !exists {
		pb.order = append(pb.order, bar.ID)
	}
	cp := *bar
	pb.bars[bar.ID] = &cp
	t.emitLocked(EventProgressBarChanged, map[string]string{
		"action":  "set",
		"id":      cp.ID,
		"state":   cp.State,
		"percent": cp.Percent,
		"label":   cp.Label,
	})
}

// applyProgressBarRemove removes a named progress bar, going through
// Middleware.ProgressBarRemove if configured.
func (t *Terminal) applyProgressBarRemove(id string) {
	if t.middleware != nil && t.middleware.ProgressBarRemove != nil {
		t.middleware.ProgressBarRemove(id, t.applyProgressBarRemoveInternal)
		return
	}
	t.applyProgressBarRemoveInternal(id)
}

func (t *Terminal) applyProgressBarRemoveInternal(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pb := t.progressBars
	if _, ok := pb.bars[id]; !ok {
		return
	}
	delete(pb.bars, id)
	for i, existing := range pb.order {
		if existing == id {
			pb.order = append(pb.order[:i], pb.order[i+1:]...)
			break
		}
	}
	t.emitLocked(EventProgressBarChanged, map[string]string{"action": "remove", "id": id})
}

// NamedProgressBars returns every currently set progress bar, insertion
// order (oldest set() first, matching the teacher-wide convention of
// exposing ordered collections as slices rather than map iteration order).
func (t *Terminal) NamedProgressBars() []NamedProgressBar {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pb := t.progressBars
	out := make([]NamedProgressBar, 0, len(pb.order))
	for _, id := range pb.order {
		out = append(out, *pb.bars[id])
	}
	return out
}

// GetNamedProgressBar returns the bar with the given id, or nil if unset.
func (t *Terminal) GetNamedProgressBar(id string) *NamedProgressBar {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bar, ok := t.progressBars.bars[id]
	if !ok {
		return nil
	}
	cp := *bar
	return &cp
}

// handleLegacyProgress parses the legacy ConEmu/Windows Terminal OSC
// 9;4;<state>;<percent> single-value progress indicator. state 0 clears
// it, state 1/2 (normal/error) and 3 (indeterminate) set it, matching
// what every terminal emulator implementing this de facto sequence does.
func (t *Terminal) handleLegacyProgress(state, percent string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pb := t.progressBars
	switch state {
	case "0", "":
		pb.legacySet = false
		t.emitLocked(EventProgressBarChanged, map[string]string{"action": "remove", "id": "", "legacy": "true"})
	default:
		pb.legacySet = true
		if n, err := parsePositiveInt(percent); err == nil {
			pb.legacyPercent = n
		}
		t.emitLocked(EventProgressBarChanged, map[string]string{
			"action":  "set",
			"id":      "",
			"legacy":  "true",
			"state":   state,
			"percent": percent,
		})
	}
}

// LegacyProgress returns the single-value OSC 9;4 progress state: ok is
// false if no legacy progress indicator is currently set.
func (t *Terminal) LegacyProgress() (percent int, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progressBars.legacyPercent, t.progressBars.legacySet
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, ErrInvalidArgument
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidArgument
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
