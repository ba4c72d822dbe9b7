package headlessterm

// Absolute row IDs give every line that ever appears in the primary
// buffer a stable identity that survives scrolling. Row 0 of the first
// screen is ID 0; each line pushed into scrollback consumes the next
// sequential ID. Because scrollback is a FIFO ring bounded by
// scrollbackStorage's MaxLines, the oldest ID still retained is always
// nextAbsRowID minus however many lines the ring currently holds - no
// side table is needed.
//
// The alternate buffer has no scrollback and no row identity: programs
// that use it (editors, pagers) don't get shell-integration zones, which
// matches real terminals suspending prompt tracking while the alt screen
// is active.

// AbsRowID identifies a terminal line independent of its current (or
// former) screen position.
type AbsRowID int64

// oldestAbsRowIDLocked returns the smallest AbsRowID still retrievable
// through the scrollback provider, or nextAbsRowID if scrollback is
// empty (nothing retained, so the oldest retained ID coincides with the
// next one to be assigned).
func (t *Terminal) oldestAbsRowIDLocked() AbsRowID {
	n := int64(t.scrollbackStorage.Len())
	oldest := t.nextAbsRowID - n
	if oldest < 0 {
		oldest = 0
	}
	return AbsRowID(oldest)
}

// screenRowAbsIDLocked returns the AbsRowID of on-screen row r of the
// primary buffer. Only meaningful while the primary buffer is active.
func (t *Terminal) screenRowAbsIDLocked(r int) AbsRowID {
	return AbsRowID(t.nextAbsRowID) + AbsRowID(r)
}

// ViewportRowToAbsolute converts an on-screen row (0 = top of the visible
// viewport) to its absolute row ID, stable across future scrolling.
func (t *Terminal) ViewportRowToAbsolute(row int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int(t.screenRowAbsIDLocked(row))
}

// AbsoluteRowToViewport converts an absolute row ID back to an on-screen
// row, or -1 if that row is currently in scrollback or beyond the bottom
// of the viewport.
func (t *Terminal) AbsoluteRowToViewport(absRow int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if absRow < 0 {
		return -1
	}
	row := absRow - int(t.nextAbsRowID)
	if row < 0 || row >= t.rows {
		return -1
	}
	return row
}

// onScrollbackPushLocked is called after any operation (scroll, DECSTBM
// region scroll, line delete) that may have pushed lines from the
// primary buffer into scrollback. pushed is the number of lines actually
// pushed, as returned by Buffer.ScrollUp / Buffer.DeleteLines - zero for
// the alternate buffer or when scrollback storage has no capacity.
//
// Must be called with t.mu held.
func (t *Terminal) onScrollbackPushLocked(pushed int) {
	if pushed <= 0 || t.activeBuffer != t.primaryBuffer {
		return
	}
	t.nextAbsRowID += int64(pushed)
	if t.zones != nil {
		t.zones.clampToOldestLocked(t, t.oldestAbsRowIDLocked())
	}
}
