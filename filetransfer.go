package headlessterm

import (
	"encoding/base64"
	"strconv"
	"strings"
)

const defaultMaxTransferSize = 50 * 1024 * 1024

// FileTransfer records one OSC 1337 File= download. This implementation
// is single-shot (the full base64 payload arrives in one OSC sequence,
// per the wire format), so transfers move directly from "active" to
// "completed" within a single handleOSC1337File call; Status/active vs.
// completed is still tracked explicitly to match the external interface's
// shape (a streaming host could extend this by deferring completion).
type FileTransfer struct {
	ID         int
	Direction  string // "download" (File=) or "upload" (RequestUpload=)
	Filename   string
	TotalBytes int
	Data       []byte
	Status     string // "active", "completed", "cancelled"
}

type transferState struct {
	maxSize   int
	nextID    int
	active    map[int]*FileTransfer
	completed map[int]*FileTransfer
}

func newTransferState() *transferState {
	return &transferState{
		maxSize:   defaultMaxTransferSize,
		active:    make(map[int]*FileTransfer),
		completed: make(map[int]*FileTransfer),
	}
}

// GetMaxTransferSize returns the configured maximum accepted file-transfer
// payload size in bytes. Defaults to 50 MiB.
func (t *Terminal) GetMaxTransferSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.transfers.maxSize
}

// SetMaxTransferSize changes the maximum accepted file-transfer payload
// size. Values <= 0 are rejected silently (prior value kept), matching
// this repo's "malformed input degrades to drop" convention.
func (t *Terminal) SetMaxTransferSize(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transfers.maxSize = n
}

// GetActiveTransfers returns every transfer still in progress.
func (t *Terminal) GetActiveTransfers() []FileTransfer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]FileTransfer, 0, len(t.transfers.active))
	for _, tr := range t.transfers.active {
		out = append(out, *tr)
	}
	return out
}

// GetCompletedTransfers returns every finished transfer still buffered
// (not yet retrieved via TakeCompletedTransfer).
func (t *Terminal) GetCompletedTransfers() []FileTransfer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]FileTransfer, 0, len(t.transfers.completed))
	for _, tr := range t.transfers.completed {
		out = append(out, *tr)
	}
	return out
}

// TakeCompletedTransfer removes and returns the completed transfer with
// the given id, or nil if no such completed transfer is buffered.
func (t *Terminal) TakeCompletedTransfer(id int) *FileTransfer {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.transfers.completed[id]
	if !ok {
		return nil
	}
	delete(t.transfers.completed, id)
	return tr
}

// CancelFileTransfer cancels an in-progress transfer, returning true if a
// matching active transfer was found and cancelled. Returns false for
// unknown or already-completed transfer IDs.
func (t *Terminal) CancelFileTransfer(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.transfers.active[id]
	if !ok {
		return false
	}
	tr.Status = "cancelled"
	delete(t.transfers.active, id)
	return true
}

// handleOSC1337File parses "File=params:base64data" (the part after
// "1337;"). inline=1 payloads (inline images) are dropped: no transfer is
// recorded for them, and no image is created from them either.
func (t *Terminal) handleOSC1337File(payload string) {
	rest, ok := strings.CutPrefix(payload, "File=")
	if !ok {
		return
	}
	paramsStr, b64Data, ok := strings.Cut(rest, ":")
	if !ok {
		t.mu.Lock()
		t.noteMalformedLocked()
		t.mu.Unlock()
		return
	}

	var filename string
	size := -1
	inline := false
	for _, kv := range strings.Split(paramsStr, ";") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "name":
			if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {
				filename = string(decoded)
			}
		case "size":
			if n, err := strconv.Atoi(v); err == nil {
				size = n
			}
		case "inline":
			inline = v == "1"
		}
	}

	if inline {
		// Inline images ride the same OSC 1337 File= envelope; they are
		// not file transfers and are not decoded into images here.
		return
	}

	data, err := base64.StdEncoding.DecodeString(b64Data)
	if err != nil {
		t.mu.Lock()
		t.noteMalformedLocked()
		t.mu.Unlock()
		return
	}

	t.mu.Lock()
	if len(data) > t.transfers.maxSize {
		t.noteMalformedLocked()
		t.mu.Unlock()
		return
	}
	if size < 0 {
		size = len(data)
	}
	t.mu.Unlock()

	tr := &FileTransfer{
		Direction:  "download",
		Filename:   filename,
		TotalBytes: size,
		Data:       data,
		Status:     "completed",
	}
	t.applyFileTransferReceived(tr)
}

// applyFileTransferReceived assigns an ID to a completed download and
// records it, going through Middleware.FileTransferReceived if configured.
func (t *Terminal) applyFileTransferReceived(tr *FileTransfer) {
	if t.middleware != nil && t.middleware.FileTransferReceived != nil {
		t.middleware.FileTransferReceived(tr, t.applyFileTransferReceivedInternal)
		return
	}
	t.applyFileTransferReceivedInternal(tr)
}

func (t *Terminal) applyFileTransferReceivedInternal(tr *FileTransfer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transfers.nextID++
	tr.ID = t.transfers.nextID

	started := map[string]string{
		"direction":   tr.Direction,
		"total_bytes": strconv.Itoa(tr.TotalBytes),
	}
	if tr.Filename != "" {
		started["filename"] = tr.Filename
	}
	t.emitLocked(EventFileTransferStarted, started)

	t.transfers.completed[tr.ID] = tr
	t.emitLocked(EventFileTransferCompleted, map[string]string{
		"id":       strconv.Itoa(tr.ID),
		"filename": tr.Filename,
		"size":     strconv.Itoa(len(tr.Data)),
	})
}

// handleOSC1337RequestUpload parses "RequestUpload=format=X" (the part
// after "1337;"), emitting upload_requested so the host can prompt the
// user and subsequently call SendUploadData or CancelUpload.
func (t *Terminal) handleOSC1337RequestUpload(payload string) {
	rest, ok := strings.CutPrefix(payload, "RequestUpload=")
	if !ok {
		return
	}
	format := ""
	for _, kv := range strings.Split(rest, ";") {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == "format" {
			format = v
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked(EventUploadRequested, map[string]string{"format": format})
}

// SendUploadData responds to a pending upload request with the host's
// file data, writing "ok\n" + base64(data) + "\n\n" per iTerm2's wire
// protocol for RequestUpload= responses.
func (t *Terminal) SendUploadData(data []byte) {
	t.writeResponseString("ok\n" + base64.StdEncoding.EncodeToString(data) + "\n\n")
}

// CancelUpload responds to a pending upload request by writing a single
// Ctrl-C (0x03) byte, telling the remote program the user declined.
func (t *Terminal) CancelUpload() {
	t.writeResponse([]byte{0x03})
}
