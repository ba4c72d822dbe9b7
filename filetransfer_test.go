package headlessterm

import (
	"encoding/base64"
	"testing"
)

func oscFile(params, data string) string {
	return "\x1b]1337;File=" + params + ":" + base64.StdEncoding.EncodeToString([]byte(data)) + "\x07"
}

func TestFileTransferCompletesImmediately(t *testing.T) {
	term := New()
	name := base64.StdEncoding.EncodeToString([]byte("report.txt"))
	term.WriteString(oscFile("name="+name+";size=11", "hello world"))

	completed := term.GetCompletedTransfers()
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed transfer, got %d", len(completed))
	}
	if completed[0].Filename != "report.txt" {
		t.Errorf("expected filename 'report.txt', got %q", completed[0].Filename)
	}
	if string(completed[0].Data) != "hello world" {
		t.Errorf("expected data 'hello world', got %q", completed[0].Data)
	}
	if len(term.GetActiveTransfers()) != 0 {
		t.Error("expected no active transfers once completed")
	}
}

func TestInline1IsImageNotFileTransfer(t *testing.T) {
	term := New()
	term.WriteString(oscFile("inline=1;size=5", "abcde"))

	if len(term.GetCompletedTransfers()) != 0 {
		t.Error("expected inline=1 payload to be skipped by the file-transfer handler")
	}
	if len(term.GetActiveTransfers()) != 0 {
		t.Error("expected inline=1 payload not to create an active transfer either")
	}
}

func TestFileTransferRejectsOversizePayload(t *testing.T) {
	term := New()
	term.SetMaxTransferSize(4)
	term.WriteString(oscFile("size=11", "hello world"))

	if len(term.GetCompletedTransfers()) != 0 {
		t.Error("expected oversize transfer to be rejected")
	}
	if term.MalformedSequenceCount() == 0 {
		t.Error("expected malformed counter to increment on oversize rejection")
	}
}

func TestTakeCompletedTransferRemovesIt(t *testing.T) {
	term := New()
	term.WriteString(oscFile("size=5", "hello"))

	completed := term.GetCompletedTransfers()
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed transfer, got %d", len(completed))
	}
	id := completed[0].ID

	tr := term.TakeCompletedTransfer(id)
	if tr == nil || tr.ID != id {
		t.Fatalf("expected to take transfer %d", id)
	}
	if term.TakeCompletedTransfer(id) != nil {
		t.Error("expected second take to return nil")
	}
}

func TestCancelFileTransferUnknownID(t *testing.T) {
	term := New()
	if term.CancelFileTransfer(999) {
		t.Error("expected cancelling an unknown transfer to return false")
	}
}

func TestSetMaxTransferSizeRejectsNonPositive(t *testing.T) {
	term := New()
	before := term.GetMaxTransferSize()
	term.SetMaxTransferSize(0)
	term.SetMaxTransferSize(-5)
	if term.GetMaxTransferSize() != before {
		t.Errorf("expected non-positive sizes to be rejected, got %d", term.GetMaxTransferSize())
	}
}

func TestFileTransferReceivedMiddlewareIntercepts(t *testing.T) {
	var seen *FileTransfer
	term := New(WithMiddleware(&Middleware{
		FileTransferReceived: func(tr *FileTransfer, next func(*FileTransfer)) {
			seen = tr
			next(tr)
		},
	}))
	term.WriteString(oscFile("size=5", "hello"))

	if seen == nil || string(seen.Data) != "hello" {
		t.Fatalf("expected middleware to observe the transfer, got %+v", seen)
	}
	if len(term.GetCompletedTransfers()) != 1 {
		t.Error("expected transfer to still be recorded after middleware calls next")
	}
}

func TestFileTransferReceivedMiddlewareCanBlock(t *testing.T) {
	term := New(WithMiddleware(&Middleware{
		FileTransferReceived: func(tr *FileTransfer, next func(*FileTransfer)) {
			// Don't call next - block the transfer.
		},
	}))
	term.WriteString(oscFile("size=5", "hello"))

	if len(term.GetCompletedTransfers()) != 0 {
		t.Error("expected no transfer recorded when middleware blocks it")
	}
}

func TestRequestUploadEmitsEvent(t *testing.T) {
	term := New()
	term.WriteString("\x1b]1337;RequestUpload=format=zip\x07")

	events := term.PollEvents()
	if len(events) != 1 || events[0].Kind != EventUploadRequested {
		t.Fatalf("expected 1 upload_requested event, got %+v", events)
	}
}

func TestFileTransferEventsEmitted(t *testing.T) {
	term := New()
	term.WriteString(oscFile("size=5", "hello"))

	events := term.PollEvents()
	if len(events) != 2 {
		t.Fatalf("expected started+completed events, got %d", len(events))
	}
	if events[0].Kind != EventFileTransferStarted || events[1].Kind != EventFileTransferCompleted {
		t.Errorf("unexpected event kinds: %s, %s", events[0].Kind, events[1].Kind)
	}
}
