package headlessterm

import "testing"

func TestExtendedOSCSplitAcrossWrites(t *testing.T) {
	term := New()

	term.WriteString("\x1b]934;se")
	term.WriteString("t;dl-1;percent=50\x07")

	bar := term.GetNamedProgressBar("dl-1")
	if bar == nil {
		t.Fatal("expected bar assembled from a sequence split across Write calls")
	}
	if bar.Percent != "50" {
		t.Errorf("expected percent 50, got %q", bar.Percent)
	}
}

func TestExtendedOSCSTTerminator(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;percent=20\x1b\\")

	if bar := term.GetNamedProgressBar("dl-1"); bar == nil || bar.Percent != "20" {
		t.Errorf("expected ST-terminated OSC to be recognized, got %+v", bar)
	}
}

func TestExtendedOSCDoesNotInterfereWithNativeOSC(t *testing.T) {
	term := New()
	term.WriteString("\x1b]0;My Title\x07")

	if got := term.Title(); got != "My Title" {
		t.Errorf("expected native OSC 0 title handling unaffected, got %q", got)
	}
}

func TestExtendedOSCOversizedIncompleteSequenceIsDropped(t *testing.T) {
	term := New()
	big := make([]byte, 70000)
	for i := range big {
		big[i] = 'x'
	}
	term.WriteString("\x1b]934;set;")
	term.WriteString(string(big)) // never terminated

	if term.MalformedSequenceCount() == 0 {
		t.Error("expected an oversized never-terminated OSC to be counted as malformed")
	}
}

func TestMultipleExtendedOSCInOneWrite(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;a;percent=1\x07\x1b]934;set;b;percent=2\x07")

	bars := term.NamedProgressBars()
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars from one Write call, got %d", len(bars))
	}
}
