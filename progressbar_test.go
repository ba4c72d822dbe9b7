package headlessterm

import "testing"

func TestOSC934SetCreatesNamedBar(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;state=normal;percent=50;label=Downloading\x07")

	bar := term.GetNamedProgressBar("dl-1")
	if bar == nil {
		t.Fatal("expected bar to exist")
	}
	if bar.State != "normal" || bar.Percent != "50" || bar.Label != "Downloading" {
		t.Errorf("unexpected bar: %+v", *bar)
	}
}

func TestOSC934SetDefaultsStateToNormal(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;percent=10\x07")

	bar := term.GetNamedProgressBar("dl-1")
	if bar == nil {
		t.Fatal("expected bar to exist")
	}
	if bar.State != "normal" {
		t.Errorf("expected default state 'normal', got %q", bar.State)
	}
}

func TestOSC934SetUpdatesExistingBar(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;percent=10\x07")
	term.WriteString("\x1b]934;set;dl-1;percent=90\x07")

	if bars := term.NamedProgressBars(); len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bar := term.GetNamedProgressBar("dl-1"); bar.Percent != "90" {
		t.Errorf("expected updated percent 90, got %q", bar.Percent)
	}
}

func TestOSC934Remove(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;percent=10\x07")
	term.WriteString("\x1b]934;remove;dl-1\x07")

	if term.GetNamedProgressBar("dl-1") != nil {
		t.Error("expected bar to be removed")
	}
}

func TestOSC934RemoveAll(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;a;percent=1\x07")
	term.WriteString("\x1b]934;set;b;percent=2\x07")
	term.WriteString("\x1b]934;remove_all\x07")

	if bars := term.NamedProgressBars(); len(bars) != 0 {
		t.Errorf("expected 0 bars after remove_all, got %d", len(bars))
	}
}

func TestOSC934OrderPreserved(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;b;percent=1\x07")
	term.WriteString("\x1b]934;set;a;percent=2\x07")

	bars := term.NamedProgressBars()
	if len(bars) != 2 || bars[0].ID != "b" || bars[1].ID != "a" {
		t.Errorf("expected insertion order [b, a], got %+v", bars)
	}
}

func TestLegacyProgressSetAndClear(t *testing.T) {
	term := New()
	term.WriteString("\x1b]9;4;1;42\x07")

	percent, ok := term.LegacyProgress()
	if !ok || percent != 42 {
		t.Fatalf("expected legacy progress set to 42, got %d ok=%v", percent, ok)
	}

	term.WriteString("\x1b]9;4;0;0\x07")
	_, ok = term.LegacyProgress()
	if ok {
		t.Error("expected legacy progress cleared")
	}
}

func TestOSC934ProgressBarChangedEvent(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;percent=5\x07")

	events := term.PollEvents()
	if len(events) != 1 || events[0].Kind != EventProgressBarChanged {
		t.Fatalf("expected 1 progress_bar_changed event, got %+v", events)
	}
}

func TestProgressBarSetMiddlewareIntercepts(t *testing.T) {
	var seen *NamedProgressBar
	term := New(WithMiddleware(&Middleware{
		ProgressBarSet: func(bar *NamedProgressBar, next func(*NamedProgressBar)) {
			seen = bar
			next(bar)
		},
	}))
	term.WriteString("\x1b]934;set;dl-1;percent=50\x07")

	if seen == nil || seen.ID != "dl-1" || seen.Percent != "50" {
		t.Fatalf("expected middleware to observe the bar, got %+v", seen)
	}
	if bar := term.GetNamedProgressBar("dl-1"); bar == nil || bar.Percent != "50" {
		t.Errorf("expected bar to still be applied after middleware calls next, got %+v", bar)
	}
}

func TestProgressBarSetMiddlewareCanBlock(t *testing.T) {
	term := New(WithMiddleware(&Middleware{
		ProgressBarSet: func(bar *NamedProgressBar, next func(*NamedProgressBar)) {
			// Don't call next - block the update.
		},
	}))
	term.WriteString("\x1b]934;set;dl-1;percent=50\x07")

	if term.GetNamedProgressBar("dl-1") != nil {
		t.Error("expected bar not to be applied when middleware blocks it")
	}
}

func TestProgressBarRemoveMiddlewareIntercepts(t *testing.T) {
	var seenID string
	term := New(WithMiddleware(&Middleware{
		ProgressBarRemove: func(id string, next func(string)) {
			seenID = id
			next(id)
		},
	}))
	term.WriteString("\x1b]934;set;dl-1;percent=50\x07")
	term.WriteString("\x1b]934;remove;dl-1\x07")

	if seenID != "dl-1" {
		t.Errorf("expected middleware to observe id 'dl-1', got %q", seenID)
	}
	if term.GetNamedProgressBar("dl-1") != nil {
		t.Error("expected bar to be removed")
	}
}

func TestResetStateClearsProgressBars(t *testing.T) {
	term := New()
	term.WriteString("\x1b]934;set;dl-1;percent=5\x07")
	term.WriteString("\x1bc") // RIS

	if bars := term.NamedProgressBars(); len(bars) != 0 {
		t.Errorf("expected progress bars cleared on reset, got %d", len(bars))
	}
}
