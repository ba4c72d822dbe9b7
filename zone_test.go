package headlessterm

import "testing"

func TestZone_PromptStart(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("\x1b]133;A\x07")

	zones := term.GetZones()
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(zones))
	}
	if zones[0].Kind != ZoneKindPrompt {
		t.Errorf("expected prompt zone, got %v", zones[0].Kind)
	}
	if !zones[0].Open {
		t.Errorf("expected zone to still be open")
	}
}

func TestZone_FullCycle(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("\x1b]133;A\x07$ ")
	term.WriteString("\x1b]133;B\x07ls\n")
	term.WriteString("\x1b]133;C\x07file1\r\nfile2\r\n")
	term.WriteString("\x1b]133;D;0\x07")

	zones := term.GetZones()
	if len(zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(zones))
	}

	kinds := []ZoneKind{ZoneKindPrompt, ZoneKindCommand, ZoneKindOutput}
	for i, k := range kinds {
		if zones[i].Kind != k {
			t.Errorf("zone %d: expected kind %v, got %v", i, k, zones[i].Kind)
		}
		if zones[i].Open {
			t.Errorf("zone %d: expected closed", i)
		}
	}

	output := zones[2]
	if output.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", output.ExitCode)
	}

	text := term.GetZoneText(output.AbsRowStart)
	if text == nil {
		t.Fatal("expected zone text, got nil")
	}
}

func TestZone_CommandHistoryFromMarks(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("\x1b]133;A\x07$ ")
	term.WriteString("\x1b]133;B\x07echo hi\n")
	term.WriteString("\x1b]133;C\x07hi\r\n")
	term.WriteString("\x1b]133;D;0\x07")

	history := term.GetCommandHistory()
	if len(history) != 1 {
		t.Fatalf("expected 1 command, got %d", len(history))
	}
	if history[0].ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", history[0].ExitCode)
	}
	if !history[0].finished {
		t.Errorf("expected command marked finished")
	}
}

func TestZone_ExplicitCommandExecution(t *testing.T) {
	term := New(WithSize(24, 80))
	term.StartCommandExecution("make build")
	term.WriteString("building...\r\n")
	term.EndCommandExecution(1)

	history := term.GetCommandHistory()
	if len(history) != 1 {
		t.Fatalf("expected 1 command, got %d", len(history))
	}
	if history[0].Command != "make build" {
		t.Errorf("expected command 'make build', got %q", history[0].Command)
	}
	if history[0].ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", history[0].ExitCode)
	}
}

func TestZone_ScrolledOutOnEviction(t *testing.T) {
	term := New(WithSize(5, 80), WithScrollback(newRingScrollback(10)))
	term.WriteString("\x1b]133;A\x07\x1b]133;B\x07\x1b]133;C\x07")
	for i := 0; i < 30; i++ {
		term.WriteString("line\r\n")
	}

	ev := term.PollEvents()
	sawScrolledOut := false
	for _, e := range ev {
		if e.Kind == EventZoneScrolledOut {
			sawScrolledOut = true
		}
	}
	if !sawScrolledOut {
		t.Errorf("expected at least one zone_scrolled_out event")
	}

	for _, z := range term.GetZones() {
		if z.Open {
			continue
		}
		if z.AbsRowEnd < z.AbsRowStart {
			t.Errorf("zone has inverted row range after clamping: %+v", z)
		}
	}
}

func TestZone_SuspendedDuringAltScreen(t *testing.T) {
	term := New(WithSize(24, 80))
	term.suspendZonesLocked()
	term.WriteString("\x1b]133;A\x07")
	if len(term.GetZones()) != 0 {
		t.Errorf("expected no zones while suspended")
	}
	term.resumeZonesLocked()
	term.WriteString("\x1b]133;A\x07")
	if len(term.GetZones()) != 1 {
		t.Errorf("expected 1 zone after resuming")
	}
}

func TestZone_ClearedOnReset(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("\x1b]133;A\x07")
	if len(term.GetZones()) != 1 {
		t.Fatalf("expected 1 zone before reset")
	}
	term.mu.Lock()
	term.resetZonesLocked()
	term.mu.Unlock()
	if len(term.GetZones()) != 0 {
		t.Errorf("expected zones cleared after reset")
	}
}
