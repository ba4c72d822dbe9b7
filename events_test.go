package headlessterm

import "testing"

func TestPollEventsDrainsQueue(t *testing.T) {
	term := New()
	term.SetUserVar("A", "1")
	term.SetUserVar("B", "2")

	events := term.PollEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if more := term.PollEvents(); len(more) != 0 {
		t.Errorf("expected queue empty after drain, got %d", len(more))
	}
}

func TestSetEventSubscriptionFilters(t *testing.T) {
	term := New()
	term.SetEventSubscription(EventUserVarChanged)

	term.SetUserVar("A", "1")
	term.WriteString("\x07") // bell, should not be queued

	events := term.PollEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 filtered event, got %d", len(events))
	}
	if events[0].Kind != EventUserVarChanged {
		t.Errorf("expected user_var_changed, got %s", events[0].Kind)
	}
}

func TestSetEventSubscriptionClearedByNoArgs(t *testing.T) {
	term := New()
	term.SetEventSubscription(EventUserVarChanged)
	term.SetEventSubscription()

	term.SetUserVar("A", "1")
	term.WriteString("\x07")

	events := term.PollEvents()
	if len(events) != 2 {
		t.Errorf("expected both events after clearing filter, got %d", len(events))
	}
}

func TestAddObserverReceivesEvents(t *testing.T) {
	term := New()

	var got []Event
	term.AddObserver(func(ev Event) {
		got = append(got, ev)
	}, EventUserVarChanged)

	term.SetUserVar("A", "1")

	if len(got) != 1 {
		t.Fatalf("expected 1 observed event, got %d", len(got))
	}
	if got[0].Kind != EventUserVarChanged {
		t.Errorf("expected user_var_changed, got %s", got[0].Kind)
	}
}

func TestRemoveObserverStopsDelivery(t *testing.T) {
	term := New()

	count := 0
	id := term.AddObserver(func(ev Event) { count++ })
	term.SetUserVar("A", "1")
	term.RemoveObserver(id)
	term.SetUserVar("A", "2")

	if count != 1 {
		t.Errorf("expected 1 delivery before removal, got %d", count)
	}
}

func TestObserverCount(t *testing.T) {
	term := New()
	if term.ObserverCount() != 0 {
		t.Fatalf("expected 0 observers initially")
	}
	id1 := term.AddObserver(func(Event) {})
	term.AddObserver(func(Event) {})
	if term.ObserverCount() != 2 {
		t.Errorf("expected 2 observers, got %d", term.ObserverCount())
	}
	term.RemoveObserver(id1)
	if term.ObserverCount() != 1 {
		t.Errorf("expected 1 observer after removal, got %d", term.ObserverCount())
	}
}

func TestMaxQueuedEventsTruncatesOldest(t *testing.T) {
	term := New()
	term.maxQueuedEvents = 3

	for i := 0; i < 5; i++ {
		term.SetUserVar("V", string(rune('a'+i)))
	}

	events := term.PollEvents()
	if len(events) != 3 {
		t.Fatalf("expected queue capped at 3, got %d", len(events))
	}
	last := events[len(events)-1].Payload.(map[string]string)
	if last["value"] != "e" {
		t.Errorf("expected newest event retained, got %v", last)
	}
}
