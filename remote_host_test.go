package headlessterm

import "testing"

func TestOSC1337RemoteHostUserAtHost(t *testing.T) {
	term := New()
	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")

	user, host := term.RemoteHost()
	if user != "daniel" || host != "example.com" {
		t.Errorf("expected daniel@example.com, got %s@%s", user, host)
	}
	if got := term.GetUserVar("hostname"); got != "example.com" {
		t.Errorf("expected hostname user var set, got %q", got)
	}
	if got := term.GetUserVar("username"); got != "daniel" {
		t.Errorf("expected username user var set, got %q", got)
	}
}

func TestOSC1337RemoteHostWithoutUser(t *testing.T) {
	term := New()
	term.WriteString("\x1b]1337;RemoteHost=example.com\x07")

	user, host := term.RemoteHost()
	if user != "" || host != "example.com" {
		t.Errorf("expected empty user and example.com host, got %s@%s", user, host)
	}
}

func TestOSC1337RemoteHostLocalhostClearsHostnameOnly(t *testing.T) {
	term := New()
	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")
	term.WriteString("\x1b]1337;RemoteHost=daniel@localhost\x07")

	user, host := term.RemoteHost()
	if host != "" {
		t.Errorf("expected localhost to clear hostname, got %q", host)
	}
	if user != "daniel" {
		t.Errorf("expected username preserved across localhost transition, got %q", user)
	}
}

func TestOSC1337RemoteHostEmitsTransitionEvent(t *testing.T) {
	term := New()
	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")

	events := term.PollEvents()
	if len(events) != 1 || events[0].Kind != EventRemoteHostTransition {
		t.Fatalf("expected 1 remote_host_transition event, got %+v", events)
	}
	payload := events[0].Payload.(map[string]string)
	if payload["hostname"] != "example.com" || payload["username"] != "daniel" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload["old_hostname"] != "" || payload["old_username"] != "" {
		t.Errorf("expected empty old values on first transition, got %+v", payload)
	}
}

func TestOSC1337RemoteHostMiddlewareIntercepts(t *testing.T) {
	var seen RemoteHostChange
	term := New(WithMiddleware(&Middleware{
		RemoteHostChanged: func(change RemoteHostChange, next func(RemoteHostChange)) {
			seen = change
			next(change)
		},
	}))
	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")

	if seen.Hostname != "example.com" || seen.Username != "daniel" {
		t.Errorf("expected middleware to observe the change, got %+v", seen)
	}
	if user, host := term.RemoteHost(); user != "daniel" || host != "example.com" {
		t.Errorf("expected change still applied after middleware calls next, got %s@%s", user, host)
	}
}

func TestOSC1337RemoteHostMiddlewareCanBlock(t *testing.T) {
	term := New(WithMiddleware(&Middleware{
		RemoteHostChanged: func(change RemoteHostChange, next func(RemoteHostChange)) {
			// Don't call next - block the transition.
		},
	}))
	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")

	if user, host := term.RemoteHost(); user != "" || host != "" {
		t.Errorf("expected no change applied when middleware blocks it, got %s@%s", user, host)
	}
}

func TestOSC1337RemoteHostNoOpWhenUnchanged(t *testing.T) {
	term := New()
	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")
	term.PollEvents()

	term.WriteString("\x1b]1337;RemoteHost=daniel@example.com\x07")
	if events := term.PollEvents(); len(events) != 0 {
		t.Errorf("expected no event for unchanged remote host, got %d", len(events))
	}
}
