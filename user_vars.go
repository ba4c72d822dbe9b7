package headlessterm

import (
	"encoding/base64"
	"strings"
)

// SetUserVar sets a shell-integration user variable (OSC 1337
// SetUserVar=) and emits user_var_changed. Goes through
// Middleware.SetUserVar, matching every other mutating Terminal method's
// intercept pattern.
func (t *Terminal) SetUserVar(name, value string) {
	if t.middleware != nil && t.middleware.SetUserVar != nil {
		t.middleware.SetUserVar(name, value, t.setUserVarInternal)
		return
	}
	t.setUserVarInternal(name, value)
}

func (t *Terminal) setUserVarInternal(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, existed := t.userVars[name]
	if existed && old == value {
		return
	}
	t.userVars[name] = value
	t.emitLocked(EventUserVarChanged, map[string]string{"name": name, "value": value})
}

// GetUserVar returns the value of a user variable, or "" if unset.
func (t *Terminal) GetUserVar(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userVars[name]
}

// GetUserVars returns a defensive copy of every set user variable.
func (t *Terminal) GetUserVars() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.userVars))
	for k, v := range t.userVars {
		out[k] = v
	}
	return out
}

// ClearUserVars removes every set user variable.
func (t *Terminal) ClearUserVars() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userVars = make(map[string]string)
}

// handleOSC1337SetUserVar parses "SetUserVar=NAME=BASE64" (the part after
// "1337;"). Invalid base64 is silently ignored per the wire-format
// contract - the variable is left unset (or at its prior value), not set
// to a decode error marker.
func (t *Terminal) handleOSC1337SetUserVar(payload string) {
	rest, ok := strings.CutPrefix(payload, "SetUserVar=")
	if !ok {
		return
	}
	name, encoded, ok := strings.Cut(rest, "=")
	if !ok || name == "" {
		t.mu.Lock()
		t.noteMalformedLocked()
		t.mu.Unlock()
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.mu.Lock()
		t.noteMalformedLocked()
		t.mu.Unlock()
		return
	}
	t.SetUserVar(name, string(decoded))
}

// RemoteHostChange describes one OSC 1337 RemoteHost= transition, passed
// through Middleware.RemoteHostChanged.
type RemoteHostChange struct {
	OldHostname string
	OldUsername string
	Hostname    string
	Username    string
}

// handleOSC1337RemoteHost parses "RemoteHost=user@host" or
// "RemoteHost=host" (the part after "1337;"). "localhost" clears the
// hostname but leaves username untouched. No-op if nothing changed.
func (t *Terminal) handleOSC1337RemoteHost(payload string) {
	rest, ok := strings.CutPrefix(payload, "RemoteHost=")
	if !ok {
		return
	}

	var user, host string
	if u, h, found := strings.Cut(rest, "@"); found {
		user, host = u, h
	} else {
		host = rest
	}
	if host == "localhost" {
		host = ""
	}

	t.mu.RLock()
	oldHost, oldUser := t.remoteHost, t.remoteUser
	t.mu.RUnlock()
	if user == "" {
		user = oldUser
	}
	if oldHost == host && oldUser == user {
		return
	}

	change := RemoteHostChange{
		OldHostname: oldHost,
		OldUsername: oldUser,
		Hostname:    host,
		Username:    user,
	}
	if t.middleware != nil && t.middleware.RemoteHostChanged != nil {
		t.middleware.RemoteHostChanged(change, t.applyRemoteHostChangeInternal)
		return
	}
	t.applyRemoteHostChangeInternal(change)
}

func (t *Terminal) applyRemoteHostChangeInternal(change RemoteHostChange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.remoteHost = change.Hostname
	t.remoteUser = change.Username
	t.userVars["hostname"] = t.remoteHost
	t.userVars["username"] = t.remoteUser
	t.emitLocked(EventRemoteHostTransition, map[string]string{
		"old_hostname": change.OldHostname,
		"old_username": change.OldUsername,
		"hostname":     t.remoteHost,
		"username":     t.remoteUser,
	})
}

// RemoteHost returns the current remote username and hostname as reported
// via OSC 1337 RemoteHost=. Both are "" if never set.
func (t *Terminal) RemoteHost() (username, hostname string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.remoteUser, t.remoteHost
}
