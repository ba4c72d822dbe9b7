package headlessterm

import "strings"

// NotificationPayload carries one OSC 99 desktop-notification frame.
// Kitty's OSC 99 protocol splits a notification across possibly several
// escape sequences (title/body chunks, then a "done" terminator) - the
// raw-OSC scanner (see osc_ext.go) builds one of these per OSC 99
// sequence; chunks of one notification are not joined, so hosts see each
// chunk (its ID, Done flag and PayloadType) as its own payload.
type NotificationPayload struct {
	ID          string
	Done        bool
	PayloadType string // "title", "body", "?" (capability query), ...
	Encoding    string
	Actions     []string
	TrackClose  bool
	Timeout     int
	AppName     string
	Type        string
	IconName    string
	IconCacheID string
	Sound       string
	Urgency     int
	Occasion    string
	Data        []byte
}

// NotificationProvider delivers a desktop notification to the host
// environment. Notify's return value is written back to the terminal
// verbatim when PayloadType is "?" (a capability query expects an OSC 99
// reply describing what the host supports); for every other PayloadType
// the return value is ignored.
type NotificationProvider interface {
	Notify(payload *NotificationPayload) string
}

// NoopNotification discards every notification and answers capability
// queries with nothing, matching every other Noop* provider in this
// package's default-no-host-wired behavior.
type NoopNotification struct{}

func (NoopNotification) Notify(payload *NotificationPayload) string { return "" }

var _ NotificationProvider = NoopNotification{}

// WithNotification sets the handler for desktop notifications (OSC 99).
// Defaults to a no-op if not set.
func WithNotification(p NotificationProvider) Option {
	return func(t *Terminal) {
		t.notificationProvider = p
	}
}

// NotificationProvider returns the currently configured notification
// provider.
func (t *Terminal) NotificationProvider() NotificationProvider {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.notificationProvider
}

// SetNotificationProvider changes the notification provider at runtime.
// A nil provider silently disables notifications (DesktopNotification
// becomes a no-op) rather than panicking.
func (t *Terminal) SetNotificationProvider(p NotificationProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notificationProvider = p
}

// DesktopNotification delivers payload to the notification provider (OSC
// 99). Query payloads (PayloadType == "?") have the provider's response
// written back via the response provider.
func (t *Terminal) DesktopNotification(payload *NotificationPayload) {
	if t.middleware != nil && t.middleware.DesktopNotification != nil {
		t.middleware.DesktopNotification(payload, t.desktopNotificationInternal)
		return
	}
	t.desktopNotificationInternal(payload)
}

func (t *Terminal) desktopNotificationInternal(payload *NotificationPayload) {
	t.mu.RLock()
	provider := t.notificationProvider
	t.mu.RUnlock()

	if provider == nil {
		return
	}

	response := provider.Notify(payload)
	if payload.PayloadType == "?" && response != "" {
		t.writeResponseString(response)
	}
}

// handleOSC99 parses an OSC 99 payload (the part after "99;") into a
// NotificationPayload and dispatches it. Kitty's format is
// "key=value;key=value:payload_text" where the text after the first ":"
// is the notification's data (title or body, depending on
// p=title/p=body).
func (t *Terminal) handleOSC99(payload string) {
	params, text, hasText := strings.Cut(payload, ":")
	if !hasText {
		params = payload
	}

	np := &NotificationPayload{Urgency: -1}
	for _, kv := range strings.Split(params, ";") {
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "i":
			np.ID = v
		case "d":
			np.Done = v == "1"
		case "p":
			np.PayloadType = v
		case "e":
			np.Encoding = v
		case "a":
			np.Actions = append(np.Actions, v)
		case "c":
			np.TrackClose = v == "1"
		case "w":
			np.Timeout = atoiOrZero(v)
		case "f":
			np.AppName = v
		case "t":
			np.Type = v
		case "n":
			np.IconName = v
		case "g":
			np.IconCacheID = v
		case "s":
			np.Sound = v
		case "u":
			np.Urgency = atoiOrZero(v)
		case "o":
			np.Occasion = v
		}
	}
	np.Data = []byte(text)

	t.DesktopNotification(np)
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
