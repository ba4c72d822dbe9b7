package headlessterm

import "errors"

// Sentinel errors returned by Terminal methods. Malformed or unsupported
// escape sequences from the wire are never surfaced as errors - per the
// parser's tolerance model they're silently dropped and counted (see
// ParserOverflowCount / MalformedSequenceCount below). These sentinels are
// reserved for API misuse by the host program.
var (
	// ErrInvalidArgument is returned when a caller-supplied argument is
	// not accepted (e.g. a trigger pattern that does not compile, an
	// unknown snapshot scope, or an unsupported graphics export version).
	ErrInvalidArgument = errors.New("headlessterm: invalid argument")

	// ErrBusy is returned by Write when it's reentered - directly or via
	// a synchronous Observer calling back into the same Terminal - while
	// a previous Write on that Terminal is still in progress.
	ErrBusy = errors.New("headlessterm: terminal busy")

	// ErrOverflow names the overflow error class. No Terminal method
	// returns it: a full event queue drops its oldest entries, and an
	// oversized file transfer payload is dropped and counted by
	// MalformedSequenceCount.
	ErrOverflow = errors.New("headlessterm: overflow")
)

// ParserOverflowCount returns the parser-overflow counter. No OSC/DCS
// payload size cap is enforced and nothing increments the counter, so it
// stays 0; the raw-OSC scanner's 64KiB bound on an unterminated sequence
// counts toward MalformedSequenceCount instead, and no parser_overflow
// event is emitted.
func (t *Terminal) ParserOverflowCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.parserOverflowCount
}

// MalformedSequenceCount returns the number of recognized-but-malformed
// escape sequences dropped since construction (e.g. an OSC with an
// unparseable payload).
func (t *Terminal) MalformedSequenceCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.malformedSequenceCount
}

// noteMalformedLocked increments the malformed-sequence counter. Must be
// called with t.mu held.
func (t *Terminal) noteMalformedLocked() {
	t.malformedSequenceCount++
}
