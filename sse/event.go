package sse

import (
	"fmt"
	"io"
	"strings"
)

// Event type names written by Handler.
const (
	// EventTypeMessage is the default type of encoded elements.
	EventTypeMessage = "message"
	// EventTypeEnd is sent once after the last element.
	EventTypeEnd = "end"
	// EventTypeError is sent when the sequence fails.
	EventTypeError = "error"
)

// Event is a single server-sent event.
type Event struct {
	// Event is the SSE event type (from "event:" line). Empty for data-only events.
	Event string
	// Data is the event payload. Multi-line data is joined with newlines.
	Data string
	// ID is the event ID (from "id:" line).
	ID string
}

// Type returns the event type, defaulting to "message". It lets an Event be
// dispatched through an event.Emitter.
func (e Event) Type() string {
	if e.Event == "" {
		return EventTypeMessage
	}
	return e.Event
}

// Write encodes ev in wire format, one data line per line of ev.Data.
func Write(w io.Writer, ev Event) error {
	var b strings.Builder
	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Event)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
