package event

import "time"

// Event is anything with a type name.
type Event interface {
	Type() string
}

// Message is the general purpose Event.
type Message struct {
	Name string
	Data any
	ID   string
	Time time.Time
}

// Type returns the message name.
func (m Message) Type() string { return m.Name }

// Handler receives dispatched events.
type Handler func(Event)

// ListenerOptions control a single listener registration.
type ListenerOptions struct {
	// Signal removes the listener when it aborts.
	Signal Signal
	// Capture listeners run before the other listeners for the same event.
	Capture bool
	// Once removes the listener after its first invocation.
	Once bool
}

// Target is a source of named events.
type Target interface {
	AddListener(name string, h Handler, opts ListenerOptions)
}
