package event

import (
	"slices"
	"sync"
)

// Emitter is an in-process Target. Dispatch delivers synchronously: capture
// listeners first, then the rest, each group in registration order.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]*listener
	nextID    int
}

type listener struct {
	id      int
	handler Handler
	capture bool
	once    bool
	stop    func() bool
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]*listener)}
}

// AddListener implements Target. A listener whose signal has already aborted
// is not added.
func (e *Emitter) AddListener(name string, h Handler, opts ListenerOptions) {
	if opts.Signal != nil && opts.Signal.Aborted() {
		return
	}

	e.mu.Lock()
	l := &listener{id: e.nextID, handler: h, capture: opts.Capture, once: opts.Once}
	e.nextID++
	e.listeners[name] = append(e.listeners[name], l)
	e.mu.Unlock()

	if opts.Signal != nil {
		stop := opts.Signal.OnAbort(func() { e.remove(name, l.id) })
		e.mu.Lock()
		l.stop = stop
		e.mu.Unlock()
	}
}

// Dispatch delivers ev to the listeners registered for ev.Type().
func (e *Emitter) Dispatch(ev Event) {
	name := ev.Type()

	e.mu.Lock()
	registered := e.listeners[name]
	ordered := make([]*listener, 0, len(registered))
	for _, l := range registered {
		if l.capture {
			ordered = append(ordered, l)
		}
	}
	for _, l := range registered {
		if !l.capture {
			ordered = append(ordered, l)
		}
	}
	var stops []func() bool
	for _, l := range ordered {
		if l.once {
			e.removeLocked(name, l.id)
			if l.stop != nil {
				stops = append(stops, l.stop)
			}
		}
	}
	e.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	for _, l := range ordered {
		if l.once || e.has(name, l.id) {
			l.handler(ev)
		}
	}
}

// ListenerCount returns the number of listeners registered for name.
func (e *Emitter) ListenerCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}

func (e *Emitter) has(name string, id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.ContainsFunc(e.listeners[name], func(l *listener) bool { return l.id == id })
}

func (e *Emitter) remove(name string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(name, id)
}

func (e *Emitter) removeLocked(name string, id int) {
	ls := e.listeners[name]
	ls = slices.DeleteFunc(ls, func(l *listener) bool { return l.id == id })
	if len(ls) == 0 {
		delete(e.listeners, name)
		return
	}
	e.listeners[name] = ls
}
