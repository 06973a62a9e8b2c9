package event

import (
	"context"
	"sync"

	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
)

// Option configures From.
type Option func(*options)

type options struct {
	abortEvent string
	signal     Signal
	buffer     int
	log        *logger.Logger
}

// WithAbortEvent ends the sequence when the target dispatches an event with
// this name.
func WithAbortEvent(name string) Option {
	return func(o *options) { o.abortEvent = name }
}

// WithAbortSignal ends the sequence when sig aborts.
func WithAbortSignal(sig Signal) Option {
	return func(o *options) { o.signal = sig }
}

// WithBuffer bounds the number of buffered events. When full the oldest
// event is dropped. Zero means unbounded.
func WithBuffer(max int) Option {
	return func(o *options) { o.buffer = max }
}

// WithLogger sets the logger for subscription lifecycle events.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// From subscribes to name on target immediately and returns a sequence of
// the dispatched events. Pull returns Done once the subscription was aborted,
// even if events are still buffered. Pull returns ctx.Err() if ctx is
// cancelled while waiting.
func From(target Target, name string, opts ...Option) *seq.Sequence[Event] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("event")
	}

	src := &source{
		name:  name,
		ctrl:  NewAbortController(),
		wake:  make(chan struct{}, 1),
		limit: o.buffer,
	}
	s := seq.New[Event](src)
	src.log = o.log.WithSequence(s.ID())

	signal := src.ctrl.Signal()
	signal.OnAbort(func() {
		src.mu.Lock()
		src.queue = nil
		src.mu.Unlock()
		src.notify()
		src.log.Debug("event subscription aborted", logger.Fields(logger.FieldEvent, name))
	})

	target.AddListener(name, src.push, ListenerOptions{Signal: signal, Capture: true})
	if o.abortEvent != "" {
		target.AddListener(o.abortEvent, func(Event) { src.ctrl.Abort(nil) }, ListenerOptions{Signal: signal, Capture: true, Once: true})
	}
	if o.signal != nil {
		stop := o.signal.OnAbort(func() { src.ctrl.Abort(nil) })
		signal.OnAbort(func() { stop() })
	}
	return s
}

type source struct {
	name  string
	ctrl  *AbortController
	wake  chan struct{}
	limit int
	log   *logger.Logger

	mu      sync.Mutex
	queue   []Event
	dropped int
}

func (s *source) push(ev Event) {
	s.mu.Lock()
	if s.ctrl.Signal().Aborted() {
		s.mu.Unlock()
		return
	}
	if s.limit > 0 && len(s.queue) >= s.limit {
		s.queue = s.queue[1:]
		s.dropped++
		s.log.Debug("event buffer full, dropped oldest", logger.Fields(logger.FieldEvent, s.name, "dropped", s.dropped))
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.notify()
}

func (s *source) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *source) Pull(ctx context.Context) (seq.Result[Event], error) {
	for {
		if s.ctrl.Signal().Aborted() {
			return seq.End[Event](), nil
		}
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return seq.Yield(ev), nil
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-ctx.Done():
			return seq.Result[Event]{}, ctx.Err()
		}
	}
}

// Close aborts the subscription.
func (s *source) Close() error {
	s.ctrl.Abort(nil)
	return nil
}
