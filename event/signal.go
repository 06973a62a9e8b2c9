package event

import (
	"context"
	"errors"
	"sync"
)

// ErrAborted is the default abort reason.
var ErrAborted = errors.New("event: aborted")

// Signal reports cancellation.
type Signal interface {
	Aborted() bool
	// OnAbort registers fn to run once when the signal aborts. If the signal
	// has already aborted fn runs immediately. stop unregisters fn and
	// reports whether it was still registered.
	OnAbort(fn func()) (stop func() bool)
}

// AbortSignal is the Signal owned by an AbortController.
type AbortSignal struct {
	mu       sync.Mutex
	aborted  bool
	reason   error
	handlers []abortHandler
	nextID   int
}

type abortHandler struct {
	id int
	fn func()
}

// Aborted reports whether the signal has fired.
func (s *AbortSignal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Reason returns the abort reason, or nil before abort.
func (s *AbortSignal) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// OnAbort implements Signal.
func (s *AbortSignal) OnAbort(fn func()) func() bool {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		fn()
		return func() bool { return false }
	}
	id := s.nextID
	s.nextID++
	s.handlers = append(s.handlers, abortHandler{id: id, fn: fn})
	s.mu.Unlock()

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				return true
			}
		}
		return false
	}
}

func (s *AbortSignal) abort(reason error) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return
	}
	if reason == nil {
		reason = ErrAborted
	}
	s.aborted = true
	s.reason = reason
	handlers := s.handlers
	s.handlers = nil
	s.mu.Unlock()

	for _, h := range handlers {
		h.fn()
	}
}

// AbortController fires its signal on Abort.
type AbortController struct {
	signal *AbortSignal
}

// NewAbortController creates a controller with a fresh signal.
func NewAbortController() *AbortController {
	return &AbortController{signal: &AbortSignal{}}
}

// Signal returns the controller's signal.
func (c *AbortController) Signal() *AbortSignal { return c.signal }

// Abort fires the signal. Only the first call has an effect.
func (c *AbortController) Abort(reason error) { c.signal.abort(reason) }

// ContextSignal adapts a context: the signal aborts when ctx is done.
func ContextSignal(ctx context.Context) Signal {
	return contextSignal{ctx: ctx}
}

type contextSignal struct {
	ctx context.Context
}

func (s contextSignal) Aborted() bool { return s.ctx.Err() != nil }

func (s contextSignal) OnAbort(fn func()) func() bool {
	return context.AfterFunc(s.ctx, fn)
}
