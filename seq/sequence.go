package seq

import (
	"context"
	stderrors "errors"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kbukum/asyncseq/errors"
)

// Producer yields one element per Pull. Pull returns End() once exhausted.
type Producer[T any] interface {
	Pull(ctx context.Context) (Result[T], error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc[T any] func(ctx context.Context) (Result[T], error)

// Pull calls f(ctx).
func (f ProducerFunc[T]) Pull(ctx context.Context) (Result[T], error) {
	return f(ctx)
}

// closer is implemented by producers that own a resource.
type closer interface {
	Close() error
}

type state int

const (
	stateOpen state = iota
	stateDone
	stateFailed
	stateClosed
)

// Sequence is a single-pass, pull-based sequence owning one Producer.
type Sequence[T any] struct {
	id  string
	src Producer[T]

	mu    sync.Mutex
	state state
	err   error
	moved bool

	pulling   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New wraps p in a Sequence. The Sequence takes ownership of p.
func New[T any](p Producer[T]) *Sequence[T] {
	return &Sequence[T]{id: uuid.NewString(), src: p}
}

// FromFunc wraps a pull function in a Sequence.
func FromFunc[T any](fn func(ctx context.Context) (Result[T], error)) *Sequence[T] {
	return New[T](ProducerFunc[T](fn))
}

// Empty returns a sequence that is already exhausted.
func Empty[T any]() *Sequence[T] {
	return FromFunc(func(context.Context) (Result[T], error) {
		return End[T](), nil
	})
}

// failed returns a sequence whose every pull reports err.
func failed[T any](err error) *Sequence[T] {
	s := New[T](ProducerFunc[T](func(context.Context) (Result[T], error) {
		return Result[T]{}, err
	}))
	s.state = stateFailed
	s.err = err
	return s
}

// ID returns the sequence's unique identifier.
func (s *Sequence[T]) ID() string { return s.id }

// Pull advances the underlying producer by one element.
func (s *Sequence[T]) Pull(ctx context.Context) (Result[T], error) {
	if s.isMoved() {
		return Result[T]{}, errors.Moved(s.id)
	}
	return s.pull(ctx)
}

// Next returns the next value. Returns (zero, false, nil) when exhausted.
func (s *Sequence[T]) Next(ctx context.Context) (T, bool, error) {
	r, err := s.Pull(ctx)
	if err != nil || r.Done {
		var zero T
		return zero, false, err
	}
	return r.Value, true, nil
}

// Close releases the producer. It is idempotent; closing a sequence that an
// operator has taken ownership of is a no-op, the operator closes it instead.
// Pulls after Close report Done.
func (s *Sequence[T]) Close() error {
	if s.isMoved() {
		return nil
	}
	return s.close()
}

// All returns a range-over-func view of the sequence. Leaving the loop early
// closes the sequence. A failure is yielded once as the final pair.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			r, err := s.Pull(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if r.Done {
				return
			}
			if !yield(r.Value, nil) {
				return
			}
		}
	}
}

// pull is Pull without the ownership check; operators use it on parents they own.
func (s *Sequence[T]) pull(ctx context.Context) (Result[T], error) {
	if !s.pulling.CompareAndSwap(false, true) {
		return Result[T]{}, errors.ConcurrentPull(s.id)
	}
	defer s.pulling.Store(false)

	s.mu.Lock()
	st, serr := s.state, s.err
	s.mu.Unlock()
	switch st {
	case stateDone, stateClosed:
		return End[T](), nil
	case stateFailed:
		return Result[T]{}, serr
	}

	r, err := s.src.Pull(ctx)
	if err != nil {
		if cerr := s.close(); cerr != nil {
			err = stderrors.Join(err, cerr)
		}
		s.finish(stateFailed, err)
		return Result[T]{}, err
	}
	if r.Done {
		if cerr := s.close(); cerr != nil {
			s.finish(stateFailed, cerr)
			return Result[T]{}, cerr
		}
		s.finish(stateDone, nil)
		return End[T](), nil
	}
	return r, nil
}

// close releases the producer exactly once.
func (s *Sequence[T]) close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.state == stateOpen {
			s.state = stateClosed
		}
		s.mu.Unlock()
		if c, ok := s.src.(closer); ok {
			s.closeErr = c.Close()
		}
	})
	return s.closeErr
}

func (s *Sequence[T]) finish(st state, err error) {
	s.mu.Lock()
	s.state = st
	s.err = err
	s.mu.Unlock()
}

func (s *Sequence[T]) isMoved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moved
}

// own transfers ownership of s to a downstream operator. It reports false if
// s was already owned by another operator.
func (s *Sequence[T]) own() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.moved {
		return false
	}
	s.moved = true
	return true
}
