package seq

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kbukum/asyncseq/errors"
)

// adopt takes ownership of parent for a new stage built by build. If parent
// already has an owner, the returned sequence fails with errors.ErrMoved.
func adopt[I, O any](parent *Sequence[I], build func(*Sequence[I]) Producer[O]) *Sequence[O] {
	if !parent.own() {
		return failed[O](errors.Moved(parent.id))
	}
	return New(build(parent))
}

// Stage is a parent sequence as seen by the operator that owns it.
type Stage[T any] interface {
	Pull(ctx context.Context) (Result[T], error)
	Close() error
}

type ownedStage[T any] struct{ s *Sequence[T] }

func (o ownedStage[T]) Pull(ctx context.Context) (Result[T], error) { return o.s.pull(ctx) }
func (o ownedStage[T]) Close() error                                  { return o.s.close() }

// Adopt defines an operator outside this package. It takes ownership of s
// exactly like the built-in operators do; the producer returned by build
// must close its parent when it is closed.
func Adopt[I, O any](s *Sequence[I], build func(parent Stage[I]) Producer[O]) *Sequence[O] {
	return adopt(s, func(p *Sequence[I]) Producer[O] {
		return build(ownedStage[I]{p})
	})
}

// Drop skips the first n elements and passes through the rest.
// The skipped elements are still pulled from the parent.
func (s *Sequence[T]) Drop(n int) *Sequence[T] {
	return adopt(s, func(p *Sequence[T]) Producer[T] {
		return &dropProducer[T]{source: p, remaining: n}
	})
}

// Filter keeps only elements that satisfy the predicate.
func (s *Sequence[T]) Filter(pred func(T) bool) *Sequence[T] {
	return adopt(s, func(p *Sequence[T]) Producer[T] {
		return &filterProducer[T]{source: p, pred: pred}
	})
}

// Take yields at most n elements. The parent is never pulled past the n-th
// element and is closed as soon as n elements were yielded.
func (s *Sequence[T]) Take(n int) *Sequence[T] {
	return adopt(s, func(p *Sequence[T]) Producer[T] {
		return &takeProducer[T]{source: p, remaining: n}
	})
}

// Tap calls fn as a side-effect for each element, then passes it through unchanged.
func (s *Sequence[T]) Tap(fn func(context.Context, T) error) *Sequence[T] {
	return adopt(s, func(p *Sequence[T]) Producer[T] {
		return &tapProducer[T]{source: p, fn: fn}
	})
}

// Throttle drops elements that arrive faster than interval. Only the first
// element in each interval window is yielded.
func (s *Sequence[T]) Throttle(interval time.Duration) *Sequence[T] {
	return adopt(s, func(p *Sequence[T]) Producer[T] {
		return &throttleProducer[T]{source: p, interval: interval, now: time.Now}
	})
}

// Map transforms each element using fn. fn may block; it receives the
// context of the pull that requested the element.
func Map[I, O any](s *Sequence[I], fn func(context.Context, I) (O, error)) *Sequence[O] {
	return adopt(s, func(p *Sequence[I]) Producer[O] {
		return &mapProducer[I, O]{source: p, fn: fn}
	})
}

// FlatMap maps each element to a sub-sequence and yields the sub-sequences
// one after another. Each sub-sequence is drained completely before the next
// parent element is pulled. A nil sub-sequence is treated as empty.
func FlatMap[I, O any](s *Sequence[I], fn func(context.Context, I) (*Sequence[O], error)) *Sequence[O] {
	return adopt(s, func(p *Sequence[I]) Producer[O] {
		return &flatMapProducer[I, O]{source: p, fn: fn}
	})
}

// Concat yields every element of each sequence in argument order.
func Concat[T any](seqs ...*Sequence[T]) *Sequence[T] {
	for i, s := range seqs {
		if !s.own() {
			for _, prev := range seqs[:i] {
				_ = prev.close()
			}
			return failed[T](errors.Moved(s.id))
		}
	}
	return New[T](&concatProducer[T]{seqs: seqs})
}

// Batch collects up to size elements, or as many as arrive before timeout
// elapses (checked between pulls), and yields them as a slice.
//
// size=0 means collect until timeout. timeout=0 means collect until size.
// Both zero defaults to size=1.
func Batch[T any](s *Sequence[T], size int, timeout time.Duration) *Sequence[[]T] {
	if size <= 0 && timeout <= 0 {
		size = 1
	}
	return adopt(s, func(p *Sequence[T]) Producer[[]T] {
		return &batchProducer[T]{source: p, size: size, timeout: timeout}
	})
}

// --- Producer implementations ---

type dropProducer[T any] struct {
	source    *Sequence[T]
	remaining int
}

func (p *dropProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	for p.remaining > 0 {
		r, err := p.source.pull(ctx)
		if err != nil || r.Done {
			return r, err
		}
		p.remaining--
	}
	return p.source.pull(ctx)
}

func (p *dropProducer[T]) Close() error { return p.source.close() }

type filterProducer[T any] struct {
	source *Sequence[T]
	pred   func(T) bool
}

func (p *filterProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	for {
		r, err := p.source.pull(ctx)
		if err != nil || r.Done {
			return r, err
		}
		if p.pred(r.Value) {
			return r, nil
		}
	}
}

func (p *filterProducer[T]) Close() error { return p.source.close() }

type takeProducer[T any] struct {
	source    *Sequence[T]
	remaining int
	closeErr  error
}

func (p *takeProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	if p.remaining <= 0 {
		if p.closeErr != nil {
			return Result[T]{}, p.closeErr
		}
		if err := p.source.close(); err != nil {
			return Result[T]{}, err
		}
		return End[T](), nil
	}
	r, err := p.source.pull(ctx)
	if err != nil || r.Done {
		return r, err
	}
	p.remaining--
	if p.remaining == 0 {
		// Release the parent now; a release failure surfaces on the next pull.
		p.closeErr = p.source.close()
	}
	return r, nil
}

func (p *takeProducer[T]) Close() error { return p.source.close() }

type tapProducer[T any] struct {
	source *Sequence[T]
	fn     func(context.Context, T) error
}

func (p *tapProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	r, err := p.source.pull(ctx)
	if err != nil || r.Done {
		return r, err
	}
	if err := p.fn(ctx, r.Value); err != nil {
		return Result[T]{}, err
	}
	return r, nil
}

func (p *tapProducer[T]) Close() error { return p.source.close() }

type throttleProducer[T any] struct {
	source   *Sequence[T]
	interval time.Duration
	lastEmit time.Time
	now      func() time.Time
}

func (p *throttleProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	for {
		r, err := p.source.pull(ctx)
		if err != nil || r.Done {
			return r, err
		}
		now := p.now()
		if p.lastEmit.IsZero() || now.Sub(p.lastEmit) >= p.interval {
			p.lastEmit = now
			return r, nil
		}
	}
}

func (p *throttleProducer[T]) Close() error { return p.source.close() }

type mapProducer[I, O any] struct {
	source *Sequence[I]
	fn     func(context.Context, I) (O, error)
}

func (p *mapProducer[I, O]) Pull(ctx context.Context) (Result[O], error) {
	r, err := p.source.pull(ctx)
	if err != nil {
		return Result[O]{}, err
	}
	if r.Done {
		return End[O](), nil
	}
	out, err := p.fn(ctx, r.Value)
	if err != nil {
		return Result[O]{}, err
	}
	return Yield(out), nil
}

func (p *mapProducer[I, O]) Close() error { return p.source.close() }

type flatMapProducer[I, O any] struct {
	source *Sequence[I]
	fn     func(context.Context, I) (*Sequence[O], error)

	// mu guards current and closed; Close may run while a Pull is in flight.
	mu      sync.Mutex
	current *Sequence[O]
	closed  bool
}

func (p *flatMapProducer[I, O]) Pull(ctx context.Context) (Result[O], error) {
	for {
		p.mu.Lock()
		current := p.current
		p.mu.Unlock()

		if current != nil {
			r, err := current.pull(ctx)
			if err != nil {
				return Result[O]{}, err
			}
			if !r.Done {
				return r, nil
			}
			p.mu.Lock()
			p.current = nil
			p.mu.Unlock()
		}
		in, err := p.source.pull(ctx)
		if err != nil {
			return Result[O]{}, err
		}
		if in.Done {
			return End[O](), nil
		}
		inner, err := p.fn(ctx, in.Value)
		if err != nil {
			return Result[O]{}, err
		}
		if inner == nil {
			continue
		}
		if !inner.own() {
			return Result[O]{}, errors.Moved(inner.id)
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			if err := inner.close(); err != nil {
				return Result[O]{}, err
			}
			return End[O](), nil
		}
		p.current = inner
		p.mu.Unlock()
	}
}

func (p *flatMapProducer[I, O]) Close() error {
	p.mu.Lock()
	p.closed = true
	current := p.current
	p.current = nil
	p.mu.Unlock()

	var innerErr error
	if current != nil {
		innerErr = current.close()
	}
	return stderrors.Join(innerErr, p.source.close())
}

type concatProducer[T any] struct {
	seqs  []*Sequence[T]
	index int
}

func (p *concatProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	for p.index < len(p.seqs) {
		r, err := p.seqs[p.index].pull(ctx)
		if err != nil {
			return Result[T]{}, err
		}
		if !r.Done {
			return r, nil
		}
		p.index++
	}
	return End[T](), nil
}

func (p *concatProducer[T]) Close() error {
	var errs []error
	for _, s := range p.seqs {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

type batchProducer[T any] struct {
	source  *Sequence[T]
	size    int
	timeout time.Duration
	pending error
}

func (p *batchProducer[T]) Pull(ctx context.Context) (Result[[]T], error) {
	if p.pending != nil {
		return Result[[]T]{}, p.pending
	}

	var batch []T
	var deadline time.Time
	if p.timeout > 0 {
		deadline = time.Now().Add(p.timeout)
	}

	for {
		if p.size > 0 && len(batch) >= p.size {
			return Yield(batch), nil
		}
		r, err := p.source.pull(ctx)
		if err != nil {
			if len(batch) > 0 {
				// Yield the partial batch; the error surfaces on the next pull.
				p.pending = err
				return Yield(batch), nil
			}
			return Result[[]T]{}, err
		}
		if r.Done {
			if len(batch) > 0 {
				return Yield(batch), nil
			}
			return End[[]T](), nil
		}
		batch = append(batch, r.Value)
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return Yield(batch), nil
		}
	}
}

func (p *batchProducer[T]) Close() error { return p.source.close() }
