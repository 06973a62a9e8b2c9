package seq

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/kbukum/asyncseq/errors"
)

// Destination receives the elements of a Sink. Enqueue is called once per
// pulled element and Close once after the last one.
type Destination[T any] interface {
	Enqueue(v T) error
	Close() error
}

// Sink exposes a Sequence to a consumer that asks for data at its own pace.
// Every OnPull performs exactly one pull on the sequence.
type Sink[T any] struct {
	src *Sequence[T]

	mu       sync.Mutex
	finished bool
}

// NewSink takes ownership of s. If s already has an owner, every OnPull
// fails with errors.ErrMoved.
func NewSink[T any](s *Sequence[T]) *Sink[T] {
	if !s.own() {
		return &Sink[T]{src: failed[T](errors.Moved(s.id))}
	}
	return &Sink[T]{src: s}
}

// OnPull pulls one element and forwards it to dst. On exhaustion dst is
// closed and more is false. A pull failure is returned without closing dst.
func (k *Sink[T]) OnPull(ctx context.Context, dst Destination[T]) (more bool, err error) {
	if k.isFinished() {
		return false, nil
	}
	r, err := k.src.pull(ctx)
	if err != nil {
		k.finish()
		return false, err
	}
	if r.Done {
		k.finish()
		return false, dst.Close()
	}
	if err := dst.Enqueue(r.Value); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel stops the sink and releases the sequence.
func (k *Sink[T]) Cancel() error {
	k.finish()
	return k.src.close()
}

// ToChan drives the sink from a goroutine into an unbuffered channel, so the
// receiver decides when the next pull happens. The value channel is closed
// when the sequence ends or fails; a failure is sent on the error channel
// first. Cancelling ctx stops the goroutine and releases the sequence.
func (k *Sink[T]) ToChan(ctx context.Context) (<-chan T, <-chan error) {
	out := make(chan T)
	errc := make(chan error, 1)
	dst := &chanDestination[T]{ctx: ctx, out: out}

	go func() {
		defer close(out)
		defer close(errc)
		for {
			more, err := k.OnPull(ctx, dst)
			if err != nil {
				if cerr := k.Cancel(); cerr != nil && !stderrors.Is(err, cerr) {
					err = stderrors.Join(err, cerr)
				}
				errc <- err
				return
			}
			if !more {
				return
			}
		}
	}()
	return out, errc
}

func (k *Sink[T]) isFinished() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.finished
}

func (k *Sink[T]) finish() {
	k.mu.Lock()
	k.finished = true
	k.mu.Unlock()
}

type chanDestination[T any] struct {
	ctx context.Context
	out chan<- T
}

func (d *chanDestination[T]) Enqueue(v T) error {
	select {
	case d.out <- v:
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *chanDestination[T]) Close() error { return nil }
