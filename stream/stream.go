package stream

import (
	"context"
	"sync"

	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
)

// Reader is an acquired handle on a chunked source.
type Reader[T any] interface {
	// Read returns the next chunk. done reports exhaustion; the chunk is
	// ignored when done is true.
	Read(ctx context.Context) (chunk T, done bool, err error)
	// Release frees the underlying resource.
	Release() error
}

// Transport acquires readers.
type Transport[T any] interface {
	Acquire(ctx context.Context) (Reader[T], error)
}

// Option configures From.
type Option func(*options)

type options struct {
	log  *logger.Logger
	name string
}

// WithLogger sets the logger used for acquire and release events.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithName labels the source in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// From creates a sequence over the chunks of t. Nothing is acquired until
// the first pull.
func From[T any](t Transport[T], opts ...Option) *seq.Sequence[T] {
	o := options{name: "stream"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("stream")
	}
	return seq.New[T](&producer[T]{transport: t, log: o.log, name: o.name})
}

type producer[T any] struct {
	transport Transport[T]
	log       *logger.Logger
	name      string
	chunks    int

	// mu guards reader and released; Close may run while Pull is acquiring.
	mu       sync.Mutex
	reader   Reader[T]
	released bool
}

func (p *producer[T]) Pull(ctx context.Context) (seq.Result[T], error) {
	p.mu.Lock()
	r, released := p.reader, p.released
	p.mu.Unlock()
	if released {
		return seq.End[T](), nil
	}

	if r == nil {
		acquired, err := p.transport.Acquire(ctx)
		if err != nil {
			return seq.Result[T]{}, err
		}
		p.mu.Lock()
		if p.released {
			p.mu.Unlock()
			// Closed during Acquire: nobody else will release this reader.
			if err := p.release(acquired); err != nil {
				return seq.Result[T]{}, err
			}
			return seq.End[T](), nil
		}
		p.reader = acquired
		p.mu.Unlock()
		r = acquired
		p.log.Debug("reader acquired", logger.Fields(logger.FieldSource, p.name))
	}

	chunk, done, err := r.Read(ctx)
	if err != nil {
		return seq.Result[T]{}, err
	}
	if done {
		return seq.End[T](), nil
	}
	p.chunks++
	return seq.Yield(chunk), nil
}

// Close releases the reader if one was acquired. A transport that was never
// acquired is closed instead when it implements Close() error. A reader
// acquired by a Pull still in flight is released when that Pull returns.
func (p *producer[T]) Close() error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return nil
	}
	p.released = true
	r := p.reader
	p.mu.Unlock()

	if r == nil {
		if c, ok := p.transport.(interface{ Close() error }); ok {
			return c.Close()
		}
		return nil
	}
	return p.release(r)
}

func (p *producer[T]) release(r Reader[T]) error {
	err := r.Release()
	fields := logger.Fields(logger.FieldSource, p.name, logger.FieldElements, p.chunks)
	if err != nil {
		p.log.WithError(err).Debug("reader release failed", fields)
		return err
	}
	p.log.Debug("reader released", fields)
	return nil
}
