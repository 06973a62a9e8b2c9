package seq

import (
	"context"
	"fmt"
	"iter"

	"github.com/kbukum/asyncseq/errors"
)

// SyncIterator yields values without blocking on I/O.
type SyncIterator[T any] interface {
	// Next returns the next value, or false when exhausted.
	Next() (T, bool)
}

// SyncIterable produces a fresh SyncIterator.
type SyncIterable[T any] interface {
	Iterator() SyncIterator[T]
}

// AsyncIterator provides pull-based access to values that may need to wait.
type AsyncIterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
}

// AsyncIterable produces a fresh AsyncIterator.
type AsyncIterable[T any] interface {
	AsyncIterator() AsyncIterator[T]
}

// Kind identifies which iteration capability a source exposes.
type Kind int

const (
	KindUnsupported Kind = iota
	KindSlice
	KindSeq
	KindSyncIterable
	KindSyncIterator
	KindSeq2
	KindChan
	KindAsyncIterable
	KindAsyncIterator
	KindSequence
	KindProducer
)

var kindNames = map[Kind]string{
	KindUnsupported:   "unsupported",
	KindSlice:         "slice",
	KindSeq:           "iter.Seq",
	KindSyncIterable:  "sync-iterable",
	KindSyncIterator:  "sync-iterator",
	KindSeq2:          "iter.Seq2",
	KindChan:          "chan",
	KindAsyncIterable: "async-iterable",
	KindAsyncIterator: "async-iterator",
	KindSequence:      "sequence",
	KindProducer:      "producer",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sync reports whether the kind is a synchronous iteration capability.
func (k Kind) Sync() bool {
	return k >= KindSlice && k <= KindSyncIterator
}

// Probe reports the capability From would select for src. An existing
// *Sequence is recognized first; after that synchronous capabilities win over
// asynchronous ones, which win over raw producers.
func Probe[T any](src any) Kind {
	switch src.(type) {
	case *Sequence[T]:
		return KindSequence
	case []T:
		return KindSlice
	case iter.Seq[T], func(func(T) bool):
		return KindSeq
	case SyncIterable[T]:
		return KindSyncIterable
	case SyncIterator[T]:
		return KindSyncIterator
	case iter.Seq2[T, error], func(func(T, error) bool):
		return KindSeq2
	case chan T, <-chan T:
		return KindChan
	case AsyncIterable[T]:
		return KindAsyncIterable
	case AsyncIterator[T]:
		return KindAsyncIterator
	case Producer[T]:
		return KindProducer
	default:
		return KindUnsupported
	}
}

// From normalizes any supported source into a Sequence. A *Sequence is
// returned as is; anything else exposing no known capability yields
// errors.ErrUnsupportedSource.
func From[T any](src any) (*Sequence[T], error) {
	switch Probe[T](src) {
	case KindSlice:
		return FromSlice(src.([]T)), nil
	case KindSeq:
		if fn, ok := src.(func(func(T) bool)); ok {
			return FromSeq(iter.Seq[T](fn)), nil
		}
		return FromSeq(src.(iter.Seq[T])), nil
	case KindSyncIterable:
		return FromSyncIterator(src.(SyncIterable[T]).Iterator()), nil
	case KindSyncIterator:
		return FromSyncIterator(src.(SyncIterator[T])), nil
	case KindSeq2:
		if fn, ok := src.(func(func(T, error) bool)); ok {
			return FromSeq2(iter.Seq2[T, error](fn)), nil
		}
		return FromSeq2(src.(iter.Seq2[T, error])), nil
	case KindChan:
		if ch, ok := src.(chan T); ok {
			return FromChan((<-chan T)(ch)), nil
		}
		return FromChan(src.(<-chan T)), nil
	case KindAsyncIterable:
		return FromIterator(src.(AsyncIterable[T]).AsyncIterator()), nil
	case KindAsyncIterator:
		return FromIterator(src.(AsyncIterator[T])), nil
	case KindSequence:
		return src.(*Sequence[T]), nil
	case KindProducer:
		return New(src.(Producer[T])), nil
	default:
		return nil, errors.UnsupportedSource(fmt.Sprintf("%T", src))
	}
}

// FromSlice creates a sequence over the items of a slice.
func FromSlice[T any](items []T) *Sequence[T] {
	return New[T](&sliceProducer[T]{items: items})
}

// Of creates a sequence over its arguments.
func Of[T any](items ...T) *Sequence[T] {
	return FromSlice(items)
}

// FromSeq creates a sequence from a range-over-func iterator. The iterator
// is driven with iter.Pull and stopped when the sequence ends or is closed.
func FromSeq[T any](s iter.Seq[T]) *Sequence[T] {
	return New[T](&seqProducer[T]{seq: s})
}

// FromSeq2 creates a sequence from an iterator yielding (value, error)
// pairs. A non-nil error fails the sequence.
func FromSeq2[T any](s iter.Seq2[T, error]) *Sequence[T] {
	return New[T](&seq2Producer[T]{seq: s})
}

// FromChan creates a sequence that receives from ch until it is closed.
func FromChan[T any](ch <-chan T) *Sequence[T] {
	return FromFunc(func(ctx context.Context) (Result[T], error) {
		select {
		case v, ok := <-ch:
			if !ok {
				return End[T](), nil
			}
			return Yield(v), nil
		case <-ctx.Done():
			return Result[T]{}, ctx.Err()
		}
	})
}

// FromSyncIterator creates a sequence from a SyncIterator. If it implements
// Close() error it is closed with the sequence.
func FromSyncIterator[T any](it SyncIterator[T]) *Sequence[T] {
	return New[T](&syncIterProducer[T]{it: it})
}

// FromIterator creates a sequence from an AsyncIterator. If it implements
// Close() error it is closed with the sequence.
func FromIterator[T any](it AsyncIterator[T]) *Sequence[T] {
	return New[T](&asyncIterProducer[T]{it: it})
}

// --- Producers ---

type sliceProducer[T any] struct {
	items []T
	index int
}

func (p *sliceProducer[T]) Pull(_ context.Context) (Result[T], error) {
	if p.index >= len(p.items) {
		return End[T](), nil
	}
	val := p.items[p.index]
	p.index++
	return Yield(val), nil
}

type seqProducer[T any] struct {
	seq  iter.Seq[T]
	next func() (T, bool)
	stop func()
}

func (p *seqProducer[T]) Pull(_ context.Context) (Result[T], error) {
	if p.next == nil {
		p.next, p.stop = iter.Pull(p.seq)
	}
	v, ok := p.next()
	if !ok {
		return End[T](), nil
	}
	return Yield(v), nil
}

func (p *seqProducer[T]) Close() error {
	if p.stop != nil {
		p.stop()
	}
	return nil
}

type seq2Producer[T any] struct {
	seq  iter.Seq2[T, error]
	next func() (T, error, bool)
	stop func()
}

func (p *seq2Producer[T]) Pull(_ context.Context) (Result[T], error) {
	if p.next == nil {
		p.next, p.stop = iter.Pull2(p.seq)
	}
	v, err, ok := p.next()
	if !ok {
		return End[T](), nil
	}
	if err != nil {
		return Result[T]{}, err
	}
	return Yield(v), nil
}

func (p *seq2Producer[T]) Close() error {
	if p.stop != nil {
		p.stop()
	}
	return nil
}

type syncIterProducer[T any] struct {
	it SyncIterator[T]
}

func (p *syncIterProducer[T]) Pull(_ context.Context) (Result[T], error) {
	v, ok := p.it.Next()
	if !ok {
		return End[T](), nil
	}
	return Yield(v), nil
}

func (p *syncIterProducer[T]) Close() error {
	if c, ok := p.it.(closer); ok {
		return c.Close()
	}
	return nil
}

type asyncIterProducer[T any] struct {
	it AsyncIterator[T]
}

func (p *asyncIterProducer[T]) Pull(ctx context.Context) (Result[T], error) {
	v, ok, err := p.it.Next(ctx)
	if err != nil {
		return Result[T]{}, err
	}
	if !ok {
		return End[T](), nil
	}
	return Yield(v), nil
}

func (p *asyncIterProducer[T]) Close() error {
	if c, ok := p.it.(closer); ok {
		return c.Close()
	}
	return nil
}
