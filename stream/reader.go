package stream

import (
	"context"
	"io"
	"sync"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/seq"
)

// ToReader exposes a byte sequence as an io.ReadCloser. Each Read pulls from
// the sequence only when previously pulled bytes are used up. Closing the
// reader cancels a Read blocked in a pull, then closes the sequence; later
// reads fail with errors.ErrClosed.
func ToReader(ctx context.Context, s *seq.Sequence[[]byte]) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	return &seqReader{ctx: ctx, cancel: cancel, sink: seq.NewSink(s), buf: &byteBuffer{}}
}

type seqReader struct {
	ctx    context.Context
	cancel context.CancelFunc
	sink   *seq.Sink[[]byte]
	buf    *byteBuffer

	mu     sync.Mutex
	err    error
	closed bool
}

func (r *seqReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errors.ErrClosed
	}
	for len(r.buf.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.buf.closed {
			return 0, io.EOF
		}
		more, err := r.sink.OnPull(r.ctx, r.buf)
		if err != nil {
			r.err = err
		} else if !more {
			r.buf.closed = true
		}
	}
	n := copy(p, r.buf.pending)
	r.buf.pending = r.buf.pending[n:]
	return n, nil
}

func (r *seqReader) Close() error {
	r.cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.buf.pending = nil
	return r.sink.Cancel()
}

// byteBuffer is the sink destination backing seqReader.
type byteBuffer struct {
	pending []byte
	closed  bool
}

func (b *byteBuffer) Enqueue(chunk []byte) error {
	b.pending = append(b.pending, chunk...)
	return nil
}

func (b *byteBuffer) Close() error {
	b.closed = true
	return nil
}
