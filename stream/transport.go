package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// Func adapts an acquire function to the Transport interface.
type Func[T any] func(ctx context.Context) (Reader[T], error)

// Acquire calls f(ctx).
func (f Func[T]) Acquire(ctx context.Context) (Reader[T], error) {
	return f(ctx)
}

// NewReader builds a Reader from a read function and an optional release
// function.
func NewReader[T any](read func(ctx context.Context) (T, bool, error), release func() error) Reader[T] {
	return &funcReader[T]{read: read, release: release}
}

type funcReader[T any] struct {
	read    func(ctx context.Context) (T, bool, error)
	release func() error
}

func (r *funcReader[T]) Read(ctx context.Context) (T, bool, error) { return r.read(ctx) }

func (r *funcReader[T]) Release() error {
	if r.release == nil {
		return nil
	}
	return r.release()
}

// DefaultChunkSize is used by Chunks when size is not positive.
const DefaultChunkSize = 32 * 1024

// Chunks returns a Transport that reads rc in chunks of at most size bytes.
// Releasing the reader closes rc.
func Chunks(rc io.ReadCloser, size int) Transport[[]byte] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return Body(rc, func(rc io.ReadCloser) Reader[[]byte] {
		return &chunkReader{body: rc, buf: make([]byte, size)}
	})
}

// Lines returns a Transport that yields rc line by line, without the line
// terminator. Releasing the reader closes rc.
func Lines(rc io.ReadCloser) Transport[string] {
	return Body(rc, func(rc io.ReadCloser) Reader[string] {
		return &lineReader{body: rc, scanner: bufio.NewScanner(rc)}
	})
}

// Body returns a Transport that hands out a single reader over an already
// opened body. open builds the reader; its Release must close the body. If
// the sequence is closed before the first pull the body is closed directly.
func Body[T any](rc io.ReadCloser, open func(io.ReadCloser) Reader[T]) Transport[T] {
	return &bodyTransport[T]{body: rc, open: open}
}

var errAcquired = errors.New("stream: body already acquired")

type bodyTransport[T any] struct {
	mu       sync.Mutex
	body     io.ReadCloser
	open     func(io.ReadCloser) Reader[T]
	acquired bool
}

func (t *bodyTransport[T]) Acquire(ctx context.Context) (Reader[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.acquired {
		return nil, errAcquired
	}
	t.acquired = true
	return t.open(t.body), nil
}

// Close closes the body if no reader was ever acquired.
func (t *bodyTransport[T]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.acquired {
		return nil
	}
	t.acquired = true
	return t.body.Close()
}

type chunkReader struct {
	body io.ReadCloser
	buf  []byte
	eof  bool
}

func (r *chunkReader) Read(ctx context.Context) ([]byte, bool, error) {
	for !r.eof {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		n, err := r.body.Read(r.buf)
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return nil, false, err
		}
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, r.buf[:n])
			return chunk, false, nil
		}
	}
	return nil, true, nil
}

func (r *chunkReader) Release() error { return r.body.Close() }

type lineReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (r *lineReader) Read(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if r.scanner.Scan() {
		return r.scanner.Text(), false, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", false, err
	}
	return "", true, nil
}

func (r *lineReader) Release() error { return r.body.Close() }
