package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	boltdb "github.com/boltdb/bolt"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
)

// Open opens the database at path, waiting at most timeout for the file lock.
func Open(path string, timeout time.Duration) (*boltdb.DB, error) {
	db, err := boltdb.Open(path, 0600, &boltdb.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.SourceUnavailable("bolt", err).WithDetail("path", path)
	}
	return db, nil
}

// Entry is a key/value pair read from a bucket. Both slices are copies and
// remain valid after the sequence is closed.
type Entry struct {
	Key   []byte
	Value []byte
}

// Type returns the key, so entries can be dispatched through an event.Emitter.
func (e Entry) Type() string { return string(e.Key) }

// Option configures Cursor.
type Option func(*cursorOptions)

type cursorOptions struct {
	prefix []byte
	seek   []byte
	log    *logger.Logger
}

// WithPrefix limits the cursor to keys starting with prefix.
func WithPrefix(prefix []byte) Option {
	return func(o *cursorOptions) { o.prefix = prefix }
}

// WithSeek starts the cursor at the first key >= key.
func WithSeek(key []byte) Option {
	return func(o *cursorOptions) { o.seek = key }
}

// WithLogger sets the logger used for transaction events.
func WithLogger(l *logger.Logger) Option {
	return func(o *cursorOptions) { o.log = l }
}

// Cursor returns the entries of bucket in key order. Nested buckets are
// skipped. A missing bucket fails the first pull with an invalid input error.
func Cursor(db *boltdb.DB, bucket string, opts ...Option) *seq.Sequence[Entry] {
	o := cursorOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	start := o.seek
	if len(o.prefix) > 0 && bytes.Compare(start, o.prefix) < 0 {
		start = o.prefix
	}
	return seq.New[Entry](&cursorProducer{
		db:     db,
		bucket: bucket,
		prefix: o.prefix,
		start:  start,
		log:    o.log.WithComponent("bolt"),
	})
}

type cursorProducer struct {
	db     *boltdb.DB
	bucket string
	prefix []byte
	start  []byte
	log    *logger.Logger

	tx      *boltdb.Tx
	cursor  *boltdb.Cursor
	started bool
	entries int
}

func (p *cursorProducer) Pull(ctx context.Context) (seq.Result[Entry], error) {
	if err := ctx.Err(); err != nil {
		return seq.Result[Entry]{}, err
	}

	var k, v []byte
	if p.cursor == nil {
		if err := p.begin(); err != nil {
			return seq.Result[Entry]{}, err
		}
		if len(p.start) > 0 {
			k, v = p.cursor.Seek(p.start)
		} else {
			k, v = p.cursor.First()
		}
	} else {
		k, v = p.cursor.Next()
	}

	// A nil value marks a nested bucket.
	for k != nil && v == nil {
		k, v = p.cursor.Next()
	}
	if k == nil || (len(p.prefix) > 0 && !bytes.HasPrefix(k, p.prefix)) {
		return seq.End[Entry](), nil
	}

	p.entries++
	return seq.Yield(Entry{Key: bytes.Clone(k), Value: bytes.Clone(v)}), nil
}

func (p *cursorProducer) begin() error {
	tx, err := p.db.Begin(false)
	if err != nil {
		return errors.SourceUnavailable("bolt", err)
	}
	b := tx.Bucket([]byte(p.bucket))
	if b == nil {
		_ = tx.Rollback()
		return errors.InvalidInput("bucket", "bucket "+p.bucket+" does not exist")
	}
	p.tx = tx
	p.cursor = b.Cursor()
	p.log.Debug("read transaction opened", logger.Fields(logger.FieldSource, p.bucket))
	return nil
}

func (p *cursorProducer) Close() error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx, p.cursor = nil, nil
	p.log.Debug("read transaction closed", logger.Fields(logger.FieldSource, p.bucket, logger.FieldElements, p.entries))
	return tx.Rollback()
}

// Put writes entries into bucket, creating it if needed, one transaction per
// batch of size entries. It returns the number of entries written; s is
// closed on return.
func Put(ctx context.Context, db *boltdb.DB, bucket string, s *seq.Sequence[Entry], size int) (int, error) {
	return seq.Reduce(ctx, seq.Batch(s, size, 0), 0, func(_ context.Context, n int, batch []Entry, _ int) (int, error) {
		err := db.Update(func(tx *boltdb.Tx) error {
			b, err := tx.CreateBucketIfNotExists([]byte(bucket))
			if err != nil {
				return err
			}
			for _, e := range batch {
				if err := b.Put(e.Key, e.Value); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return n, errors.Internal(err).WithDetail("bucket", bucket)
		}
		return n + len(batch), nil
	})
}

// DecodeJSON unmarshals each entry value into a T.
func DecodeJSON[T any](s *seq.Sequence[Entry]) *seq.Sequence[T] {
	return seq.Map(s, func(_ context.Context, e Entry) (T, error) {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return v, errors.InvalidInput("value", "entry "+string(e.Key)+" is not valid JSON").WithCause(err)
		}
		return v, nil
	})
}
