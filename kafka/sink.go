package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
)

// MessageWriter is the subset of *kafkago.Writer used by Produce.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// NewWriter creates a kafka-go writer from cfg. The writer has no fixed topic;
// Produce sets it per message.
func NewWriter(cfg Config) (*kafkago.Writer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, errors.InvalidConfig("kafka is disabled")
	}
	transport, err := CreateTransport(&cfg)
	if err != nil {
		return nil, err
	}
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Balancer:     &kafkago.Hash{},
		Transport:    transport,
		Compression:  ResolveCompression(cfg.Compression),
		MaxAttempts:  cfg.Retries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: ParseDuration(cfg.BatchTimeout),
		WriteTimeout: ParseDuration(cfg.WriteTimeout),
		ReadTimeout:  ParseDuration(cfg.ReadTimeout),
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
	}, nil
}

// ProduceOptions controls Produce batching.
type ProduceOptions struct {
	// Topic is used for messages that carry no topic of their own.
	Topic string
	// BatchSize is the maximum number of messages per write (default 100).
	BatchSize int
	// BatchTimeout flushes a partial batch once it has been collecting this long.
	BatchTimeout string
}

// Produce drains s into w in batches and returns the number of messages
// written. s is closed on return.
func Produce(ctx context.Context, w MessageWriter, s *seq.Sequence[Message], opts ProduceOptions, log *logger.Logger) (int, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	log = componentLogger(log)

	batches := seq.Batch(s, opts.BatchSize, ParseDuration(opts.BatchTimeout))
	n, err := seq.Reduce(ctx, batches, 0, func(ctx context.Context, written int, batch []Message, _ int) (int, error) {
		msgs := make([]kafkago.Message, len(batch))
		for i, m := range batch {
			if m.Topic == "" {
				m.Topic = opts.Topic
			}
			msgs[i] = m.ToKafkaMessage()
		}
		if err := w.WriteMessages(ctx, msgs...); err != nil {
			return written, FromKafka(err, opts.Topic)
		}
		written += len(msgs)
		log.Debug("kafka batch written", logger.Fields(logger.FieldElements, len(msgs), "total", written))
		return written, nil
	})
	if sw, ok := w.(statsWriter); ok {
		m := CollectWriterMetrics(sw.Stats())
		log.Debug("kafka produce finished", map[string]interface{}{
			"topic":    opts.Topic,
			"writes":   m.Writes,
			"messages": m.Messages,
			"errors":   m.Errors,
		})
	}
	return n, err
}

// statsWriter is implemented by *kafkago.Writer.
type statsWriter interface {
	Stats() kafkago.WriterStats
}
