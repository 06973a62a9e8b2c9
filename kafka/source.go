package kafka

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
	"github.com/kbukum/asyncseq/stream"
)

// Fetcher is the subset of *kafkago.Reader used by FromFetcher.
type Fetcher interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewReader creates a kafka-go reader for topic from cfg.
func NewReader(cfg Config, topic string, log *logger.Logger) (*kafkago.Reader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, errors.InvalidConfig("kafka is disabled")
	}
	if topic == "" {
		topic = cfg.Topic
	}
	if topic == "" {
		return nil, errors.InvalidConfig("kafka topic is required")
	}

	dialer, err := CreateDialer(&cfg)
	if err != nil {
		return nil, err
	}

	rlog := componentLogger(log)
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           cfg.GroupID,
		Dialer:            dialer,
		StartOffset:       kafkago.FirstOffset,
		MinBytes:          1,
		MaxBytes:          10e6,
		SessionTimeout:    ParseDuration(cfg.SessionTimeout),
		HeartbeatInterval: ParseDuration(cfg.HeartbeatInterval),
		RebalanceTimeout:  ParseDuration(cfg.RebalanceTimeout),
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			rlog.Error("reader: "+msg, map[string]interface{}{
				"args":    fmt.Sprintf("%v", args),
				"topic":   topic,
				"groupID": cfg.GroupID,
			})
		}),
	}), nil
}

// Messages returns an unbounded sequence of the records on topic. The reader
// is created on the first pull and closed with the sequence. With a GroupID,
// a record is committed when the next one is pulled, so a record is only
// committed once the consumer has asked for more.
func Messages(cfg Config, topic string, log *logger.Logger) *seq.Sequence[Message] {
	transport := stream.Func[Message](func(ctx context.Context) (stream.Reader[Message], error) {
		r, err := NewReader(cfg, topic, log)
		if err != nil {
			return nil, err
		}
		return &fetchReader{f: r, commit: cfg.GroupID != "", topic: topic, log: componentLogger(log)}, nil
	})
	return stream.From[Message](transport, stream.WithLogger(componentLogger(log)), stream.WithName("kafka"))
}

// FromFetcher wraps an existing fetcher. With commit set, each record is
// committed when the next one is pulled. The fetcher is closed with the
// sequence.
func FromFetcher(f Fetcher, commit bool, log *logger.Logger) *seq.Sequence[Message] {
	transport := stream.Func[Message](func(context.Context) (stream.Reader[Message], error) {
		return &fetchReader{f: f, commit: commit, log: componentLogger(log)}, nil
	})
	return stream.From[Message](transport, stream.WithLogger(componentLogger(log)), stream.WithName("kafka"))
}

func componentLogger(log *logger.Logger) *logger.Logger {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return log.WithComponent("kafka")
}

type fetchReader struct {
	f       Fetcher
	commit  bool
	topic   string
	log     *logger.Logger
	pending *kafkago.Message
}

func (r *fetchReader) Read(ctx context.Context) (Message, bool, error) {
	if r.pending != nil {
		if err := r.f.CommitMessages(ctx, *r.pending); err != nil {
			return Message{}, false, FromKafka(err, r.topic)
		}
		r.pending = nil
	}
	msg, err := r.f.FetchMessage(ctx)
	if err != nil {
		return Message{}, false, FromKafka(err, r.topic)
	}
	if r.commit {
		r.pending = &msg
	}
	return FromKafkaMessage(msg), false, nil
}

func (r *fetchReader) Release() error {
	if kr, ok := r.f.(*kafkago.Reader); ok {
		m := CollectReaderMetrics(kr.Stats())
		r.log.Debug("kafka reader closing", map[string]interface{}{
			"topic":    m.Topic,
			"messages": m.Messages,
			"lag":      m.Lag,
		})
	}
	return r.f.Close()
}
