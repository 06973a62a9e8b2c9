package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/resilience"
	"github.com/kbukum/asyncseq/seq"
	"github.com/kbukum/asyncseq/stream"
)

// Message is a message received on a subscribed channel.
type Message struct {
	Channel string
	Pattern string
	Payload string
}

// Type returns the channel name, so messages can be dispatched through an
// event.Emitter.
func (m Message) Type() string { return m.Channel }

// Subscribe returns an unbounded sequence of the messages published to
// channels. The subscription is made on the first pull, retried with the
// client's retry backoff while redis is unreachable, and released when the
// sequence is closed.
func (c *Client) Subscribe(channels ...string) *seq.Sequence[Message] {
	return c.subscribe(false, channels)
}

// PSubscribe is Subscribe for channel patterns.
func (c *Client) PSubscribe(patterns ...string) *seq.Sequence[Message] {
	return c.subscribe(true, patterns)
}

func (c *Client) subscribe(pattern bool, names []string) *seq.Sequence[Message] {
	log := c.log.WithFields(map[string]interface{}{"channels": names})
	transport := stream.Func[Message](func(ctx context.Context) (stream.Reader[Message], error) {
		var ps *goredis.PubSub
		if pattern {
			ps = c.rdb.PSubscribe(ctx, names...)
		} else {
			ps = c.rdb.Subscribe(ctx, names...)
		}
		// Wait for the subscription confirmation so that messages published
		// after the first pull returns are not lost.
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, errors.SourceUnavailable("redis", err)
		}
		log.Debug("subscribed")
		return &subscription{ps: ps, log: log}, nil
	})
	// Both durations were checked by Config.Validate in New.
	minBackoff, _ := time.ParseDuration(c.cfg.MinRetryBackoff)
	maxBackoff, _ := time.ParseDuration(c.cfg.MaxRetryBackoff)
	attempts := max(c.cfg.MaxRetries, 0) + 1
	retrying := resilience.RetryTransport[Message](transport, resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: minBackoff,
		MaxBackoff:     maxBackoff,
	})
	return stream.From[Message](retrying, stream.WithLogger(log), stream.WithName("redis-subscribe"))
}

type subscription struct {
	ps  *goredis.PubSub
	log *logger.Logger
}

func (s *subscription) Read(ctx context.Context) (Message, bool, error) {
	msg, err := s.ps.ReceiveMessage(ctx)
	if err != nil {
		return Message{}, false, err
	}
	return Message{Channel: msg.Channel, Pattern: msg.Pattern, Payload: msg.Payload}, false, nil
}

func (s *subscription) Release() error {
	s.log.Debug("unsubscribed")
	return s.ps.Close()
}
