package sse

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
)

// OpenFunc builds the sequence served to one request.
type OpenFunc[T any] func(c *gin.Context) (*seq.Sequence[T], error)

// Encoder turns an element into an event.
type Encoder[T any] func(v T) (Event, error)

// HandlerOption configures Handler.
type HandlerOption[T any] func(*handlerConfig[T])

type handlerConfig[T any] struct {
	encode Encoder[T]
	log    *logger.Logger
}

// WithEncoder replaces the default JSON encoder.
func WithEncoder[T any](enc Encoder[T]) HandlerOption[T] {
	return func(c *handlerConfig[T]) { c.encode = enc }
}

// WithHandlerLogger sets the logger used for connection events.
func WithHandlerLogger[T any](l *logger.Logger) HandlerOption[T] {
	return func(c *handlerConfig[T]) { c.log = l }
}

// JSONEncoder encodes v as JSON in a "message" event. Strings are sent as is.
func JSONEncoder[T any](v T) (Event, error) {
	if s, ok := any(v).(string); ok {
		return Event{Event: EventTypeMessage, Data: s}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: EventTypeMessage, Data: string(data)}, nil
}

// Handler serves the sequence returned by open as an event stream. Each step
// of gin's stream loop pulls one element. The stream ends with an "end" event,
// or with an "error" event carrying the error response if the sequence fails.
// A client disconnect closes the sequence.
func Handler[T any](open OpenFunc[T], opts ...HandlerOption[T]) gin.HandlerFunc {
	cfg := handlerConfig[T]{encode: JSONEncoder[T]}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.WithComponent("sse")
	}

	return func(c *gin.Context) {
		s, err := open(c)
		if err != nil {
			appErr := errors.FromError(err)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}

		rc := http.NewResponseController(c.Writer)
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			cfg.log.Debug("could not disable write deadline", logger.ErrorFields("serve", err))
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		log := cfg.log.WithSequence(s.ID())
		sink := seq.NewSink(s)
		ctx := c.Request.Context()
		sent := 0
		start := time.Now()

		gone := c.Stream(func(w io.Writer) bool {
			dst := &writerDestination[T]{w: w, encode: cfg.encode}
			more, err := sink.OnPull(ctx, dst)
			if err != nil {
				if ctx.Err() == nil {
					writeError(w, err)
				}
				log.Debug("stream failed", logger.ErrorFields("serve", err))
				return false
			}
			if more {
				sent++
			}
			return more
		})
		if err := sink.Cancel(); err != nil {
			log.Debug("sequence release failed", logger.ErrorFields("serve", err))
		}

		fields := logger.DurationFields("serve", time.Since(start))
		fields[logger.FieldElements] = sent
		fields["client_gone"] = gone
		log.Debug("stream finished", fields)
	}
}

// writerDestination writes pulled elements to the response. Close writes the
// end event.
type writerDestination[T any] struct {
	w      io.Writer
	encode Encoder[T]
}

func (d *writerDestination[T]) Enqueue(v T) error {
	ev, err := d.encode(v)
	if err != nil {
		return err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return Write(d.w, ev)
}

func (d *writerDestination[T]) Close() error {
	return Write(d.w, Event{Event: EventTypeEnd})
}

func writeError(w io.Writer, err error) {
	data, mErr := json.Marshal(errors.FromError(err).ToResponse())
	if mErr != nil {
		data = []byte(`{"error":{"code":"INTERNAL_ERROR"}}`)
	}
	_ = Write(w, Event{Event: EventTypeError, Data: string(data)})
}
