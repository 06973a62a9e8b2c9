package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/seq"
)

// Pull outcomes used as the status label.
const (
	StatusValue = "value"
	StatusDone  = "done"
	StatusError = "error"
)

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumentOptions)

type instrumentOptions struct {
	tracer    trace.Tracer
	metrics   *Metrics
	collector *Collector
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) InstrumentOption {
	return func(o *instrumentOptions) { o.tracer = t }
}

// WithMetrics records OpenTelemetry metrics.
func WithMetrics(m *Metrics) InstrumentOption {
	return func(o *instrumentOptions) { o.metrics = m }
}

// WithCollector records Prometheus metrics.
func WithCollector(c *Collector) InstrumentOption {
	return func(o *instrumentOptions) { o.collector = c }
}

// Instrument takes ownership of s and returns a sequence yielding the same
// elements. Each pull runs in a span named SpanPull and is counted under
// name; elements, termination and errors are unchanged.
func Instrument[T any](s *seq.Sequence[T], name string, opts ...InstrumentOption) *seq.Sequence[T] {
	o := instrumentOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = Tracer()
	}
	id := s.ID()
	return seq.Adopt(s, func(parent seq.Stage[T]) seq.Producer[T] {
		return &instrumented[T]{parent: parent, name: name, id: id, opts: o}
	})
}

type instrumented[T any] struct {
	parent  seq.Stage[T]
	name    string
	id      string
	opts    instrumentOptions
	index   int
	started bool
	ended   bool
}

func (p *instrumented[T]) Pull(ctx context.Context) (seq.Result[T], error) {
	ctx, span := p.opts.tracer.Start(ctx, SpanPull, trace.WithAttributes(
		attribute.String(AttrSequenceName, p.name),
		attribute.String(AttrSequenceID, p.id),
		attribute.Int(AttrIndex, p.index),
	))
	defer span.End()

	if !p.started {
		p.started = true
		p.open(ctx)
	}

	start := time.Now()
	r, err := p.parent.Pull(ctx)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.record(ctx, StatusError, elapsed)
		p.fail(ctx, err)
		p.finish(ctx)
	case r.Done:
		span.SetAttributes(attribute.Bool(AttrDone, true))
		p.record(ctx, StatusDone, elapsed)
		p.finish(ctx)
	default:
		p.index++
		p.record(ctx, StatusValue, elapsed)
	}
	return r, err
}

func (p *instrumented[T]) Close() error {
	err := p.parent.Close()
	if p.started && !p.ended {
		ctx := context.Background()
		_, span := p.opts.tracer.Start(ctx, SpanClose, trace.WithAttributes(
			attribute.String(AttrSequenceName, p.name),
			attribute.String(AttrSequenceID, p.id),
			attribute.Int(AttrIndex, p.index),
		))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.fail(ctx, err)
		}
		span.End()
		p.finish(ctx)
	}
	return err
}

func (p *instrumented[T]) open(ctx context.Context) {
	if p.opts.metrics != nil {
		p.opts.metrics.RecordOpen(ctx, p.name)
	}
	if p.opts.collector != nil {
		p.opts.collector.Open.WithLabelValues(p.name).Inc()
	}
}

func (p *instrumented[T]) finish(ctx context.Context) {
	if p.ended {
		return
	}
	p.ended = true
	if p.opts.metrics != nil {
		p.opts.metrics.RecordFinish(ctx, p.name)
	}
	if p.opts.collector != nil {
		p.opts.collector.Open.WithLabelValues(p.name).Dec()
	}
}

func (p *instrumented[T]) record(ctx context.Context, status string, d time.Duration) {
	if p.opts.metrics != nil {
		p.opts.metrics.RecordPull(ctx, p.name, status, d)
	}
	if p.opts.collector != nil {
		p.opts.collector.recordPull(p.name, status, d)
	}
}

func (p *instrumented[T]) fail(ctx context.Context, err error) {
	code := string(errors.FromError(err).Code)
	if p.opts.metrics != nil {
		p.opts.metrics.RecordError(ctx, p.name, code)
	}
	if p.opts.collector != nil {
		p.opts.collector.Errors.WithLabelValues(p.name, code).Inc()
	}
}
