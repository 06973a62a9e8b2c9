package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
)

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("exporter", "otlpmetrichttp")
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("exporter", "otlpmetrichttp")
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if d, err := time.ParseDuration(cfg.MetricInterval); err == nil && d > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(d))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval,
	))

	return mp, nil
}

// Meter returns the package meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the OpenTelemetry instruments recorded by Instrument.
type Metrics struct {
	pullTotal    metric.Int64Counter
	pullDuration metric.Float64Histogram
	open         metric.Int64UpDownCounter
	errorTotal   metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	pullTotal, err := meter.Int64Counter("seq.pull.total",
		metric.WithDescription("Pulls by sequence and outcome"),
	)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("instrument", "seq.pull.total")
	}

	pullDuration, err := meter.Float64Histogram("seq.pull.duration",
		metric.WithDescription("Time spent waiting for the next element"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("instrument", "seq.pull.duration")
	}

	open, err := meter.Int64UpDownCounter("seq.open",
		metric.WithDescription("Sequences pulled at least once and not yet finished"),
	)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("instrument", "seq.open")
	}

	errorTotal, err := meter.Int64Counter("seq.error.total",
		metric.WithDescription("Pull and release failures by sequence"),
	)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("instrument", "seq.error.total")
	}

	return &Metrics{
		pullTotal:    pullTotal,
		pullDuration: pullDuration,
		open:         open,
		errorTotal:   errorTotal,
	}, nil
}

// RecordOpen marks a sequence as started.
func (m *Metrics) RecordOpen(ctx context.Context, name string) {
	m.open.Add(ctx, 1, metric.WithAttributes(attribute.String("sequence", name)))
}

// RecordFinish marks a started sequence as finished.
func (m *Metrics) RecordFinish(ctx context.Context, name string) {
	m.open.Add(ctx, -1, metric.WithAttributes(attribute.String("sequence", name)))
}

// RecordPull records one pull. status is one of StatusValue, StatusDone or
// StatusError.
func (m *Metrics) RecordPull(ctx context.Context, name, status string, d time.Duration) {
	m.pullTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sequence", name),
		attribute.String("status", status),
	))
	m.pullDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("sequence", name),
	))
}

// RecordError records a failure with its error code.
func (m *Metrics) RecordError(ctx context.Context, name, code string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sequence", name),
		attribute.String("code", code),
	))
}
