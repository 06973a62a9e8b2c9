// Package observability wires OpenTelemetry tracing and metrics plus a
// Prometheus collector around sequences.
//
// InitTracer and InitMeter install global OTLP/HTTP providers. Instrument
// wraps a sequence so every pull is traced and counted:
//
//	lines := observability.Instrument(src, "lines",
//		observability.WithMetrics(m),
//		observability.WithCollector(c),
//	)
package observability
