package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus metrics recorded by Instrument.
type Collector struct {
	Pulls        *prometheus.CounterVec
	PullDuration *prometheus.HistogramVec
	Open         *prometheus.GaugeVec
	Errors       *prometheus.CounterVec
}

// NewCollector registers the sequence metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Pulls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncseq",
				Subsystem: "sequence",
				Name:      "pulls_total",
				Help:      "Total number of pulls by outcome",
			},
			[]string{"sequence", "status"},
		),

		PullDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "asyncseq",
				Subsystem: "sequence",
				Name:      "pull_duration_seconds",
				Help:      "Time spent waiting for the next element",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"sequence"},
		),

		Open: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "asyncseq",
				Subsystem: "sequence",
				Name:      "open",
				Help:      "Sequences pulled at least once and not yet finished",
			},
			[]string{"sequence"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncseq",
				Subsystem: "sequence",
				Name:      "errors_total",
				Help:      "Total number of pull and release failures",
			},
			[]string{"sequence", "code"},
		),
	}
}

func (c *Collector) recordPull(name, status string, d time.Duration) {
	c.Pulls.WithLabelValues(name, status).Inc()
	c.PullDuration.WithLabelValues(name).Observe(d.Seconds())
}
