// Package metrics exposes Prometheus collectors for query execution.
// Collectors live on the default registry, which the plugin SDK serves.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yandex_monitoring"

// Metrics tracks various metrics for the plugin
type Metrics struct {
	queries           prometheus.Counter
	errors            prometheus.Counter
	duration          prometheus.Histogram
	concurrentQueries prometheus.Gauge
}

var _ prometheus.Collector = (*Metrics)(nil)

// New creates an unregistered set of collectors.
func New() *Metrics {
	return &Metrics{
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of executed queries.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Total number of queries that failed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of query execution in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		concurrentQueries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrent_queries",
			Help:      "Number of queries currently executing.",
		}),
	}
}

// RecordQuery records metrics for a completed query
func (m *Metrics) RecordQuery(duration time.Duration, err error) {
	m.queries.Inc()
	if err != nil {
		m.errors.Inc()
	}
	m.duration.Observe(duration.Seconds())
}

// IncrementConcurrentQueries increments the count of concurrent queries
func (m *Metrics) IncrementConcurrentQueries() { m.concurrentQueries.Inc() }

// DecrementConcurrentQueries decrements the count of concurrent queries
func (m *Metrics) DecrementConcurrentQueries() { m.concurrentQueries.Dec() }

func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	m.queries.Describe(descs)
	m.errors.Describe(descs)
	m.duration.Describe(descs)
	m.concurrentQueries.Describe(descs)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.queries.Collect(ch)
	m.errors.Collect(ch)
	m.duration.Collect(ch)
	m.concurrentQueries.Collect(ch)
}

var (
	metrics      = New()
	registerOnce sync.Once
	registerErr  error
)

// Register adds the package collectors to reg. Only the first call has an
// effect; an already registered set is not an error.
func Register(reg prometheus.Registerer) error {
	registerOnce.Do(func() {
		err := reg.Register(metrics)
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			err = nil
		}
		registerErr = err
	})
	return registerErr
}

// RecordQuery records a completed query on the package collectors.
func RecordQuery(duration time.Duration, err error) { metrics.RecordQuery(duration, err) }

// IncrementConcurrentQueries increments the package concurrent query gauge.
func IncrementConcurrentQueries() { metrics.IncrementConcurrentQueries() }

// DecrementConcurrentQueries decrements the package concurrent query gauge.
func DecrementConcurrentQueries() { metrics.DecrementConcurrentQueries() }
