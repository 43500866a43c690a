package external

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded per upstream attempt.
const (
	outcomeSuccess     = "success"
	outcomeStatusError = "status_error"
	outcomeNetwork     = "network_error"
	outcomeCircuitOpen = "circuit_open"
)

// Metrics holds the prometheus collectors shared by all upstream clients.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewMetrics creates the upstream collectors and registers them with reg.
// A nil registerer leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genome_explorer",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream request attempts by service and outcome.",
		}, []string{"service", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genome_explorer",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream request latency by service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genome_explorer",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Upstream request retries by service.",
		}, []string{"service"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.retries)
	}
	return m
}

func (m *Metrics) observe(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, outcome).Inc()
	m.duration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (m *Metrics) retry(service string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(service).Inc()
}
