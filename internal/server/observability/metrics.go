// Package observability exposes Prometheus metrics for the SafeCircle server
// and the small HTTP server that publishes them.
//
// Metrics live on their own registry rather than the global default one, so
// tests can build as many instances as they like.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "safecircle"

// Metrics holds every collector the server reports.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestsTotal counts gRPC calls. Labels: method, code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures gRPC call latency. Labels: method.
	RequestDuration *prometheus.HistogramVec

	// MessagesTotal counts stored messages. Labels: kind (group, private).
	MessagesTotal *prometheus.CounterVec

	SosAlertsTotal      prometheus.Counter
	GroupsSweptTotal    prometheus.Counter
	LoginsRejectedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "gRPC request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		MessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_total",
			Help:      "Messages stored by kind.",
		}, []string{"kind"}),
		SosAlertsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sos_alerts_total",
			Help:      "SOS alerts broadcast.",
		}),
		GroupsSweptTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "groups_swept_total",
			Help:      "Empty groups deleted by the sweeper.",
		}),
		LoginsRejectedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logins_rejected_total",
			Help:      "Logins refused because the account is active on another device.",
		}),
	}
}

// ObserveRequest records one finished gRPC call.
func (m *Metrics) ObserveRequest(method, code string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// GroupsSwept is meant to be passed to services.NewSweeper.
func (m *Metrics) GroupsSwept(n int) {
	m.GroupsSweptTotal.Add(float64(n))
}
