package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	connectionsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodelet",
			Subsystem: "transport",
			Name:      "connections_accepted_total",
			Help:      "Connections accepted, by owning subsystem role.",
		},
		[]string{"role"},
	)
	acceptErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodelet",
			Subsystem: "transport",
			Name:      "accept_errors_total",
			Help:      "Accept attempts that failed before a connection existed.",
		},
		[]string{"role"},
	)
	messagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodelet",
			Subsystem: "transport",
			Name:      "messages_dispatched_total",
			Help:      "Framed messages dispatched to subsystem handlers.",
		},
		[]string{"role", "message"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodelet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nodelet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			connectionsAccepted, acceptErrors, messagesDispatched,
			httpRequests, httpDuration,
		)
	})
}

func RecordConnectionAccepted(role string) {
	RegisterMetrics()
	connectionsAccepted.WithLabelValues(role).Inc()
}

func RecordAcceptError(role string) {
	RegisterMetrics()
	acceptErrors.WithLabelValues(role).Inc()
}

func RecordMessageDispatched(role, message string) {
	RegisterMetrics()
	messagesDispatched.WithLabelValues(role, message).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
