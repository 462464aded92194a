package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "havenhub",
			Name:      "backend_requests_total",
			Help:      "Backend REST requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	pollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "havenhub",
			Name:      "notification_poll_cycles_total",
			Help:      "Notification poll cycles by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, pollCycles)
	})
}

// IncBackend increments the request counter for an endpoint/outcome pair.
func IncBackend(endpoint, outcome string) {
	backendRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IncPoll increments the poll cycle counter for a result label.
func IncPoll(result string) {
	pollCycles.WithLabelValues(result).Inc()
}
