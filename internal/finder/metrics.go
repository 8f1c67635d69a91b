package finder

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rohankatakam/relfinder/internal/sparql"
)

// Metrics are the prometheus collectors of a Finder.
// A nil *Metrics records nothing.
type Metrics struct {
	queries         *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the finder collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Labels: pattern (direct_forward, ...), status (success, error)
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relfinder",
			Subsystem: "sparql",
			Name:      "queries_total",
			Help:      "Path queries executed against the triple store",
		}, []string{"pattern", "status"}),

		// Labels: distance
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relfinder",
			Subsystem: "sparql",
			Name:      "query_duration_seconds",
			Help:      "Path query latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"distance"}),

		// Labels: status (success, error, rejected)
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relfinder",
			Subsystem: "finder",
			Name:      "requests_total",
			Help:      "Relationship requests by outcome",
		}, []string{"status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relfinder",
			Subsystem: "finder",
			Name:      "request_duration_seconds",
			Help:      "End-to-end relationship request latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
	}
}

func (m *Metrics) queryDone(d sparql.QueryDescriptor, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queries.WithLabelValues(d.Kind.String(), status).Inc()
	m.queryDuration.WithLabelValues(distanceLabel(d.Distance)).Observe(duration.Seconds())
}

func (m *Metrics) requestDone(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(status).Inc()
	m.requestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func distanceLabel(d int) string {
	if d > 9 {
		return "10+"
	}
	return strconv.Itoa(d)
}
