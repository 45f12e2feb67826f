package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels queries that produced an answer.
	OutcomeSuccess = "success"
	// OutcomeError labels queries that failed (missing data or dependency issues).
	OutcomeError = "error"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airsight",
			Name:      "queries_total",
			Help:      "Total number of queries handled, partitioned by intent and outcome.",
		},
		[]string{"intent", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "airsight",
			Name:      "query_seconds",
			Help:      "Query handling latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	rewriteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airsight",
			Name:      "rewrite_requests_total",
			Help:      "Rewrite service calls, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches the engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		rewriteRequestsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records a handled query's intent, outcome and latency.
func ObserveQuery(intent string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	queriesTotal.WithLabelValues(intent, label).Inc()
	if duration < 0 {
		duration = 0
	}
	queryDurationSeconds.Observe(duration.Seconds())
}

// ObserveRewrite records a rewrite-service call outcome.
func ObserveRewrite(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	rewriteRequestsTotal.WithLabelValues(label).Inc()
}
