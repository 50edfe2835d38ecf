package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heat_explorer"

// Metrics holds the Prometheus collectors shared by the API and the runner.
type Metrics struct {
	Evaluations        *prometheus.CounterVec // labels: outcome={success,error}
	EvaluationDuration prometheus.Histogram
	CacheLookups       *prometheus.CounterVec // labels: result={hit,miss}

	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	FeedbackReceived prometheus.Counter

	// Runner metrics.
	CityRuns *prometheus.CounterVec // labels: status={evaluated,skipped,failed}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Evaluations,
		m.EvaluationDuration,
		m.CacheLookups,
		m.EventsPublished,
		m.PublishErrors,
		m.FeedbackReceived,
		m.CityRuns,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Scenario evaluations by outcome.",
		}, []string{"outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of one scenario evaluation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_cache_total",
			Help:      "Evaluation cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Scenario events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka writes.",
		}),
		FeedbackReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_received_total",
			Help:      "Stakeholder feedback features stored.",
		}),
		CityRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runner_city_runs_total",
			Help:      "Batch runner city/preset runs by status.",
		}, []string{"status"}),
	}
}

// ObserveEvaluation records one evaluation's outcome and duration. Safe on a
// nil receiver.
func (m *Metrics) ObserveEvaluation(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Evaluations.WithLabelValues(outcome).Inc()
	m.EvaluationDuration.Observe(time.Since(start).Seconds())
}
