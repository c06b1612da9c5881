package graspplanning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors of the service.
type Metrics struct {
	Queries       *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	Warnings      *prometheus.CounterVec
	PlanAttempts  *prometheus.CounterVec
	Pours         prometheus.Counter
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graspplanner_queries_total",
			Help: "Planning queries handled, by dispatcher branch",
		}, []string{"branch"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graspplanner_query_failures_total",
			Help: "Planning queries that did not succeed, by error kind",
		}, []string{"kind"}),
		Warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graspplanner_query_warnings_total",
			Help: "Failures that did not change the outcome of a query, by error kind",
		}, []string{"kind"}),
		PlanAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graspplanner_plan_attempts_total",
			Help: "Planner calls made by the retry loop, by outcome",
		}, []string{"outcome"}),
		Pours: factory.NewCounter(prometheus.CounterOpts{
			Name: "graspplanner_pours_total",
			Help: "Tilts completed at the pour target",
		}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graspplanner_query_duration_seconds",
			Help:    "Time spent handling a planning query",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"branch"}),
	}
}

// ObserveResponse records the outcome of a handled query.
func (m *Metrics) ObserveResponse(resp *Response, took time.Duration) {
	m.Queries.WithLabelValues(string(resp.Branch)).Inc()
	m.QueryDuration.WithLabelValues(string(resp.Branch)).Observe(took.Seconds())
	if !resp.Success {
		m.Failures.WithLabelValues(string(resp.ErrorKind)).Inc()
	}
	for _, w := range resp.Warnings {
		m.Warnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

// ObservePlan records one planner call.
func (m *Metrics) ObservePlan(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.PlanAttempts.WithLabelValues(outcome).Inc()
}
