// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Log query outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNoMatch      = "no_match"
	OutcomeInvalid      = "invalid"
	OutcomeUserNotFound = "user_not_found"
	OutcomeError        = "error"
)

var (
	usersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "users",
		Name:      "created_total",
		Help:      "Number of users registered.",
	})
	exercisesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "exercises",
		Name:      "logged_total",
		Help:      "Number of exercise entries persisted.",
	})
	exerciseMinutes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "exercises",
		Name:      "minutes_total",
		Help:      "Sum of durations of persisted exercise entries, in minutes.",
	})
	logQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "exercises",
		Name:      "log_queries_total",
		Help:      "Exercise log queries by outcome.",
	}, []string{"outcome"})
	publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Exercise events that could not be published.",
	})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitlog",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(usersCreated, exercisesLogged, exerciseMinutes, logQueries, publishFailures, httpDuration)
}

func RecordUserCreated() {
	usersCreated.Inc()
}

// RecordExerciseLogged counts a persisted entry and its duration.
func RecordExerciseLogged(durationMin int) {
	exercisesLogged.Inc()
	if durationMin > 0 {
		exerciseMinutes.Add(float64(durationMin))
	}
}

func RecordLogQuery(outcome string) {
	logQueries.WithLabelValues(outcome).Inc()
}

func RecordPublishFailure() {
	publishFailures.Inc()
}

// ObserveHTTPRequest records a finished request. route should be the
// matched pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
