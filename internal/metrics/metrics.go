package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ExpensesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expenses_created_total",
			Help: "Total number of expenses recorded",
		},
	)

	ExpensesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expenses_deleted_total",
			Help: "Total number of expenses deleted",
		},
	)

	// AuthAttempts counts register and login outcomes (success, failure, conflict).
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Register and login attempts by operation and result",
		},
		[]string{"op", "result"},
	)

	// RateLimitedVisitors is the number of client IPs currently tracked by the auth rate limiter.
	RateLimitedVisitors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_ratelimit_visitors",
			Help: "Client IPs tracked by the auth rate limiter",
		},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, ExpensesCreated, ExpensesDeleted, AuthAttempts, RateLimitedVisitors)
	})
}

// NormalizePath reduces cardinality by replacing numeric and UUID path segments with {id}.
// E.g. /api/expenses/0190c3e4-... -> /api/expenses/{id}.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func RecordAuth(op, result string) {
	AuthAttempts.WithLabelValues(op, result).Inc()
}
