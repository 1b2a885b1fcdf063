package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/expense-tracker/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Prometheus records request duration and count for each request, labelled by
// the matched chi route pattern, or "unmatched" when there is none.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrap, r)

		metrics.RecordRequest(r.Method, routeLabel(r), wrap.status, time.Since(start).Seconds())
	})
}

// unmatchedRoute labels requests no route matched, so arbitrary 404 paths share one series.
const unmatchedRoute = "unmatched"

// routeLabel returns the matched chi route pattern, read after the router has served r.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
