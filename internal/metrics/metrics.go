// Package metrics holds the Prometheus collectors for the composer and the HTTP API.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	composerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_composer_operations_total",
			Help: "Completed composer operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	childDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_child_post_deletions_total",
			Help: "Child post deletions issued during reconciliation, by outcome",
		},
		[]string{"outcome"},
	)

	orphansSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_orphans_swept_total",
			Help: "Orphaned child posts processed by the sweeper, by outcome",
		},
		[]string{"outcome"},
	)

	broadcastClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quill_broadcast_clients",
			Help: "Websocket clients subscribed to post events",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveOperation counts a finished composer operation (create, update, load).
func ObserveOperation(operation string, err error) {
	composerOperations.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveChildDeletion counts one settled child post deletion.
func ObserveChildDeletion(err error) {
	childDeletions.WithLabelValues(outcome(err)).Inc()
}

// ObserveOrphanSwept counts one sweeper attempt.
func ObserveOrphanSwept(err error) {
	orphansSwept.WithLabelValues(outcome(err)).Inc()
}

// SetBroadcastClients reports the number of connected websocket clients.
func SetBroadcastClients(n int) {
	broadcastClients.Set(float64(n))
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the middleware
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware records request counts and latencies keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// route pattern keeps label cardinality bounded
		path := r.URL.Path
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
