package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewdesk_backend_requests_total",
			Help: "Calls made to the verification backend",
		},
		[]string{"operation", "outcome"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewdesk_decisions_total",
			Help: "Accept/reject submissions by outcome",
		},
		[]string{"decision", "outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewdesk_http_requests_total",
			Help: "Total number of console HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reviewdesk_http_request_duration_seconds",
			Help:    "Console HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

func ObserveBackendCall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	backendRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func ObserveDecision(decision string, outcome string) {
	decisionsTotal.WithLabelValues(decision, outcome).Inc()
}

// HTTP records RED metrics keyed by the chi route pattern.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := routeLabel(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel keeps label cardinality bounded: requests that matched no route
// share one label instead of their raw path.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
