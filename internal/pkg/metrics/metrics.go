package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendly_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendly_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	punchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendly_punch_outcomes_total",
		Help: "Count of punch attempts by operation and outcome",
	}, []string{"operation", "outcome"})

	reconciledDays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendly_reconciled_days_total",
		Help: "Attendance days synthesized or skipped by leave reconciliation",
	}, []string{"result"})
)

// ObservePunch records the outcome of a punch operation. Outcome is "success"
// or a typed rejection reason ("already_marked", "face_mismatch", ...).
func ObservePunch(operation, outcome string) {
	punchOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ObserveReconciledDay records one day handled by the leave reconciler,
// result is "created" or "skipped".
func ObserveReconciledDay(result string) {
	reconciledDays.WithLabelValues(result).Inc()
}

// Middleware instruments HTTP requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		dur := time.Since(start)
		status := strconv.Itoa(ww.status)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
