package middleware

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	authRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)
	submissionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Student submissions created, by kind (activity or boss)",
		},
		[]string{"kind"},
	)
	submissionsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_reviewed_total",
			Help: "Teacher review decisions",
		},
		[]string{"decision"},
	)
	mysteryBoxesOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mystery_boxes_opened_total",
			Help: "Mystery boxes opened across all sessions",
		},
	)
)

// InitPrometheus registers the metrics. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(authRejections)
	prometheus.MustRegister(submissionsCreated)
	prometheus.MustRegister(submissionsReviewed)
	prometheus.MustRegister(mysteryBoxesOpened)
}

// RecordSubmissionCreated tracks a new submission by kind.
func RecordSubmissionCreated(isBoss bool) {
	kind := "activity"
	if isBoss {
		kind = "boss"
	}
	submissionsCreated.WithLabelValues(kind).Inc()
}

// RecordReviewDecision tracks an approve/reject decision.
func RecordReviewDecision(decision string) {
	submissionsReviewed.WithLabelValues(decision).Inc()
}

// RecordMysteryBoxOpened tracks a box opening.
func RecordMysteryBoxOpened() {
	mysteryBoxesOpened.Inc()
}

// MonitorMiddleware wraps the router to track all request stats
func MonitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{w, http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()

		// r.URL.Path keeps session ids out of the labels only because the
		// routes put them in query params, not the path.
		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, http.StatusText(ww.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(duration)

		if ww.statusCode == http.StatusUnauthorized {
			authRejections.WithLabelValues("401_unauthorized").Inc()
		} else if ww.statusCode == http.StatusForbidden {
			authRejections.WithLabelValues("403_forbidden").Inc()
		}
	})
}

// BasicAuthMiddleware protects /metrics
func BasicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		metricsUser := os.Getenv("METRICS_USER")
		metricsPass := os.Getenv("METRICS_PASS")

		if !ok || user != metricsUser || pass != metricsPass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
