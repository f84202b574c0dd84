package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)
	AIRequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_request_errors_total",
			Help: "Total number of failed AI requests by error class",
		},
		[]string{"provider", "class"},
	)

	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of match scoring requests by outcome",
		},
		[]string{"outcome"},
	)
	MatchScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_overall_score",
			Help:    "Distribution of overall match scores [0,100]",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	MatchCacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_cache_ops_total",
			Help: "Match cache operations by layer and result",
		},
		[]string{"layer", "result"},
	)

	AnalyzeTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_analyze_tasks_total",
			Help: "CV analysis tasks processed by status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// InitMetrics registers all Prometheus collectors once per process.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AIRequestErrorsTotal,
			MatchRequestsTotal,
			MatchScoreHistogram,
			MatchCacheOps,
			AnalyzeTasksTotal,
		)
	})
}

// HTTPMetricsMiddleware records request counters and latency per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
