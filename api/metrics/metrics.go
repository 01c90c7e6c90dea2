package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildInfo is set once at startup with the ldflags build values.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "netusage_build_info",
		Help: "Build information for the running binary.",
	}, []string{"version", "commit", "date"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netusage_http_request_duration_seconds",
		Help:    "HTTP request duration by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netusage_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	dbQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netusage_db_query_duration_seconds",
		Help:    "Database query duration.",
		Buckets: prometheus.DefBuckets,
	})

	dbQueryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netusage_db_query_errors_total",
		Help: "Total number of failed database queries.",
	})
)

// RecordDBQuery records the duration and outcome of one database query.
func RecordDBQuery(d time.Duration, err error) {
	dbQueryDuration.Observe(d.Seconds())
	if err != nil {
		dbQueryErrors.Inc()
	}
}

// Middleware instruments every request with duration and in-flight metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
