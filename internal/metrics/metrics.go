package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "pattern", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climate_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "pattern"},
	)
)

// Database metrics
var (
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_db_queries_total",
			Help: "Total number of database queries executed",
		},
		[]string{"query", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climate_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)
)

// AppInfo is always 1; the version label carries the build version.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "climate_app_info",
		Help: "Application information (always 1)",
	},
	[]string{"version"},
)

func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version).Set(1)
}

// RecordDBQuery records one query execution started at start.
func RecordDBQuery(query string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueriesTotal.WithLabelValues(query, status).Inc()
	DBQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// RecordHTTPRequest records one handled request. An empty pattern means no
// route matched.
func RecordHTTPRequest(method, pattern string, status int, d time.Duration) {
	if pattern == "" {
		pattern = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, pattern).Observe(d.Seconds())
}
