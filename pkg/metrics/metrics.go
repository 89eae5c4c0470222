// Package metrics exposes the Prometheus collectors shared by the HTTP layer,
// the database logger and the domain features.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursehub"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests processed, partitioned by route, method and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_query_duration_seconds",
		Help:      "Database query latency by operation and table.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table"})

	enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Enrollment attempts by outcome.",
	}, []string{"outcome"})

	wishlistOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wishlist_operations_total",
		Help:      "Wishlist mutations by operation.",
	}, []string{"operation"})

	courseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "course_status_transitions_total",
		Help:      "Course status changes by target status.",
	}, []string{"status"})

	mediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Uploads to the media host by kind and outcome.",
	}, []string{"kind", "outcome"})

	catalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_requests_total",
		Help:      "Catalog cache lookups by result.",
	}, []string{"result"})
)

// Middleware records request count, latency and in-flight gauge per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordDBQuery observes a single database round trip.
func RecordDBQuery(operation, table string, elapsed time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}

// RecordEnrollment counts an enrollment attempt; outcome is "created", "duplicate" or "failed".
func RecordEnrollment(outcome string) {
	enrollments.WithLabelValues(outcome).Inc()
}

// RecordWishlist counts a wishlist mutation ("add" or "remove").
func RecordWishlist(operation string) {
	wishlistOps.WithLabelValues(operation).Inc()
}

// RecordCourseTransition counts a course moving into status.
func RecordCourseTransition(status string) {
	courseTransitions.WithLabelValues(status).Inc()
}

// RecordMediaUpload counts an upload attempt.
func RecordMediaUpload(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mediaUploads.WithLabelValues(kind, outcome).Inc()
}

// RecordCatalogCache counts a cache lookup ("hit", "miss" or "error").
func RecordCatalogCache(result string) {
	catalogCache.WithLabelValues(result).Inc()
}
