package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Label cardinality stays bounded: path is the registered Gin route (raw URL
// only when nothing matched), status is the numeric code.
var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Form API responses are small JSON documents.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: []float64{64, 128, 256, 512, 1 << 10, 2 << 10, 5 << 10, 10 << 10, 50 << 10},
		},
		[]string{"method", "path"},
	)

	// gateRejections counts requests stopped by EdgeGate, by reason
	// (rate_limited_api, rate_limited_form, invalid_origin).
	gateRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_gate_rejections_total",
			Help: "Requests rejected by the API edge gate.",
		},
		[]string{"reason"},
	)

	// rateLimitStoreErrors counts store failures that were let through.
	rateLimitStoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_store_errors_total",
			Help: "Rate-limit store failures (request allowed).",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, gateRejections, rateLimitStoreErrors)
}

// Metrics instruments requests with Prometheus:
//
//	http_requests_total(method, path, status)
//	http_request_duration_seconds(method, path)
//	http_requests_inflight
//	http_response_size_bytes(method, path)
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
