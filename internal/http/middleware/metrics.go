package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// httpCollectors groups the HTTP instruments. Labels stay bounded: the path
// label is the registered gin route, and unmatched requests share one value.
type httpCollectors struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	size     *prometheus.HistogramVec
}

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

func newHTTPCollectors() *httpCollectors {
	return &httpCollectors{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		}),
		// The search artifact dominates the upper buckets.
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B .. 4MiB
		}, []string{"method", "path"}),
	}
}

func (m *httpCollectors) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.inflight, m.size}
}

var httpMetrics = newHTTPCollectors()

func init() {
	prometheus.MustRegister(httpMetrics.collectors()...)
}

// Metrics instruments every request with the HTTP collectors. Mount
// promhttp.Handler() separately to expose them.
func Metrics() gin.HandlerFunc {
	m := httpMetrics
	return func(c *gin.Context) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		method := c.Request.Method

		m.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written (204, 304).
		if size := c.Writer.Size(); size >= 0 {
			m.size.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
