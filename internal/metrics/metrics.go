// Package metrics provides Prometheus metrics for the dirserve server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dirserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// File transfer metrics
	fileBytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dirserve_file_bytes_served_total",
			Help: "Total bytes streamed to clients",
		},
	)

	filesServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_files_served_total",
			Help: "Total number of file responses by outcome",
		},
		[]string{"status"},
	)

	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_listings_total",
			Help: "Total number of directory listings rendered",
		},
		[]string{"status"},
	)

	sniffResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_sniff_results_total",
			Help: "Binary sniff results",
		},
		[]string{"result"},
	)

	wsClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dirserve_ws_clients_active",
			Help: "Number of connected live-reload clients",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordFileServed records a file response and the bytes written for it.
func RecordFileServed(bytes int64, status string) {
	fileBytesServed.Add(float64(bytes))
	filesServedTotal.WithLabelValues(status).Inc()
}

// RecordListing records a rendered directory listing.
func RecordListing(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	listingsTotal.WithLabelValues(status).Inc()
}

// RecordSniff records a binary classification result.
func RecordSniff(binary bool) {
	result := "text"
	if binary {
		result = "binary"
	}
	sniffResultsTotal.WithLabelValues(result).Inc()
}

// SetWSClients sets the number of connected live-reload clients.
func SetWSClients(n int) {
	wsClientsActive.Set(float64(n))
}
