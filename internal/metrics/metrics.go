// Package metrics holds the Prometheus collectors of the exam backend.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SessionEvents counts session lifecycle transitions (started, answered, finished, tab_switch).
	SessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_session_events_total",
			Help: "Exam session lifecycle events",
		},
		[]string{"event"},
	)

	// WorkerItems counts queue items handled by background workers, by outcome.
	WorkerItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_items_total",
			Help: "Queue items processed by background workers",
		},
		[]string{"worker", "outcome"},
	)

	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exam_ws_connections",
		Help: "Open candidate WebSocket connections",
	})
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call twice.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, SessionEvents, WorkerItems, WSConnections)
	})
}

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
