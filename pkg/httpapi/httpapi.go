// Package httpapi exposes a read-only view over the running
// JobTrackers: per-type status, an aggregate health check, and the
// prometheus scrape endpoint — grounded on the teacher's gin router
// and metrics middleware conventions.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llnl/mummi-workflow-core/pkg/jobtracker"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mummi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served by the status API",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mummi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)

// TrackerSource supplies the current set of trackers the API reports
// on; pkg/control's Loop implements this directly.
type TrackerSource interface {
	Trackers() map[string]*jobtracker.Tracker
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// NewEngine builds a gin engine serving /health, /v1/status,
// /v1/status/:type and /metrics. It does not change gin's mode, and
// neither does its caller in cmd/serve.go.
func NewEngine(source TrackerSource) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), metricsMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	v1.GET("/status", func(c *gin.Context) {
		out := make(map[string]jobtracker.Status)
		for name, t := range source.Trackers() {
			out[name] = t.Status()
		}
		c.JSON(http.StatusOK, out)
	})
	v1.GET("/status/:type", func(c *gin.Context) {
		t, ok := source.Trackers()[c.Param("type")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown job type"})
			return
		}
		c.JSON(http.StatusOK, t.Status())
	})

	log.Info("httpapi: routes registered (/health, /metrics, /v1/status, /v1/status/:type)")
	return engine
}
