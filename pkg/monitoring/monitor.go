package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)
)

var (
	// ActivityDropped 未能落库的行为事件，按原因区分
	ActivityDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_activity_dropped_total",
			Help: "Activity events that were not persisted",
		},
		[]string{"reason"},
	)

	ProgressWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "personalization_progress_write_failures_total",
			Help: "Reading progress upserts that failed in storage",
		},
	)

	RecommendationsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_recommendations_total",
			Help: "Recommendation candidates returned, by reason",
		},
		[]string{"reason"},
	)

	DashboardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "personalization_dashboard_build_seconds",
			Help:    "Duration of dashboard aggregation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"outcome"},
	)

	ActivityArchived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "personalization_activity_archived_total",
			Help: "Activity events archived and pruned by the retention job",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ActivityDropped)
	prometheus.MustRegister(ProgressWriteFailures)
	prometheus.MustRegister(RecommendationsServed)
	prometheus.MustRegister(DashboardDuration)
	prometheus.MustRegister(ActivityArchived)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
