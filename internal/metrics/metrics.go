package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StudentsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hifz",
		Name:      "students_added_total",
		Help:      "Students created (duplicates excluded).",
	})

	// BatchesSubmitted is labelled by outcome: ok or an error kind.
	BatchesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hifz",
		Name:      "batches_submitted_total",
		Help:      "Daily batch submissions by outcome.",
	}, []string{"outcome"})

	LogRowsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hifz",
		Name:      "log_rows_written_total",
		Help:      "Daily log rows persisted.",
	})

	ExportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hifz",
		Name:      "export_jobs_total",
		Help:      "Finished export jobs by final status.",
	}, []string{"status"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hifz",
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hifz",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware records request latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
