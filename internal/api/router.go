package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hifztracker/internal/httpmiddleware"
	"hifztracker/internal/logger"
	"hifztracker/internal/metrics"
)

// RouterOptions configures middleware around the API.
type RouterOptions struct {
	CORSOrigins     []string
	RateLimitPerMin int
}

// NewRouter wires the handler into a gin engine with recovery, logging,
// metrics, CORS, security headers and rate limiting.
func NewRouter(h *Handler, log *logger.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(log, "/healthz", "/metrics"))
	r.Use(metrics.GinMiddleware())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	if opts.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/students", h.AddStudent)
		v1.GET("/students", h.ListStudents)
		v1.DELETE("/students/:id", h.DeleteStudent)

		v1.GET("/days/:date/sheet", h.Sheet)
		v1.POST("/days/:date/logs", h.SubmitLogs)
		v1.GET("/days/:date/logs", h.GetLogsForDate)

		v1.GET("/logs", h.ListLogs)
		v1.GET("/logs/export", h.ExportCSV)

		v1.POST("/exports", h.PrepareExport)
		v1.GET("/exports/:id", h.GetExport)
		v1.GET("/exports/:id/download", h.DownloadExport)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
