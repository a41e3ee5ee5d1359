// Package http assembles the HTTP API: router, middleware chain and server
// lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patreg-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/patreg-insight/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies needed to
// build the route tree.
type RouterConfig struct {
	PatentHandler *handlers.PatentHandler
	PersonHandler *handlers.PersonHandler
	FilterHandler *handlers.FilterHandler
	ExportHandler *handlers.ExportHandler
	HealthHandler *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter constructs the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.Logging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Live)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		patents := api.Group("/patents")
		{
			patents.GET("", cfg.PatentHandler.List)
			patents.GET("/stats", cfg.PatentHandler.Stats)
			if cfg.ExportHandler != nil {
				patents.GET("/export", cfg.ExportHandler.Patents)
			}
			patents.GET("/:kind/:reg_number", cfg.PatentHandler.Get)
		}

		persons := api.Group("/persons")
		{
			persons.GET("", cfg.PersonHandler.List)
			persons.GET("/stats", cfg.PersonHandler.Stats)
			persons.GET("/:tax_number", cfg.PersonHandler.Get)
		}

		filters := api.Group("/filters")
		{
			filters.GET("", cfg.FilterHandler.List)
			filters.POST("", cfg.FilterHandler.Upload)
			filters.GET("/:id", cfg.FilterHandler.Get)
			filters.PATCH("/:id", cfg.FilterHandler.Rename)
			filters.DELETE("/:id", cfg.FilterHandler.Delete)
		}
	}

	return r
}
