// Package router assembles the gin engine: middleware order, route table,
// and template loading.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/handlers"
	"github.com/deskmetrics/zendesk-dashboard/internal/middleware"
)

// New builds the engine with every route wired. templatesGlob points at the
// HTML templates; tests pass a path relative to their package.
func New(h *handlers.Handlers, limiter *middleware.RateLimiter, cfg *config.Config, log *logrus.Logger, templatesGlob string) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(log))
	r.LoadHTMLGlob(templatesGlob)

	r.GET("/", h.Index)
	r.GET("/dashboard", h.Dashboard)
	r.POST("/dashboard", h.Dashboard)

	r.GET("/api/tickets/:id/comments", h.Comments)
	r.GET("/health/cache", h.CacheHealth)
	r.GET("/debug-api", h.DebugAPI)

	// The webhook is the only route behind the rate limiter; everything
	// else is read-only and already shielded by the cache.
	r.POST("/zendesk-webhook", limiter.Middleware(), h.Webhook)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
