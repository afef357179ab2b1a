// The dashboard server: a web front end over the Zendesk API with a Redis
// read-through cache between them.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/cache"
	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/fetch"
	"github.com/deskmetrics/zendesk-dashboard/internal/handlers"
	"github.com/deskmetrics/zendesk-dashboard/internal/middleware"
	"github.com/deskmetrics/zendesk-dashboard/internal/router"
	"github.com/deskmetrics/zendesk-dashboard/internal/zendesk"
)

const templatesGlob = "web/templates/*"

func main() {
	// Missing .env is the normal case in containers; variables come from
	// the orchestrator there.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if !cfg.Zendesk.Configured() {
		log.Warn("Zendesk credentials incomplete, pages will show configuration status only")
	}

	cacheManager := cache.NewManager(cfg, log)
	defer cacheManager.Close()

	client := zendesk.NewClient(cfg.Zendesk, log)
	fetcher := fetch.NewFetcher(cacheManager, client, cfg, log)
	invalidator := fetch.NewInvalidator(cacheManager, cfg, log)
	limiter := middleware.NewRateLimiter(cacheManager, cfg.RateLimit, log)

	h := handlers.New(fetcher, invalidator, cacheManager, client, cfg, log)
	engine := router.New(h, limiter, cfg, log, templatesGlob)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}
