// Package handlers implements the HTTP surface: the HTML pages, the JSON
// APIs, and the mutation webhook. Every failure renders an explanatory
// message; no internal error escapes as a blank failure.
package handlers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/cache"
	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/fetch"
)

// Prober is the slice of the Zendesk client the diagnostics endpoint uses.
type Prober interface {
	Probe(ctx context.Context) (int, error)
}

// Handlers carries the dependencies of every route.
type Handlers struct {
	fetcher *fetch.Fetcher
	inv     *fetch.Invalidator
	cache   *cache.Manager
	prober  Prober
	cfg     *config.Config
	log     *logrus.Logger
}

func New(f *fetch.Fetcher, inv *fetch.Invalidator, c *cache.Manager, p Prober, cfg *config.Config, log *logrus.Logger) *Handlers {
	return &Handlers{
		fetcher: f,
		inv:     inv,
		cache:   c,
		prober:  p,
		cfg:     cfg,
		log:     log,
	}
}

// originMessage converts a degraded fetch origin into the message the
// surface shows. Origins carrying data return "".
func originMessage(origin fetch.Origin, err error) string {
	switch origin {
	case fetch.APIError:
		return fmt.Sprintf("API Error: %v", err)
	case fetch.UnexpectedError:
		return fmt.Sprintf("Error fetching data: %v", err)
	case fetch.BackendUnavailable:
		return "Cache temporarily unavailable, please retry shortly"
	default:
		return ""
	}
}
