package fetch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/cache"
	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/metrics"
)

// Invalidator removes cache entries made stale by a ticket mutation.
// Deletion is best-effort: failures are logged and the entry expires via
// its TTL as the backstop.
type Invalidator struct {
	cache *cache.Manager
	cfg   *config.Config
	log   *logrus.Logger
	now   func() time.Time
}

func NewInvalidator(c *cache.Manager, cfg *config.Config, log *logrus.Logger) *Invalidator {
	return &Invalidator{cache: c, cfg: cfg, log: log, now: time.Now}
}

// OnTicketMutation drops the recent-tickets list, the mutated ticket's
// comment thread when an ID is known, and the month-to-date dashboard
// stats. ticketID <= 0 means the event carried no identifier.
func (inv *Invalidator) OnTicketMutation(ctx context.Context, ticketID int64) {
	keys := []string{
		inv.cache.Keys.RecentTickets(inv.cfg.Cache.RecentCount),
		inv.cache.Keys.DashboardStats(DefaultRange(inv.now()).Key()),
	}
	if ticketID > 0 {
		keys = append(keys, inv.cache.Keys.TicketComments(ticketID))
	}

	for _, key := range keys {
		if inv.cache.Delete(ctx, key) {
			metrics.Invalidations.Inc()
			inv.log.WithField("key", key).Debug("cache entry invalidated")
		}
	}
}
