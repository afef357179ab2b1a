package fetch

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/cache"
	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/metrics"
	"github.com/deskmetrics/zendesk-dashboard/internal/zendesk"
)

// API is the slice of the Zendesk client the fetchers consume.
type API interface {
	RecentTickets(ctx context.Context, count int) ([]zendesk.Ticket, error)
	SearchTickets(ctx context.Context, query string) ([]zendesk.Ticket, error)
	TicketComments(ctx context.Context, ticketID int64) ([]zendesk.Comment, error)
	ShowManyUsers(ctx context.Context, ids []int64) ([]zendesk.User, error)
}

// Fetcher implements the read-through pattern for every cached resource:
// check cache, on miss call Zendesk, enrich, write back best-effort, and
// tag the result with its origin. Fetchers hold no per-request state; all
// shared state lives in Redis.
type Fetcher struct {
	cache *cache.Manager
	api   API
	fmtr  Formatter
	cfg   *config.Config
	log   *logrus.Logger
}

func NewFetcher(c *cache.Manager, api API, cfg *config.Config, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		cache: c,
		api:   api,
		fmtr:  NewFormatter(cfg.Display),
		cfg:   cfg,
		log:   log,
	}
}

// Formatter exposes the display rules for handlers that format outside a
// fetch (dashboard percentages page).
func (f *Fetcher) Formatter() Formatter {
	return f.fmtr
}

// RecentTickets returns the newest tickets enriched for display.
func (f *Fetcher) RecentTickets(ctx context.Context) ([]DisplayTicket, Origin, error) {
	key := f.cache.Keys.RecentTickets(f.cfg.Cache.RecentCount)

	var cached []DisplayTicket
	if f.cache.GetDeserialized(ctx, key, &cached) && len(cached) > 0 {
		metrics.CacheHits.WithLabelValues(cache.RecentTickets.String()).Inc()
		return cached, CacheHit, nil
	}

	// A dead backend means every request would hammer the API; degrade to
	// an explicit empty result instead.
	if !f.cache.IsConnected(ctx) {
		return nil, BackendUnavailable, nil
	}
	metrics.CacheMisses.WithLabelValues(cache.RecentTickets.String()).Inc()

	tickets, err := f.api.RecentTickets(ctx, f.cfg.Cache.RecentCount)
	if err != nil {
		return nil, f.classify(cache.RecentTickets, err), err
	}

	display := f.enrichTickets(ctx, tickets)

	f.writeBack(ctx, key, display, cache.RecentTickets)
	return display, APICall, nil
}

// TicketComments returns one ticket's comment thread with authors resolved.
func (f *Fetcher) TicketComments(ctx context.Context, ticketID int64) ([]DisplayComment, Origin, error) {
	key := f.cache.Keys.TicketComments(ticketID)

	var cached []DisplayComment
	if f.cache.GetDeserialized(ctx, key, &cached) && len(cached) > 0 {
		metrics.CacheHits.WithLabelValues(cache.TicketComments.String()).Inc()
		return cached, CacheHit, nil
	}

	if !f.cache.IsConnected(ctx) {
		return nil, BackendUnavailable, nil
	}
	metrics.CacheMisses.WithLabelValues(cache.TicketComments.String()).Inc()

	comments, err := f.api.TicketComments(ctx, ticketID)
	if err != nil {
		return nil, f.classify(cache.TicketComments, err), err
	}

	users := f.userNames(ctx, commentAuthorIDs(comments))
	display := make([]DisplayComment, 0, len(comments))
	for _, c := range comments {
		display = append(display, f.fmtr.Comment(c, users))
	}

	f.writeBack(ctx, key, display, cache.TicketComments)
	return display, APICall, nil
}

// UserNames resolves user IDs to display names through its own read-through
// cache. The ids slice must be sorted and deduplicated (collectUserIDs does
// both) so the derived key is stable for a given set.
func (f *Fetcher) UserNames(ctx context.Context, ids []int64) (map[int64]string, Origin, error) {
	if len(ids) == 0 {
		return map[int64]string{}, CacheHit, nil
	}

	key := f.cache.GenerateKey("zendesk:users:batch", map[string]any{"ids": ids})

	var cached map[int64]string
	if f.cache.GetDeserialized(ctx, key, &cached) && len(cached) > 0 {
		metrics.CacheHits.WithLabelValues(cache.UserBatch.String()).Inc()
		return cached, CacheHit, nil
	}

	if !f.cache.IsConnected(ctx) {
		return nil, BackendUnavailable, nil
	}
	metrics.CacheMisses.WithLabelValues(cache.UserBatch.String()).Inc()

	users, err := f.api.ShowManyUsers(ctx, ids)
	if err != nil {
		return nil, f.classify(cache.UserBatch, err), err
	}

	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	f.writeBack(ctx, key, names, cache.UserBatch)
	return names, APICall, nil
}

// enrichTickets resolves every involved user and formats the tickets. A
// failed user lookup only loses the names; the tickets still render with
// the Unknown/Unassigned placeholders.
func (f *Fetcher) enrichTickets(ctx context.Context, tickets []zendesk.Ticket) []DisplayTicket {
	users := f.userNames(ctx, collectUserIDs(tickets))

	display := make([]DisplayTicket, 0, len(tickets))
	for _, t := range tickets {
		display = append(display, f.fmtr.Ticket(t, users))
	}
	return display
}

func (f *Fetcher) userNames(ctx context.Context, ids []int64) map[int64]string {
	names, _, err := f.UserNames(ctx, ids)
	if err != nil {
		f.log.WithError(err).Warn("user lookup failed, rendering without names")
		return map[int64]string{}
	}
	return names
}

// writeBack caches a fetch result with the resource's TTL. Best-effort: a
// failed write is logged and the fresh data is still returned.
func (f *Fetcher) writeBack(ctx context.Context, key string, value any, kind cache.ResourceKind) {
	if !f.cache.SetSerialized(ctx, key, value, f.cache.TTL.For(kind)) {
		f.log.WithFields(logrus.Fields{
			"key":      key,
			"resource": kind.String(),
		}).Warn("cache write-back failed")
	}
}

// classify maps an upstream error to its origin tag.
func (f *Fetcher) classify(kind cache.ResourceKind, err error) Origin {
	metrics.UpstreamErrors.WithLabelValues(kind.String()).Inc()

	var statusErr *zendesk.StatusError
	if errors.As(err, &statusErr) {
		f.log.WithFields(logrus.Fields{
			"resource": kind.String(),
			"status":   statusErr.StatusCode,
		}).Error("zendesk rejected the request")
		return APIError
	}

	f.log.WithError(err).WithField("resource", kind.String()).Error("zendesk call failed")
	return UnexpectedError
}
