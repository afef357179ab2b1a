package fetch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deskmetrics/zendesk-dashboard/internal/cache"
	"github.com/deskmetrics/zendesk-dashboard/internal/metrics"
	"github.com/deskmetrics/zendesk-dashboard/internal/zendesk"
)

const dateLayout = "2006-01-02"

// ValidationError is a rejected date range, detected before any network
// call and reported distinctly from upstream failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DateRange is an inclusive start/end day span.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange validates YYYY-MM-DD inputs and their ordering.
func ParseDateRange(start, end string) (DateRange, error) {
	sd, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, &ValidationError{
			Message: fmt.Sprintf("Invalid date format: '%s' or '%s'. Expected YYYY-MM-DD", start, end),
		}
	}
	ed, err := time.ParseInLocation(dateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, &ValidationError{
			Message: fmt.Sprintf("Invalid date format: '%s' or '%s'. Expected YYYY-MM-DD", start, end),
		}
	}
	if sd.After(ed) {
		return DateRange{}, &ValidationError{Message: "Start date cannot be after end date"}
	}
	return DateRange{Start: sd, End: ed}, nil
}

// DefaultRange is month-to-date: the first of the current month through
// today.
func DefaultRange(now time.Time) DateRange {
	year, month, _ := now.UTC().Date()
	return DateRange{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, month, now.UTC().Day(), 0, 0, 0, 0, time.UTC),
	}
}

// Key renders the range for the dashboard-stats cache key.
func (r DateRange) Key() string {
	return r.Start.Format(dateLayout) + ":" + r.End.Format(dateLayout)
}

// Chunks partitions the range into inclusive spans of at most chunkDays
// days each, respecting the upstream search query limit.
func (r DateRange) Chunks(chunkDays int) []DateRange {
	var chunks []DateRange
	for cur := r.Start; !cur.After(r.End); {
		end := cur.AddDate(0, 0, chunkDays-1)
		if end.After(r.End) {
			end = r.End
		}
		chunks = append(chunks, DateRange{Start: cur, End: end})
		cur = end.AddDate(0, 0, 1)
	}
	return chunks
}

// Stats is the aggregated KPI payload for a date range: per-status counts
// plus the per-status ticket lists the dashboard renders.
type Stats struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Open    int `json:"open"`
	Pending int `json:"pending"`
	OnHold  int `json:"on_hold"`
	Solved  int `json:"solved"`
	Closed  int `json:"closed"`

	NewTickets     []DisplayTicket `json:"new_tickets"`
	OpenTickets    []DisplayTicket `json:"open_tickets"`
	PendingTickets []DisplayTicket `json:"pending_tickets"`
	OnHoldTickets  []DisplayTicket `json:"on_hold_tickets"`
	SolvedTickets  []DisplayTicket `json:"solved_tickets"`
}

// Percent returns count as a percentage of the total, 0 for an empty range.
func (s *Stats) Percent(count int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(count) / float64(s.Total) * 100
}

// DashboardStats aggregates ticket KPIs over a date range, read-through
// cached under the range's key. Callers validate the range with
// ParseDateRange first, so no invalid input reaches this point.
func (f *Fetcher) DashboardStats(ctx context.Context, r DateRange) (*Stats, Origin, error) {
	key := f.cache.Keys.DashboardStats(r.Key())

	var cached Stats
	if f.cache.GetDeserialized(ctx, key, &cached) && cached.Total > 0 {
		metrics.CacheHits.WithLabelValues(cache.DashboardStats.String()).Inc()
		return &cached, CacheHit, nil
	}

	if !f.cache.IsConnected(ctx) {
		return nil, BackendUnavailable, nil
	}
	metrics.CacheMisses.WithLabelValues(cache.DashboardStats.String()).Inc()

	byStatus := map[string][]zendesk.Ticket{}
	total := 0

	for _, chunk := range r.Chunks(f.cfg.Cache.SearchChunkDays) {
		query := fmt.Sprintf("type:ticket created>=%sT00:00:00Z created<=%sT23:59:59Z",
			chunk.Start.Format(dateLayout), chunk.End.Format(dateLayout))

		tickets, err := f.api.SearchTickets(ctx, query)
		if err != nil {
			return nil, f.classify(cache.DashboardStats, err), err
		}

		for _, t := range tickets {
			total++
			status := strings.ToLower(t.Status)
			byStatus[status] = append(byStatus[status], t)
		}
	}

	stats := f.buildStats(ctx, total, byStatus)

	f.writeBack(ctx, key, stats, cache.DashboardStats)
	return stats, APICall, nil
}

func (f *Fetcher) buildStats(ctx context.Context, total int, byStatus map[string][]zendesk.Ticket) *Stats {
	// One user batch covers every listed ticket.
	var all []zendesk.Ticket
	for _, status := range []string{"new", "open", "pending", "on-hold", "solved"} {
		all = append(all, byStatus[status]...)
	}
	users := f.userNames(ctx, collectUserIDs(all))

	display := func(tickets []zendesk.Ticket) []DisplayTicket {
		sort.Slice(tickets, func(i, j int) bool {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		})
		out := make([]DisplayTicket, 0, len(tickets))
		for _, t := range tickets {
			out = append(out, f.fmtr.Ticket(t, users))
		}
		return out
	}

	return &Stats{
		Total:   total,
		New:     len(byStatus["new"]),
		Open:    len(byStatus["open"]),
		Pending: len(byStatus["pending"]),
		OnHold:  len(byStatus["on-hold"]),
		Solved:  len(byStatus["solved"]),
		Closed:  len(byStatus["closed"]),

		NewTickets:     display(byStatus["new"]),
		OpenTickets:    display(byStatus["open"]),
		PendingTickets: display(byStatus["pending"]),
		OnHoldTickets:  display(byStatus["on-hold"]),
		SolvedTickets:  display(byStatus["solved"]),
	}
}
