package cache

import (
	"fmt"
	"time"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
)

// ResourceKind identifies a logical cached resource. Each kind maps to
// exactly one key template and one TTL.
type ResourceKind int

const (
	RecentTickets ResourceKind = iota
	TicketComments
	UserBatch
	DashboardStats
	WebhookRateLimit
	APIRateLimit
)

func (k ResourceKind) String() string {
	switch k {
	case RecentTickets:
		return "recent_tickets"
	case TicketComments:
		return "ticket_comments"
	case UserBatch:
		return "user_batch"
	case DashboardStats:
		return "dashboard_stats"
	case WebhookRateLimit:
		return "webhook_rate_limit"
	case APIRateLimit:
		return "api_rate_limit"
	default:
		return "unknown"
	}
}

// Keys builds concrete cache keys from the per-kind templates. Every
// parameter a template names must be bound through the corresponding method;
// there is no way to obtain a partially bound key.
type Keys struct{}

func (Keys) RecentTickets(count int) string {
	return fmt.Sprintf("zendesk:tickets:recent:%d", count)
}

func (Keys) TicketComments(ticketID int64) string {
	return fmt.Sprintf("zendesk:tickets:%d:comments", ticketID)
}

// UserBatch keys on a hash of the requested ID set; callers derive userHash
// with Manager.GenerateKey over the sorted IDs so that the same set always
// lands on the same key.
func (Keys) UserBatch(userHash string) string {
	return fmt.Sprintf("zendesk:users:batch:%s", userHash)
}

func (Keys) DashboardStats(dateRange string) string {
	return fmt.Sprintf("zendesk:dashboard:stats:%s", dateRange)
}

func (Keys) WebhookRate(identifier string) string {
	return fmt.Sprintf("zendesk:webhook:rate:%s", identifier)
}

func (Keys) APIRate(endpoint string) string {
	return fmt.Sprintf("zendesk:api:rate:%s", endpoint)
}

// TTLPolicy resolves the TTL for a resource kind from configuration.
type TTLPolicy struct {
	cfg config.CacheConfig
	rl  config.RateLimitConfig
}

func NewTTLPolicy(cfg config.CacheConfig, rl config.RateLimitConfig) TTLPolicy {
	return TTLPolicy{cfg: cfg, rl: rl}
}

func (p TTLPolicy) For(kind ResourceKind) time.Duration {
	switch kind {
	case RecentTickets:
		return p.cfg.RecentTicketsTTL
	case TicketComments:
		return p.cfg.TicketCommentsTTL
	case UserBatch:
		return p.cfg.UserBatchTTL
	case DashboardStats:
		return p.cfg.DashboardStatsTTL
	case WebhookRateLimit:
		return p.rl.WebhookWindow
	case APIRateLimit:
		return p.rl.APIWindow
	default:
		return 5 * time.Minute
	}
}
