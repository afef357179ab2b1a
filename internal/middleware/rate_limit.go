package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/cache"
	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/metrics"
)

// KeyFunc derives the rate-limit identity for a request.
type KeyFunc func(*gin.Context) string

// RateLimiter caps mutation events per client identity using a counter in
// the shared Redis backend. The counter is read-then-write, not an atomic
// increment: concurrent bursts can exceed the ceiling by a small margin,
// which is acceptable for abuse prevention. A down backend fails open.
type RateLimiter struct {
	cache   *cache.Manager
	ceiling int
	window  time.Duration
	keyFn   KeyFunc
	log     *logrus.Logger
}

func NewRateLimiter(c *cache.Manager, cfg config.RateLimitConfig, log *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		cache:   c,
		ceiling: cfg.WebhookCeiling,
		window:  cfg.WebhookWindow,
		keyFn:   ClientIdentity,
		log:     log,
	}
}

// ClientIdentity resolves who is knocking: the peer network address,
// falling back to X-Forwarded-For, falling back to "unknown".
func ClientIdentity(c *gin.Context) string {
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && host != "" {
		return host
	}
	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return "unknown"
}

// Middleware rejects requests beyond the ceiling with 429. A rejected
// request leaves no side effects: the counter is not touched and nothing
// downstream runs.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := rl.keyFn(c)
		key := rl.cache.Keys.WebhookRate(identity)
		ctx := c.Request.Context()

		var count int
		rl.cache.GetDeserialized(ctx, key, &count) // miss or dead backend reads as zero

		if count >= rl.ceiling {
			metrics.WebhookRejected.Inc()
			rl.log.WithFields(logrus.Fields{
				"identity": identity,
				"count":    count,
			}).Warn("webhook rate limit exceeded")

			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		if !rl.cache.SetSerialized(ctx, key, count+1, rl.window) {
			rl.log.WithField("identity", identity).Debug("rate counter write failed, failing open")
		}

		c.Next()
	}
}
