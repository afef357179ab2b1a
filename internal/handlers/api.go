package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/fetch"
)

// Comments serves one ticket's comment thread as JSON, tagged with where
// the data came from.
func (h *Handlers) Comments(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || ticketID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket id must be a positive integer"})
		return
	}

	comments, origin, err := h.fetcher.TicketComments(c.Request.Context(), ticketID)

	switch origin {
	case fetch.CacheHit, fetch.APICall:
		c.JSON(http.StatusOK, gin.H{
			"ticket_id": ticketID,
			"comments":  comments,
			"count":     len(comments),
			"source":    string(origin),
		})
	case fetch.BackendUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  originMessage(origin, err),
			"source": string(origin),
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  originMessage(origin, err),
			"source": string(origin),
		})
	}
}

// CacheHealth reports backend connectivity and the server-lifetime hit rate.
func (h *Handlers) CacheHealth(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"connected":        h.cache.IsConnected(ctx),
		"hit_rate_percent": h.cache.HitRate(ctx),
	})
}

// webhookPayload is the slice of a Zendesk trigger body the invalidator
// needs. Unknown fields are ignored so trigger payload changes upstream
// do not break ingestion.
type webhookPayload struct {
	Type   string `json:"type"`
	Ticket struct {
		ID int64 `json:"id"`
	} `json:"ticket"`
}

// Webhook ingests ticket mutation events and drops the cache entries they
// made stale. Acknowledged with 200 regardless of which keys existed, so
// the sender does not retry.
func (h *Handlers) Webhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed webhook payload"})
		return
	}

	h.log.WithFields(logrus.Fields{
		"type":      payload.Type,
		"ticket_id": payload.Ticket.ID,
	}).Info("webhook received")

	h.inv.OnTicketMutation(c.Request.Context(), payload.Ticket.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"ticket_id": payload.Ticket.ID,
	})
}

// DebugAPI probes the upstream with a minimal authenticated call and
// reports the outcome, for diagnosing credential problems in place.
func (h *Handlers) DebugAPI(c *gin.Context) {
	if !h.cfg.Zendesk.Configured() {
		c.JSON(http.StatusOK, gin.H{
			"configured": false,
			"error":      "Zendesk credentials are not configured",
		})
		return
	}

	status, err := h.prober.Probe(c.Request.Context())
	payload := gin.H{
		"configured":  true,
		"status_code": status,
		"reachable":   err == nil,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(http.StatusOK, payload)
}
