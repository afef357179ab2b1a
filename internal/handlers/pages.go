package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskmetrics/zendesk-dashboard/internal/fetch"
)

// configStatus is what the index page shows about the upstream credentials.
// Values are presence indicators only; the key itself never reaches a
// template.
type configStatus struct {
	Subdomain string
	User      string
	APIKeySet bool
	Ready     bool
}

func (h *Handlers) status() configStatus {
	z := h.cfg.Zendesk
	s := configStatus{
		Subdomain: z.Subdomain,
		User:      z.User,
		APIKeySet: z.APIKey != "",
		Ready:     z.Configured(),
	}
	if s.Subdomain == "" {
		s.Subdomain = "Not configured"
	}
	if s.User == "" {
		s.User = "Not configured"
	}
	return s
}

// Index renders the landing page: credential status plus the most recent
// tickets when the upstream is configured.
func (h *Handlers) Index(c *gin.Context) {
	status := h.status()

	data := gin.H{
		"Status": status,
	}

	if status.Ready {
		tickets, origin, err := h.fetcher.RecentTickets(c.Request.Context())
		data["Tickets"] = tickets
		data["Source"] = string(origin)
		if msg := originMessage(origin, err); msg != "" {
			data["TicketsError"] = msg
		}
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// Dashboard renders the KPI page. GET shows the month-to-date defaults;
// POST re-renders for the submitted range. A rejected range never reaches
// the upstream: the page comes back with the validation message and the
// previous inputs intact.
func (h *Handlers) Dashboard(c *gin.Context) {
	startInput := formValue(c, "start_date")
	endInput := formValue(c, "end_date")

	var (
		r   fetch.DateRange
		err error
	)
	if startInput == "" && endInput == "" {
		r = fetch.DefaultRange(time.Now())
		startInput = r.Start.Format("2006-01-02")
		endInput = r.End.Format("2006-01-02")
	} else {
		r, err = fetch.ParseDateRange(startInput, endInput)
		if err != nil {
			h.renderDashboardError(c, startInput, endInput, err.Error())
			return
		}
	}

	if !h.cfg.Zendesk.Configured() {
		h.renderDashboardError(c, startInput, endInput,
			"Zendesk credentials are not configured")
		return
	}

	stats, origin, err := h.fetcher.DashboardStats(c.Request.Context(), r)
	if msg := originMessage(origin, err); msg != "" {
		h.renderDashboardError(c, startInput, endInput, msg)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Status":    h.status(),
		"StartDate": startInput,
		"EndDate":   endInput,
		"Stats":     stats,
		"Source":    string(origin),
		"Percent": gin.H{
			"New":     stats.Percent(stats.New),
			"Open":    stats.Percent(stats.Open),
			"Pending": stats.Percent(stats.Pending),
			"OnHold":  stats.Percent(stats.OnHold),
			"Solved":  stats.Percent(stats.Solved),
			"Closed":  stats.Percent(stats.Closed),
		},
	})
}

func (h *Handlers) renderDashboardError(c *gin.Context, start, end, msg string) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Status":    h.status(),
		"StartDate": start,
		"EndDate":   end,
		"Error":     msg,
	})
}

// formValue reads a field from the POST form first, then the query string,
// so both submission styles work.
func formValue(c *gin.Context, name string) string {
	if v := c.PostForm(name); v != "" {
		return v
	}
	return c.Query(name)
}
