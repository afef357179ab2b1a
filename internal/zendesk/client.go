package zendesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
)

// userChunkSize caps the IDs per show_many call, the documented Zendesk
// limit per request.
const userChunkSize = 100

// StatusError is a non-2xx response from the Zendesk API. It is distinct
// from transport errors so callers can tell an upstream rejection from an
// unreachable upstream.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("zendesk returned status %d for %s", e.StatusCode, e.URL)
}

// ErrNotConfigured is returned when credentials are missing; callers treat
// it as a configuration state, not an upstream failure.
var ErrNotConfigured = errors.New("zendesk credentials not configured")

// Client calls the Zendesk REST API with token basic auth. Single-entity
// lookups and bulk search calls run on separate HTTP clients so their
// timeouts can differ.
type Client struct {
	cfg     config.ZendeskConfig
	baseURL string
	lookup  *http.Client
	search  *http.Client
	log     *logrus.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests to point at a
// local server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

func NewClient(cfg config.ZendeskConfig, log *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		baseURL: "https://" + cfg.Subdomain,
		lookup:  &http.Client{Timeout: cfg.LookupTimeout},
		search:  &http.Client{Timeout: cfg.SearchTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has usable credentials.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// RecentTickets lists tickets sorted newest first, truncated to count.
func (c *Client) RecentTickets(ctx context.Context, count int) ([]Ticket, error) {
	var resp ticketsResponse
	u := c.baseURL + "/api/v2/tickets.json?sort_by=created_at&sort_order=desc"
	if err := c.getJSON(ctx, c.search, u, &resp); err != nil {
		return nil, err
	}

	if len(resp.Tickets) > count {
		resp.Tickets = resp.Tickets[:count]
	}
	return resp.Tickets, nil
}

// SearchTickets runs a structured search query and follows next_page
// cursors until the result set is exhausted.
func (c *Client) SearchTickets(ctx context.Context, query string) ([]Ticket, error) {
	u := c.baseURL + "/api/v2/search.json?query=" + url.QueryEscape(query)

	var all []Ticket
	for u != "" {
		var page searchResponse
		if err := c.getJSON(ctx, c.search, u, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		u = page.NextPage
	}
	return all, nil
}

// TicketComments fetches the comment thread of one ticket.
func (c *Client) TicketComments(ctx context.Context, ticketID int64) ([]Comment, error) {
	var resp commentsResponse
	u := fmt.Sprintf("%s/api/v2/tickets/%d/comments.json", c.baseURL, ticketID)
	if err := c.getJSON(ctx, c.lookup, u, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// ShowManyUsers resolves users by ID, chunking requests at the API's
// per-call limit. A failed chunk fails the whole lookup.
func (c *Client) ShowManyUsers(ctx context.Context, ids []int64) ([]User, error) {
	var all []User
	for start := 0; start < len(ids); start += userChunkSize {
		end := min(start+userChunkSize, len(ids))

		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, strconv.FormatInt(id, 10))
		}

		var resp usersResponse
		u := c.baseURL + "/api/v2/users/show_many.json?ids=" + strings.Join(parts, ",")
		if err := c.getJSON(ctx, c.lookup, u, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Users...)
	}
	return all, nil
}

// Probe issues a minimal one-ticket request and returns the HTTP status,
// used by the diagnostics endpoint.
func (c *Client) Probe(ctx context.Context) (int, error) {
	if !c.Configured() {
		return 0, ErrNotConfigured
	}

	req, err := c.newRequest(ctx, c.baseURL+"/api/v2/tickets.json?per_page=1")
	if err != nil {
		return 0, err
	}

	resp, err := c.lookup.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.User+"/token", c.cfg.APIKey)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, hc *http.Client, u string, dest any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := c.newRequest(ctx, u)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding zendesk response from %s: %w", u, err)
	}

	c.log.WithFields(logrus.Fields{
		"url":      req.URL.Path,
		"duration": time.Since(start),
	}).Debug("zendesk call completed")
	return nil
}
