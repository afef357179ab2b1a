package zendesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
)

func testConfig() config.ZendeskConfig {
	return config.ZendeskConfig{
		Subdomain:     "example.zendesk.com",
		User:          "agent@example.com",
		APIKey:        "sekrit",
		LookupTimeout: 5 * time.Second,
		SearchTimeout: 10 * time.Second,
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testConfig(), testLogger(), WithBaseURL(srv.URL))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRecentTicketsTruncatesAndAuthenticates(t *testing.T) {
	var gotUser, gotPass string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		require.Equal(t, "/api/v2/tickets.json", r.URL.Path)
		assert.Equal(t, "created_at", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))

		tickets := make([]Ticket, 15)
		for i := range tickets {
			tickets[i] = Ticket{ID: int64(100 - i), Status: "open", Subject: "s"}
		}
		writeJSON(w, map[string]any{"tickets": tickets})
	})

	tickets, err := client.RecentTickets(context.Background(), 10)
	require.NoError(t, err)

	assert.Len(t, tickets, 10)
	assert.Equal(t, int64(100), tickets[0].ID)
	assert.Equal(t, "agent@example.com/token", gotUser)
	assert.Equal(t, "sekrit", gotPass)
}

func TestSearchTicketsFollowsPagination(t *testing.T) {
	var srv *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/search.json", func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Query().Get("query"), "type:ticket")
		writeJSON(w, map[string]any{
			"results":   []Ticket{{ID: 1, Status: "open"}, {ID: 2, Status: "solved"}},
			"next_page": srv.URL + "/api/v2/search.json/page2",
		})
	})
	mux.HandleFunc("/api/v2/search.json/page2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"results": []Ticket{{ID: 3, Status: "pending"}},
		})
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(testConfig(), testLogger(), WithBaseURL(srv.URL))

	tickets, err := client.SearchTickets(context.Background(), "type:ticket created>=2024-01-01")
	require.NoError(t, err)

	require.Len(t, tickets, 3)
	assert.Equal(t, int64(3), tickets[2].ID)
}

func TestTicketComments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/tickets/88/comments.json", r.URL.Path)
		writeJSON(w, map[string]any{
			"comments": []Comment{
				{ID: 1, AuthorID: 7, Body: "first"},
				{ID: 2, AuthorID: 9, Body: "second"},
			},
		})
	})

	comments, err := client.TicketComments(context.Background(), 88)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
}

func TestShowManyUsersChunks(t *testing.T) {
	var calls []int

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/users/show_many.json", r.URL.Path)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		calls = append(calls, len(ids))

		users := make([]User, len(ids))
		for i, id := range ids {
			users[i] = User{Name: "user " + id}
		}
		writeJSON(w, map[string]any{"users": users})
	})

	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	users, err := client.ShowManyUsers(context.Background(), ids)
	require.NoError(t, err)

	assert.Len(t, users, 150)
	assert.Equal(t, []int{100, 50}, calls)
}

func TestShowManyUsersEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty ID set")
	})

	users, err := client.ShowManyUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestStatusErrorOnNon200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.RecentTickets(context.Background(), 10)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestTransportErrorIsNotStatusError(t *testing.T) {
	client := NewClient(testConfig(), testLogger(), WithBaseURL("http://127.0.0.1:1"))

	_, err := client.RecentTickets(context.Background(), 10)
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(config.ZendeskConfig{}, testLogger())

	_, err := client.RecentTickets(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Probe(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProbeReportsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `{"tickets":[]}`)
	})

	status, err := client.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}
