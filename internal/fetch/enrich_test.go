package fetch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/zendesk"
)

func displayConfig() config.DisplayConfig {
	return config.Load().Display
}

func TestFormatTimeConvertsToDisplayZone(t *testing.T) {
	f := NewFormatter(displayConfig())

	utc := time.Date(2024, 3, 10, 18, 45, 30, 0, time.UTC)
	assert.Equal(t, "2024-03-10 14:45:30 EST", f.FormatTime(utc))
}

func TestFormatTimeZeroValue(t *testing.T) {
	f := NewFormatter(displayConfig())
	assert.Equal(t, "N/A", f.FormatTime(time.Time{}))
}

func TestTruncate(t *testing.T) {
	f := NewFormatter(displayConfig())

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short stays intact", "hello", 10, "hello"},
		{"exact length stays intact", "hello", 5, "hello"},
		{"long gets ellipsis", "hello world", 5, "hello..."},
		{"multibyte counts runes", "héllö wörld", 5, "héllö..."},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Truncate(tt.in, tt.max))
		})
	}
}

func TestTicketDisplayDefaults(t *testing.T) {
	f := NewFormatter(displayConfig())

	d := f.Ticket(zendesk.Ticket{ID: 7}, nil)

	assert.Equal(t, "No subject", d.SubjectShort)
	assert.Equal(t, "No description", d.DescriptionShort)
	assert.Equal(t, "Unknown", d.RequesterName)
	assert.Equal(t, "Unassigned", d.AssigneeName)
	assert.Equal(t, "N/A", d.CreatedAtFormatted)
}

func TestTicketDisplayTruncationLimits(t *testing.T) {
	f := NewFormatter(displayConfig())

	d := f.Ticket(zendesk.Ticket{
		Subject:     strings.Repeat("s", 100),
		Description: strings.Repeat("d", 200),
	}, nil)

	assert.Equal(t, strings.Repeat("s", 80)+"...", d.SubjectShort)
	assert.Equal(t, strings.Repeat("d", 150)+"...", d.DescriptionShort)
}

func TestCommentDisplay(t *testing.T) {
	f := NewFormatter(displayConfig())

	d := f.Comment(zendesk.Comment{
		ID:        3,
		AuthorID:  9,
		Body:      "thanks",
		CreatedAt: time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC),
	}, map[int64]string{9: "Dana Agent"})

	assert.Equal(t, "Dana Agent", d.AuthorName)
	assert.Equal(t, "2024-03-01 00:00:00 EST", d.CreatedAtFormatted)
}

func TestCommentAuthorIDs(t *testing.T) {
	ids := commentAuthorIDs([]zendesk.Comment{
		{AuthorID: 30},
		{AuthorID: 10},
		{AuthorID: 30},
		{AuthorID: 0},
	})

	assert.Equal(t, []int64{10, 30}, ids)
}
