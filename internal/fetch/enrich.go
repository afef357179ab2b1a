package fetch

import (
	"sort"
	"time"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
	"github.com/deskmetrics/zendesk-dashboard/internal/zendesk"
)

// DisplayTicket is a ticket enriched for rendering: resolved user names,
// formatted timestamps and truncated text fields. It is also the shape
// written to cache, so a cached entry deserializes straight back into
// render-ready data.
type DisplayTicket struct {
	zendesk.Ticket
	CreatedAtFormatted string `json:"created_at_formatted"`
	UpdatedAtFormatted string `json:"updated_at_formatted"`
	SubjectShort       string `json:"subject_short"`
	DescriptionShort   string `json:"description_short"`
	RequesterName      string `json:"requester_name"`
	AssigneeName       string `json:"assignee_name"`
}

// DisplayComment is a comment with its author resolved and timestamp
// formatted.
type DisplayComment struct {
	zendesk.Comment
	AuthorName         string `json:"author_name"`
	CreatedAtFormatted string `json:"created_at_formatted"`
}

// Formatter applies the display rules: fixed timezone conversion, fixed
// timestamp format, text truncation with an ellipsis marker.
type Formatter struct {
	cfg config.DisplayConfig
	loc *time.Location
}

func NewFormatter(cfg config.DisplayConfig) Formatter {
	return Formatter{
		cfg: cfg,
		loc: time.FixedZone(cfg.TimezoneLabel, cfg.TimezoneOffsetH*3600),
	}
}

// FormatTime renders a timestamp in the display timezone, or "N/A" for the
// zero time.
func (f Formatter) FormatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(f.loc).Format("2006-01-02 15:04:05") + " " + f.cfg.TimezoneLabel
}

// Truncate cuts s at max runes, appending "..." when something was cut.
func (f Formatter) Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Ticket builds the display form of a ticket, resolving requester and
// assignee through the supplied id->name map.
func (f Formatter) Ticket(t zendesk.Ticket, users map[int64]string) DisplayTicket {
	subject := t.Subject
	if subject == "" {
		subject = "No subject"
	}
	description := t.Description
	if description == "" {
		description = "No description"
	}

	requester := "Unknown"
	if name, ok := users[t.RequesterID]; ok {
		requester = name
	}
	assignee := "Unassigned"
	if name, ok := users[t.AssigneeID]; ok {
		assignee = name
	}

	return DisplayTicket{
		Ticket:             t,
		CreatedAtFormatted: f.FormatTime(t.CreatedAt),
		UpdatedAtFormatted: f.FormatTime(t.UpdatedAt),
		SubjectShort:       f.Truncate(subject, f.cfg.SubjectMaxLen),
		DescriptionShort:   f.Truncate(description, f.cfg.DescriptionMaxLen),
		RequesterName:      requester,
		AssigneeName:       assignee,
	}
}

// Comment builds the display form of a comment.
func (f Formatter) Comment(c zendesk.Comment, users map[int64]string) DisplayComment {
	author := "Unknown"
	if name, ok := users[c.AuthorID]; ok {
		author = name
	}
	return DisplayComment{
		Comment:            c,
		AuthorName:         author,
		CreatedAtFormatted: f.FormatTime(c.CreatedAt),
	}
}

// collectUserIDs gathers the requester and assignee IDs involved in a set
// of tickets, deduplicated and sorted. Sorting matters: the user-batch
// cache key derives from this slice, and the same set of IDs must produce
// the same key regardless of collection order.
func collectUserIDs(tickets []zendesk.Ticket) []int64 {
	seen := make(map[int64]struct{})
	for _, t := range tickets {
		if t.RequesterID != 0 {
			seen[t.RequesterID] = struct{}{}
		}
		if t.AssigneeID != 0 {
			seen[t.AssigneeID] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// commentAuthorIDs gathers the author IDs of a comment thread,
// deduplicated and sorted, for the same keying reason as collectUserIDs.
func commentAuthorIDs(comments []zendesk.Comment) []int64 {
	seen := make(map[int64]struct{})
	for _, c := range comments {
		if c.AuthorID != 0 {
			seen[c.AuthorID] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
