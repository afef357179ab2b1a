package zendesk

import "time"

// Ticket is the subset of the Zendesk ticket object this app consumes.
type Ticket struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	RequesterID int64     `json:"requester_id"`
	AssigneeID  int64     `json:"assignee_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ticketsResponse struct {
	Tickets  []Ticket `json:"tickets"`
	NextPage string   `json:"next_page"`
}

type searchResponse struct {
	Results  []Ticket `json:"results"`
	NextPage string   `json:"next_page"`
	Count    int      `json:"count"`
}

type commentsResponse struct {
	Comments []Comment `json:"comments"`
}

type usersResponse struct {
	Users []User `json:"users"`
}
