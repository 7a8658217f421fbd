package model

import "time"

// NoticeStatusActive is the status of notices shown on the community board.
const NoticeStatusActive = "active"

// Notice is a message posted to the community bulletin board.
type Notice struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Author is set when the store joined the users table.
	Author *User `json:"author,omitempty"`
}

// AuthorName returns the author's display name or a placeholder.
func (n Notice) AuthorName() string {
	if n.Author == nil || n.Author.Name == "" {
		return "anonymous"
	}
	return n.Author.Name
}
