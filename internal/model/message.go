package model

import (
	"strings"
	"time"
)

// LocalIDPrefix marks message ids assigned to optimistic inserts that the
// message store has not yet confirmed.
const LocalIDPrefix = "local-"

// Message is a single private chat message between two users.
// Messages are immutable once created.
type Message struct {
	// ID is the unique identifier assigned by the message store, or a
	// LocalIDPrefix id while the message is pending.
	ID string `json:"id"`

	// SenderID is the author of the message.
	SenderID string `json:"sender_id"`

	// RecipientID is the user the message was sent to.
	RecipientID string `json:"recipient_id"`

	// Body is the message text.
	Body string `json:"body"`

	// SentAt is when the message store accepted the message.
	SentAt time.Time `json:"sent_at"`

	// Sender and Recipient are populated only when the store joined the
	// users table; they are optional everywhere.
	Sender    *User `json:"sender,omitempty"`
	Recipient *User `json:"recipient,omitempty"`
}

// IsLocal reports whether the message is an unconfirmed optimistic insert.
func (m Message) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}

// Involves reports whether the message belongs to the conversation
// between users a and b, in either direction.
func (m Message) Involves(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) ||
		(m.SenderID == b && m.RecipientID == a)
}

// Counterpart returns the other participant relative to viewerID, or ""
// when the viewer took no part in the message.
func (m Message) Counterpart(viewerID string) string {
	switch viewerID {
	case m.SenderID:
		return m.RecipientID
	case m.RecipientID:
		return m.SenderID
	default:
		return ""
	}
}
