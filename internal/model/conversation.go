package model

import "time"

// ConversationSummary is one row of the conversation list: a counterpart,
// the latest message exchanged with them, and an unread indicator.
type ConversationSummary struct {
	// Counterpart is the other participant of the conversation.
	Counterpart User

	// Latest is the most recent message, or nil when none was exchanged.
	Latest *Message

	// Unread is 1 when a message from the counterpart arrived after the
	// viewer last opened the conversation, else 0. It is never a true count.
	Unread int

	// LastActivity equals Latest.SentAt when Latest is set, otherwise the
	// counterpart's known-since time.
	LastActivity time.Time
}

// HasUnread reports whether the unread badge should be shown.
func (c ConversationSummary) HasUnread() bool {
	return c.Unread > 0
}
