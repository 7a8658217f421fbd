package model

import "time"

// Notification records an alert that was surfaced to the viewer. It stays
// unread until the viewer acknowledges the emergency overlay.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// ChangeID is the AlertState.ChangeID that triggered the notification.
	ChangeID string `json:"change_id" db:"change_id"`

	// Level is the alert level name at the time of notification.
	Level string `json:"level" db:"level"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the viewer acknowledged the alert.
	Read bool `json:"read" db:"is_read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
