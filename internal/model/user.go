package model

import "time"

// User is a registered resident who can chat and post notices.
type User struct {
	// ID is the unique identifier for this user.
	ID string `json:"id" db:"id"`

	// Name is the display name shown in the directory and chat headers.
	Name string `json:"name" db:"name"`

	// Phone is the phone number the user logs in with, stored as entered.
	Phone string `json:"phone" db:"phone"`

	// CreatedAt is when the user first registered. It doubles as the
	// "known since" time for conversations that have no messages yet.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Initial returns the first rune of the user's name, used as an avatar.
func (u User) Initial() string {
	for _, r := range u.Name {
		return string(r)
	}
	return "?"
}
