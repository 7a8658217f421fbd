package model

// MeetingPoint is a designated evacuation gathering place.
type MeetingPoint struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Address   string  `json:"address" db:"address"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`

	// Capacity is the number of people the point can hold.
	Capacity int `json:"capacity" db:"capacity"`

	// SafetyLevel ranks the point from 1 (least safe) to 5 (safest).
	SafetyLevel int `json:"safety_level" db:"safety_level"`

	// WalkMinutes is the approximate walking time from the town centre.
	WalkMinutes int `json:"walk_minutes" db:"walk_minutes"`

	// Occupied is set by coordinators once the point is full.
	Occupied bool `json:"occupied" db:"occupied"`
}
