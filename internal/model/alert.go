package model

import (
	"fmt"
	"strings"
	"time"
)

// Level is the ordered volcanic alert level.
type Level int

const (
	LevelNormal Level = iota
	LevelWatch
	LevelWarning
	LevelEmergency
)

var levelNames = [...]string{"normal", "watch", "warning", "emergency"}

// levelColors are the traffic-light names used by the monitoring agency.
var levelColors = [...]string{"verde", "amarillo", "naranja", "rojo"}

// String returns the canonical English name of the level.
func (l Level) String() string {
	if l < LevelNormal || l > LevelEmergency {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Color returns the traffic-light name of the level as stored by the
// monitoring agency (verde, amarillo, naranja, rojo).
func (l Level) Color() string {
	if l < LevelNormal || l > LevelEmergency {
		return ""
	}
	return levelColors[l]
}

// ParseLevel accepts either the English name or the traffic-light color.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := range levelNames {
		if s == levelNames[i] || s == levelColors[i] {
			return Level(i), nil
		}
	}
	return LevelNormal, fmt.Errorf("unknown alert level %q", s)
}

// AllLevels returns every level from least to most severe.
func AllLevels() []Level {
	return []Level{LevelNormal, LevelWatch, LevelWarning, LevelEmergency}
}

// AlertState is the latest published alert for the monitored volcano.
type AlertState struct {
	// ID is the identifier of the alert row.
	ID string `json:"id"`

	// Level is the current alert level.
	Level Level `json:"level"`

	// Description is the human-readable summary published with the level.
	Description string `json:"description"`

	// UpdatedAt is when the alert was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeID derives the identity of this observation from its timestamp and
// level. Two observations with the same ChangeID are the same event.
func (a AlertState) ChangeID() string {
	return a.UpdatedAt.UTC().Format(time.RFC3339Nano) + "-" + a.Level.String()
}

// LevelDescriptions holds the canned descriptions published when an alert
// level is simulated.
var LevelDescriptions = map[Level]string{
	LevelNormal: "Normal volcanic activity. Parameters within normal ranges. " +
		"Routine monitoring active.",
	LevelWatch: "Moderate volcanic activity. Constant seismic activity and gas " +
		"emissions recorded. Crater temperature rising. Continuous monitoring active.",
	LevelWarning: "High volcanic activity - evacuation alert. Significant increase " +
		"in seismic activity and emissions. Eruption possible within hours.",
	LevelEmergency: "VOLCANIC EMERGENCY - eruption imminent or under way. " +
		"Immediate mandatory evacuation.",
}
