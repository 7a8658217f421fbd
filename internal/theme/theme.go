package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBlack  = lipgloss.AdaptiveColor{Dark: "#111111", Light: "#111111"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps full-screen panels such as help and the command palette.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary information.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// UnreadBadgeStyle renders the unread indicator of a conversation.
var UnreadBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorGreen).
	Padding(0, 1)

// OwnMessageStyle and TheirMessageStyle render chat bubbles.
var (
	OwnMessageStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorBlue).
			Padding(0, 1)

	TheirMessageStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Background(ColorSubtle).
				Padding(0, 1)

	PendingMessageStyle = OwnMessageStyle.
				Faint(true).
				Italic(true)
)

// ErrorStyle renders status-line errors.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// LevelColor returns the traffic-light color of an alert level.
func LevelColor(level model.Level) lipgloss.AdaptiveColor {
	switch level {
	case model.LevelWatch:
		return ColorYellow
	case model.LevelWarning:
		return ColorOrange
	case model.LevelEmergency:
		return ColorRed
	default:
		return ColorGreen
	}
}

// LevelStyle returns a bold label style for an alert level.
func LevelStyle(level model.Level) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(ColorBlack).
		Background(LevelColor(level))
}

// BannerStyle returns the alert banner style for level. Flashing inverts
// the colors.
func BannerStyle(level model.Level, flash bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 1)
	if flash {
		return s.Foreground(LevelColor(level)).Background(ColorBlack).Bold(true)
	}
	return s.Foreground(ColorBlack).Background(LevelColor(level))
}

// ModalStyle frames the emergency overlay.
func ModalStyle(level model.Level) lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.ThickBorder()).
		BorderForeground(LevelColor(level)).
		Align(lipgloss.Center)
}
