package chatlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// ConversationItem wraps a model.ConversationSummary so it can be used in a
// bubbles/list.
type ConversationItem struct {
	Summary  model.ConversationSummary
	ViewerID string
}

// FilterValue returns the string used for fuzzy filtering.
func (i ConversationItem) FilterValue() string { return i.Summary.Counterpart.Name }

// Title returns the counterpart name.
func (i ConversationItem) Title() string { return i.Summary.Counterpart.Name }

// Description returns the preview line of the latest message.
func (i ConversationItem) Description() string {
	latest := i.Summary.Latest
	if latest == nil {
		return "No messages yet"
	}
	prefix := ""
	if latest.SenderID == i.ViewerID {
		prefix = "You: "
	}
	return prefix + oneLine(latest.Body)
}

// ItemDelegate renders one conversation per line.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single conversation line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(ConversationItem)
	if !ok {
		return
	}

	badge := "  "
	if ci.Summary.HasUnread() {
		badge = theme.UnreadBadgeStyle.Render("●")
	}

	name := ci.Title()
	when := relativeTime(ci.Summary.LastActivity)

	avail := m.Width() - lipgloss.Width(badge) - lipgloss.Width(name) - lipgloss.Width(when) - 8
	preview := truncate(ci.Description(), avail)

	line := fmt.Sprintf("%s %s  %s  %s",
		badge,
		name,
		theme.DimmedStyle.Render(preview),
		theme.DimmedStyle.Render(when),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// relativeTime renders t as a short age such as "5m" or "3d".
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
