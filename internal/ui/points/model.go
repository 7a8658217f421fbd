package points

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/keys"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// ToggleOccupiedMsg asks the shell to flip a meeting point's occupied flag.
type ToggleOccupiedMsg struct {
	ID       string
	Occupied bool
}

// PointItem wraps a model.MeetingPoint for a bubbles/list.
type PointItem struct {
	Point model.MeetingPoint
}

// FilterValue returns the string used for fuzzy filtering.
func (i PointItem) FilterValue() string { return i.Point.Name }

// Title returns the point name.
func (i PointItem) Title() string { return i.Point.Name }

// Description returns the detail line of the point.
func (i PointItem) Description() string {
	p := i.Point
	parts := []string{
		fmt.Sprintf("%d people", p.Capacity),
		"safety " + strings.Repeat("★", clamp(p.SafetyLevel, 0, 5)) + strings.Repeat("☆", 5-clamp(p.SafetyLevel, 0, 5)),
		fmt.Sprintf("%d min walk", p.WalkMinutes),
	}
	if p.Address != "" {
		parts = append(parts, p.Address)
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate renders a meeting point on two lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a meeting point.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(PointItem)
	if !ok {
		return
	}

	state := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("available")
	if pi.Point.Occupied {
		state = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("occupied")
	}

	block := lipgloss.JoinVertical(
		lipgloss.Left,
		pi.Title()+"  "+state,
		theme.DimmedStyle.Render(pi.Description()),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(block))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(block))
}

// Model is the meeting points view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new meeting points view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Meeting points"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("point", "points")

	return Model{list: l, keys: k, width: width, height: height}
}

// SetPoints replaces the listed points, keeping the cursor position.
func (m *Model) SetPoints(points []model.MeetingPoint) tea.Cmd {
	index := m.list.Index()
	items := make([]list.Item, len(points))
	for i, p := range points {
		items[i] = PointItem{Point: p}
	}
	cmd := m.list.SetItems(items)
	if index < len(items) {
		m.list.Select(index)
	}
	return cmd
}

// Selected returns the point under the cursor.
func (m Model) Selected() (model.MeetingPoint, bool) {
	pi, ok := m.list.SelectedItem().(PointItem)
	return pi.Point, ok
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the meeting points view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.ToggleOccupied) {
		p, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return ToggleOccupiedMsg{ID: p.ID, Occupied: !p.Occupied}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the meeting points list.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
