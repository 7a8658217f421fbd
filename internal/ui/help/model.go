package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/keys"
	"github.com/nhle/vulcania/internal/theme"
)

// commands lists the command palette verbs shown under the key table.
var commands = []string{
	"simulate <normal|watch|warning|emergency>  publish a test alert level",
	"refresh                                    poll alerts and messages now",
	"mute / unmute                              toggle the audible cue",
	"chats / board / points                     switch section",
	"settings                                   alert threshold, polling, backend",
	"logout                                     forget this phone and quit",
	"quit                                       exit Vulcania",
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	var cmdLines []string
	for _, c := range commands {
		cmdLines = append(cmdLines, theme.DimmedStyle.Render("  :"+c))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Commands"),
		lipgloss.JoinVertical(lipgloss.Left, cmdLines...),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
