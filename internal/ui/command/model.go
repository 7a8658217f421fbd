package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// CommandMsg is a line typed into the palette, trimmed and non-empty.
type CommandMsg string

// Verb returns the canonical verb of the command. Aliases such as "sim"
// or "sync" resolve to the verb they stand for; unknown words are
// returned lower-cased.
func (c CommandMsg) Verb() string {
	fields := strings.Fields(string(c))
	if len(fields) == 0 {
		return ""
	}
	word := strings.ToLower(fields[0])
	if v, ok := lookup(word); ok {
		return v.Name
	}
	return word
}

// Args returns the words following the verb.
func (c CommandMsg) Args() []string {
	fields := strings.Fields(string(c))
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// Verb describes one palette command.
type Verb struct {
	Name    string
	Aliases []string
	Usage   string
	Summary string
}

// Verbs lists the commands the shell understands, in display order.
var Verbs = []Verb{
	{Name: "simulate", Aliases: []string{"sim"}, Usage: "simulate <level>", Summary: "feed a fake alert level through the reconciler"},
	{Name: "refresh", Aliases: []string{"sync"}, Usage: "refresh", Summary: "re-read alert level, chats and notices"},
	{Name: "mute", Usage: "mute", Summary: "silence the alert cue"},
	{Name: "unmute", Usage: "unmute", Summary: "turn the alert cue back on"},
	{Name: "chats", Usage: "chats", Summary: "conversation list"},
	{Name: "board", Usage: "board", Summary: "community notice board"},
	{Name: "points", Usage: "points", Summary: "meeting points"},
	{Name: "settings", Aliases: []string{"config"}, Usage: "settings", Summary: "threshold, sound, polling and backend"},
	{Name: "help", Usage: "help", Summary: "key bindings"},
	{Name: "logout", Usage: "logout", Summary: "sign out and quit"},
	{Name: "quit", Aliases: []string{"q"}, Usage: "quit", Summary: "leave vulcania"},
}

const maxMatches = 4

func lookup(word string) (Verb, bool) {
	for _, v := range Verbs {
		if v.Name == word {
			return v, true
		}
		for _, a := range v.Aliases {
			if a == word {
				return v, true
			}
		}
	}
	return Verb{}, false
}

// Matches returns the verbs whose name starts with the first word of
// input. An empty input matches nothing.
func Matches(input string) []Verb {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	prefix := strings.ToLower(fields[0])
	var out []Verb
	for _, v := range Verbs {
		if strings.HasPrefix(v.Name, prefix) {
			out = append(out, v)
		}
	}
	return out
}

// suggestions feeds tab completion. simulate expands to every level so a
// drill can be typed as "sim<tab>" then the level.
func suggestions() []string {
	var out []string
	for _, v := range Verbs {
		if v.Name == "simulate" {
			for _, l := range model.AllLevels() {
				out = append(out, "simulate "+l.String())
			}
			continue
		}
		out = append(out, v.Name)
	}
	return out
}

// Model is the command palette.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "simulate emergency, refresh, mute, quit..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.Type == tea.KeyEnter {
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		return m, func() tea.Msg { return CommandMsg(line) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input line and, once a verb is being typed, the
// matching commands with their usage.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command"), m.input.View()}

	matches := Matches(m.input.Value())
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	if len(matches) > 0 {
		usageStyle := lipgloss.NewStyle().Foreground(theme.ColorYellow).Width(20)
		summaryStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		lines = append(lines, "")
		for _, v := range matches {
			lines = append(lines, usageStyle.Render(v.Usage)+summaryStyle.Render(v.Summary))
		}
	} else if m.input.Value() == "" {
		hint := lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render("tab completes | enter runs | esc closes")
		lines = append(lines, "", hint)
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
