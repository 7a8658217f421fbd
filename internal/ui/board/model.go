package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/keys"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// NoticeLimit is the number of active notices shown on the board.
const NoticeLimit = 20

// PostNoticeMsg is emitted when the user submits a new notice.
type PostNoticeMsg struct {
	Body string
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	body string
}

// Model is the community board: the latest active notices and a composer.
type Model struct {
	viewport viewport.Model
	keys     *keys.KeyMap
	notices  []model.Notice
	form     *huh.Form
	fb       *formBindings
	status   string
	width    int
	height   int
}

// New creates a new board view.
func New(k *keys.KeyMap, width, height int) Model {
	m := Model{
		viewport: viewport.New(width, height),
		keys:     k,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
	m.SetSize(width, height)
	return m
}

// SetNotices replaces the listed notices.
func (m *Model) SetNotices(notices []model.Notice) {
	m.notices = notices
	m.viewport.SetContent(m.render())
	m.viewport.GotoTop()
}

// SetStatus shows a one-line notice under the board.
func (m *Model) SetStatus(s string) {
	m.status = s
}

// Composing reports whether the post form is open. Global keys should not
// be intercepted while it is.
func (m Model) Composing() bool {
	return m.form != nil
}

// StartCompose opens the post form.
func (m *Model) StartCompose() tea.Cmd {
	m.fb.body = ""
	m.status = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("New notice").
				Description("Visible to every resident. tab or enter to publish, esc to cancel.").
				Placeholder("Water distribution at the school gym from 16:00...").
				CharLimit(500).
				Value(&m.fb.body).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("notice cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(m.width - 4).WithShowHelp(false)
	return m.form.Init()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form != nil {
		if km, ok := msg.(tea.KeyMsg); ok && km.Type == tea.KeyEsc {
			m.form = nil
			return m, nil
		}

		mdl, cmd := m.form.Update(msg)
		if f, ok := mdl.(*huh.Form); ok {
			m.form = f
		}
		switch m.form.State {
		case huh.StateCompleted:
			body := strings.TrimSpace(m.fb.body)
			m.form = nil
			return m, func() tea.Msg { return PostNoticeMsg{Body: body} }
		case huh.StateAborted:
			m.form = nil
			return m, nil
		}
		return m, cmd
	}

	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Compose) {
		return m, m.StartCompose()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the board.
func (m Model) View() string {
	title := theme.HeaderStyle.Render(fmt.Sprintf("Community board (%d)", len(m.notices)))

	if m.form != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
	}

	hint := theme.HelpStyle.Render("n post notice | j/k scroll")
	if m.status != "" {
		hint = theme.ErrorStyle.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), hint)
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	vh := height - 2
	if vh < 1 {
		vh = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.viewport.SetContent(m.render())
}

func (m Model) render() string {
	if len(m.notices) == 0 {
		return theme.DimmedStyle.Render("No active notices. Press n to post one.")
	}

	card := lipgloss.NewStyle().
		Width(m.width-4).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(theme.ColorBorder)

	var blocks []string
	for _, n := range m.notices {
		meta := theme.DimmedStyle.Render(fmt.Sprintf(
			"%s · %s", n.AuthorName(), n.CreatedAt.Local().Format("02 Jan 15:04"),
		))
		blocks = append(blocks, card.Render(lipgloss.JoinVertical(lipgloss.Left, n.Body, meta)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}
