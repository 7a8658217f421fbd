package thread

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// SendMsg is emitted when the user submits a message.
type SendMsg struct {
	Body string
}

// BackMsg is emitted when the user leaves the conversation.
type BackMsg struct{}

// Model is the open conversation view: a scrollable message history above
// a single-line composer.
type Model struct {
	viewport    viewport.Model
	input       textinput.Model
	viewerID    string
	counterpart model.User
	messages    []model.Message
	loading     bool
	status      string
	width       int
	height      int
}

// New creates a new thread view.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "write a message..."
	ti.Prompt = "> "
	ti.CharLimit = 1000
	ti.Width = width - 4

	m := Model{
		viewport: viewport.New(width, height),
		input:    ti,
		width:    width,
		height:   height,
	}
	m.SetSize(width, height)
	return m
}

// Open switches the view to the conversation between viewerID and
// counterpart and focuses the composer.
func (m *Model) Open(viewerID string, counterpart model.User) tea.Cmd {
	m.viewerID = viewerID
	m.counterpart = counterpart
	m.messages = nil
	m.loading = true
	m.status = ""
	m.input.Reset()
	m.refresh()
	return m.input.Focus()
}

// CounterpartID returns the id of the open conversation's counterpart.
func (m Model) CounterpartID() string {
	return m.counterpart.ID
}

// SetMessages replaces the rendered history and scrolls to the newest
// message.
func (m *Model) SetMessages(messages []model.Message) {
	m.messages = messages
	m.loading = false
	m.refresh()
	m.viewport.GotoBottom()
}

// SetStatus shows a one-line notice under the history.
func (m *Model) SetStatus(s string) {
	m.status = s
}

// RestoreInput puts body back in the composer, typically after a failed
// send.
func (m *Model) RestoreInput(body string) {
	m.input.SetValue(body)
	m.input.CursorEnd()
}

// Input returns the current composer text.
func (m Model) Input() string {
	return m.input.Value()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the thread view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc:
			return m, func() tea.Msg { return BackMsg{} }

		case tea.KeyEnter:
			body := strings.TrimSpace(m.input.Value())
			if body == "" {
				return m, nil
			}
			m.input.Reset()
			m.status = ""
			return m, func() tea.Msg { return SendMsg{Body: body} }

		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the thread.
func (m Model) View() string {
	title := theme.HeaderStyle.Render(m.counterpart.Name)
	if m.counterpart.Phone != "" {
		title += " " + theme.DimmedStyle.Render(m.counterpart.Phone)
	}

	status := theme.HelpStyle.Render("enter send | ↑/↓ scroll | esc back")
	if m.status != "" {
		status = theme.ErrorStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		m.input.View(),
		status,
	)
}

// SetSize updates the thread dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 4

	// title, composer and status line
	vh := height - 3
	if vh < 1 {
		vh = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
}

func (m Model) render() string {
	if m.loading {
		return theme.DimmedStyle.Render("Loading conversation...")
	}
	if len(m.messages) == 0 {
		return theme.DimmedStyle.Render("No messages yet. Say hello!")
	}

	bubbleWidth := m.width * 3 / 4
	if bubbleWidth < 10 {
		bubbleWidth = m.width
	}

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, bubbleWidth))
	}
	return b.String()
}

func (m Model) renderMessage(msg model.Message, width int) string {
	stamp := msg.SentAt.Local().Format("15:04")
	own := msg.SenderID == m.viewerID

	style := theme.TheirMessageStyle
	switch {
	case own && msg.IsLocal():
		style = theme.PendingMessageStyle
		stamp = "sending..."
	case own:
		style = theme.OwnMessageStyle
	}

	bubble := style.MaxWidth(width).Render(msg.Body)
	meta := theme.DimmedStyle.Render(stamp)
	block := lipgloss.JoinVertical(lipgloss.Left, bubble, meta)
	if own {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
	}
	return block
}
