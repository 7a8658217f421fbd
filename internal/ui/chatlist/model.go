package chatlist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/vulcania/internal/keys"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// OpenConversationMsg is sent when the user selects a conversation.
type OpenConversationMsg struct {
	CounterpartID string
}

// Model is the conversation list view.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	viewerID string
	width    int
	height   int
}

// New creates a new conversation list for viewerID.
func New(viewerID string, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Chats"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.Styles.NoItems = theme.DimmedStyle.PaddingLeft(2)
	l.SetStatusBarItemName("conversation", "conversations")

	return Model{
		list:     l,
		keys:     k,
		viewerID: viewerID,
		width:    width,
		height:   height,
	}
}

// SetViewer changes the viewer whose conversations are listed.
func (m *Model) SetViewer(viewerID string) {
	m.viewerID = viewerID
}

// SetSummaries replaces the listed conversations, keeping the selection on
// the same counterpart when it is still present.
func (m *Model) SetSummaries(summaries []model.ConversationSummary) tea.Cmd {
	selected, _ := m.SelectedID()

	items := make([]list.Item, len(summaries))
	index := 0
	for i, s := range summaries {
		items[i] = ConversationItem{Summary: s, ViewerID: m.viewerID}
		if s.Counterpart.ID == selected {
			index = i
		}
	}
	cmd := m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(index)
	}
	return cmd
}

// SelectedID returns the counterpart id under the cursor.
func (m Model) SelectedID() (string, bool) {
	ci, ok := m.list.SelectedItem().(ConversationItem)
	if !ok {
		return "", false
	}
	return ci.Summary.Counterpart.ID, true
}

// Len returns the number of listed conversations.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the conversation list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Select) {
		id, ok := m.SelectedID()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return OpenConversationMsg{CounterpartID: id}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the conversation list.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
