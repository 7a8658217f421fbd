package chatlist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/keys"
	"github.com/nhle/vulcania/internal/model"
)

func summary(id, name string, unread int, at time.Time) model.ConversationSummary {
	return model.ConversationSummary{
		Counterpart:  model.User{ID: id, Name: name},
		Unread:       unread,
		LastActivity: at,
	}
}

func TestSelectionFollowsCounterpartAcrossResort(t *testing.T) {
	now := time.Now()
	m := New("me", keys.DefaultKeyMap(), 80, 20)
	m.SetSummaries([]model.ConversationSummary{
		summary("ana", "Ana", 0, now),
		summary("bruno", "Bruno", 0, now.Add(-time.Minute)),
	})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "bruno", id)

	// Ana writes and moves to the top; the cursor stays on Bruno.
	m.SetSummaries([]model.ConversationSummary{
		summary("ana", "Ana", 1, now.Add(time.Minute)),
		summary("bruno", "Bruno", 0, now.Add(-time.Minute)),
	})
	id, _ = m.SelectedID()
	assert.Equal(t, "bruno", id)
	assert.Equal(t, 2, m.Len())
}

func TestEnterOpensSelectedConversation(t *testing.T) {
	m := New("me", keys.DefaultKeyMap(), 80, 20)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "nothing to open in an empty list")

	m.SetSummaries([]model.ConversationSummary{summary("ana", "Ana", 0, time.Now())})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenConversationMsg{CounterpartID: "ana"}, cmd())
}

func TestDescriptionMarksOwnMessages(t *testing.T) {
	latest := model.Message{SenderID: "me", RecipientID: "ana", Body: "hola\nqué tal"}
	item := ConversationItem{
		Summary:  model.ConversationSummary{Counterpart: model.User{ID: "ana"}, Latest: &latest},
		ViewerID: "me",
	}
	assert.Equal(t, "You: hola qué tal", item.Description())

	item.Summary.Latest = nil
	assert.Equal(t, "No messages yet", item.Description())
}
