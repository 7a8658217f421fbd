package board

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/keys"
	"github.com/nhle/vulcania/internal/model"
)

func TestViewListsNoticesWithAuthor(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), "No active notices")

	m.SetNotices([]model.Notice{
		{ID: "n1", Body: "Agua en el gimnasio", CreatedAt: time.Now(), Author: &model.User{Name: "Ana"}},
		{ID: "n2", Body: "Corte de luz", CreatedAt: time.Now()},
	})
	v := m.View()
	assert.Contains(t, v, "Community board (2)")
	assert.Contains(t, v, "Agua en el gimnasio")
	assert.Contains(t, v, "Ana")
	assert.Contains(t, v, "anonymous")
}

func TestComposeKeyOpensFormAndEscCancels(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	require.True(t, m.Composing())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, m.Composing())
}
