package banner

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/alert"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/theme"
)

// FlashDuration is how long the banner stays inverted after a cue.
const FlashDuration = 400 * time.Millisecond

// flashDoneMsg ends the flash started by the cue with the same sequence.
type flashDoneMsg struct {
	seq int
}

// Model renders the always-visible alert banner and the emergency overlay
// shown while an alert is being displayed.
type Model struct {
	alert      *model.AlertState
	displaying bool
	muted      bool
	stale      bool
	flash      bool
	flashSeq   int
	width      int
	height     int
}

// New creates an empty banner.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetAlert records the latest observed alert.
func (m *Model) SetAlert(a model.AlertState) {
	m.alert = &a
	m.stale = false
}

// SetStale marks the shown alert as possibly outdated after a failed poll.
func (m *Model) SetStale(stale bool) {
	m.stale = stale
}

// SetDisplaying toggles the emergency overlay.
func (m *Model) SetDisplaying(displaying bool) {
	m.displaying = displaying
	if !displaying {
		m.flash = false
	}
}

// SetMuted updates the sound indicator.
func (m *Model) SetMuted(muted bool) {
	m.muted = muted
}

// Displaying reports whether the overlay is up.
func (m Model) Displaying() bool {
	return m.displaying
}

// Flashing reports whether the banner is currently inverted.
func (m Model) Flashing() bool {
	return m.flash
}

// Alert returns the latest observed alert, if any.
func (m Model) Alert() (model.AlertState, bool) {
	if m.alert == nil {
		return model.AlertState{}, false
	}
	return *m.alert, true
}

// Update flashes the banner on each cue.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case alert.CueMsg:
		m.flashSeq++
		m.flash = true
		seq := m.flashSeq
		return m, tea.Tick(FlashDuration, func(time.Time) tea.Msg {
			return flashDoneMsg{seq: seq}
		})

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = false
		}
	}
	return m, nil
}

// View renders the single-line banner.
func (m Model) View() string {
	level := model.LevelNormal
	text := "No alert information yet"
	if m.alert != nil {
		level = m.alert.Level
		text = fmt.Sprintf(
			"%s  %s  updated %s",
			strings.ToUpper(level.Color()),
			firstSentence(m.alert.Description),
			m.alert.UpdatedAt.Local().Format("15:04"),
		)
	}
	if m.stale {
		text += "  (offline)"
	}
	if m.muted {
		text += "  [muted]"
	}

	return theme.BannerStyle(level, m.flash).
		Width(m.width).
		MaxHeight(1).
		Render(text)
}

// ModalView renders the emergency overlay.
func (m Model) ModalView() string {
	if m.alert == nil {
		return ""
	}
	a := m.alert

	width := m.width * 2 / 3
	if width < 30 {
		width = m.width
	}

	title := theme.LevelStyle(a.Level).Render(
		fmt.Sprintf("ALERTA %s", strings.ToUpper(a.Level.Color())),
	)
	body := lipgloss.NewStyle().
		Width(width - 8).
		Render(a.Description)
	hint := theme.HelpStyle.Render("enter acknowledge | m toggle sound")

	modal := theme.ModalStyle(a.Level).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Center, title, "", body, "", hint))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// SetSize updates the banner dimensions. height is the content area the
// overlay is centred in.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
