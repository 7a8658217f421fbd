package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vulcania/internal/phone"
	"github.com/nhle/vulcania/internal/theme"
)

// LoginSubmittedMsg is emitted when the user enters a phone number.
type LoginSubmittedMsg struct {
	Phone string
}

// LoginCancelMsg is emitted when the user aborts the form.
type LoginCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	phone string
}

// Model is the phone-number login screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	status string
	busy   bool
	width  int
	height int
}

// New creates a new login view with the form ready.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.Start()
	return m
}

// Start (re)builds the form, prefilled with the last submitted number.
func (m *Model) Start() tea.Cmd {
	m.busy = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Phone number").
				Description("Your number identifies you to your neighbours.").
				Placeholder("+56 9 1234 5678").
				Value(&m.fb.phone).
				Validate(validatePhone),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m.form.Init()
}

// SetError reports a failed login and reopens the form.
func (m *Model) SetError(err error) tea.Cmd {
	m.status = err.Error()
	return m.Start()
}

// Busy reports whether a submitted number is being looked up.
func (m Model) Busy() bool {
	return m.busy
}

// Init returns the initial command of the form.
func (m Model) Init() tea.Cmd {
	if m.form == nil {
		return nil
	}
	return m.form.Init()
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		m.status = ""
		number := phone.Normalize(m.fb.phone)
		return m, func() tea.Msg { return LoginSubmittedMsg{Phone: number} }
	case huh.StateAborted:
		return m, func() tea.Msg { return LoginCancelMsg{} }
	}
	return m, cmd
}

// View renders the login screen.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Welcome to Vulcania")

	parts := []string{title}
	switch {
	case m.busy:
		parts = append(parts, theme.DimmedStyle.Render("Signing in..."))
	case m.form != nil:
		parts = append(parts, m.form.View())
	}
	if m.status != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.status))
	}

	box := theme.PanelStyle.
		Width(m.formWidth() + 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the login view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 10
	if w > 50 {
		w = 50
	}
	if w < 20 {
		w = 20
	}
	return w
}

func validatePhone(s string) error {
	n := phone.Normalize(s)
	if n == "" {
		return errors.New("enter your phone number")
	}
	digits := strings.TrimPrefix(n, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return errors.New("use digits only, optionally starting with +")
		}
	}
	if len(digits) < 8 {
		return errors.New("number is too short")
	}
	return nil
}
