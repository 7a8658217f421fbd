package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/vulcania/internal/credential"
	configview "github.com/nhle/vulcania/internal/ui/config"
)

// dsnSavedMsg reports a keyring write or removal of the Postgres DSN.
type dsnSavedMsg struct {
	forgot bool
	err    error
}

// applySettings takes the edited settings into the running shell. The
// threshold and sound apply at once; poll intervals and the backend are
// read at startup.
func (m *Model) applySettings(s configview.SettingsSavedMsg) tea.Cmd {
	restart := s.Alert.PollIntervalSec != m.cfg.Alert.PollIntervalSec ||
		s.Chat.PollIntervalSec != m.cfg.Chat.PollIntervalSec ||
		s.Driver != m.cfg.Backend.Driver

	m.cfg.Alert = s.Alert
	m.cfg.Chat = s.Chat
	m.cfg.Backend.Driver = s.Driver

	m.reconciler.SetThreshold(m.cfg.Alert.Threshold())
	muted := !m.cfg.Alert.Sound
	m.scheduler.SetMuted(muted)
	m.banner.SetMuted(muted)

	m.settingsView.SetConfig(*m.cfg)
	status := "settings saved"
	if restart {
		status += ", polling and backend changes apply after restart"
	}
	m.settingsView.SetStatus(status)
	m.log.WithField("threshold", m.cfg.Alert.Threshold().String()).Info("settings updated")

	cmds := []tea.Cmd{m.saveConfig()}
	if s.DSN != "" {
		cmds = append(cmds, storeDSN(s.DSN))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleDSNSaved(msg dsnSavedMsg) {
	switch {
	case msg.err != nil && msg.forgot:
		m.settingsView.SetStatus(describeError("forget DSN", msg.err))
	case msg.err != nil:
		m.settingsView.SetStatus(describeError("save DSN", msg.err))
	case msg.forgot:
		m.settingsView.SetStatus("stored DSN removed from the keyring")
	default:
		m.settingsView.SetStatus("DSN saved to the keyring")
	}
}

func storeDSN(dsn string) tea.Cmd {
	return func() tea.Msg {
		return dsnSavedMsg{err: credential.Set(credential.DSNKey, dsn)}
	}
}

func forgetDSN() tea.Cmd {
	return func() tea.Msg {
		return dsnSavedMsg{forgot: true, err: credential.Delete(credential.DSNKey)}
	}
}
