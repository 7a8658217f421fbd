package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appsync "github.com/nhle/vulcania/internal/sync"
)

// EventSource is a realtime change feed. Each Event it yields is delivered
// to Update as a tea.Msg; WaitForEvent is re-issued after every event.
type EventSource interface {
	WaitForEvent() tea.Cmd
}

// startMessageTransport starts the message catch-up poller once the
// directory is known. Backends with a change feed push messages instead,
// so no poller is started for them.
func (m *Model) startMessageTransport(since time.Time) tea.Cmd {
	if m.feed != nil || m.msgPoller != nil || m.session == nil {
		return nil
	}

	m.msgPoller = appsync.New(
		appsync.WithClock(m.clock),
		appsync.WithLogger(m.log),
		appsync.WithMessageCatchUp(
			m.store,
			m.session.ViewerID(),
			since,
			m.cfg.Chat.MessagePollInterval(),
		),
	)
	return m.msgPoller.Start()
}

// refreshAll polls every transport immediately and reloads the views that
// are not driven by a poller.
func (m *Model) refreshAll() tea.Cmd {
	m.alertPoller.RefreshAll()
	if m.msgPoller != nil {
		m.msgPoller.RefreshAll()
	}
	if m.session == nil {
		return nil
	}

	cmds := []tea.Cmd{m.loadDirectory(), m.loadNotices(), m.loadPoints()}
	if active, ok := m.session.Active(); ok {
		cmds = append(cmds, m.loadHistory(active.ID))
	}
	return tea.Batch(cmds...)
}

// stopTransports halts background polling before the program exits.
func (m *Model) stopTransports() {
	m.alertPoller.Stop()
	if m.msgPoller != nil {
		m.msgPoller.Stop()
	}
	m.reconciler.Close()
}
