package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/vulcania/internal/alert"
	"github.com/nhle/vulcania/internal/feed"
	"github.com/nhle/vulcania/internal/model"
)

// observeAlert feeds a polled or pushed alert to the reconciler and
// mirrors the resulting state on the banner.
func (m *Model) observeAlert(a model.AlertState) tea.Cmd {
	m.banner.SetAlert(a)
	t := m.reconciler.Observe(a)
	m.banner.SetDisplaying(m.reconciler.State() == alert.StateDisplaying)

	if t.Triggered {
		return m.recordNotification(a)
	}
	return nil
}

// dismissAlert acknowledges the displayed alert.
func (m *Model) dismissAlert() tea.Cmd {
	t := m.reconciler.Dismiss()
	m.banner.SetDisplaying(false)
	if t.From != alert.StateDisplaying {
		return nil
	}
	return m.acknowledge(t.Alert.ChangeID())
}

// toggleMute flips the audible cue and remembers the choice.
func (m *Model) toggleMute() tea.Cmd {
	muted := !m.scheduler.Muted()
	m.scheduler.SetMuted(muted)
	m.banner.SetMuted(muted)
	m.cfg.Alert.Sound = !muted
	return m.saveConfig()
}

// handleFeedEvent applies one change pushed by the backend.
func (m Model) handleFeedEvent(ev feed.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.feed.WaitForEvent()}

	switch ev.Kind {
	case feed.KindMessageInserted:
		m.applyInserted(*ev.Message)

	case feed.KindAlertChanged:
		cmds = append(cmds, m.observeAlert(*ev.Alert))

	case feed.KindNoticePosted:
		if m.session != nil {
			cmds = append(cmds, m.loadNotices())
		}

	case feed.KindResync:
		// Changes may have been missed while reconnecting.
		m.log.Info("change feed reconnected, resyncing")
		cmds = append(cmds, m.refreshAll())
	}

	return m, tea.Batch(cmds...)
}
