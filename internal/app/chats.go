package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/chat"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/store"
)

// handleViewerResolved starts the chat session of the logged-in viewer.
func (m Model) handleViewerResolved(msg viewerResolvedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.restored && errors.Is(msg.err, store.ErrNotFound) {
			// The remembered viewer is gone; ask for the number again.
			m.cfg.Session.ViewerID = ""
			return m, tea.Batch(m.saveConfig(), m.loginView.Init())
		}
		m.log.WithError(msg.err).Warn("login failed")
		cmd := m.loginView.SetError(msg.err)
		return m, cmd
	}

	user := msg.user
	m.viewer = &user
	m.log.WithFields(logrus.Fields{
		"viewer":  user.ID,
		"created": msg.created,
	}).Info("viewer logged in")

	m.session = chat.NewSession(
		user.ID,
		m.store,
		m.store,
		chat.WithLogger(m.log),
		chat.WithDedupCapacity(m.cfg.Chat.DedupCapacity),
		chat.WithClock(m.clock.Now),
	)
	m.chatList.SetViewer(user.ID)
	m.currentView = ViewChats

	cmds := []tea.Cmd{m.loadDirectory(), m.loadNotices(), m.loadPoints()}
	if m.cfg.Session.ViewerID != user.ID {
		m.cfg.Session.ViewerID = user.ID
		cmds = append(cmds, m.saveConfig())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleDirectoryLoaded(msg directoryLoadedMsg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	if msg.err != nil {
		m.status = describeError("conversations", msg.err)
		return m, nil
	}

	m.session.ApplyDirectory(msg.users, msg.latest)
	m.syncChatViews()
	cmd := m.startMessageTransport(catchUpSince(msg.latest, m.clock.Now()))
	return m, cmd
}

// openConversation switches to the thread view and fetches its history.
func (m Model) openConversation(counterpartID string) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	counterpart, ok := m.session.Counterpart(counterpartID)
	if !ok {
		m.status = "that neighbour is no longer in the directory"
		return m, m.loadDirectory()
	}

	m.status = ""
	m.currentView = ViewThread
	focus := m.threadView.Open(m.session.ViewerID(), counterpart)
	return m, tea.Batch(focus, m.loadHistory(counterpartID))
}

func (m Model) handleHistoryLoaded(msg historyLoadedMsg) (tea.Model, tea.Cmd) {
	// The viewer may have left or switched conversation meanwhile.
	if m.session == nil || m.currentView != ViewThread || m.threadView.CounterpartID() != msg.counterpartID {
		return m, nil
	}
	if msg.err != nil {
		m.threadView.SetStatus(describeError("conversation", msg.err))
		m.threadView.SetMessages(m.session.Thread())
		return m, nil
	}
	if err := m.session.ApplyHistory(msg.counterpartID, msg.messages); err != nil {
		m.threadView.SetStatus(describeError("conversation", err))
		return m, nil
	}
	m.syncChatViews()
	return m, nil
}

// beginSend shows the message optimistically and delivers it.
func (m Model) beginSend(body string) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	p, err := m.session.BeginSend(body)
	if err != nil {
		m.threadView.SetStatus(describeError("send", err))
		m.threadView.RestoreInput(body)
		return m, nil
	}
	m.syncChatViews()
	return m, m.sendMessage(p)
}

func (m Model) handleMessageSent(msg messageSentMsg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	if err := m.session.CompleteSend(msg.pending, msg.stored, msg.err); err != nil {
		m.log.WithError(err).Warn("message rolled back")
		if m.threadView.CounterpartID() == msg.pending.Message.RecipientID {
			m.threadView.SetStatus(describeError("send", err))
			if m.threadView.Input() == "" {
				m.threadView.RestoreInput(msg.pending.Message.Body)
			}
		}
	}
	m.syncChatViews()
	return m, nil
}

// applyInserted hands a pushed or polled message to the session.
func (m *Model) applyInserted(msg model.Message) {
	if m.session == nil {
		return
	}
	outcome, err := m.session.HandleInserted(msg)
	entry := m.log.WithField("message", msg.ID).WithField("outcome", outcome.String())
	if err != nil {
		entry.WithError(err).Debug("inserted message not applied")
		return
	}
	entry.Debug("inserted message handled")
	if outcome == chat.OutcomeApplied {
		m.syncChatViews()
	}
}

// syncChatViews re-renders the conversation list and the open thread from
// the session.
func (m *Model) syncChatViews() {
	m.chatList.SetSummaries(m.session.Summaries())
	if _, ok := m.session.Active(); ok {
		m.threadView.SetMessages(m.session.Thread())
	}
}
