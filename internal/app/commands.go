package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/vulcania/internal/chat"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/phone"
	"github.com/nhle/vulcania/internal/source"
	"github.com/nhle/vulcania/internal/store"
	"github.com/nhle/vulcania/internal/ui/board"
)

// storeTimeout bounds every store round trip issued from the UI.
const storeTimeout = 15 * time.Second

// viewerResolvedMsg is sent once the logged-in user is known.
type viewerResolvedMsg struct {
	user     model.User
	created  bool
	restored bool
	err      error
}

// directoryLoadedMsg carries the counterparts and the latest message
// exchanged with each of them.
type directoryLoadedMsg struct {
	users  []model.User
	latest map[string]model.Message
	err    error
}

// historyLoadedMsg carries the full history of one conversation.
type historyLoadedMsg struct {
	counterpartID string
	messages      []model.Message
	err           error
}

// messageSentMsg is the store's answer to an optimistic send.
type messageSentMsg struct {
	pending chat.Pending
	stored  model.Message
	err     error
}

type noticesLoadedMsg struct {
	notices []model.Notice
	err     error
}

type noticePostedMsg struct{ err error }

type pointsLoadedMsg struct {
	points []model.MeetingPoint
	err    error
}

type pointUpdatedMsg struct{ err error }

// unreadCountMsg carries the number of unacknowledged alert notifications.
type unreadCountMsg struct {
	count int
}

// alertSimulatedMsg is sent after the simulate command updated the alert.
type alertSimulatedMsg struct {
	level model.Level
	err   error
}

// configSavedMsg reports a failed configuration write; nil err is silent.
type configSavedMsg struct{ err error }

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// login resolves a phone number to a user, registering a new one when no
// existing number matches.
func (m Model) login(number string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		user, created, err := phone.Login(ctx, s, number)
		return viewerResolvedMsg{user: user, created: created, err: err}
	}
}

// restoreViewer looks up the viewer remembered from a previous run.
func (m Model) restoreViewer(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		u, err := s.GetUser(ctx, id)
		if err != nil {
			return viewerResolvedMsg{restored: true, err: err}
		}
		return viewerResolvedMsg{user: *u, restored: true}
	}
}

func (m Model) loadDirectory() tea.Cmd {
	s := m.store
	viewerID := m.session.ViewerID()
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		users, err := s.ListOtherUsers(ctx, viewerID)
		if err != nil {
			return directoryLoadedMsg{err: source.Transient("list users", err)}
		}
		latest, err := s.LatestMessages(ctx, viewerID)
		if err != nil {
			return directoryLoadedMsg{err: source.Transient("latest messages", err)}
		}
		return directoryLoadedMsg{users: users, latest: latest}
	}
}

func (m Model) loadHistory(counterpartID string) tea.Cmd {
	s := m.store
	viewerID := m.session.ViewerID()
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		msgs, err := s.FetchConversation(ctx, viewerID, counterpartID)
		return historyLoadedMsg{
			counterpartID: counterpartID,
			messages:      msgs,
			err:           source.Transient("fetch conversation", err),
		}
	}
}

func (m Model) sendMessage(p chat.Pending) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		stored, err := s.SendMessage(ctx, p.Message)
		return messageSentMsg{pending: p, stored: stored, err: err}
	}
}

func (m Model) loadNotices() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		notices, err := s.ListActiveNotices(ctx, board.NoticeLimit)
		return noticesLoadedMsg{notices: notices, err: source.Transient("list notices", err)}
	}
}

func (m Model) postNotice(body string) tea.Cmd {
	s := m.store
	authorID := m.session.ViewerID()
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		_, err := s.PostNotice(ctx, model.Notice{AuthorID: authorID, Body: body})
		return noticePostedMsg{err: err}
	}
}

func (m Model) loadPoints() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		points, err := s.ListMeetingPoints(ctx)
		return pointsLoadedMsg{points: points, err: source.Transient("list meeting points", err)}
	}
}

func (m Model) setOccupied(id string, occupied bool) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		return pointUpdatedMsg{err: s.SetMeetingPointOccupied(ctx, id, occupied)}
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unacknowledged alert notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		notifications, err := s.GetUnreadNotifications(ctx)
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}

// recordNotification stores the surfaced alert, then refreshes the count.
func (m Model) recordNotification(a model.AlertState) tea.Cmd {
	s := m.store
	log := m.log
	return tea.Sequence(
		func() tea.Msg {
			ctx, cancel := storeContext()
			defer cancel()

			if err := s.CreateNotification(ctx, notificationFor(a)); err != nil {
				log.WithError(err).Warn("recording alert notification")
			}
			return nil
		},
		m.fetchUnreadCount(),
	)
}

// acknowledge marks the notifications of a dismissed alert as read.
func (m Model) acknowledge(changeID string) tea.Cmd {
	s := m.store
	log := m.log
	return tea.Sequence(
		func() tea.Msg {
			ctx, cancel := storeContext()
			defer cancel()

			if err := s.MarkNotificationRead(ctx, changeID); err != nil {
				log.WithError(err).Warn("acknowledging alert notification")
			}
			return nil
		},
		m.fetchUnreadCount(),
	)
}

// simulateAlert publishes level on the current alert with its canned
// description.
func (m Model) simulateAlert(level model.Level) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		current, err := s.FetchLatestAlertState(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			_, err = s.CreateAlert(ctx, model.AlertState{
				Level:       level,
				Description: model.LevelDescriptions[level],
			})
		case err == nil:
			err = s.UpdateAlertLevel(ctx, current.ID, level, model.LevelDescriptions[level])
		}
		if err != nil {
			err = fmt.Errorf("simulating %s: %w", level, err)
		}
		return alertSimulatedMsg{level: level, err: err}
	}
}

// saveConfig persists the configuration.
func (m Model) saveConfig() tea.Cmd {
	if m.cfgPath == "" {
		return nil
	}
	path := m.cfgPath
	cfg := *m.cfg
	return func() tea.Msg {
		return configSavedMsg{err: model.SaveConfig(path, &cfg)}
	}
}
