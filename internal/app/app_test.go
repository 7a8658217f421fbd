package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/alert"
	"github.com/nhle/vulcania/internal/feed"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/store"
	appsync "github.com/nhle/vulcania/internal/sync"
	"github.com/nhle/vulcania/internal/ui/chatlist"
	"github.com/nhle/vulcania/internal/ui/command"
	configview "github.com/nhle/vulcania/internal/ui/config"
	"github.com/nhle/vulcania/internal/ui/thread"
	"github.com/nhle/vulcania/tests/testutil"
)

// stubFeed stands in for the Postgres change feed so no catch-up poller
// is started.
type stubFeed struct{}

func (stubFeed) WaitForEvent() tea.Cmd { return nil }

type fixture struct {
	store   *store.SQLStore
	me      model.User
	ana     model.User
	cfgPath string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	return fixture{
		store:   s,
		me:      testutil.MustCreateUser(t, s, "Yo", "+56900000000"),
		ana:     testutil.MustCreateUser(t, s, "Ana", "+56911111111"),
		cfgPath: filepath.Join(t.TempDir(), "config.yaml"),
	}
}

func (f fixture) newModel(t *testing.T, feed EventSource) Model {
	t.Helper()
	m := New(Options{
		Store:      f.store,
		ConfigPath: f.cfgPath,
		Feed:       feed,
		Clock:      clockwork.NewFakeClock(),
	})
	t.Cleanup(m.stopTransports)
	return m
}

// update applies msg and returns the new root model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// loggedIn returns a model logged in as f.me with the directory loaded.
func (f fixture) loggedIn(t *testing.T) Model {
	t.Helper()
	m := f.newModel(t, stubFeed{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, viewerResolvedMsg{user: f.me})
	m, _ = update(t, m, m.loadDirectory()())
	return m
}

func TestLoginStartsSessionAndRemembersViewer(t *testing.T) {
	f := newFixture(t)
	m := f.newModel(t, stubFeed{})

	m, cmd := update(t, m, viewerResolvedMsg{user: f.me, created: true})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewChats, m.currentView)
	require.NotNil(t, m.session)
	assert.Equal(t, f.me.ID, m.session.ViewerID())
	assert.Equal(t, f.me.ID, m.cfg.Session.ViewerID)

	// The remembered viewer is written to disk.
	saved := m.saveConfig()()
	assert.Equal(t, configSavedMsg{}, saved)
	cfg, err := model.LoadConfig(f.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, f.me.ID, cfg.Session.ViewerID)

	m, _ = update(t, m, m.loadDirectory()())
	assert.Equal(t, 1, m.chatList.Len())
	assert.Nil(t, m.msgPoller, "feed-backed sessions do not poll for messages")
}

func TestLoginByPhoneVariant(t *testing.T) {
	f := newFixture(t)
	m := f.newModel(t, stubFeed{})

	msg := m.login("+56 9 1111 1111")()
	resolved, ok := msg.(viewerResolvedMsg)
	require.True(t, ok)
	require.NoError(t, resolved.err)
	assert.Equal(t, f.ana.ID, resolved.user.ID)
	assert.False(t, resolved.created)
}

func TestRestoringMissingViewerFallsBackToLogin(t *testing.T) {
	f := newFixture(t)
	m := f.newModel(t, stubFeed{})
	m.cfg.Session.ViewerID = "gone"

	m, _ = update(t, m, m.restoreViewer("gone")())
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Nil(t, m.session)
	assert.Equal(t, "", m.cfg.Session.ViewerID)
}

func TestCatchUpPollerStartsWithoutFeed(t *testing.T) {
	f := newFixture(t)
	m := f.newModel(t, nil)

	m, _ = update(t, m, viewerResolvedMsg{user: f.me})
	m, cmd := update(t, m, m.loadDirectory()())
	require.NotNil(t, m.msgPoller)
	assert.NotNil(t, cmd)
	t.Cleanup(m.msgPoller.Stop)
}

func TestFeedMessageMarksConversationUnread(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	stored, err := f.store.SendMessage(context.Background(), model.Message{
		SenderID: f.ana.ID, RecipientID: f.me.ID, Body: "¿estás bien?",
	})
	require.NoError(t, err)

	ev := feed.Event{Kind: feed.KindMessageInserted, Message: &stored}
	m, _ = update(t, m, ev)
	assert.Equal(t, 1, m.session.UnreadCount())
	assert.Contains(t, m.headerTitle(), "[1 unread]")

	// Redelivery through the feed is a no-op.
	m, _ = update(t, m, ev)
	assert.Equal(t, 1, m.session.UnreadCount())
}

func TestOpenSendAndConfirm(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	m, _ = update(t, m, chatlist.OpenConversationMsg{CounterpartID: f.ana.ID})
	assert.Equal(t, ViewThread, m.currentView)
	m, _ = update(t, m, m.loadHistory(f.ana.ID)())
	active, ok := m.session.Active()
	require.True(t, ok)
	assert.Equal(t, f.ana.ID, active.ID)

	m, cmd := update(t, m, thread.SendMsg{Body: "hola"})
	require.NotNil(t, cmd)
	threadMsgs := m.session.Thread()
	require.Len(t, threadMsgs, 1)
	assert.True(t, threadMsgs[0].IsLocal())

	m, _ = update(t, m, cmd())
	threadMsgs = m.session.Thread()
	require.Len(t, threadMsgs, 1)
	assert.False(t, threadMsgs[0].IsLocal())
	assert.Equal(t, "hola", threadMsgs[0].Body)

	m, _ = update(t, m, thread.BackMsg{})
	assert.Equal(t, ViewChats, m.currentView)
	_, ok = m.session.Active()
	assert.False(t, ok)
}

func TestFailedSendRollsBackAndRestoresInput(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	m, _ = update(t, m, chatlist.OpenConversationMsg{CounterpartID: f.ana.ID})
	m, _ = update(t, m, m.loadHistory(f.ana.ID)())
	m, cmd := update(t, m, thread.SendMsg{Body: "hola"})
	require.NotNil(t, cmd)

	sent, ok := cmd().(messageSentMsg)
	require.True(t, ok)
	sent.stored = model.Message{}
	sent.err = errors.New("offline")

	m, _ = update(t, m, sent)
	assert.Empty(t, m.session.Thread())
	assert.Equal(t, "hola", m.threadView.Input())
	assert.Contains(t, m.threadView.View(), "message not sent")
}

func TestStaleHistoryIsIgnoredAfterLeaving(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	m, _ = update(t, m, chatlist.OpenConversationMsg{CounterpartID: f.ana.ID})
	history := m.loadHistory(f.ana.ID)()
	m, _ = update(t, m, thread.BackMsg{})

	m, _ = update(t, m, history)
	_, ok := m.session.Active()
	assert.False(t, ok, "late history must not reopen the conversation")
}

func TestEmergencyAlertShowsOverlayUntilAcknowledged(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	a := model.AlertState{
		ID:          "a1",
		Level:       model.LevelEmergency,
		Description: model.LevelDescriptions[model.LevelEmergency],
		UpdatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	m, _ = update(t, m, appsync.AlertPolledMsg{Alert: &a})
	assert.True(t, m.banner.Displaying())
	assert.Equal(t, alert.StateDisplaying, m.reconciler.State())
	assert.NotNil(t, m.scheduler.Active())
	assert.Contains(t, m.View(), "ALERTA ROJO")

	// Keys other than acknowledge and mute are swallowed by the overlay.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	assert.Equal(t, ViewChats, m.currentView)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.False(t, m.banner.Displaying())
	assert.Equal(t, alert.StateDismissed, m.reconciler.State())
	assert.Nil(t, m.scheduler.Active())

	// The same state polled again stays dismissed.
	m, _ = update(t, m, appsync.AlertPolledMsg{Alert: &a})
	assert.False(t, m.banner.Displaying())
}

func TestFailedAlertPollMarksBannerStale(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	m, _ = update(t, m, appsync.AlertPolledMsg{Err: errors.New("timeout")})
	assert.Contains(t, m.banner.View(), "(offline)")
	assert.False(t, m.banner.Displaying())
}

func TestMuteKeyTogglesSchedulerAndConfig(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)
	require.False(t, m.scheduler.Muted())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	require.NotNil(t, cmd)
	assert.True(t, m.scheduler.Muted())
	assert.False(t, m.cfg.Alert.Sound)

	assert.Equal(t, configSavedMsg{}, cmd())
	cfg, err := model.LoadConfig(f.cfgPath)
	require.NoError(t, err)
	assert.False(t, cfg.Alert.Sound)
}

func TestSimulateCommandPublishesLevel(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	cmd := m.executeCommand(command.CommandMsg("simulate naranja"))
	require.NotNil(t, cmd)
	assert.Equal(t, alertSimulatedMsg{level: model.LevelWarning}, cmd())

	got, err := f.store.FetchLatestAlertState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.LevelWarning, got.Level)
	assert.Equal(t, model.LevelDescriptions[model.LevelWarning], got.Description)

	cmd = m.executeCommand(command.CommandMsg("simulate emergency"))
	require.NotNil(t, cmd)
	assert.Equal(t, alertSimulatedMsg{level: model.LevelEmergency}, cmd())

	again, err := f.store.FetchLatestAlertState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID, "the existing alert row is updated")
	assert.Equal(t, model.LevelEmergency, again.Level)
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	assert.Nil(t, m.executeCommand(command.CommandMsg("simulate violeta")))
	assert.Contains(t, m.status, "violeta")

	assert.Nil(t, m.executeCommand(command.CommandMsg("simulate")))
	assert.Contains(t, m.status, "usage")

	assert.Nil(t, m.executeCommand(command.CommandMsg("dance")))
	assert.Contains(t, m.status, "unknown command")
}

func TestSectionKeysSwitchViews(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	assert.Equal(t, ViewPoints, m.currentView)
	require.NotNil(t, cmd)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	assert.Equal(t, ViewBoard, m.currentView)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Equal(t, ViewHelp, m.currentView)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBoard, m.currentView)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	assert.Equal(t, ViewChats, m.currentView)
}

func TestSettingsApplyThresholdAndSound(t *testing.T) {
	f := newFixture(t)
	m := f.loggedIn(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	require.Equal(t, ViewSettings, m.currentView)

	saved := m.cfg.Alert
	saved.NotifyThreshold = "watch"
	saved.Sound = false
	chat := m.cfg.Chat
	chat.PollIntervalSec = 10

	m, cmd := update(t, m, configview.SettingsSavedMsg{
		Alert:  saved,
		Chat:   chat,
		Driver: model.DriverSQLite,
	})
	require.NotNil(t, cmd)
	assert.Equal(t, model.LevelWatch, m.reconciler.Threshold())
	assert.True(t, m.scheduler.Muted())
	assert.Contains(t, m.View(), "apply after restart")

	assert.Equal(t, configSavedMsg{}, cmd())
	cfg, err := model.LoadConfig(f.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "watch", cfg.Alert.NotifyThreshold)
	assert.Equal(t, 10, cfg.Chat.PollIntervalSec)

	a := model.AlertState{
		ID:        "a1",
		Level:     model.LevelWatch,
		UpdatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	m, _ = update(t, m, appsync.AlertPolledMsg{Alert: &a})
	assert.True(t, m.banner.Displaying())
}
