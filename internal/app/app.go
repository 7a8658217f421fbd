package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/alert"
	"github.com/nhle/vulcania/internal/chat"
	"github.com/nhle/vulcania/internal/feed"
	"github.com/nhle/vulcania/internal/logging"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/store"
	appsync "github.com/nhle/vulcania/internal/sync"
	"github.com/nhle/vulcania/internal/ui"
	"github.com/nhle/vulcania/internal/ui/banner"
	"github.com/nhle/vulcania/internal/ui/board"
	"github.com/nhle/vulcania/internal/ui/chatlist"
	"github.com/nhle/vulcania/internal/ui/command"
	configview "github.com/nhle/vulcania/internal/ui/config"
	helpview "github.com/nhle/vulcania/internal/ui/help"
	"github.com/nhle/vulcania/internal/ui/login"
	"github.com/nhle/vulcania/internal/ui/points"
	"github.com/nhle/vulcania/internal/ui/thread"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewChats
	ViewThread
	ViewBoard
	ViewPoints
	ViewSettings
	ViewHelp
	ViewCommand
)

// Options holds the collaborators of the root model.
type Options struct {
	Store      store.Store
	Config     *model.AppConfig
	ConfigPath string

	// Scheduler plays the alert cues. Cues is the notifier it was built
	// with that forwards cues to the banner; it may be nil.
	Scheduler *alert.Scheduler
	Cues      *alert.CueNotifier

	// Feed is the realtime change feed, nil for backends without one.
	Feed EventSource

	// Phone logs in with this number instead of showing the login form.
	Phone string

	Logger logrus.FieldLogger
	Clock  clockwork.Clock
}

// Model is the root Bubble Tea model. Every poll result, feed event and
// key press is applied here, one at a time, so the chat session and the
// alert reconciler never see concurrent updates.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ready        bool

	store   store.Store
	cfg     *model.AppConfig
	cfgPath string
	log     logrus.FieldLogger
	clock   clockwork.Clock
	keys    *KeyMap
	phone   string

	feed        EventSource
	cues        *alert.CueNotifier
	scheduler   *alert.Scheduler
	reconciler  *alert.Reconciler
	alertPoller *appsync.Poller
	msgPoller   *appsync.Poller

	session      *chat.Session
	viewer       *model.User
	unreadAlerts int
	status       string

	loginView    login.Model
	banner       banner.Model
	chatList     chatlist.Model
	threadView   thread.Model
	boardView    board.Model
	pointsView   points.Model
	settingsView configview.Model
	helpView     helpview.Model
	commandView  command.Model
}

// New creates the root application model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	log := logging.OrDiscard(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	scheduler := opts.Scheduler
	if scheduler == nil {
		warning, emergency, leadIn := cfg.Alert.CueIntervals()
		scheduler = alert.NewScheduler(
			alert.NewLoggingNotifier(alert.MultiNotifier{}, log),
			alert.WithClock(clock),
			alert.WithIntervals(warning, emergency),
			alert.WithLeadIn(leadIn),
			alert.WithSchedulerLogger(log),
		)
	}
	scheduler.SetMuted(!cfg.Alert.Sound)

	keys := DefaultKeyMap()

	m := Model{
		currentView: ViewLogin,
		store:       opts.Store,
		cfg:         cfg,
		cfgPath:     opts.ConfigPath,
		log:         log,
		clock:       clock,
		keys:        keys,
		phone:       opts.Phone,
		feed:        opts.Feed,
		cues:        opts.Cues,
		scheduler:   scheduler,
		reconciler: alert.NewReconciler(
			scheduler,
			alert.WithThreshold(cfg.Alert.Threshold()),
			alert.WithReconcilerLogger(log),
		),
		alertPoller: appsync.New(
			appsync.WithClock(clock),
			appsync.WithLogger(log),
			appsync.WithAlerts(opts.Store, cfg.Alert.AlertPollInterval()),
		),
		loginView:    login.New(80, 24),
		banner:       banner.New(80, 24),
		chatList:     chatlist.New("", keys, 80, 24),
		threadView:   thread.New(80, 24),
		boardView:    board.New(keys, 80, 24),
		pointsView:   points.New(keys, 80, 24),
		settingsView: configview.New(keys, 80, 24),
		helpView:     helpview.New(keys, 80, 24),
		commandView:  command.New(80, 24),
	}
	m.banner.SetMuted(scheduler.Muted())
	m.settingsView.SetConfig(*cfg)
	return m
}

// Init starts alert polling and the feed subscription and resolves the
// viewer: the one remembered from the last run, the --phone number, or
// the login form.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.alertPoller.Start(),
		m.fetchUnreadCount(),
	}
	if m.cues != nil {
		cmds = append(cmds, m.cues.WaitForCue())
	}
	if m.feed != nil {
		cmds = append(cmds, m.feed.WaitForEvent())
	}

	switch {
	case m.cfg.Session.ViewerID != "":
		cmds = append(cmds, m.restoreViewer(m.cfg.Session.ViewerID))
	case m.phone != "":
		cmds = append(cmds, m.login(m.phone))
	default:
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.banner.SetSize(w, h)
		m.chatList.SetSize(w, h)
		m.threadView.SetSize(w, h)
		m.boardView.SetSize(w, h)
		m.pointsView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	// === Login ===

	case login.LoginSubmittedMsg:
		return m, m.login(msg.Phone)

	case login.LoginCancelMsg:
		m.stopTransports()
		return m, tea.Quit

	case viewerResolvedMsg:
		return m.handleViewerResolved(msg)

	// === Chat ===

	case directoryLoadedMsg:
		return m.handleDirectoryLoaded(msg)

	case chatlist.OpenConversationMsg:
		return m.openConversation(msg.CounterpartID)

	case historyLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case thread.SendMsg:
		return m.beginSend(msg.Body)

	case messageSentMsg:
		return m.handleMessageSent(msg)

	case thread.BackMsg:
		if m.session != nil {
			m.session.Close()
			m.syncChatViews()
		}
		m.currentView = ViewChats
		return m, nil

	case appsync.MessagesPolledMsg:
		cmd := m.msgPoller.WaitForNextResult()
		if msg.Err != nil {
			m.log.WithError(msg.Err).Debug("message catch-up failed")
			return m, cmd
		}
		for _, message := range msg.Messages {
			m.applyInserted(message)
		}
		return m, cmd

	// === Alerts ===

	case appsync.AlertPolledMsg:
		cmd := m.alertPoller.WaitForNextResult()
		if msg.Err != nil {
			m.banner.SetStale(true)
			return m, cmd
		}
		if msg.Alert == nil {
			return m, cmd
		}
		observed := m.observeAlert(*msg.Alert)
		return m, tea.Batch(cmd, observed)

	case alert.CueMsg:
		var cmd tea.Cmd
		m.banner, cmd = m.banner.Update(msg)
		return m, tea.Batch(cmd, m.cues.WaitForCue())

	case alertSimulatedMsg:
		if msg.err != nil {
			m.status = describeError("simulate", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("alert level set to %s", msg.level)
		m.alertPoller.Refresh(appsync.TargetAlert)
		return m, nil

	case unreadCountMsg:
		m.unreadAlerts = msg.count
		return m, nil

	// === Change feed ===

	case feed.Event:
		return m.handleFeedEvent(msg)

	// === Board and meeting points ===

	case noticesLoadedMsg:
		if msg.err != nil {
			m.boardView.SetStatus(describeError("notices", msg.err))
			return m, nil
		}
		m.boardView.SetNotices(msg.notices)
		return m, nil

	case board.PostNoticeMsg:
		if m.session == nil {
			return m, nil
		}
		return m, m.postNotice(msg.Body)

	case noticePostedMsg:
		if msg.err != nil {
			m.boardView.SetStatus(describeError("post notice", msg.err))
			return m, nil
		}
		return m, m.loadNotices()

	case pointsLoadedMsg:
		if msg.err != nil {
			m.status = describeError("meeting points", msg.err)
			return m, nil
		}
		cmd := m.pointsView.SetPoints(msg.points)
		return m, cmd

	case points.ToggleOccupiedMsg:
		return m, m.setOccupied(msg.ID, msg.Occupied)

	case pointUpdatedMsg:
		if msg.err != nil {
			m.status = describeError("meeting point", msg.err)
			return m, nil
		}
		return m, m.loadPoints()

	// === Settings ===

	case configview.SettingsSavedMsg:
		cmd := m.applySettings(msg)
		return m, cmd

	case configview.ForgetDSNMsg:
		return m, forgetDSN()

	case dsnSavedMsg:
		m.handleDSNSaved(msg)
		return m, nil

	// === Shell ===

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case configSavedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("saving configuration")
		}
		return m, nil

	case tea.KeyMsg:
		if handled, next, cmd := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	// The banner only reacts to its own flash timers.
	var bannerCmd tea.Cmd
	m.banner, bannerCmd = m.banner.Update(msg)

	// Delegate to active sub-view
	next, cmd := m.updateActiveView(msg)
	return next, tea.Batch(bannerCmd, cmd)
}

// handleKey processes global keys. It reports whether the key was consumed.
func (m Model) handleKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.stopTransports()
		return true, m, tea.Quit
	}

	// The emergency overlay is modal.
	if m.banner.Displaying() {
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			cmd := m.dismissAlert()
			return true, m, cmd
		case key.Matches(msg, m.keys.Mute):
			cmd := m.toggleMute()
			return true, m, cmd
		}
		return true, m, nil
	}

	// Views with text input receive every key.
	switch m.currentView {
	case ViewLogin, ViewThread:
		return false, m, nil
	case ViewCommand:
		if msg.Type == tea.KeyEsc {
			m.currentView = m.previousView
			return true, m, nil
		}
		return false, m, nil
	case ViewBoard:
		if m.boardView.Composing() {
			return false, m, nil
		}
	case ViewSettings:
		if m.settingsView.Editing() {
			return false, m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopTransports()
		return true, m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		if m.currentView != ViewChats {
			m.currentView = ViewChats
			return true, m, nil
		}

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return true, m, cmd

	case key.Matches(msg, m.keys.Chats):
		m.currentView = ViewChats
		return true, m, nil

	case key.Matches(msg, m.keys.Board):
		m.currentView = ViewBoard
		return true, m, m.loadNotices()

	case key.Matches(msg, m.keys.Points):
		m.currentView = ViewPoints
		return true, m, m.loadPoints()

	case key.Matches(msg, m.keys.Settings):
		m.currentView = ViewSettings
		return true, m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refreshAll()
		return true, m, cmd

	case key.Matches(msg, m.keys.Mute):
		cmd := m.toggleMute()
		return true, m, cmd
	}

	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewChats:
		m.chatList, cmd = m.chatList.Update(msg)
	case ViewThread:
		m.threadView, cmd = m.threadView.Update(msg)
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewPoints:
		m.pointsView, cmd = m.pointsView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.banner.View(), m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.banner.Displaying() {
		return m.banner.ModalView()
	}

	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewChats:
		return m.chatList.View()
	case ViewThread:
		return m.threadView.View()
	case ViewBoard:
		return m.boardView.View()
	case ViewPoints:
		return m.pointsView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) headerTitle() string {
	title := "Vulcania"
	if m.viewer != nil {
		title += " · " + m.viewer.Name
	}
	if m.session != nil {
		if n := m.session.UnreadCount(); n > 0 {
			title += fmt.Sprintf(" [%d unread]", n)
		}
	}
	if m.unreadAlerts > 0 {
		title += fmt.Sprintf(" [%d alerts]", m.unreadAlerts)
	}
	return title
}

// syncStatus returns a short string describing the transports.
func (m Model) syncStatus() string {
	statuses := m.alertPoller.GetStatuses()
	if m.msgPoller != nil {
		statuses = append(statuses, m.msgPoller.GetStatuses()...)
	}

	var failing []string
	running := 0
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failing = append(failing, string(s.Target))
		}
	}

	switch {
	case len(failing) > 0:
		return "offline: " + strings.Join(failing, ", ")
	case running > 0:
		return "syncing"
	case m.feed != nil:
		return "live"
	default:
		return "polling"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.banner.Displaying() {
		return "enter acknowledge | m toggle sound | ctrl+c quit"
	}
	if m.status != "" && m.currentView != ViewLogin {
		return m.status
	}

	switch m.currentView {
	case ViewLogin:
		return "enter continue | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewThread:
		return "enter send | esc back"
	case ViewBoard:
		return "n post | 1 chats | 3 points | ? help | q quit"
	case ViewPoints:
		return "o toggle occupied | 1 chats | 2 board | ? help | q quit"
	case ViewSettings:
		if m.settingsView.Editing() {
			return "tab next field | enter confirm | esc cancel"
		}
		return "e edit | d forget DSN | 1 chats | ? help | q quit"
	default:
		return "enter open | 2 board | 3 points | r refresh | m sound | : command | ? help | q quit"
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	m.status = ""

	switch c.Verb() {
	case "refresh":
		return m.refreshAll()

	case "quit":
		m.stopTransports()
		return tea.Quit

	case "simulate":
		args := c.Args()
		if len(args) != 1 {
			m.status = "usage: simulate <normal|watch|warning|emergency>"
			return nil
		}
		level, err := model.ParseLevel(args[0])
		if err != nil {
			m.status = err.Error()
			return nil
		}
		return m.simulateAlert(level)

	case "mute":
		if !m.scheduler.Muted() {
			return m.toggleMute()
		}
		return nil

	case "unmute":
		if m.scheduler.Muted() {
			return m.toggleMute()
		}
		return nil

	case "chats":
		if m.session != nil {
			m.currentView = ViewChats
		}
		return nil

	case "board":
		if m.session != nil {
			m.currentView = ViewBoard
			return m.loadNotices()
		}
		return nil

	case "points":
		if m.session != nil {
			m.currentView = ViewPoints
			return m.loadPoints()
		}
		return nil

	case "settings":
		m.currentView = ViewSettings
		return nil

	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil

	case "logout":
		m.cfg.Session.ViewerID = ""
		m.stopTransports()
		return tea.Sequence(m.saveConfig(), tea.Quit)

	default:
		m.status = fmt.Sprintf("unknown command %q", string(c))
		return nil
	}
}
