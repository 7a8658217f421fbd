package sync

import (
	"context"
	"sort"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/logging"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

// Target identifies what a polling loop fetches.
type Target string

const (
	TargetAlert    Target = "alert"
	TargetMessages Target = "messages"
)

// SyncState represents the current state of a polling loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the state of a single polling loop.
type SyncStatus struct {
	Target   Target
	State    SyncState
	LastSync time.Time
	Error    error
}

// AlertPolledMsg is a tea.Msg carrying the latest alert state. Err is a
// *source.TransientFetchError when the fetch failed.
type AlertPolledMsg struct {
	Alert *model.AlertState
	Err   error
}

// MessagesPolledMsg is a tea.Msg carrying messages no earlier poll
// delivered, oldest first.
type MessagesPolledMsg struct {
	Messages []model.Message
	Err      error
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 15 * time.Second

const (
	defaultAlertInterval    = 5 * time.Second
	defaultMessagesInterval = 3 * time.Second

	// defaultCatchUpOverlap is how far behind the cursor each message
	// poll starts, so rows committed late with an earlier timestamp are
	// still picked up.
	defaultCatchUpOverlap = 2 * time.Second
)

type loop struct {
	target   Target
	interval time.Duration
	fetch    func(ctx context.Context) tea.Msg
}

// Poller runs one background polling loop per target and delivers results
// to the Bubble Tea runtime through a single channel, so every observation
// is handled on the UI event loop.
type Poller struct {
	clock clockwork.Clock
	log   logrus.FieldLogger

	alerts        source.AlertSource
	alertInterval time.Duration

	messages         source.MessageSource
	viewerID         string
	messagesInterval time.Duration
	since            time.Time
	overlap          time.Duration
	seen             map[string]time.Time

	loops     []loop
	statuses  map[Target]*SyncStatus
	resultCh  chan tea.Msg
	triggerCh map[Target]chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock used for poll intervals.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger for fetch failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Poller) { p.log = l }
}

// WithAlerts polls alerts every interval.
func WithAlerts(alerts source.AlertSource, interval time.Duration) Option {
	return func(p *Poller) {
		p.alerts = alerts
		p.alertInterval = interval
	}
}

// WithMessageCatchUp polls for messages involving viewerID sent after
// since. It is the message transport for backends without a change feed.
func WithMessageCatchUp(
	messages source.MessageSource,
	viewerID string,
	since time.Time,
	interval time.Duration,
) Option {
	return func(p *Poller) {
		p.messages = messages
		p.viewerID = viewerID
		p.since = since
		p.messagesInterval = interval
	}
}

// WithCatchUpOverlap sets how far behind the cursor message polls start.
func WithCatchUpOverlap(d time.Duration) Option {
	return func(p *Poller) { p.overlap = d }
}

// New creates a new Poller.
func New(opts ...Option) *Poller {
	p := &Poller{
		clock:     clockwork.NewRealClock(),
		statuses:  make(map[Target]*SyncStatus),
		resultCh:  make(chan tea.Msg, 16),
		triggerCh: make(map[Target]chan struct{}),
		stopCh:    make(chan struct{}),
		overlap:   defaultCatchUpOverlap,
		seen:      make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logging.OrDiscard(p.log).WithField("component", "poller")

	if p.alerts != nil {
		p.register(TargetAlert, p.alertInterval, defaultAlertInterval, p.fetchAlert)
	}
	if p.messages != nil {
		p.register(TargetMessages, p.messagesInterval, defaultMessagesInterval, p.fetchMessages)
	}
	return p
}

func (p *Poller) register(t Target, interval, fallback time.Duration, fetch func(context.Context) tea.Msg) {
	if interval <= 0 {
		interval = fallback
	}
	p.loops = append(p.loops, loop{target: t, interval: interval, fetch: fetch})
	p.statuses[t] = &SyncStatus{Target: t, State: SyncIdle}
	p.triggerCh[t] = make(chan struct{}, 1)
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || len(p.loops) == 0 {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	for _, l := range p.loops {
		go p.run(l)
	}

	return p.WaitForNextResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of every target.
func (p *Poller) RefreshAll() {
	for _, l := range p.loops {
		p.Refresh(l.target)
	}
}

// Refresh triggers an immediate poll of a single target. A refresh that is
// already pending is not queued twice.
func (p *Poller) Refresh(t Target) {
	ch, ok := p.triggerCh[t]
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// GetStatuses returns the current status of every loop, ordered by target.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Target < statuses[j].Target
	})
	return statuses
}

// Since returns the message catch-up cursor.
func (p *Poller) Since() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.since
}

// run is the polling loop for a single target.
func (p *Poller) run(l loop) {
	ticker := p.clock.NewTicker(l.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.poll(l)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.Chan():
			p.poll(l)
		case <-p.triggerCh[l.target]:
			p.poll(l)
		}
	}
}

func (p *Poller) poll(l loop) {
	p.setStatus(l.target, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.sendResult(l.fetch(ctx))
}

func (p *Poller) fetchAlert(ctx context.Context) tea.Msg {
	alert, err := p.alerts.FetchLatestAlertState(ctx)
	if err != nil {
		err = source.Transient("fetch alert", err)
		p.setStatus(TargetAlert, SyncError, err)
		p.log.WithError(err).Debug("alert poll failed")
		return AlertPolledMsg{Err: err}
	}
	p.setStatus(TargetAlert, SyncIdle, nil)
	return AlertPolledMsg{Alert: alert}
}

func (p *Poller) fetchMessages(ctx context.Context) tea.Msg {
	p.mu.Lock()
	from := p.since.Add(-p.overlap)
	p.mu.Unlock()

	messages, err := p.messages.MessagesSince(ctx, p.viewerID, from)
	if err != nil {
		err = source.Transient("fetch messages", err)
		p.setStatus(TargetMessages, SyncError, err)
		p.log.WithError(err).Debug("message poll failed")
		return MessagesPolledMsg{Err: err}
	}

	p.mu.Lock()
	fresh := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if _, ok := p.seen[m.ID]; ok {
			continue
		}
		p.seen[m.ID] = m.SentAt
		fresh = append(fresh, m)
		if m.SentAt.After(p.since) {
			p.since = m.SentAt
		}
	}
	horizon := p.since.Add(-p.overlap)
	for id, at := range p.seen {
		if at.Before(horizon) {
			delete(p.seen, id)
		}
	}
	p.mu.Unlock()

	p.setStatus(TargetMessages, SyncIdle, nil)
	return MessagesPolledMsg{Messages: fresh}
}

// setStatus updates the status of a loop.
func (p *Poller) setStatus(t Target, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[t]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = p.clock.Now()
	}
}

// sendResult sends a result on the result channel without blocking.
func (p *Poller) sendResult(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// This should be called after processing a result to continue listening
// for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		return <-p.resultCh
	}
}
