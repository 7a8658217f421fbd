package feed

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/logging"
)

const (
	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = time.Minute

	// pingInterval keeps idle connections from being dropped silently.
	pingInterval = 90 * time.Second
)

// Listener subscribes to the Postgres change channel and turns
// notifications into Events.
type Listener struct {
	pl     *pq.Listener
	notify <-chan *pq.Notification
	ping   func() error
	events chan Event
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

// Option configures a Listener.
type Option func(*Listener)

// WithClock replaces the wall clock that drives keep-alive pings.
func WithClock(c clockwork.Clock) Option {
	return func(l *Listener) { l.clock = c }
}

// WithLogger sets the logger for connection events and bad payloads.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Listener) { l.log = log }
}

func newListener(opts []Option) *Listener {
	l := &Listener{
		events: make(chan Event, 64),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.OrDiscard(l.log).WithField("component", "feed")
	return l
}

// NewListener connects to dsn and listens on Channel.
func NewListener(dsn string, opts ...Option) (*Listener, error) {
	l := newListener(opts)

	report := func(ev pq.ListenerEventType, err error) {
		entry := l.log.WithField("event", listenerEventName(ev))
		if err != nil {
			entry.WithError(err).Warn("change feed connection event")
			return
		}
		entry.Debug("change feed connection event")
	}

	pl := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, report)
	if err := pl.Listen(Channel); err != nil {
		pl.Close()
		return nil, fmt.Errorf("listening on %s: %w", Channel, err)
	}

	l.pl = pl
	l.notify = pl.Notify
	l.ping = pl.Ping
	return l, nil
}

// Run forwards notifications until ctx is cancelled. A nil notification
// from the driver means the connection was re-established, which is
// forwarded as a KindResync event.
func (l *Listener) Run(ctx context.Context) {
	ticker := l.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case n, ok := <-l.notify:
			if !ok {
				return
			}
			if n == nil {
				l.send(ctx, Event{Kind: KindResync})
				continue
			}
			ev, err := Decode(n.Extra)
			if err != nil {
				l.log.WithError(err).Warn("dropping change notification")
				continue
			}
			l.send(ctx, ev)

		case <-ticker.Chan():
			if err := l.ping(); err != nil {
				l.log.WithError(err).Debug("change feed ping failed")
			}
		}
	}
}

func (l *Listener) send(ctx context.Context, ev Event) {
	select {
	case l.events <- ev:
	case <-ctx.Done():
	}
}

// WaitForEvent returns a tea.Cmd that waits for the next change. It should
// be re-issued after every Event.
func (l *Listener) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-l.events
	}
}

// Close unlistens and closes the connection.
func (l *Listener) Close() error {
	if l.pl == nil {
		return nil
	}
	return l.pl.Close()
}

func listenerEventName(ev pq.ListenerEventType) string {
	switch ev {
	case pq.ListenerEventConnected:
		return "connected"
	case pq.ListenerEventDisconnected:
		return "disconnected"
	case pq.ListenerEventReconnected:
		return "reconnected"
	case pq.ListenerEventConnectionAttemptFailed:
		return "connection_attempt_failed"
	default:
		return "unknown"
	}
}
