package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

var epoch = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeAlerts struct {
	mu    gosync.Mutex
	state *model.AlertState
	err   error
	calls int
}

func (f *fakeAlerts) FetchLatestAlertState(context.Context) (*model.AlertState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := *f.state
	return &s, nil
}

func (f *fakeAlerts) UpdateAlertLevel(context.Context, string, model.Level, string) error {
	return nil
}

type fakeMessages struct {
	mu       gosync.Mutex
	messages []model.Message
	sinces   []time.Time
}

func (f *fakeMessages) FetchConversation(context.Context, string, string) ([]model.Message, error) {
	return nil, nil
}

func (f *fakeMessages) SendMessage(_ context.Context, m model.Message) (model.Message, error) {
	return m, nil
}

func (f *fakeMessages) LatestMessages(context.Context, string) (map[string]model.Message, error) {
	return nil, nil
}

func (f *fakeMessages) MessagesSince(_ context.Context, _ string, since time.Time) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinces = append(f.sinces, since)
	var out []model.Message
	for _, m := range f.messages {
		if !m.SentAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) add(m model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
}

func next(t *testing.T, p *Poller) tea.Msg {
	t.Helper()
	done := make(chan tea.Msg, 1)
	go func() { done <- p.WaitForNextResult()() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for poll result")
		return nil
	}
}

func TestPollerAlertLoop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	alerts := &fakeAlerts{state: &model.AlertState{ID: "a1", Level: model.LevelWatch, UpdatedAt: epoch}}
	p := New(WithClock(fc), WithAlerts(alerts, 5*time.Second))
	defer p.Stop()

	require.NotNil(t, p.Start())
	assert.Nil(t, p.Start(), "second start is a no-op")

	msg, ok := next(t, p).(AlertPolledMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, model.LevelWatch, msg.Alert.Level)

	fc.BlockUntil(1)
	fc.Advance(5 * time.Second)
	msg = next(t, p).(AlertPolledMsg)
	assert.Equal(t, "a1", msg.Alert.ID)

	statuses := p.GetStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, TargetAlert, statuses[0].Target)
	assert.Equal(t, SyncIdle, statuses[0].State)
}

func TestPollerReportsTransientErrors(t *testing.T) {
	fc := clockwork.NewFakeClock()
	alerts := &fakeAlerts{err: errors.New("connection refused")}
	p := New(WithClock(fc), WithAlerts(alerts, time.Second))
	defer p.Stop()

	p.Start()
	msg := next(t, p).(AlertPolledMsg)
	assert.True(t, source.IsTransient(msg.Err))
	assert.Nil(t, msg.Alert)

	statuses := p.GetStatuses()
	assert.Equal(t, SyncError, statuses[0].State)
	assert.Error(t, statuses[0].Error)
}

func TestPollerRefresh(t *testing.T) {
	fc := clockwork.NewFakeClock()
	alerts := &fakeAlerts{state: &model.AlertState{ID: "a1", UpdatedAt: epoch}}
	p := New(WithClock(fc), WithAlerts(alerts, time.Hour))
	defer p.Stop()

	p.Start()
	next(t, p)

	p.Refresh(TargetAlert)
	next(t, p)

	alerts.mu.Lock()
	defer alerts.mu.Unlock()
	assert.Equal(t, 2, alerts.calls)
}

func TestPollerMessageCursorAdvances(t *testing.T) {
	fc := clockwork.NewFakeClock()
	msgs := &fakeMessages{}
	msgs.add(model.Message{ID: "old", SentAt: epoch.Add(-time.Minute)})
	msgs.add(model.Message{ID: "m1", SentAt: epoch.Add(time.Minute)})

	p := New(WithClock(fc), WithMessageCatchUp(msgs, "me", epoch, 3*time.Second))
	defer p.Stop()

	p.Start()
	first := next(t, p).(MessagesPolledMsg)
	require.NoError(t, first.Err)
	require.Len(t, first.Messages, 1)
	assert.Equal(t, "m1", first.Messages[0].ID)
	assert.Equal(t, epoch.Add(time.Minute), p.Since())

	msgs.add(model.Message{ID: "m2", SentAt: epoch.Add(2 * time.Minute)})
	fc.BlockUntil(1)
	fc.Advance(3 * time.Second)

	second := next(t, p).(MessagesPolledMsg)
	require.Len(t, second.Messages, 1)
	assert.Equal(t, "m2", second.Messages[0].ID)

	msgs.mu.Lock()
	defer msgs.mu.Unlock()
	assert.Equal(t, epoch.Add(time.Minute-defaultCatchUpOverlap), msgs.sinces[1])
}

func TestPollerPicksUpLateRowsInsideOverlap(t *testing.T) {
	fc := clockwork.NewFakeClock()
	msgs := &fakeMessages{}
	at := epoch.Add(time.Minute)
	msgs.add(model.Message{ID: "a", SentAt: at})

	p := New(WithClock(fc), WithMessageCatchUp(msgs, "me", epoch, 3*time.Second))
	defer p.Stop()

	p.Start()
	first := next(t, p).(MessagesPolledMsg)
	require.Len(t, first.Messages, 1)

	// Committed after the first poll, with the cursor's own timestamp and
	// one from a second earlier.
	msgs.add(model.Message{ID: "b", SentAt: at})
	msgs.add(model.Message{ID: "c", SentAt: at.Add(-time.Second)})
	fc.BlockUntil(1)
	fc.Advance(3 * time.Second)

	second := next(t, p).(MessagesPolledMsg)
	ids := make([]string, len(second.Messages))
	for i, m := range second.Messages {
		ids[i] = m.ID
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids, "already delivered rows are not repeated")
	assert.Equal(t, at, p.Since())
}

func TestPollerWithoutTargets(t *testing.T) {
	p := New()
	assert.Nil(t, p.Start())
	assert.Empty(t, p.GetStatuses())
	p.Stop()
}
