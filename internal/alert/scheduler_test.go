package alert

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/model"
)

// countingNotifier counts cues per level.
type countingNotifier struct {
	total     atomic.Int64
	emergency atomic.Int64
}

func (c *countingNotifier) Notify(_ context.Context, level model.Level) error {
	c.total.Add(1)
	if level == model.LevelEmergency {
		c.emergency.Add(1)
	}
	return nil
}

func (c *countingNotifier) count() int64 {
	return c.total.Load()
}

func newTestScheduler(n Notifier) (*Scheduler, *clockwork.FakeClock) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(n,
		WithClock(fc),
		WithIntervals(4*time.Second, 3*time.Second),
		WithLeadIn(time.Second),
	)
	return s, fc
}

// advance moves the clock and waits for the tick to reschedule itself.
func advance(t *testing.T, fc *clockwork.FakeClock, n *countingNotifier, d time.Duration, want int64) {
	t.Helper()
	fc.Advance(d)
	require.Eventually(t, func() bool { return n.count() == want },
		time.Second, time.Millisecond, "want %d cues", want)
	fc.BlockUntil(1)
}

func TestSchedulerCadence(t *testing.T) {
	n := &countingNotifier{}
	s, fc := newTestScheduler(n)

	h := s.Start(model.LevelEmergency)
	fc.BlockUntil(1)

	fc.Advance(999 * time.Millisecond)
	assert.Never(t, func() bool { return n.count() > 0 }, 20*time.Millisecond, time.Millisecond)

	advance(t, fc, n, time.Millisecond, 1)
	advance(t, fc, n, 3*time.Second, 2)
	advance(t, fc, n, 3*time.Second, 3)
	assert.Equal(t, 3, h.Fired())
	assert.Equal(t, int64(3), n.emergency.Load())
}

func TestSchedulerWarningInterval(t *testing.T) {
	n := &countingNotifier{}
	s, fc := newTestScheduler(n)

	s.Start(model.LevelWarning)
	fc.BlockUntil(1)
	advance(t, fc, n, time.Second, 1)

	fc.Advance(3 * time.Second)
	assert.Never(t, func() bool { return n.count() > 1 }, 20*time.Millisecond, time.Millisecond)
	advance(t, fc, n, time.Second, 2)

	assert.Equal(t, 4*time.Second, s.Interval(model.LevelWarning))
	assert.Equal(t, 3*time.Second, s.Interval(model.LevelEmergency))
}

func TestSchedulerNoCueAfterStop(t *testing.T) {
	for offset := time.Duration(0); offset <= 8*time.Second; offset += 250 * time.Millisecond {
		n := &countingNotifier{}
		s, fc := newTestScheduler(n)

		h := s.Start(model.LevelEmergency)
		fc.BlockUntil(1)
		fc.Advance(offset)
		s.Stop(h)

		stoppedAt := n.count()
		fc.Advance(time.Minute)
		assert.Never(t, func() bool { return n.count() != stoppedAt },
			10*time.Millisecond, time.Millisecond, "offset %s", offset)
		assert.True(t, h.Stopped())
		assert.Nil(t, s.Active())
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	n := &countingNotifier{}
	s, fc := newTestScheduler(n)

	h := s.Start(model.LevelWarning)
	fc.BlockUntil(1)

	s.Stop(h)
	s.Stop(h)
	s.Stop(nil)
	s.StopActive()

	fc.Advance(time.Minute)
	assert.Never(t, func() bool { return n.count() > 0 }, 20*time.Millisecond, time.Millisecond)
}

func TestSchedulerStartReplacesActive(t *testing.T) {
	n := &countingNotifier{}
	s, fc := newTestScheduler(n)

	first := s.Start(model.LevelWarning)
	second := s.Start(model.LevelEmergency)

	assert.True(t, first.Stopped())
	assert.False(t, second.Stopped())
	assert.Same(t, second, s.Active())

	fc.BlockUntil(1)
	advance(t, fc, n, time.Second, 1)
	assert.Equal(t, int64(1), n.emergency.Load())
	assert.Equal(t, 0, first.Fired())
}

func TestSchedulerMute(t *testing.T) {
	n := &countingNotifier{}
	s, fc := newTestScheduler(n)

	s.SetMuted(true)
	assert.True(t, s.Muted())
	h := s.Start(model.LevelEmergency)
	fc.BlockUntil(1)

	fc.Advance(time.Second)
	fc.BlockUntil(1)
	assert.Equal(t, int64(0), n.count())
	assert.Equal(t, 0, h.Fired())

	s.SetMuted(false)
	advance(t, fc, n, 3*time.Second, 1)
}

func TestSchedulerCancelsInFlightNotify(t *testing.T) {
	entered := make(chan struct{})
	var cancelled atomic.Bool
	blocking := NotifierFunc(func(ctx context.Context, _ model.Level) error {
		close(entered)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})

	s, fc := newTestScheduler(blocking)
	h := s.Start(model.LevelEmergency)
	fc.BlockUntil(1)
	fc.Advance(time.Second)
	<-entered

	s.Stop(h)
	assert.True(t, cancelled.Load(), "stop waits for the in-flight cue")
}
