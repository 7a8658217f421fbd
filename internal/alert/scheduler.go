package alert

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/logging"
	"github.com/nhle/vulcania/internal/model"
)

// Default cue cadence.
const (
	DefaultWarningInterval   = 4 * time.Second
	DefaultEmergencyInterval = 3 * time.Second
	DefaultLeadIn            = time.Second
)

// Handle is a running cue repetition. It is cancelled with Scheduler.Stop.
type Handle struct {
	level  model.Level
	ctx    context.Context
	cancel context.CancelFunc

	mu      gosync.Mutex
	stopped bool
	timer   clockwork.Timer
	fired   int
}

// Level returns the tier the handle repeats.
func (h *Handle) Level() model.Level {
	return h.level
}

// Stopped reports whether the handle was cancelled.
func (h *Handle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// Fired returns how many cues the handle delivered.
func (h *Handle) Fired() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

// Scheduler repeats a notification cue at a tier-dependent interval until
// stopped. At most one handle is active at a time.
type Scheduler struct {
	clock    clockwork.Clock
	notifier Notifier
	log      logrus.FieldLogger

	warningInterval   time.Duration
	emergencyInterval time.Duration
	leadIn            time.Duration

	muted atomic.Bool

	mu     gosync.Mutex
	active *Handle
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces the wall clock, typically with a fake clock in tests.
func WithClock(c clockwork.Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithIntervals sets the repeat interval of the warning and emergency tiers.
func WithIntervals(warning, emergency time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if warning > 0 {
			s.warningInterval = warning
		}
		if emergency > 0 {
			s.emergencyInterval = emergency
		}
	}
}

// WithLeadIn sets the delay before the first cue.
func WithLeadIn(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.leadIn = d
		}
	}
}

// WithSchedulerLogger sets the logger used for notifier failures.
func WithSchedulerLogger(l logrus.FieldLogger) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler creates a Scheduler delivering cues to notifier.
func NewScheduler(notifier Notifier, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:             clockwork.NewRealClock(),
		notifier:          notifier,
		warningInterval:   DefaultWarningInterval,
		emergencyInterval: DefaultEmergencyInterval,
		leadIn:            DefaultLeadIn,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log).WithField("component", "scheduler")
	return s
}

// Interval returns the repeat interval for level. The highest tier repeats
// fastest.
func (s *Scheduler) Interval(level model.Level) time.Duration {
	if level >= model.LevelEmergency {
		return s.emergencyInterval
	}
	return s.warningInterval
}

// Start stops the active handle, if any, and begins repeating cues for
// level after the lead-in delay.
func (s *Scheduler) Start(level model.Level) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.stopHandle(s.active)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{level: level, ctx: ctx, cancel: cancel}

	h.mu.Lock()
	h.timer = s.clock.AfterFunc(s.leadIn, func() { s.tick(h) })
	h.mu.Unlock()

	s.active = h
	s.log.WithField("level", level).Debug("cue repetition started")
	return h
}

// Stop cancels h. When Stop returns no further cue is delivered for h.
// Stopping a nil or already stopped handle is a no-op.
func (s *Scheduler) Stop(h *Handle) {
	if h == nil {
		return
	}
	s.stopHandle(h)

	s.mu.Lock()
	if s.active == h {
		s.active = nil
	}
	s.mu.Unlock()
}

// StopActive cancels the active handle, if any.
func (s *Scheduler) StopActive() {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()
	s.Stop(h)
}

// Active returns the running handle, or nil.
func (s *Scheduler) Active() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetMuted suppresses cues without stopping the repetition, so unmuting
// resumes at the next tick.
func (s *Scheduler) SetMuted(muted bool) {
	s.muted.Store(muted)
}

// Muted reports whether cues are suppressed.
func (s *Scheduler) Muted() bool {
	return s.muted.Load()
}

// stopHandle cancels the handle's context first so an in-flight Notify can
// return early, then waits for it under the handle lock.
func (s *Scheduler) stopHandle(h *Handle) {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
	}
}

func (s *Scheduler) tick(h *Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}

	if !s.muted.Load() {
		if err := s.notifier.Notify(h.ctx, h.level); err != nil && h.ctx.Err() == nil {
			s.log.WithError(err).WithField("level", h.level).Warn("cue failed")
		}
		h.fired++
	}

	h.timer = s.clock.AfterFunc(s.Interval(h.level), func() { s.tick(h) })
}
