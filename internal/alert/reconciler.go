package alert

import (
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/logging"
	"github.com/nhle/vulcania/internal/model"
)

// State is the notification state of the alert overlay.
type State int

const (
	StateIdle State = iota
	StateDisplaying
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StateDisplaying:
		return "displaying"
	case StateDismissed:
		return "dismissed"
	default:
		return "idle"
	}
}

// Transition describes the effect of one observation or dismissal.
type Transition struct {
	From  State
	To    State
	Alert model.AlertState

	// Triggered is set when a new alert at or above the threshold started
	// displaying. It is set at most once per change identity.
	Triggered bool
}

// Changed reports whether the state moved.
func (t Transition) Changed() bool {
	return t.From != t.To || t.Triggered
}

// Reconciler turns a stream of observed alert states into overlay
// transitions and drives the cue scheduler. Observations are compared by
// change identity only, so repeated polls of the same state are no-ops.
// It is not safe for concurrent use.
type Reconciler struct {
	scheduler *Scheduler
	threshold model.Level
	log       logrus.FieldLogger

	state     State
	current   *model.AlertState
	lastSeen  string
	dismissed string
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithThreshold sets the lowest level that triggers the overlay. Levels
// below watch are not accepted.
func WithThreshold(level model.Level) ReconcilerOption {
	return func(r *Reconciler) {
		if level > model.LevelNormal {
			r.threshold = level
		}
	}
}

// WithReconcilerLogger sets the logger for transitions.
func WithReconcilerLogger(l logrus.FieldLogger) ReconcilerOption {
	return func(r *Reconciler) { r.log = l }
}

// NewReconciler creates a Reconciler in the Idle state. The threshold
// defaults to warning.
func NewReconciler(scheduler *Scheduler, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		scheduler: scheduler,
		threshold: model.LevelWarning,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrDiscard(r.log).WithField("component", "reconciler")
	return r
}

// Observe feeds a freshly fetched or pushed alert state.
func (r *Reconciler) Observe(a model.AlertState) Transition {
	t := Transition{From: r.state, Alert: a}

	id := a.ChangeID()
	if id == r.lastSeen {
		t.To = r.state
		return t
	}
	r.lastSeen = id
	r.current = &a

	if a.Level >= r.threshold {
		r.scheduler.Start(a.Level)
		r.state = StateDisplaying
		t.Triggered = true
	} else {
		r.scheduler.StopActive()
		r.state = StateIdle
	}
	t.To = r.state

	r.log.WithFields(logrus.Fields{
		"change_id": id,
		"from":      t.From.String(),
		"to":        t.To.String(),
		"triggered": t.Triggered,
	}).Info("alert observed")
	return t
}

// Dismiss acknowledges the displayed alert and stops its cues. The
// dismissed change identity is remembered, so re-polling the same state
// does not display it again.
func (r *Reconciler) Dismiss() Transition {
	t := Transition{From: r.state, To: r.state}
	if r.current != nil {
		t.Alert = *r.current
	}
	if r.state != StateDisplaying {
		return t
	}

	r.scheduler.StopActive()
	r.state = StateDismissed
	r.dismissed = r.lastSeen
	t.To = r.state
	return t
}

// Close stops any running cues.
func (r *Reconciler) Close() {
	r.scheduler.StopActive()
}

// State returns the current overlay state.
func (r *Reconciler) State() State {
	return r.state
}

// Current returns the last observed alert, if any.
func (r *Reconciler) Current() (model.AlertState, bool) {
	if r.current == nil {
		return model.AlertState{}, false
	}
	return *r.current, true
}

// Threshold returns the lowest level that triggers the overlay.
func (r *Reconciler) Threshold() model.Level {
	return r.threshold
}

// SetThreshold changes the trigger level for future observations. The
// current overlay state is left alone. Levels below watch are ignored.
func (r *Reconciler) SetThreshold(level model.Level) {
	if level > model.LevelNormal {
		r.threshold = level
	}
}

// DismissedID returns the change identity of the last dismissed alert.
func (r *Reconciler) DismissedID() string {
	return r.dismissed
}
