package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/model"
)

// Notifier performs one audible or visual cue for an alert tier.
type Notifier interface {
	Notify(ctx context.Context, level model.Level) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, level model.Level) error

func (f NotifierFunc) Notify(ctx context.Context, level model.Level) error {
	return f(ctx, level)
}

// BellNotifier rings the terminal bell, twice for the highest tier.
type BellNotifier struct {
	w io.Writer
}

// NewBellNotifier creates a BellNotifier writing to w, usually stderr.
func NewBellNotifier(w io.Writer) *BellNotifier {
	return &BellNotifier{w: w}
}

func (b *BellNotifier) Notify(ctx context.Context, level model.Level) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rings := 1
	if level >= model.LevelEmergency {
		rings = 2
	}
	if _, err := io.WriteString(b.w, strings.Repeat("\a", rings)); err != nil {
		return fmt.Errorf("ringing bell: %w", err)
	}
	return nil
}

// LoggingNotifier logs every cue before delegating to the wrapped notifier.
type LoggingNotifier struct {
	next Notifier
	log  logrus.FieldLogger
}

// NewLoggingNotifier wraps next.
func NewLoggingNotifier(next Notifier, log logrus.FieldLogger) *LoggingNotifier {
	return &LoggingNotifier{next: next, log: log}
}

func (l *LoggingNotifier) Notify(ctx context.Context, level model.Level) error {
	l.log.WithFields(logrus.Fields{
		"level": level.String(),
		"color": level.Color(),
	}).Info("alert cue")
	return l.next.Notify(ctx, level)
}

// MultiNotifier delivers each cue to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, level model.Level) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, level); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CueMsg is a tea.Msg delivered for each cue so the shell can flash the
// alert banner.
type CueMsg struct {
	Level model.Level
}

// CueNotifier hands cues to the Bubble Tea runtime. Notify never blocks:
// when the previous cue has not been consumed yet, the new one is dropped.
type CueNotifier struct {
	ch chan CueMsg
}

// NewCueNotifier creates a CueNotifier.
func NewCueNotifier() *CueNotifier {
	return &CueNotifier{ch: make(chan CueMsg, 1)}
}

func (c *CueNotifier) Notify(ctx context.Context, level model.Level) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.ch <- CueMsg{Level: level}:
	default:
	}
	return nil
}

// WaitForCue returns a tea.Cmd that waits for the next cue. It should be
// re-issued after every CueMsg.
func (c *CueNotifier) WaitForCue() tea.Cmd {
	return func() tea.Msg {
		return <-c.ch
	}
}
