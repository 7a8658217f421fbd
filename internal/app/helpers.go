package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/nhle/vulcania/internal/chat"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

// describeError turns an engine error into a one-line status message.
func describeError(action string, err error) string {
	var sendErr *source.SendFailedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &sendErr):
		return fmt.Sprintf("message not sent: %v", sendErr.Err)
	case source.IsTransient(err):
		return fmt.Sprintf("%s: connection problem, showing saved data", action)
	case errors.Is(err, source.ErrUnknownCounterpart):
		return fmt.Sprintf("%s: that neighbour is no longer in the directory", action)
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrNoConversation):
		return err.Error()
	default:
		return fmt.Sprintf("%s: %v", action, err)
	}
}

// catchUpSince returns the message cursor for the catch-up poller: the
// newest message already shown, or now when there is none.
func catchUpSince(latest map[string]model.Message, now time.Time) time.Time {
	var since time.Time
	for _, msg := range latest {
		if msg.SentAt.After(since) {
			since = msg.SentAt
		}
	}
	if since.IsZero() {
		return now
	}
	return since
}

// notificationFor builds the record stored when an alert is surfaced.
func notificationFor(a model.AlertState) model.Notification {
	return model.Notification{
		ChangeID: a.ChangeID(),
		Level:    a.Level.String(),
		Message:  a.Description,
	}
}
