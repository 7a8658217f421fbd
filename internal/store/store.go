package store

import (
	"context"
	"errors"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface backing every collaborator the
// reconciliation engine and the shell consume.
type Store interface {
	source.MessageSource
	source.AlertSource
	source.Directory
	source.NoticeBoard
	source.MeetingPoints

	// === Users ===

	FindUserByPhone(ctx context.Context, phone string) (*model.User, error)

	// === Alerts ===

	CreateAlert(ctx context.Context, a model.AlertState) (model.AlertState, error)

	// === Meeting points ===

	CreateMeetingPoint(ctx context.Context, p model.MeetingPoint) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, changeID string) error

	Close() error
}
