package source

import (
	"context"
	"time"

	"github.com/nhle/vulcania/internal/model"
)

// MessageSource is the message store collaborator of the chat engine.
type MessageSource interface {
	// FetchConversation returns every message exchanged between a and b,
	// oldest first.
	FetchConversation(ctx context.Context, a, b string) ([]model.Message, error)

	// SendMessage persists msg and returns the stored copy with its
	// server-assigned id and timestamp.
	SendMessage(ctx context.Context, msg model.Message) (model.Message, error)

	// LatestMessages returns, per counterpart of viewerID, the most recent
	// message exchanged with them.
	LatestMessages(ctx context.Context, viewerID string) (map[string]model.Message, error)

	// MessagesSince returns messages involving viewerID sent strictly after
	// since, oldest first. It backs the polling transport.
	MessagesSince(ctx context.Context, viewerID string, since time.Time) ([]model.Message, error)
}

// AlertSource publishes the current alert state.
type AlertSource interface {
	// FetchLatestAlertState returns the most recently updated alert.
	FetchLatestAlertState(ctx context.Context) (*model.AlertState, error)

	// UpdateAlertLevel sets the level and description of an alert and
	// stamps it with the current time. Used by the level simulator.
	UpdateAlertLevel(ctx context.Context, id string, level model.Level, description string) error
}

// Directory lists the users the viewer can talk to.
type Directory interface {
	// ListOtherUsers returns every user except viewerID, ordered by name.
	ListOtherUsers(ctx context.Context, viewerID string) ([]model.User, error)

	// GetUser returns a single user by id.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// ListUsers returns every registered user.
	ListUsers(ctx context.Context) ([]model.User, error)

	// CreateUser registers a new user and returns the stored copy.
	CreateUser(ctx context.Context, u model.User) (model.User, error)
}

// NoticeBoard is the community bulletin board.
type NoticeBoard interface {
	// ListActiveNotices returns up to limit active notices, newest first.
	ListActiveNotices(ctx context.Context, limit int) ([]model.Notice, error)

	// PostNotice publishes a notice and returns the stored copy.
	PostNotice(ctx context.Context, n model.Notice) (model.Notice, error)
}

// MeetingPoints lists evacuation meeting points.
type MeetingPoints interface {
	ListMeetingPoints(ctx context.Context) ([]model.MeetingPoint, error)
	SetMeetingPointOccupied(ctx context.Context, id string, occupied bool) error
}
