package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/vulcania/internal/model"
)

// Channel is the Postgres NOTIFY channel the change triggers publish on.
const Channel = "vulcania_changes"

// Kind identifies what changed.
type Kind int

const (
	// KindResync means the connection was re-established and changes may
	// have been missed; consumers should refetch.
	KindResync Kind = iota
	KindMessageInserted
	KindAlertChanged
	KindNoticePosted
)

func (k Kind) String() string {
	switch k {
	case KindMessageInserted:
		return "message_inserted"
	case KindAlertChanged:
		return "alert_changed"
	case KindNoticePosted:
		return "notice_posted"
	default:
		return "resync"
	}
}

// Event is one decoded change. Exactly one of Message, Alert and Notice is
// set, matching Kind; none is set for KindResync. Event is delivered to the
// Bubble Tea runtime as a tea.Msg.
type Event struct {
	Kind    Kind
	Message *model.Message
	Alert   *model.AlertState
	Notice  *model.Notice
}

// envelope is the JSON object built by the vulcania_notify_change trigger.
type envelope struct {
	Table  string          `json:"table"`
	Op     string          `json:"op"`
	Record json.RawMessage `json:"record"`
}

type messageRecord struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

type alertRecord struct {
	ID          string    `json:"id"`
	Level       string    `json:"level"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type noticeRecord struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Decode parses a NOTIFY payload into an Event. Rows are narrowed into the
// model types here; malformed payloads are rejected.
func Decode(payload string) (Event, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Event{}, fmt.Errorf("decoding change payload: %w", err)
	}
	if len(env.Record) == 0 || string(env.Record) == "null" {
		return Event{}, fmt.Errorf("decoding %s change: missing record", env.Table)
	}

	switch env.Table {
	case "chat_messages":
		if env.Op != "INSERT" {
			return Event{}, fmt.Errorf("decoding chat_messages change: unexpected op %q", env.Op)
		}
		var r messageRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return Event{}, fmt.Errorf("decoding chat_messages record: %w", err)
		}
		if r.ID == "" || r.SenderID == "" || r.RecipientID == "" {
			return Event{}, fmt.Errorf("decoding chat_messages record: missing id or participants")
		}
		return Event{Kind: KindMessageInserted, Message: &model.Message{
			ID:          r.ID,
			SenderID:    r.SenderID,
			RecipientID: r.RecipientID,
			Body:        r.Body,
			SentAt:      r.SentAt.UTC(),
		}}, nil

	case "volcano_alerts":
		var r alertRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return Event{}, fmt.Errorf("decoding volcano_alerts record: %w", err)
		}
		level, err := model.ParseLevel(r.Level)
		if err != nil {
			return Event{}, fmt.Errorf("decoding volcano_alerts record: %w", err)
		}
		return Event{Kind: KindAlertChanged, Alert: &model.AlertState{
			ID:          r.ID,
			Level:       level,
			Description: r.Description,
			UpdatedAt:   r.UpdatedAt.UTC(),
		}}, nil

	case "community_notices":
		var r noticeRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return Event{}, fmt.Errorf("decoding community_notices record: %w", err)
		}
		return Event{Kind: KindNoticePosted, Notice: &model.Notice{
			ID:        r.ID,
			AuthorID:  r.AuthorID,
			Body:      r.Body,
			Status:    r.Status,
			CreatedAt: r.CreatedAt.UTC(),
		}}, nil

	default:
		return Event{}, fmt.Errorf("decoding change payload: unknown table %q", env.Table)
	}
}
