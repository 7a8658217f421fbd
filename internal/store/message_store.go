package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/vulcania/internal/model"
)

// messageRow is a chat_messages row with the optional joined user names.
type messageRow struct {
	ID            string    `db:"id"`
	SenderID      string    `db:"sender_id"`
	RecipientID   string    `db:"recipient_id"`
	Body          string    `db:"body"`
	SentAt        time.Time `db:"sent_at"`
	SenderName    string    `db:"sender_name"`
	RecipientName string    `db:"recipient_name"`
}

// toModel narrows the row into a model.Message, attaching sender and
// recipient only when the join produced a name.
func (r messageRow) toModel() model.Message {
	m := model.Message{
		ID:          r.ID,
		SenderID:    r.SenderID,
		RecipientID: r.RecipientID,
		Body:        r.Body,
		SentAt:      r.SentAt.UTC(),
	}
	if r.SenderName != "" {
		m.Sender = &model.User{ID: r.SenderID, Name: r.SenderName}
	}
	if r.RecipientName != "" {
		m.Recipient = &model.User{ID: r.RecipientID, Name: r.RecipientName}
	}
	return m
}

const messageSelect = `
	SELECT m.id, m.sender_id, m.recipient_id, m.body, m.sent_at,
		COALESCE(su.name, '') AS sender_name,
		COALESCE(ru.name, '') AS recipient_name
	FROM chat_messages m
	LEFT JOIN users su ON su.id = m.sender_id
	LEFT JOIN users ru ON ru.id = m.recipient_id`

func (s *SQLStore) selectMessages(ctx context.Context, query string, args ...interface{}) ([]model.Message, error) {
	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	messages := make([]model.Message, len(rows))
	for i, r := range rows {
		messages[i] = r.toModel()
	}
	return messages, nil
}

// FetchConversation returns every message exchanged between a and b,
// oldest first.
func (s *SQLStore) FetchConversation(ctx context.Context, a, b string) ([]model.Message, error) {
	messages, err := s.selectMessages(ctx, messageSelect+`
		WHERE (m.sender_id = ? AND m.recipient_id = ?)
		   OR (m.sender_id = ? AND m.recipient_id = ?)
		ORDER BY m.sent_at ASC, m.id ASC`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s/%s: %w", a, b, err)
	}
	return messages, nil
}

// SendMessage inserts msg with a fresh ID and timestamp and returns the
// stored copy. On Postgres the timestamp comes from the server clock.
func (s *SQLStore) SendMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	if msg.SenderID == "" || msg.RecipientID == "" {
		return model.Message{}, fmt.Errorf("sending message: sender and recipient are required")
	}

	msg.ID = uuid.New().String()

	if s.driver == model.DriverPostgres {
		err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
			INSERT INTO chat_messages (id, sender_id, recipient_id, body, sent_at)
			VALUES (?, ?, ?, ?, clock_timestamp())
			RETURNING sent_at`),
			msg.ID, msg.SenderID, msg.RecipientID, msg.Body,
		).Scan(&msg.SentAt)
		if err != nil {
			return model.Message{}, fmt.Errorf("sending message to %s: %w", msg.RecipientID, err)
		}
		msg.SentAt = msg.SentAt.UTC()
		return msg, nil
	}

	msg.SentAt = s.now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO chat_messages (id, sender_id, recipient_id, body, sent_at)
		VALUES (?, ?, ?, ?, ?)`),
		msg.ID, msg.SenderID, msg.RecipientID, msg.Body, msg.SentAt,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("sending message to %s: %w", msg.RecipientID, err)
	}
	return msg, nil
}

// LatestMessages returns, per counterpart of viewerID, the most recent
// message exchanged with them.
func (s *SQLStore) LatestMessages(ctx context.Context, viewerID string) (map[string]model.Message, error) {
	messages, err := s.selectMessages(ctx, messageSelect+`
		WHERE m.sender_id = ? OR m.recipient_id = ?
		ORDER BY m.sent_at ASC, m.id ASC`,
		viewerID, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying latest messages for %s: %w", viewerID, err)
	}

	// Rows arrive oldest first, so later rows overwrite earlier ones.
	latest := make(map[string]model.Message)
	for _, m := range messages {
		latest[m.Counterpart(viewerID)] = m
	}
	return latest, nil
}

// MessagesSince returns messages involving viewerID sent at or after
// since, oldest first. Callers polling with a cursor pass it minus an
// overlap and drop ids they have already seen.
func (s *SQLStore) MessagesSince(ctx context.Context, viewerID string, since time.Time) ([]model.Message, error) {
	messages, err := s.selectMessages(ctx, messageSelect+`
		WHERE (m.sender_id = ? OR m.recipient_id = ?) AND m.sent_at >= ?
		ORDER BY m.sent_at ASC, m.id ASC`,
		viewerID, viewerID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages for %s since %s: %w",
			viewerID, since.Format(time.RFC3339), err)
	}
	return messages, nil
}
