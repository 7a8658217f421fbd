package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/vulcania/internal/model"
)

type noticeRow struct {
	ID         string    `db:"id"`
	AuthorID   string    `db:"author_id"`
	Body       string    `db:"body"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	AuthorName string    `db:"author_name"`
}

// ListActiveNotices returns up to limit active notices, newest first.
func (s *SQLStore) ListActiveNotices(ctx context.Context, limit int) ([]model.Notice, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []noticeRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT n.id, n.author_id, n.body, n.status, n.created_at,
			COALESCE(u.name, '') AS author_name
		FROM community_notices n
		LEFT JOIN users u ON u.id = n.author_id
		WHERE n.status = ?
		ORDER BY n.created_at DESC
		LIMIT ?`),
		model.NoticeStatusActive, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notices: %w", err)
	}

	notices := make([]model.Notice, len(rows))
	for i, r := range rows {
		notices[i] = model.Notice{
			ID:        r.ID,
			AuthorID:  r.AuthorID,
			Body:      r.Body,
			Status:    r.Status,
			CreatedAt: r.CreatedAt.UTC(),
		}
		if r.AuthorName != "" {
			notices[i].Author = &model.User{ID: r.AuthorID, Name: r.AuthorName}
		}
	}
	return notices, nil
}

// PostNotice publishes a notice and returns the stored copy.
func (s *SQLStore) PostNotice(ctx context.Context, n model.Notice) (model.Notice, error) {
	n.Body = strings.TrimSpace(n.Body)
	if n.Body == "" {
		return model.Notice{}, fmt.Errorf("posting notice: body is empty")
	}
	n.ID = uuid.New().String()
	n.Status = model.NoticeStatusActive
	n.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO community_notices (id, author_id, body, status, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		n.ID, n.AuthorID, n.Body, n.Status, n.CreatedAt,
	)
	if err != nil {
		return model.Notice{}, fmt.Errorf("posting notice: %w", err)
	}
	return n, nil
}
