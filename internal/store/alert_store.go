package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/vulcania/internal/model"
)

type alertRow struct {
	ID          string    `db:"id"`
	Level       string    `db:"level"`
	Description string    `db:"description"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r alertRow) toModel() (model.AlertState, error) {
	lvl, err := model.ParseLevel(r.Level)
	if err != nil {
		return model.AlertState{}, fmt.Errorf("alert %s: %w", r.ID, err)
	}
	return model.AlertState{
		ID:          r.ID,
		Level:       lvl,
		Description: r.Description,
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

// FetchLatestAlertState returns the most recently updated alert.
func (s *SQLStore) FetchLatestAlertState(ctx context.Context) (*model.AlertState, error) {
	var row alertRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, level, description, updated_at
		FROM volcano_alerts ORDER BY updated_at DESC LIMIT 1`)
	if err != nil {
		return nil, notFound(err, "fetching latest alert")
	}

	state, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("fetching latest alert: %w", err)
	}
	return &state, nil
}

// CreateAlert inserts a new alert row.
func (s *SQLStore) CreateAlert(ctx context.Context, a model.AlertState) (model.AlertState, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO volcano_alerts (id, level, description, updated_at)
		VALUES (?, ?, ?, ?)`),
		a.ID, a.Level.String(), a.Description, a.UpdatedAt.UTC(),
	)
	if err != nil {
		return model.AlertState{}, fmt.Errorf("creating alert: %w", err)
	}
	return a, nil
}

// UpdateAlertLevel sets the level and description of an alert and stamps
// it with the current time.
func (s *SQLStore) UpdateAlertLevel(
	ctx context.Context,
	id string,
	level model.Level,
	description string,
) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE volcano_alerts SET level = ?, description = ?, updated_at = ?
		WHERE id = ?`),
		level.String(), description, s.now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating alert %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating alert %s: %w", id, ErrNotFound)
	}
	return nil
}
