package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/vulcania/internal/model"
)

// ListMeetingPoints returns every meeting point, safest first.
func (s *SQLStore) ListMeetingPoints(ctx context.Context) ([]model.MeetingPoint, error) {
	var points []model.MeetingPoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT id, name, address, latitude, longitude,
			capacity, safety_level, walk_minutes, occupied
		FROM meeting_points
		ORDER BY safety_level DESC, walk_minutes ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying meeting points: %w", err)
	}
	return points, nil
}

// CreateMeetingPoint inserts a meeting point. If it has no ID, a new UUID
// is generated.
func (s *SQLStore) CreateMeetingPoint(ctx context.Context, p model.MeetingPoint) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO meeting_points (
			id, name, address, latitude, longitude,
			capacity, safety_level, walk_minutes, occupied
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, p.Address, p.Latitude, p.Longitude,
		p.Capacity, p.SafetyLevel, p.WalkMinutes, boolToInt(p.Occupied),
	)
	if err != nil {
		return fmt.Errorf("creating meeting point %q: %w", p.Name, err)
	}
	return nil
}

// SetMeetingPointOccupied flags a meeting point as full or available.
func (s *SQLStore) SetMeetingPointOccupied(ctx context.Context, id string, occupied bool) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE meeting_points SET occupied = ? WHERE id = ?"),
		boolToInt(occupied), id,
	)
	if err != nil {
		return fmt.Errorf("updating meeting point %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating meeting point %s: %w", id, ErrNotFound)
	}
	return nil
}
