package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/vulcania/internal/model"
)

const userColumns = "id, name, phone, created_at"

// ListOtherUsers returns every user except viewerID, ordered by name.
func (s *SQLStore) ListOtherUsers(ctx context.Context, viewerID string) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users, s.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE id <> ? ORDER BY name, id"), viewerID)
	if err != nil {
		return nil, fmt.Errorf("querying users other than %s: %w", viewerID, err)
	}
	return users, nil
}

// ListUsers returns every registered user, ordered by name.
func (s *SQLStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a single user by ID.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err, "getting user "+id)
	}
	return &u, nil
}

// FindUserByPhone retrieves the user registered with exactly this phone
// number. Variant matching is done by the phone package.
func (s *SQLStore) FindUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE phone = ?"), phone)
	if err != nil {
		return nil, notFound(err, "finding user by phone")
	}
	return &u, nil
}

// CreateUser inserts a new user. If the user has no ID, a new UUID is
// generated.
func (s *SQLStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, name, phone, created_at) VALUES (?, ?, ?, ?)`),
		u.ID, u.Name, u.Phone, u.CreatedAt.UTC(),
	)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user %q: %w", u.Name, err)
	}
	return u, nil
}
