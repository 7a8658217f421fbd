package testutil

import (
	"context"
	"testing"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreateUser inserts a user with the given name and phone.
func MustCreateUser(t *testing.T, s store.Store, name, phone string) model.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), model.User{Name: name, Phone: phone})
	if err != nil {
		t.Fatalf("creating user %q: %v", name, err)
	}
	return u
}
