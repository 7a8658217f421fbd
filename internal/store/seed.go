package store

import (
	"context"
	"fmt"

	"github.com/nhle/vulcania/internal/model"
)

// demoUsers are the residents loaded into a fresh local database.
var demoUsers = []model.User{
	{Name: "Ana Pérez", Phone: "+56911111111"},
	{Name: "Bruno Díaz", Phone: "+56922222222"},
	{Name: "Carla Soto", Phone: "+56933333333"},
	{Name: "Diego Muñoz", Phone: "+56944444444"},
}

var demoPoints = []model.MeetingPoint{
	{
		Name: "Plaza de Armas", Address: "O'Higgins con Fresia",
		Latitude: -39.2826, Longitude: -72.2275,
		Capacity: 500, SafetyLevel: 5, WalkMinutes: 6,
	},
	{
		Name: "Estadio Municipal", Address: "Av. Bernardo O'Higgins 1200",
		Latitude: -39.2781, Longitude: -72.2196,
		Capacity: 2000, SafetyLevel: 4, WalkMinutes: 12,
	},
	{
		Name: "Liceo Bicentenario", Address: "Calle Ansorena 455",
		Latitude: -39.2857, Longitude: -72.2342,
		Capacity: 350, SafetyLevel: 3, WalkMinutes: 9,
	},
}

// Seed loads demo users, meeting points and a normal-level alert when the
// database has no users yet. It is a no-op on a populated database.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, u := range demoUsers {
		if _, err := s.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}
	for _, p := range demoPoints {
		if err := s.CreateMeetingPoint(ctx, p); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	_, err = s.CreateAlert(ctx, model.AlertState{
		Level:       model.LevelNormal,
		Description: model.LevelDescriptions[model.LevelNormal],
	})
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	return nil
}
