// Package app holds the application services and business logic.
package app

import (
	"context"
	"time"

	"weightduel/internal/domain"
	"weightduel/internal/meals"
)

// Clock supplies the current day in the challenge time zone.
type Clock interface {
	Today() domain.Day
	Location() *time.Location
}

// WeightStore is the part of the state store used for weight entries.
type WeightStore interface {
	Clock
	RoleOf(id domain.Identity) (string, bool)
	AddEntry(ctx context.Context, roleKey string, day domain.Day, value float64) (domain.WeightEntry, error)
	AllEntries() []domain.WeightEntry
	LastEntries(roleKey string, n int) []domain.PositionedEntry
	EntryForDay(roleKey string, day domain.Day) (domain.PositionedEntry, bool)
	CorrectEntryByID(ctx context.Context, id int64, value float64) (domain.WeightEntry, error)
}

// RegistrationStore is the part of the state store used for role claims.
type RegistrationStore interface {
	RoleOf(id domain.Identity) (string, bool)
	Claim(ctx context.Context, roleKey string, id domain.Identity) (string, error)
	Roles() []domain.RoleBinding
	Roster() map[string]domain.RosterEntry
}

// ProgressStore is the read-only view used for progress reports.
type ProgressStore interface {
	Clock
	AllEntries() []domain.WeightEntry
	Roles() []domain.RoleBinding
	ChallengeStart() domain.Day
}

// MenuSource picks the meal plan for a date.
type MenuSource interface {
	Select(date time.Time) meals.MenuPlan
}
