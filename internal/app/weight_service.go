package app

import (
	"context"
	"fmt"

	"weightduel/internal/domain"
)

// RecentLimit is how many entries the correction flow offers.
const RecentLimit = 4

// WeightService encapsulates weight-tracking use cases.
type WeightService struct {
	store WeightStore
}

// NewWeightService creates a WeightService backed by the given store.
func NewWeightService(store WeightStore) *WeightService {
	return &WeightService{store: store}
}

func (s *WeightService) role(id domain.Identity) (string, error) {
	role, ok := s.store.RoleOf(id)
	if !ok {
		return "", fmt.Errorf("%w: %d", domain.ErrNotRegistered, id)
	}
	return role, nil
}

// RecordToday stores value for the caller's role on today's date in the
// challenge time zone.
func (s *WeightService) RecordToday(ctx context.Context, id domain.Identity, value float64) (domain.WeightEntry, error) {
	role, err := s.role(id)
	if err != nil {
		return domain.WeightEntry{}, err
	}
	return s.store.AddEntry(ctx, role, s.store.Today(), value)
}

// Record stores value for roleKey on day, or today when day is empty.
func (s *WeightService) Record(ctx context.Context, roleKey string, day domain.Day, value float64) (domain.WeightEntry, error) {
	if day == "" {
		day = s.store.Today()
	}
	return s.store.AddEntry(ctx, roleKey, day, value)
}

// TodayEntry returns the caller's entry for today, if recorded.
func (s *WeightService) TodayEntry(id domain.Identity) (domain.PositionedEntry, bool, error) {
	role, err := s.role(id)
	if err != nil {
		return domain.PositionedEntry{}, false, err
	}
	pe, ok := s.store.EntryForDay(role, s.store.Today())
	return pe, ok, nil
}

// Recent returns the caller's latest entries, newest day first.
func (s *WeightService) Recent(id domain.Identity, limit int) ([]domain.PositionedEntry, error) {
	role, err := s.role(id)
	if err != nil {
		return nil, err
	}
	return s.store.LastEntries(role, limit), nil
}

// RecentFor returns the latest entries of roleKey, newest day first.
func (s *WeightService) RecentFor(roleKey string, limit int) []domain.PositionedEntry {
	return s.store.LastEntries(roleKey, limit)
}

// All returns every entry in append order.
func (s *WeightService) All() []domain.WeightEntry {
	return s.store.AllEntries()
}

// Correct replaces the value of one of the caller's own entries. Entries of
// other roles are reported as not found.
func (s *WeightService) Correct(ctx context.Context, id domain.Identity, entryID int64, value float64) (domain.WeightEntry, error) {
	role, err := s.role(id)
	if err != nil {
		return domain.WeightEntry{}, err
	}
	owned := false
	for _, e := range s.store.AllEntries() {
		if e.ID == entryID {
			owned = e.RoleKey == role
			break
		}
	}
	if !owned {
		return domain.WeightEntry{}, fmt.Errorf("%w: id %d", domain.ErrPositionNotFound, entryID)
	}
	return s.store.CorrectEntryByID(ctx, entryID, value)
}

// CorrectByID replaces the value of any entry.
func (s *WeightService) CorrectByID(ctx context.Context, entryID int64, value float64) (domain.WeightEntry, error) {
	return s.store.CorrectEntryByID(ctx, entryID, value)
}
