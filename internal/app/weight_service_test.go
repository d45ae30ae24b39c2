package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"weightduel/internal/app"
	"weightduel/internal/domain"
)

type mockStore struct {
	today         domain.Day
	loc           *time.Location
	start         domain.Day
	roleOfFn      func(id domain.Identity) (string, bool)
	addFn         func(ctx context.Context, role string, day domain.Day, v float64) (domain.WeightEntry, error)
	allFn         func() []domain.WeightEntry
	lastFn        func(role string, n int) []domain.PositionedEntry
	forDayFn      func(role string, day domain.Day) (domain.PositionedEntry, bool)
	correctByIDFn func(ctx context.Context, id int64, v float64) (domain.WeightEntry, error)
	claimFn       func(ctx context.Context, role string, id domain.Identity) (string, error)
	rolesFn       func() []domain.RoleBinding
	rosterFn      func() map[string]domain.RosterEntry
}

func (m *mockStore) Today() domain.Day { return m.today }

func (m *mockStore) Location() *time.Location {
	if m.loc == nil {
		return time.UTC
	}
	return m.loc
}

func (m *mockStore) ChallengeStart() domain.Day { return m.start }

func (m *mockStore) RoleOf(id domain.Identity) (string, bool) {
	if m.roleOfFn != nil {
		return m.roleOfFn(id)
	}
	return "", false
}

func (m *mockStore) AddEntry(ctx context.Context, role string, day domain.Day, v float64) (domain.WeightEntry, error) {
	if m.addFn != nil {
		return m.addFn(ctx, role, day, v)
	}
	return domain.WeightEntry{}, nil
}

func (m *mockStore) AllEntries() []domain.WeightEntry {
	if m.allFn != nil {
		return m.allFn()
	}
	return nil
}

func (m *mockStore) LastEntries(role string, n int) []domain.PositionedEntry {
	if m.lastFn != nil {
		return m.lastFn(role, n)
	}
	return nil
}

func (m *mockStore) EntryForDay(role string, day domain.Day) (domain.PositionedEntry, bool) {
	if m.forDayFn != nil {
		return m.forDayFn(role, day)
	}
	return domain.PositionedEntry{}, false
}

func (m *mockStore) CorrectEntryByID(ctx context.Context, id int64, v float64) (domain.WeightEntry, error) {
	if m.correctByIDFn != nil {
		return m.correctByIDFn(ctx, id, v)
	}
	return domain.WeightEntry{}, nil
}

func (m *mockStore) Claim(ctx context.Context, role string, id domain.Identity) (string, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, role, id)
	}
	return "", nil
}

func (m *mockStore) Roles() []domain.RoleBinding {
	if m.rolesFn != nil {
		return m.rolesFn()
	}
	return nil
}

func (m *mockStore) Roster() map[string]domain.RosterEntry {
	if m.rosterFn != nil {
		return m.rosterFn()
	}
	return nil
}

func registeredAs(role string) func(domain.Identity) (string, bool) {
	return func(id domain.Identity) (string, bool) {
		if id == 1 {
			return role, true
		}
		return "", false
	}
}

func TestRecordToday_NotRegistered(t *testing.T) {
	svc := app.NewWeightService(&mockStore{today: "2026-01-15"})
	_, err := svc.RecordToday(context.Background(), 1, 80)
	if !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestRecordToday_UsesTodayAndRole(t *testing.T) {
	store := &mockStore{
		today:    "2026-01-15",
		roleOfFn: registeredAs("semen"),
		addFn: func(_ context.Context, role string, day domain.Day, v float64) (domain.WeightEntry, error) {
			if role != "semen" || day != "2026-01-15" {
				t.Fatalf("unexpected add: %s %s", role, day)
			}
			return domain.WeightEntry{ID: 3, RoleKey: role, Day: day, Value: v}, nil
		},
	}
	svc := app.NewWeightService(store)
	got, err := svc.RecordToday(context.Background(), 1, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 3 || got.Value != 80 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestRecordToday_StoreError(t *testing.T) {
	store := &mockStore{
		roleOfFn: registeredAs("semen"),
		addFn: func(_ context.Context, _ string, _ domain.Day, _ float64) (domain.WeightEntry, error) {
			return domain.WeightEntry{}, domain.ErrDuplicateForDay
		},
	}
	svc := app.NewWeightService(store)
	_, err := svc.RecordToday(context.Background(), 1, 80)
	if !errors.Is(err, domain.ErrDuplicateForDay) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRecord_DefaultsToToday(t *testing.T) {
	var gotDay domain.Day
	store := &mockStore{
		today: "2026-02-01",
		addFn: func(_ context.Context, _ string, day domain.Day, _ float64) (domain.WeightEntry, error) {
			gotDay = day
			return domain.WeightEntry{}, nil
		},
	}
	svc := app.NewWeightService(store)
	if _, err := svc.Record(context.Background(), "sergeant", "", 90); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDay != "2026-02-01" {
		t.Fatalf("expected today, got %s", gotDay)
	}
	if _, err := svc.Record(context.Background(), "sergeant", "2026-01-20", 90); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDay != "2026-01-20" {
		t.Fatalf("expected explicit day, got %s", gotDay)
	}
}

func TestRecent(t *testing.T) {
	store := &mockStore{
		roleOfFn: registeredAs("semen"),
		lastFn: func(role string, n int) []domain.PositionedEntry {
			if role != "semen" || n != app.RecentLimit {
				t.Fatalf("unexpected args: %s %d", role, n)
			}
			return []domain.PositionedEntry{{Position: 2}}
		},
	}
	svc := app.NewWeightService(store)
	got, err := svc.Recent(1, app.RecentLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Position != 2 {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if _, err := svc.Recent(2, app.RecentLimit); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestTodayEntry(t *testing.T) {
	store := &mockStore{
		today:    "2026-01-15",
		roleOfFn: registeredAs("semen"),
		forDayFn: func(role string, day domain.Day) (domain.PositionedEntry, bool) {
			return domain.PositionedEntry{Entry: domain.WeightEntry{RoleKey: role, Day: day, Value: 81}}, true
		},
	}
	svc := app.NewWeightService(store)
	pe, ok, err := svc.TodayEntry(1)
	if err != nil || !ok {
		t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
	}
	if pe.Entry.Day != "2026-01-15" {
		t.Fatalf("unexpected day: %s", pe.Entry.Day)
	}
}

func TestCorrect_Ownership(t *testing.T) {
	corrected := false
	store := &mockStore{
		roleOfFn: registeredAs("semen"),
		allFn: func() []domain.WeightEntry {
			return []domain.WeightEntry{
				{ID: 1, RoleKey: "semen", Day: "2026-01-10", Value: 80},
				{ID: 2, RoleKey: "sergeant", Day: "2026-01-10", Value: 95},
			}
		},
		correctByIDFn: func(_ context.Context, id int64, v float64) (domain.WeightEntry, error) {
			corrected = true
			return domain.WeightEntry{ID: id, Value: v}, nil
		},
	}
	svc := app.NewWeightService(store)

	if _, err := svc.Correct(context.Background(), 1, 2, 90); !errors.Is(err, domain.ErrPositionNotFound) {
		t.Fatalf("expected not found for foreign entry, got %v", err)
	}
	if _, err := svc.Correct(context.Background(), 1, 99, 90); !errors.Is(err, domain.ErrPositionNotFound) {
		t.Fatalf("expected not found for unknown entry, got %v", err)
	}
	if corrected {
		t.Fatal("store must not be touched for rejected corrections")
	}

	got, err := svc.Correct(context.Background(), 1, 1, 79.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 79.5 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}
