package app

import (
	"errors"

	"weightduel/internal/domain"
)

// maxDailyPoints bounds the series returned by Daily.
const maxDailyPoints = 366

// ProgressService encapsulates progress report use cases.
type ProgressService struct {
	store ProgressStore
}

// NewProgressService creates a ProgressService backed by the given store.
func NewProgressService(store ProgressStore) *ProgressService {
	return &ProgressService{store: store}
}

// DayPoint is a single data point returned by Daily. Weights is keyed by role;
// roles without an entry that day map to nil.
type DayPoint struct {
	Day     domain.Day              `json:"day"`
	Weights map[string]*WeightPoint `json:"weights"`
}

// WeightPoint is the optional weight value within a DayPoint.
type WeightPoint struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Daily returns one point per calendar day from the challenge start to today
// (or the latest entry, if later), with weights converted to unit. Only the
// trailing maxDailyPoints days are returned.
func (s *ProgressService) Daily(unit string) ([]DayPoint, error) {
	if unit != "kg" && unit != "lb" {
		return nil, errors.New("unit must be \"kg\" or \"lb\"")
	}
	loc := s.store.Location()
	entries := s.store.AllEntries()
	roles := s.store.Roles()

	byDay := make(map[domain.Day]map[string]float64)
	last := s.store.Today()
	for _, e := range entries {
		if byDay[e.Day] == nil {
			byDay[e.Day] = make(map[string]float64)
		}
		byDay[e.Day][e.RoleKey] = e.Value
		if e.Day > last {
			last = e.Day
		}
	}

	start, err := s.store.ChallengeStart().Time(loc)
	if err != nil {
		return nil, err
	}
	end, err := last.Time(loc)
	if err != nil {
		return nil, err
	}
	if first := end.AddDate(0, 0, -(maxDailyPoints - 1)); start.Before(first) {
		start = first
	}

	var points []DayPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := domain.DayOf(d, loc)
		p := DayPoint{Day: day, Weights: make(map[string]*WeightPoint, len(roles))}
		for _, r := range roles {
			v, ok := byDay[day][r.RoleKey]
			if !ok {
				p.Weights[r.RoleKey] = nil
				continue
			}
			p.Weights[r.RoleKey] = &WeightPoint{Value: domain.ConvertWeight(v, "kg", unit), Unit: unit}
		}
		points = append(points, p)
	}
	return points, nil
}

// RoleSummary is one role's progress since its first entry.
type RoleSummary struct {
	RoleKey     string              `json:"role_key"`
	DisplayName string              `json:"display_name"`
	Claimed     bool                `json:"claimed"`
	Count       int                 `json:"count"`
	First       *domain.WeightEntry `json:"first"`
	Latest      *domain.WeightEntry `json:"latest"`
	Delta       *float64            `json:"delta"`
}

// Summary returns per-role first and latest entries by day, in role order.
func (s *ProgressService) Summary() []RoleSummary {
	entries := s.store.AllEntries()
	roles := s.store.Roles()
	out := make([]RoleSummary, 0, len(roles))
	for _, r := range roles {
		sum := RoleSummary{RoleKey: r.RoleKey, DisplayName: r.DisplayName, Claimed: r.Claimed()}
		for i := range entries {
			e := entries[i]
			if e.RoleKey != r.RoleKey {
				continue
			}
			sum.Count++
			if sum.First == nil || e.Day < sum.First.Day {
				sum.First = &e
			}
			if sum.Latest == nil || e.Day > sum.Latest.Day {
				sum.Latest = &e
			}
		}
		if sum.First != nil {
			d := sum.Latest.Value - sum.First.Value
			sum.Delta = &d
		}
		out = append(out, sum)
	}
	return out
}

// ChallengeStart returns the day the challenge began.
func (s *ProgressService) ChallengeStart() domain.Day {
	return s.store.ChallengeStart()
}
