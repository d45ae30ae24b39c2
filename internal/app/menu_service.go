package app

import (
	"time"

	"weightduel/internal/meals"
)

// MenuService answers "what to eat" for dates in the challenge time zone.
type MenuService struct {
	source MenuSource
	clock  Clock
}

// NewMenuService creates a MenuService.
func NewMenuService(source MenuSource, clock Clock) *MenuService {
	return &MenuService{source: source, clock: clock}
}

func (s *MenuService) today() time.Time {
	loc := s.clock.Location()
	t, err := s.clock.Today().Time(loc)
	if err != nil {
		return time.Now().In(loc)
	}
	return t
}

// Today returns the plan for the current date.
func (s *MenuService) Today() meals.MenuPlan {
	return s.source.Select(s.today())
}

// Tomorrow returns the plan for the next date.
func (s *MenuService) Tomorrow() meals.MenuPlan {
	return s.source.Select(s.today().AddDate(0, 0, 1))
}

// For returns the plan for date.
func (s *MenuService) For(date time.Time) meals.MenuPlan {
	return s.source.Select(date.In(s.clock.Location()))
}
