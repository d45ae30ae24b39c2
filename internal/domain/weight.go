package domain

import (
	"fmt"
	"math"
	"time"
)

// DayLayout is the calendar date format used for entry days.
const DayLayout = "2006-01-02"

// Accepted weight domain, in kilograms: (MinWeight, MaxWeight].
const (
	MinWeight = 0.0
	MaxWeight = 500.0
)

// Day is a calendar date without a time component, formatted as DayLayout.
// The layout sorts lexicographically in date order.
type Day string

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc).Format(DayLayout))
}

// ParseDay validates s as a calendar date.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", fmt.Errorf("%w: bad day %q", ErrInvalidValue, s)
	}
	return Day(s), nil
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayLayout, string(d), loc)
}

func (d Day) String() string { return string(d) }

// WeightEntry represents a single day's weight measurement for one role.
type WeightEntry struct {
	ID      int64   `json:"id"`
	RoleKey string  `json:"role_key"`
	Day     Day     `json:"day"`
	Value   float64 `json:"value"`
}

// PositionedEntry pairs an entry with its index in the entries log at the
// time it was read.
type PositionedEntry struct {
	Position int         `json:"position"`
	Entry    WeightEntry `json:"entry"`
}

// ValidateWeight checks that v lies in (MinWeight, MaxWeight].
func ValidateWeight(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= MinWeight || v > MaxWeight {
		return fmt.Errorf("%w: weight must be in (%g, %g] kg, got %v", ErrInvalidValue, MinWeight, MaxWeight, v)
	}
	return nil
}
