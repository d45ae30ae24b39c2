package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const kgToLb = 2.2046226218

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "lb" {
		return v * kgToLb
	}
	if from == "lb" && to == "kg" {
		return v / kgToLb
	}
	return v
}

var unitSuffixes = []struct {
	suffix string
	unit   string
}{
	{"kgs", "kg"},
	{"kg", "kg"},
	{"кг", "kg"},
	{"lbs", "lb"},
	{"lb", "lb"},
}

// ParseWeight reads user input such as "82.4", "82,4" or "181 lb" and returns
// the value in kilograms, validated against the accepted domain.
func ParseWeight(text string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	unit := "kg"
	for _, u := range unitSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			unit = u.unit
			break
		}
	}
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, text)
	}
	v = ConvertWeight(v, unit, "kg")
	if err := ValidateWeight(v); err != nil {
		return 0, err
	}
	return v, nil
}
