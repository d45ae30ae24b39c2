package meals

import "time"

// CourseKind names one of the five daily courses.
type CourseKind string

const (
	Breakfast CourseKind = "breakfast"
	Snack1    CourseKind = "snack1"
	Lunch     CourseKind = "lunch"
	Snack2    CourseKind = "snack2"
	Dinner    CourseKind = "dinner"
)

// CourseOrder is the order courses appear in a plan.
var CourseOrder = []CourseKind{Breakfast, Snack1, Lunch, Snack2, Dinner}

// Catalogs holds the five meal catalogs.
type Catalogs struct {
	Breakfast []Meal
	Snack1    []Meal
	Lunch     []Meal
	Snack2    []Meal
	Dinner    []Meal
}

// Of returns the catalog for kind.
func (c Catalogs) Of(kind CourseKind) []Meal {
	switch kind {
	case Breakfast:
		return c.Breakfast
	case Snack1:
		return c.Snack1
	case Lunch:
		return c.Lunch
	case Snack2:
		return c.Snack2
	case Dinner:
		return c.Dinner
	}
	return nil
}

// Course is the meal picked for one course. Meal is nil when the catalog is
// empty.
type Course struct {
	Kind   CourseKind `json:"kind"`
	Meal   *Meal      `json:"meal"`
	Totals *Macros    `json:"totals"`
}

// MenuPlan is the full plan for one date.
type MenuPlan struct {
	Date       time.Time `json:"date"`
	DayOfMonth int       `json:"day_of_month"`
	Courses    []Course  `json:"courses"`
	Total      *Macros   `json:"total"`
}

// Select picks one meal per course for date. The pick depends only on the
// day of month d of date: index (d-1) mod len(catalog). The caller is
// responsible for expressing date in the challenge time zone.
func (c Catalogs) Select(date time.Time) MenuPlan {
	d := date.Day()
	plan := MenuPlan{
		Date:       date,
		DayOfMonth: d,
		Courses:    make([]Course, 0, len(CourseOrder)),
	}

	var day Macros
	for _, kind := range CourseOrder {
		course := Course{Kind: kind}
		if m := pick(c.Of(kind), d); m != nil {
			course.Meal = m
			course.Totals = m.Totals()
		}
		if course.Totals != nil {
			day.add(*course.Totals)
			if plan.Total == nil {
				plan.Total = &day
			}
		}
		plan.Courses = append(plan.Courses, course)
	}
	return plan
}

// SelectMenu is Select as a function.
func SelectMenu(c Catalogs, date time.Time) MenuPlan {
	return c.Select(date)
}

func pick(catalog []Meal, day int) *Meal {
	if len(catalog) == 0 {
		return nil
	}
	m := catalog[(day-1)%len(catalog)]
	return &m
}
