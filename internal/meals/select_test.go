package meals

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func named(names ...string) []Meal {
	out := make([]Meal, len(names))
	for i, n := range names {
		out[i] = Meal{Day: n, Legacy: []string{n}}
	}
	return out
}

func date(day int) time.Time {
	return time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
}

func TestSelect_RotationIndex(t *testing.T) {
	c := Catalogs{
		Breakfast: named("A", "B", "C"),
		Snack1:    named("A", "B", "C"),
		Lunch:     named("A", "B", "C"),
		Snack2:    named("A", "B", "C"),
		Dinner:    named("A", "B", "C"),
	}

	tests := []struct {
		day  int
		want string
	}{
		{1, "A"},
		{2, "B"},
		{3, "C"},
		{4, "A"},
		{5, "B"},
		{31, "A"},
	}
	for _, tc := range tests {
		plan := c.Select(date(tc.day))
		require.Len(t, plan.Courses, 5)
		assert.Equal(t, tc.day, plan.DayOfMonth)
		for _, course := range plan.Courses {
			require.NotNil(t, course.Meal, "day %d %s", tc.day, course.Kind)
			assert.Equal(t, tc.want, course.Meal.Day, "day %d %s", tc.day, course.Kind)
		}
	}
}

func TestSelect_CourseOrder(t *testing.T) {
	plan := Catalogs{}.Select(date(1))
	kinds := make([]CourseKind, 0, len(plan.Courses))
	for _, c := range plan.Courses {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []CourseKind{Breakfast, Snack1, Lunch, Snack2, Dinner}, kinds)
}

func TestSelect_Deterministic(t *testing.T) {
	c := Catalogs{Lunch: named("x", "y", "z", "w")}
	first := c.Select(date(17))
	second := SelectMenu(c, time.Date(2030, 8, 17, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, first.Courses[2].Meal, second.Courses[2].Meal)
}

func TestSelect_EmptyCatalog(t *testing.T) {
	c := Catalogs{Dinner: named("only")}
	plan := c.Select(date(9))

	for _, course := range plan.Courses[:4] {
		assert.Nil(t, course.Meal)
		assert.Nil(t, course.Totals)
	}
	require.NotNil(t, plan.Courses[4].Meal)
	assert.Equal(t, "only", plan.Courses[4].Meal.Day)
	assert.Nil(t, plan.Total, "legacy meals carry no totals")
}

func TestSelect_Totals(t *testing.T) {
	c := Catalogs{
		Breakfast: []Meal{{Items: []Item{
			{Name: "oats", Macros: Macros{Kcal: f(300), ProteinG: f(10)}},
			{Name: "milk", Macros: Macros{Kcal: f(100), FatG: f(3.5)}},
		}}},
		Lunch: []Meal{{Items: []Item{
			{Name: "chicken", Macros: Macros{Kcal: f(400), ProteinG: f(40)}},
		}}},
		Dinner: []Meal{{Items: []Item{{Name: "tea"}}}},
		Snack1: named("apple"),
	}
	plan := c.Select(date(1))

	b := plan.Courses[0].Totals
	require.NotNil(t, b)
	assert.Equal(t, 400.0, *b.Kcal)
	assert.Equal(t, 10.0, *b.ProteinG)
	assert.Equal(t, 3.5, *b.FatG)
	assert.Nil(t, b.CarbsG, "no item knows carbs")

	assert.Nil(t, plan.Courses[1].Totals, "legacy")
	assert.Nil(t, plan.Courses[4].Totals, "no macros on any item")

	require.NotNil(t, plan.Total)
	assert.Equal(t, 800.0, *plan.Total.Kcal)
	assert.Equal(t, 50.0, *plan.Total.ProteinG)
	assert.Equal(t, 3.5, *plan.Total.FatG)
	assert.Nil(t, plan.Total.CarbsG)
}

func TestSelect_DoesNotAliasCatalog(t *testing.T) {
	c := Catalogs{Breakfast: []Meal{{Items: []Item{{Name: "egg", Macros: Macros{Kcal: f(70)}}}}}}
	plan := c.Select(date(1))
	*plan.Total.Kcal = 0
	assert.Equal(t, 70.0, *c.Breakfast[0].Items[0].Kcal)
}

func TestMeal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantDay    string
		wantItems  []string
		wantLegacy []string
		wantKcal   *float64
	}{
		{
			name:      "structured",
			input:     `{"day": 3, "items": [{"name": "Oats", "raw_g": 60, "kcal": 220, "protein_g": "8.5"}]}`,
			wantDay:   "3",
			wantItems: []string{"Oats"},
			wantKcal:  f(220),
		},
		{
			name:      "name aliases",
			input:     `{"items": [{"item": "Rice"}, {"title": "Beans", "kcal": "1,5"}, {}]}`,
			wantItems: []string{"Rice", "Beans", ""},
			wantKcal:  f(1.5),
		},
		{
			name:       "legacy",
			input:      `{"day": "7", "item1": "Porridge", "item2": "", "item3": "Coffee", "kcal": 100}`,
			wantDay:    "7",
			wantLegacy: []string{"Porridge", "Coffee"},
		},
		{
			name:      "declared totals win",
			input:     `{"items": [{"name": "Soup", "kcal": 100}], "meal_totals": {"kcal": 150, "protein_g": 0}}`,
			wantItems: []string{"Soup"},
			wantKcal:  f(150),
		},
		{
			name:      "zero declared totals ignored",
			input:     `{"items": [{"name": "Soup", "kcal": 100}], "meal_totals": {"kcal": 0}}`,
			wantItems: []string{"Soup"},
			wantKcal:  f(100),
		},
		{
			name:      "garbage numbers are unknown",
			input:     `{"items": [{"name": "Mystery", "kcal": "lots", "fat_g": null}]}`,
			wantItems: []string{"Mystery"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var m Meal
			require.NoError(t, json.Unmarshal([]byte(tc.input), &m))
			assert.Equal(t, tc.wantDay, m.Day)

			var names []string
			for _, it := range m.Items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tc.wantItems, names)
			assert.Equal(t, tc.wantLegacy, m.Legacy)

			totals := m.Totals()
			if tc.wantKcal == nil {
				if totals != nil {
					assert.Nil(t, totals.Kcal)
				}
				return
			}
			require.NotNil(t, totals)
			require.NotNil(t, totals.Kcal)
			assert.InDelta(t, *tc.wantKcal, *totals.Kcal, 1e-9)
		})
	}
}

func TestMeal_UnmarshalJSON_NotAnObject(t *testing.T) {
	var m Meal
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
}
