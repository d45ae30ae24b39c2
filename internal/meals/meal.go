// Package meals picks a day's meal plan by rotating over five fixed catalogs
// and aggregates the nutrition totals of the picked meals.
package meals

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Macros holds nutrition values. A nil field is unknown.
type Macros struct {
	Kcal     *float64 `json:"kcal"`
	ProteinG *float64 `json:"protein_g"`
	FatG     *float64 `json:"fat_g"`
	CarbsG   *float64 `json:"carbs_g"`
}

func (m Macros) known() bool {
	return m.Kcal != nil || m.ProteinG != nil || m.FatG != nil || m.CarbsG != nil
}

func (m Macros) nonZero() bool {
	for _, v := range []*float64{m.Kcal, m.ProteinG, m.FatG, m.CarbsG} {
		if v != nil && *v != 0 {
			return true
		}
	}
	return false
}

// add folds o into m field by field. A field stays unknown only while both
// sides are unknown.
func (m *Macros) add(o Macros) {
	addField(&m.Kcal, o.Kcal)
	addField(&m.ProteinG, o.ProteinG)
	addField(&m.FatG, o.FatG)
	addField(&m.CarbsG, o.CarbsG)
}

func addField(dst **float64, v *float64) {
	if v == nil {
		return
	}
	if *dst == nil {
		x := *v
		*dst = &x
		return
	}
	**dst += *v
}

func (m Macros) clone() Macros {
	var c Macros
	c.add(m)
	return c
}

// Item is one structured line of a meal.
type Item struct {
	Name    string   `json:"name"`
	RawG    *float64 `json:"raw_g,omitempty"`
	CookedG *float64 `json:"cooked_g,omitempty"`
	Macros
}

// Meal is one catalog record. Structured meals carry Items; legacy meals
// carry plain text lines in Legacy and never have totals.
type Meal struct {
	Day      string   `json:"day,omitempty"`
	Items    []Item   `json:"items,omitempty"`
	Legacy   []string `json:"legacy,omitempty"`
	Declared *Macros  `json:"meal_totals,omitempty"`
}

// Structured reports whether the meal uses the itemized layout.
func (m Meal) Structured() bool { return len(m.Items) > 0 }

// Totals returns the meal's nutrition totals, or nil when none are known.
// A non-zero meal_totals object in the record wins over the computed sum.
func (m Meal) Totals() *Macros {
	if !m.Structured() {
		return nil
	}
	if m.Declared != nil {
		c := m.Declared.clone()
		return &c
	}
	var sum Macros
	for _, it := range m.Items {
		sum.add(it.Macros)
	}
	if !sum.known() {
		return nil
	}
	return &sum
}

const maxLegacyItems = 9

// UnmarshalJSON accepts both catalog layouts. Numeric fields may be numbers
// or numeric strings; anything else reads as unknown.
func (m *Meal) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("meal: %w", err)
	}
	*m = Meal{Day: text(raw["day"])}

	if v, ok := raw["items"]; ok {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			for _, it := range items {
				m.Items = append(m.Items, parseItem(it))
			}
		}
	}

	for i := 1; i <= maxLegacyItems; i++ {
		if s := text(raw["item"+strconv.Itoa(i)]); s != "" {
			m.Legacy = append(m.Legacy, s)
		}
	}

	if v, ok := raw["meal_totals"]; ok {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if t := parseMacros(obj); t.nonZero() {
				m.Declared = &t
			}
		}
	}
	return nil
}

func parseItem(raw map[string]json.RawMessage) Item {
	it := Item{
		RawG:    number(raw["raw_g"]),
		CookedG: number(raw["cooked_g"]),
		Macros:  parseMacros(raw),
	}
	for _, key := range []string{"name", "item", "title"} {
		if s := text(raw[key]); s != "" {
			it.Name = s
			break
		}
	}
	return it
}

func parseMacros(raw map[string]json.RawMessage) Macros {
	return Macros{
		Kcal:     number(raw["kcal"]),
		ProteinG: number(raw["protein_g"]),
		FatG:     number(raw["fat_g"]),
		CarbsG:   number(raw["carbs_g"]),
	}
}

// number reads a JSON number or numeric string.
func number(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

// text reads a JSON string or number as display text.
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
