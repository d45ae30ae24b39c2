package telegram

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"weightduel/internal/app"
	"weightduel/internal/domain"
	"weightduel/internal/meals"
)

// Catalog text is operator supplied and rendered with HTML parse mode, so
// every string from it goes through a policy that strips markup and escapes
// the rest.
var catalogPolicy = bluemonday.StrictPolicy()

func clean(s string) string {
	return catalogPolicy.Sanitize(s)
}

type courseLabel struct {
	title string
	emoji string
}

var courseLabels = map[meals.CourseKind]courseLabel{
	meals.Breakfast: {"Завтрак", "☕️"},
	meals.Snack1:    {"Перекус 1", "🥪"},
	meals.Lunch:     {"Обед", "🍲"},
	meals.Snack2:    {"Полдник", "🍎"},
	meals.Dinner:    {"Ужин", "🍛"},
}

// formatNumber prints whole numbers without decimals and everything else
// with one.
func formatNumber(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-6 {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatGrams(v *float64) string {
	if v == nil {
		return "—"
	}
	return formatNumber(*v) + " г"
}

func formatKcal(v *float64) string {
	if v == nil {
		return "—"
	}
	return formatNumber(*v) + " ккал"
}

func humanDay(d domain.Day) string {
	t, err := time.Parse(domain.DayLayout, string(d))
	if err != nil {
		return string(d)
	}
	return t.Format("02.01.2006")
}

func itemLine(it meals.Item) string {
	name := strings.TrimSpace(it.Name)
	if name == "" {
		name = "Позиция"
	}

	var grams []string
	if it.RawG != nil {
		grams = append(grams, formatGrams(it.RawG)+" (сух.)")
	}
	if it.CookedG != nil {
		grams = append(grams, formatGrams(it.CookedG)+" (готов.)")
	}

	var b strings.Builder
	b.WriteString(" • <b>")
	b.WriteString(clean(name))
	b.WriteString("</b>")
	if len(grams) > 0 {
		b.WriteString(" — ")
		b.WriteString(strings.Join(grams, ", "))
	}
	if it.Kcal != nil || it.ProteinG != nil || it.FatG != nil || it.CarbsG != nil {
		fmt.Fprintf(&b, " — %s, Б/Ж/У: %s/%s/%s",
			formatKcal(it.Kcal), formatGrams(it.ProteinG), formatGrams(it.FatG), formatGrams(it.CarbsG))
	}
	return b.String()
}

func courseBlock(c meals.Course) string {
	label := courseLabels[c.Kind]
	dayNo := "?"
	if c.Meal != nil && c.Meal.Day != "" {
		dayNo = clean(c.Meal.Day)
	}
	header := fmt.Sprintf("%s <b>%s</b> (№%s)", label.emoji, label.title, dayNo)

	var lines []string
	switch {
	case c.Meal == nil:
	case c.Meal.Structured():
		for _, it := range c.Meal.Items {
			lines = append(lines, itemLine(it))
		}
	default:
		for _, l := range c.Meal.Legacy {
			lines = append(lines, " • "+clean(l))
		}
	}
	if len(lines) == 0 {
		lines = []string{"—"}
	}

	block := header + "\n" + strings.Join(lines, "\n")
	if c.Totals != nil {
		block += fmt.Sprintf("\n<i>Итого:</i> %s, Б %s, Ж %s, У %s",
			formatKcal(c.Totals.Kcal), formatGrams(c.Totals.ProteinG), formatGrams(c.Totals.FatG), formatGrams(c.Totals.CarbsG))
	}
	return block
}

func orZero(v *float64) *float64 {
	if v == nil {
		z := 0.0
		return &z
	}
	return v
}

// RenderMenu formats plan as an HTML chat message.
func RenderMenu(plan meals.MenuPlan) string {
	blocks := make([]string, 0, len(plan.Courses))
	for _, c := range plan.Courses {
		blocks = append(blocks, courseBlock(c))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽 <b>Меню на %s</b>\n<i>Номер дня: %d</i>\n\n", plan.Date.Format("02.01.2006"), plan.DayOfMonth)
	b.WriteString(strings.Join(blocks, "\n\n"))
	if t := plan.Total; t != nil {
		fmt.Fprintf(&b, "\n\n<b>ИТОГО за день:</b>\n • %s\n • Белки: %s\n • Жиры: %s\n • Углеводы: %s",
			formatKcal(orZero(t.Kcal)), formatGrams(orZero(t.ProteinG)), formatGrams(orZero(t.FatG)), formatGrams(orZero(t.CarbsG)))
	}
	return b.String()
}

// RenderSummary formats the per-role progress as an HTML chat message.
func RenderSummary(start domain.Day, summary []app.RoleSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Результаты</b> (с %s)\n", humanDay(start))
	for _, s := range summary {
		b.WriteString("\n<b>")
		b.WriteString(clean(s.DisplayName))
		b.WriteString("</b>: ")
		if s.Count == 0 {
			b.WriteString("записей пока нет")
			continue
		}
		delta := *orZero(s.Delta)
		sign := ""
		if delta > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "%s кг → %s кг (%s%s кг, записей: %d)",
			formatNumber(s.First.Value), formatNumber(s.Latest.Value), sign, formatNumber(delta), s.Count)
		fmt.Fprintf(&b, "\nПоследний замер: %s", humanDay(s.Latest.Day))
	}
	return b.String()
}
