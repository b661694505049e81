// internal/charts/charts.go
package charts

import (
	"fmt"
	"sort"

	"smartdiet/internal/models"
)

// Bar is one labelled value in a chart series.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is ready-to-render bar chart data. Rendering the image is the
// consumer's job; this package only builds the data points.
type Series struct {
	Title string `json:"title"`
	Bars  []Bar  `json:"bars"`
}

// NutrientBars turns an analyzed dish into a bar series, largest amounts
// first. Ties order by name so the output is deterministic regardless of map
// iteration order.
func NutrientBars(dishName string, reading models.NutrientReading) Series {
	bars := make([]Bar, 0, len(reading))
	for name, amount := range reading {
		bars = append(bars, Bar{Label: name, Value: amount})
	}

	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})

	return Series{
		Title: fmt.Sprintf("Micronutrient content: %s", dishName),
		Bars:  bars,
	}
}

// DayTotals is the summed nutrient intake for one diary day.
type DayTotals struct {
	Day       string                 `json:"day"`
	Nutrients models.NutrientReading `json:"nutrients"`
}

// DailyTotals sums nutrient amounts per diary day, oldest day first.
func DailyTotals(meals []models.MealRecord) []DayTotals {
	byDay := make(map[string]models.NutrientReading)
	for _, m := range meals {
		totals, ok := byDay[m.Date]
		if !ok {
			totals = make(models.NutrientReading)
			byDay[m.Date] = totals
		}
		for name, amount := range m.Nutrition {
			totals[name] += amount
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	result := make([]DayTotals, 0, len(days))
	for _, day := range days {
		result = append(result, DayTotals{Day: day, Nutrients: byDay[day]})
	}
	return result
}
