// internal/models/meal.go
package models

// NutrientReading maps a micronutrient name (e.g. "Magnesium") to its
// estimated amount for one dish and portion. Values are in mg or µg by
// convention; the unit is not tracked per key, so callers must not assume a
// single unit across entries. A valid reading is non-empty and every value
// is non-negative, rounded to one decimal place.
type NutrientReading map[string]float64

// MealRecord is one persisted diary entry. Records are immutable once
// written; the only supported mutation is whole-record deletion.
type MealRecord struct {
	ID        int             `json:"id"`
	DishName  string          `json:"dish_name"`
	Amount    int             `json:"amount"` // grams, 1..10000
	Date      string          `json:"date"`   // YYYY-MM-DD, no timezone
	Nutrition NutrientReading `json:"nutrition_data"`
	CreatedAt string          `json:"created_at"` // "YYYY-MM-DD HH:MM:SS", local wall clock
}

// DateRange spans the first and last calendar dates present in the diary.
// Dates are zero-padded ISO form, so lexicographic min/max is chronological.
type DateRange struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// DiaryStatistics is a derived read-only view over the whole diary.
// DateRange is nil when the diary is empty.
type DiaryStatistics struct {
	TotalMeals int        `json:"total_meals"`
	UniqueDays int        `json:"unique_days"`
	DateRange  *DateRange `json:"date_range"`
}
