// internal/diary/store_test.go
package diary

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartdiet/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data", "meals.json"))
}

func TestAppendListAllRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append("Tomato Soup", 250, "2025-03-01", models.NutrientReading{"Iron": 1.2}); err != nil {
		t.Fatalf("append: %v", err)
	}

	meals, err := s.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 record, got %d", len(meals))
	}

	rec := meals[0]
	if rec.ID != 1 {
		t.Fatalf("expected id 1, got %d", rec.ID)
	}
	if rec.DishName != "Tomato Soup" || rec.Amount != 250 || rec.Date != "2025-03-01" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Nutrition["Iron"] != 1.2 {
		t.Fatalf("unexpected nutrition data: %v", rec.Nutrition)
	}
	if rec.CreatedAt == "" {
		t.Fatalf("expected created_at to be set")
	}
	if _, err := time.Parse(createdAtLayout, rec.CreatedAt); err != nil {
		t.Fatalf("created_at %q does not match layout: %v", rec.CreatedAt, err)
	}
}

func TestDiaryFileCreatedLazily(t *testing.T) {
	s := newTestStore(t)

	meals, err := s.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("expected empty diary, got %d records", len(meals))
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("expected diary file to exist: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array file, got %q", data)
	}
}

func TestListAllSortsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, dish := range []string{"Breakfast", "Lunch", "Dinner"} {
		if err := s.Append(dish, 100, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
			t.Fatalf("append %s: %v", dish, err)
		}
	}

	meals, err := s.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}

	got := []string{meals[0].DishName, meals[1].DishName, meals[2].DishName}
	want := []string{"Dinner", "Lunch", "Breakfast"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestListByDateReturnsExactMatchesOnly(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append("Soup", 250, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append("Pasta", 300, "2025-03-02", models.NutrientReading{"Zinc": 2}); err != nil {
		t.Fatalf("append: %v", err)
	}

	meals, err := s.ListByDate("2025-03-01")
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(meals) != 1 || meals[0].DishName != "Soup" {
		t.Fatalf("unexpected result: %+v", meals)
	}

	none, err := s.ListByDate("2025-03-03")
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append("Soup", 250, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append("Pasta", 300, "2025-03-01", models.NutrientReading{"Zinc": 2}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	meals, err := s.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(meals) != 1 || meals[0].DishName != "Pasta" {
		t.Fatalf("unexpected diary after delete: %+v", meals)
	}
}

func TestDeleteMissingIDIsNoOpSuccess(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append("Soup", 250, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Delete(999); err != nil {
		t.Fatalf("expected success for missing id, got %v", err)
	}

	meals, err := s.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected the record to survive, got %d records", len(meals))
	}
}

func TestAppendAfterDeleteDoesNotReuseLiveIDs(t *testing.T) {
	s := newTestStore(t)

	for _, dish := range []string{"A", "B", "C"} {
		if err := s.Append(dish, 100, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
			t.Fatalf("append %s: %v", dish, err)
		}
	}
	if err := s.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Append("D", 100, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	meals, err := s.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}

	seen := make(map[int]bool)
	for _, m := range meals {
		if seen[m.ID] {
			t.Fatalf("duplicate id %d in diary: %+v", m.ID, meals)
		}
		seen[m.ID] = true
	}
	// len+1 assignment would have produced id 3 here and collided with "C".
	if !seen[4] {
		t.Fatalf("expected new record to get id 4, ids: %v", seen)
	}
}

func TestStatisticsEmptyDiary(t *testing.T) {
	s := newTestStore(t)

	stats := s.Statistics()
	if stats.TotalMeals != 0 || stats.UniqueDays != 0 {
		t.Fatalf("expected zeroed statistics, got %+v", stats)
	}
	if stats.DateRange != nil {
		t.Fatalf("expected nil date range, got %+v", stats.DateRange)
	}
}

func TestStatisticsDateRange(t *testing.T) {
	s := newTestStore(t)

	dates := []string{"2025-01-02", "2025-01-01", "2025-01-03", "2025-01-02"}
	for i, date := range dates {
		if err := s.Append("Meal", 100+i, date, models.NutrientReading{"Iron": 1}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stats := s.Statistics()
	if stats.TotalMeals != 4 {
		t.Fatalf("expected 4 meals, got %d", stats.TotalMeals)
	}
	if stats.UniqueDays != 3 {
		t.Fatalf("expected 3 unique days, got %d", stats.UniqueDays)
	}
	if stats.DateRange == nil || stats.DateRange.First != "2025-01-01" || stats.DateRange.Last != "2025-01-03" {
		t.Fatalf("unexpected date range: %+v", stats.DateRange)
	}
}

func TestListAllOnCorruptFileReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	meals, err := s.ListAll()
	if err == nil {
		t.Fatalf("expected an error for a corrupt diary file")
	}
	if meals == nil || len(meals) != 0 {
		t.Fatalf("expected an empty slice, got %v", meals)
	}
}

// TestLostUpdateBetweenIndependentWriters pins down the known race of the
// full-file rewrite scheme: two writers that interleave their
// read-modify-write cycles against the same file lose the first writer's
// change. The store does not serialize cross-process access; this test
// documents that limitation rather than fixing it.
func TestLostUpdateBetweenIndependentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.json")
	writer1 := NewStore(path)
	writer2 := NewStore(path)

	if err := writer1.Append("Existing", 100, "2025-03-01", models.NutrientReading{"Iron": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Both writers read the same snapshot before either writes.
	snap1, err := writer1.load()
	if err != nil {
		t.Fatalf("writer1 load: %v", err)
	}
	snap2, err := writer2.load()
	if err != nil {
		t.Fatalf("writer2 load: %v", err)
	}

	first := models.MealRecord{ID: nextID(snap1), DishName: "FromWriter1", Amount: 100, Date: "2025-03-01",
		Nutrition: models.NutrientReading{"Iron": 1}, CreatedAt: writer1.now().Format(createdAtLayout)}
	if err := writer1.save(append(snap1, first)); err != nil {
		t.Fatalf("writer1 save: %v", err)
	}

	second := models.MealRecord{ID: nextID(snap2), DishName: "FromWriter2", Amount: 100, Date: "2025-03-01",
		Nutrition: models.NutrientReading{"Iron": 1}, CreatedAt: writer2.now().Format(createdAtLayout)}
	if err := writer2.save(append(snap2, second)); err != nil {
		t.Fatalf("writer2 save: %v", err)
	}

	meals, err := writer1.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(meals) != 2 {
		t.Fatalf("expected writer1's update to be lost (2 records), got %d", len(meals))
	}
	for _, m := range meals {
		if m.DishName == "FromWriter1" {
			t.Fatalf("writer1's record unexpectedly survived: %+v", meals)
		}
	}
}
