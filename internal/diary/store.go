// internal/diary/store.go
package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"smartdiet/internal/models"
)

const createdAtLayout = "2006-01-02 15:04:05"

// Store is a file-backed meal diary. The whole diary lives in one JSON array
// file; every operation is a full read-modify-write of that file and there
// is no locking, so two writers from separate processes can interleave their
// cycles and silently lose one writer's change. Single-process sequential
// access is the supported mode.
//
// No operation lets a lower-level fault escape: failures come back as error
// values (or empty results) with the cause logged.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store over the diary file at path. The file and its
// directory are created lazily on first access.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Append adds one fully-populated meal record to the diary. The record id is
// assigned at insertion and created_at is set to the current local time. A
// nil return means the record is on disk.
func (s *Store) Append(dishName string, amount int, date string, nutrition models.NutrientReading) error {
	meals, err := s.load()
	if err != nil {
		log.Printf("Could not load diary before append: %v", err)
		return err
	}

	record := models.MealRecord{
		ID:        nextID(meals),
		DishName:  dishName,
		Amount:    amount,
		Date:      date,
		Nutrition: nutrition,
		CreatedAt: s.now().Format(createdAtLayout),
	}

	if err := s.save(append(meals, record)); err != nil {
		log.Printf("Could not save meal %q: %v", dishName, err)
		return err
	}

	return nil
}

// nextID assigns one past the highest live id. Assigning length+1 instead
// would hand out an id that still belongs to an earlier record once anything
// but the newest record has been deleted.
func nextID(meals []models.MealRecord) int {
	maxID := 0
	for _, m := range meals {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	return maxID + 1
}

// ListAll returns every diary record, newest first. created_at is
// fixed-width, so the descending string sort is a chronological sort. On any
// failure the result is an empty slice.
func (s *Store) ListAll() ([]models.MealRecord, error) {
	meals, err := s.load()
	if err != nil {
		log.Printf("Could not read diary: %v", err)
		return []models.MealRecord{}, err
	}

	sort.SliceStable(meals, func(i, j int) bool {
		return meals[i].CreatedAt > meals[j].CreatedAt
	})

	return meals, nil
}

// ListByDate returns the records whose date exactly equals date, preserving
// on-disk (insertion) order. Date format validity is the caller's
// responsibility; a malformed argument simply matches nothing.
func (s *Store) ListByDate(date string) ([]models.MealRecord, error) {
	meals, err := s.load()
	if err != nil {
		log.Printf("Could not read diary for date %s: %v", date, err)
		return []models.MealRecord{}, err
	}

	matched := make([]models.MealRecord, 0)
	for _, m := range meals {
		if m.Date == date {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// Delete removes every record with the given id. Ids are expected to be
// unique, but removal is multi-match safe. Deleting an id that does not
// exist is a success; only an I/O or serialization failure is reported.
func (s *Store) Delete(id int) error {
	meals, err := s.load()
	if err != nil {
		log.Printf("Could not load diary before delete: %v", err)
		return err
	}

	kept := make([]models.MealRecord, 0, len(meals))
	for _, m := range meals {
		if m.ID != id {
			kept = append(kept, m)
		}
	}

	if err := s.save(kept); err != nil {
		log.Printf("Could not save diary after deleting id %d: %v", id, err)
		return err
	}

	return nil
}

// Statistics summarizes the diary: total records, distinct days, and the
// first/last date. An empty or unreadable diary yields zero counts and a nil
// date range.
func (s *Store) Statistics() models.DiaryStatistics {
	meals, err := s.ListAll()
	if err != nil || len(meals) == 0 {
		return models.DiaryStatistics{}
	}

	days := make(map[string]struct{}, len(meals))
	first, last := meals[0].Date, meals[0].Date
	for _, m := range meals {
		days[m.Date] = struct{}{}
		if m.Date < first {
			first = m.Date
		}
		if m.Date > last {
			last = m.Date
		}
	}

	return models.DiaryStatistics{
		TotalMeals: len(meals),
		UniqueDays: len(days),
		DateRange:  &models.DateRange{First: first, Last: last},
	}
}

func (s *Store) ensureFile() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create diary directory: %w", err)
		}
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat diary file: %w", err)
	}

	if err := os.WriteFile(s.path, []byte("[]"), 0o644); err != nil {
		return fmt.Errorf("failed to create diary file: %w", err)
	}
	return nil
}

func (s *Store) load() ([]models.MealRecord, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diary file: %w", err)
	}

	var meals []models.MealRecord
	if err := json.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("failed to decode diary file: %w", err)
	}
	return meals, nil
}

func (s *Store) save(meals []models.MealRecord) error {
	data, err := json.MarshalIndent(meals, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode diary: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write diary file: %w", err)
	}
	return nil
}
