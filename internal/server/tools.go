// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"smartdiet/internal/charts"
)

const dateLayout = "2006-01-02"

type AnalyzeDishParams struct {
	DishName string `json:"dish_name" description:"Name of the dish to analyze"`
	Amount   int    `json:"amount" description:"Portion size in grams (1-10000)"`
}

type LogMealParams struct {
	DishName string `json:"dish_name" description:"Name of the dish eaten"`
	Amount   int    `json:"amount" description:"Portion size in grams (1-10000)"`
	Date     string `json:"date,omitempty" description:"Meal date (YYYY-MM-DD, defaults to today)"`
}

type GetDiaryByDateParams struct {
	Date string `json:"date" description:"Diary date to list (YYYY-MM-DD)"`
}

type DeleteMealParams struct {
	ID int `json:"id" description:"Id of the meal record to delete"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	// Convert the Arguments map to JSON bytes, then unmarshal to target
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

// validateDishInput enforces the preconditions the estimator itself does not
// re-check: non-empty dish name and a portion between 1 and 10000 grams.
func validateDishInput(dishName string, amount int) error {
	if strings.TrimSpace(dishName) == "" {
		return fmt.Errorf("dish_name is required")
	}
	if amount < 1 || amount > 10000 {
		return fmt.Errorf("amount must be between 1 and 10000 grams")
	}
	return nil
}

func validDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}

// handleAnalyzeDish estimates the micronutrient breakdown of a dish without
// logging it to the diary.
func (s *SmartDietServer) handleAnalyzeDish(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeDishParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if err := validateDishInput(params.DishName, params.Amount); err != nil {
		return nil, err
	}

	reading, err := s.estimator.Estimate(context.Background(), params.DishName, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("could not analyze the dish, try again")
	}

	result := map[string]interface{}{
		"status":         "success",
		"dish":           params.DishName,
		"amount":         params.Amount,
		"micronutrients": reading,
		"chart":          charts.NutrientBars(params.DishName, reading),
	}
	return s.createJSONResponse(result)
}

// handleLogMeal analyzes a dish and appends the result to the meal diary.
func (s *SmartDietServer) handleLogMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if err := validateDishInput(params.DishName, params.Amount); err != nil {
		return nil, err
	}

	// Default to today or validate the supplied date
	date := params.Date
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if !validDate(date) {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format")
	}

	reading, err := s.estimator.Estimate(context.Background(), params.DishName, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("could not analyze the dish, try again")
	}

	if err := s.diary.Append(params.DishName, params.Amount, date, reading); err != nil {
		return nil, fmt.Errorf("could not save the meal")
	}

	result := map[string]interface{}{
		"status":         "success",
		"dish_name":      params.DishName,
		"amount":         params.Amount,
		"date":           date,
		"micronutrients": reading,
		"chart":          charts.NutrientBars(params.DishName, reading),
	}
	return s.createJSONResponse(result)
}

// handleGetDiary returns the whole diary, newest first, with summary
// statistics and per-day nutrient totals.
func (s *SmartDietServer) handleGetDiary(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	meals, _ := s.diary.ListAll()

	result := map[string]interface{}{
		"meals":        meals,
		"statistics":   s.diary.Statistics(),
		"daily_totals": charts.DailyTotals(meals),
	}
	return s.createJSONResponse(result)
}

// handleGetDiaryByDate returns the meals logged on one calendar day.
func (s *SmartDietServer) handleGetDiaryByDate(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetDiaryByDateParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if !validDate(params.Date) {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format")
	}

	meals, _ := s.diary.ListByDate(params.Date)

	result := map[string]interface{}{
		"date":  params.Date,
		"meals": meals,
	}
	return s.createJSONResponse(result)
}

// handleDeleteMeal removes one record from the diary. Deleting an id that
// does not exist still succeeds.
func (s *SmartDietServer) handleDeleteMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.ID < 1 {
		return nil, fmt.Errorf("id must be a positive integer")
	}

	if err := s.diary.Delete(params.ID); err != nil {
		return nil, fmt.Errorf("could not delete the meal")
	}

	result := map[string]interface{}{
		"status":     "success",
		"deleted_id": params.ID,
	}
	return s.createJSONResponse(result)
}

// handleGetStatistics returns the diary summary view.
func (s *SmartDietServer) handleGetStatistics(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return s.createJSONResponse(s.diary.Statistics())
}

// Register all tools - handled manually in the HTTP dispatcher
func (s *SmartDietServer) registerTools() error {
	tools := map[string]func(*protocol.CallToolRequest) (*protocol.CallToolResult, error){
		"analyze_dish":      s.handleAnalyzeDish,
		"log_meal":          s.handleLogMeal,
		"get_diary":         s.handleGetDiary,
		"get_diary_by_date": s.handleGetDiaryByDate,
		"delete_meal":       s.handleDeleteMeal,
		"get_statistics":    s.handleGetStatistics,
	}

	// Just verify all handlers are present
	for name := range tools {
		log.Printf("Registered tool: %s", name)
	}

	return nil
}
