// internal/nutrition/estimator.go
package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"smartdiet/internal/models"
)

// ErrUnavailable is the single failure signal of Estimate. Transport errors,
// unparseable responses and empty validated readings all collapse into it
// once the retry budget is spent; callers should treat it as "estimation
// unavailable", not as a crash.
var ErrUnavailable = errors.New("nutrient estimate unavailable")

const (
	systemInstruction = "You are a nutrition expert. You return only valid JSON with no additional commentary."

	maxCompletionTokens = 500
	maxAttempts         = 3
	defaultRetryDelay   = 2 * time.Second
)

// Estimator turns a dish name and portion size into a validated nutrient
// reading by asking the upstream completion service. It holds no shared
// mutable state; concurrent Estimate calls are self-contained. Results are
// never cached, every call goes upstream.
type Estimator struct {
	client CompletionClient

	// RetryDelay is the fixed pause between attempts. Tests zero it.
	RetryDelay time.Duration
}

func NewEstimator(client CompletionClient) *Estimator {
	return &Estimator{
		client:     client,
		RetryDelay: defaultRetryDelay,
	}
}

// Estimate asks for a micronutrient breakdown of dishName scaled to
// amountGrams. Callers validate the inputs (non-empty name, 1..10000 grams)
// before calling. Up to 3 attempts are made, with a fixed delay between
// them; any failure after the last attempt is reported as ErrUnavailable.
func (e *Estimator) Estimate(ctx context.Context, dishName string, amountGrams int) (models.NutrientReading, error) {
	userPrompt := buildPrompt(dishName, amountGrams)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(e.RetryDelay):
			case <-ctx.Done():
				return nil, ErrUnavailable
			}
		}

		content, err := e.client.Complete(ctx, systemInstruction, userPrompt, maxCompletionTokens)
		if err != nil {
			log.Printf("Completion attempt %d/%d for %q failed: %v", attempt, maxAttempts, dishName, err)
			continue
		}

		cleaned := stripCodeFences(content)

		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
			log.Printf("Attempt %d/%d for %q: response is not a JSON object: %v", attempt, maxAttempts, dishName, err)
			continue
		}

		reading := validateReading(parsed)
		if len(reading) == 0 {
			log.Printf("Attempt %d/%d for %q: no usable nutrient values in response", attempt, maxAttempts, dishName)
			continue
		}

		return reading, nil
	}

	return nil, ErrUnavailable
}

// buildPrompt embeds a worked proportional-scaling example so the model
// scales per-100g knowledge to the requested portion instead of answering
// for a default serving.
func buildPrompt(dishName string, amountGrams int) string {
	return fmt.Sprintf(`Provide the micronutrient values for %dg of the dish %q in JSON format.
Return only the 4-6 most nutritionally significant micronutrients (e.g. magnesium, iron, vitamin D, calcium, zinc, potassium).
Give the values in mg or µg, scaled proportionally to the portion of %dg.
For example, if 100g of the dish contains 60 mg of magnesium, a 250g portion contains 150 mg.

Response format (JSON only, no additional text):
{
    "Magnesium": 120,
    "Iron": 3,
    "Vitamin D": 5,
    "Calcium": 250,
    "Zinc": 2
}`, amountGrams, dishName, amountGrams)
}

// stripCodeFences extracts the payload from a markdown-fenced completion.
// A "```json" fence wins over a bare "```" fence; with no fences the text
// passes through. Extraction is best effort: a missing closing fence keeps
// everything after the opening one. Newlines and carriage returns are always
// removed and the result trimmed, so stripping clean JSON is a no-op beyond
// whitespace.
func stripCodeFences(s string) string {
	if _, after, found := strings.Cut(s, "```json"); found {
		s = after
		if inner, _, closed := strings.Cut(s, "```"); closed {
			s = inner
		}
	} else if _, after, found := strings.Cut(s, "```"); found {
		s = after
		if inner, _, closed := strings.Cut(s, "```"); closed {
			s = inner
		}
	}

	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

// validateReading keeps only the entries that look like real nutrient
// amounts. Non-numeric and negative values are dropped with a warning, not
// treated as fatal; survivors are rounded to one decimal place. An empty
// result means the whole attempt failed.
func validateReading(parsed map[string]interface{}) models.NutrientReading {
	reading := make(models.NutrientReading, len(parsed))
	for name, value := range parsed {
		amount, ok := coerceFloat(value)
		if !ok {
			log.Printf("Warning: dropping nutrient %q: value %v is not numeric", name, value)
			continue
		}
		if amount < 0 {
			log.Printf("Warning: dropping nutrient %q: negative value %v", name, amount)
			continue
		}
		reading[name] = roundTenth(amount)
	}
	return reading
}

func coerceFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// roundTenth rounds half away from zero, so 2.25 becomes 2.3.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
