package plate

import (
	"fmt"
	"math"
	"strings"
)

// MealType tags a confirmed entry with the meal it belongs to.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

// MealTypes lists every meal type in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// ParseMealType matches s against the known meal types, ignoring case.
func ParseMealType(s string) (MealType, error) {
	s = strings.TrimSpace(s)
	for _, mt := range MealTypes {
		if strings.EqualFold(s, string(mt)) {
			return mt, nil
		}
	}
	return "", fmt.Errorf("unknown meal type: %q", s)
}

// Valid reports whether m is one of the known meal types.
func (m MealType) Valid() bool {
	for _, mt := range MealTypes {
		if m == mt {
			return true
		}
	}
	return false
}

// FoodEntry is a confirmed item in the food log.
// Macro values are whole numbers: confirmation rounds the scaled draft values.
type FoodEntry struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Calories  int      `json:"calories"`
	Protein   int      `json:"protein"`
	Carbs     int      `json:"carbs"`
	Fat       int      `json:"fat"`
	Timestamp int64    `json:"timestamp"` // milliseconds since epoch
	MealType  MealType `json:"mealType"`
}

// Estimate is the structured result of an estimation call.
type Estimate struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// MaxMacroValue bounds any single per-serving calorie or macro value.
const MaxMacroValue = 1e6

// validate rejects results that cannot become a draft: a nil result,
// a blank name, non-finite numbers or values above MaxMacroValue.
func (e *Estimate) validate() error {
	if e == nil {
		return fmt.Errorf("no result")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("result has no name")
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", e.Calories},
		{"protein", e.Protein},
		{"carbs", e.Carbs},
		{"fat", e.Fat},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("result has non-finite %s", f.name)
		}
		if f.value > MaxMacroValue {
			return fmt.Errorf("result has implausible %s: %v", f.name, f.value)
		}
	}
	return nil
}
