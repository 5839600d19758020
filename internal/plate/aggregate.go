package plate

// Progress divides consumed by goal and clamps the result to [0, 1].
// A non-positive goal yields 0.
func Progress(consumed, goal float64) float64 {
	if goal <= 0 || consumed <= 0 {
		return 0
	}
	p := consumed / goal
	if p > 1 {
		return 1
	}
	return p
}

// TotalCalories sums the calories of all entries.
func TotalCalories(entries []FoodEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Calories
	}
	return total
}

// MealTypeTotal sums the calories of entries tagged with mealType.
func MealTypeTotal(entries []FoodEntry, mealType MealType) int {
	total := 0
	for _, e := range entries {
		if e.MealType == mealType {
			total += e.Calories
		}
	}
	return total
}

// CalorieProgress is TotalCalories relative to goal.
func CalorieProgress(entries []FoodEntry, goal int) float64 {
	return Progress(float64(TotalCalories(entries)), float64(goal))
}

// MacroTotals holds summed macro grams.
type MacroTotals struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// SumMacros adds up protein, carbs and fat across entries.
func SumMacros(entries []FoodEntry) MacroTotals {
	var m MacroTotals
	for _, e := range entries {
		m.Protein += e.Protein
		m.Carbs += e.Carbs
		m.Fat += e.Fat
	}
	return m
}

// MealTotal is the calorie subtotal of one meal type.
type MealTotal struct {
	MealType MealType `json:"mealType"`
	Calories int      `json:"calories"`
	Count    int      `json:"count"`
}

// MealBreakdown returns a subtotal for every meal type, in MealTypes order.
func MealBreakdown(entries []FoodEntry) []MealTotal {
	totals := make([]MealTotal, len(MealTypes))
	for i, mt := range MealTypes {
		totals[i].MealType = mt
		for _, e := range entries {
			if e.MealType == mt {
				totals[i].Calories += e.Calories
				totals[i].Count++
			}
		}
	}
	return totals
}

// Summary is the set of derived metrics shown on the dashboard.
type Summary struct {
	TotalCalories     int         `json:"totalCalories"`
	CalorieGoal       int         `json:"calorieGoal"`
	CalorieProgress   float64     `json:"calorieProgress"`
	RemainingCalories int         `json:"remainingCalories"`
	Macros            MacroTotals `json:"macros"`
	Meals             []MealTotal `json:"meals"`
	Steps             int         `json:"steps"`
	StepGoal          int         `json:"stepGoal"`
	StepProgress      float64     `json:"stepProgress"`
	Water             int         `json:"water"`
	WaterGoal         int         `json:"waterGoal"`
	WaterUnit         WaterUnit   `json:"waterUnit"`
	WaterProgress     float64     `json:"waterProgress"`
}

// Summarize derives every metric from s. Nothing is cached between calls.
func Summarize(s State) Summary {
	total := TotalCalories(s.Entries)
	return Summary{
		TotalCalories:     total,
		CalorieGoal:       s.Goals.DailyCalories,
		CalorieProgress:   CalorieProgress(s.Entries, s.Goals.DailyCalories),
		RemainingCalories: max(s.Goals.DailyCalories-total, 0),
		Macros:            SumMacros(s.Entries),
		Meals:             MealBreakdown(s.Entries),
		Steps:             s.Steps,
		StepGoal:          s.Goals.DailySteps,
		StepProgress:      Progress(float64(s.Steps), float64(s.Goals.DailySteps)),
		Water:             s.Hydration.Current,
		WaterGoal:         s.Hydration.Goal,
		WaterUnit:         s.Hydration.Unit,
		WaterProgress:     s.Hydration.Progress(),
	}
}
