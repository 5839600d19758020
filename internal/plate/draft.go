package plate

import (
	"fmt"
	"math"
	"strings"
)

// Serving multiplier bounds.
const (
	MinServings     = 0.25
	MaxServings     = 5.0
	DefaultServings = 1.0
)

// DraftSource records how a draft was created.
type DraftSource string

const (
	SourceCamera DraftSource = "camera"
	SourceText   DraftSource = "text"
	SourceEdit   DraftSource = "edit"
)

// Draft is an unconfirmed candidate entry. Macro values are per serving;
// Servings scales them when the draft is confirmed.
type Draft struct {
	Name      string      `json:"name"`
	Calories  float64     `json:"calories"`
	Protein   float64     `json:"protein"`
	Carbs     float64     `json:"carbs"`
	Fat       float64     `json:"fat"`
	Servings  float64     `json:"servings"`
	EditingID string      `json:"editingId,omitempty"`
	Source    DraftSource `json:"source"`
}

// DraftRevision carries user corrections to a pending draft.
// Nil fields are left unchanged.
type DraftRevision struct {
	Name     *string  `json:"name,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

func newDraftFromEstimate(e *Estimate, source DraftSource) Draft {
	return Draft{
		Name:     strings.TrimSpace(e.Name),
		Calories: math.Max(e.Calories, 0),
		Protein:  math.Max(e.Protein, 0),
		Carbs:    math.Max(e.Carbs, 0),
		Fat:      math.Max(e.Fat, 0),
		Servings: DefaultServings,
		Source:   source,
	}
}

func newDraftFromEntry(e FoodEntry) Draft {
	return Draft{
		Name:      e.Name,
		Calories:  float64(e.Calories),
		Protein:   float64(e.Protein),
		Carbs:     float64(e.Carbs),
		Fat:       float64(e.Fat),
		Servings:  DefaultServings,
		EditingID: e.ID,
		Source:    SourceEdit,
	}
}

// Editing reports whether confirming the draft replaces an existing entry.
func (d Draft) Editing() bool {
	return d.EditingID != ""
}

// ValidateServings checks that s lies within [MinServings, MaxServings].
func ValidateServings(s float64) error {
	if math.IsNaN(s) || s < MinServings || s > MaxServings {
		return fmt.Errorf("%w: %v (allowed %v to %v)", ErrInvalidServings, s, MinServings, MaxServings)
	}
	return nil
}

// scaleMacro applies the serving multiplier and rounds to the nearest integer.
func scaleMacro(value, servings float64) int {
	return int(math.Round(value * servings))
}

// entry builds the confirmed entry for this draft with each macro scaled independently.
func (d Draft) entry(id string, timestamp int64, mealType MealType) FoodEntry {
	return FoodEntry{
		ID:        id,
		Name:      d.Name,
		Calories:  scaleMacro(d.Calories, d.Servings),
		Protein:   scaleMacro(d.Protein, d.Servings),
		Carbs:     scaleMacro(d.Carbs, d.Servings),
		Fat:       scaleMacro(d.Fat, d.Servings),
		Timestamp: timestamp,
		MealType:  mealType,
	}
}

// revise applies r to a copy of the draft.
func (d Draft) revise(r DraftRevision) (Draft, error) {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return d, fmt.Errorf("%w: name must not be empty", ErrInvalidDraft)
		}
		d.Name = name
	}
	values := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"calories", r.Calories, &d.Calories},
		{"protein", r.Protein, &d.Protein},
		{"carbs", r.Carbs, &d.Carbs},
		{"fat", r.Fat, &d.Fat},
	}
	for _, v := range values {
		if v.src == nil {
			continue
		}
		if math.IsNaN(*v.src) || math.IsInf(*v.src, 0) || *v.src < 0 {
			return d, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidDraft, v.name)
		}
		if *v.src > MaxMacroValue {
			return d, fmt.Errorf("%w: %s must not exceed %v", ErrInvalidDraft, v.name, MaxMacroValue)
		}
		*v.dst = *v.src
	}
	return d, nil
}
