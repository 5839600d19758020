package plate

import (
	"fmt"
	"slices"
)

// WaterUnit is the unit hydration amounts are tracked in.
type WaterUnit string

const (
	Milliliters WaterUnit = "ml"
	FluidOunces WaterUnit = "oz"
)

// ParseWaterUnit accepts "ml" or "oz"; an empty string means milliliters.
func ParseWaterUnit(s string) (WaterUnit, error) {
	switch s {
	case "", "ml":
		return Milliliters, nil
	case "oz":
		return FluidOunces, nil
	default:
		return "", fmt.Errorf("unknown water unit: %q", s)
	}
}

// DefaultWaterGoal returns the daily hydration goal used when none is configured.
func DefaultWaterGoal(unit WaterUnit) int {
	if unit == FluidOunces {
		return 84
	}
	return 2500
}

// DefaultWaterPresets returns the fixed amounts a user can log at once.
func DefaultWaterPresets(unit WaterUnit) []int {
	if unit == FluidOunces {
		return []int{8, 16}
	}
	return []int{250, 500}
}

// Hydration is the running water counter for the day.
// Presets is never mutated after construction, so copies may share it.
type Hydration struct {
	Unit    WaterUnit `json:"unit"`
	Goal    int       `json:"goal"`
	Current int       `json:"current"`
	Presets []int     `json:"presets"`
}

// NewHydration creates an empty counter. A zero goal or empty preset list
// falls back to the unit defaults.
func NewHydration(unit WaterUnit, goal int, presets []int) (Hydration, error) {
	if goal < 0 {
		return Hydration{}, fmt.Errorf("water goal must not be negative: %d", goal)
	}
	if goal == 0 {
		goal = DefaultWaterGoal(unit)
	}
	if len(presets) == 0 {
		presets = DefaultWaterPresets(unit)
	}
	for _, p := range presets {
		if p <= 0 {
			return Hydration{}, fmt.Errorf("water preset must be positive: %d", p)
		}
	}
	return Hydration{
		Unit:    unit,
		Goal:    goal,
		Presets: slices.Clone(presets),
	}, nil
}

// Log adds a preset amount to the counter.
func (h Hydration) Log(amount int) (Hydration, error) {
	if !slices.Contains(h.Presets, amount) {
		return h, fmt.Errorf("%w: %d %s (presets: %v)", ErrUnknownPreset, amount, h.Unit, h.Presets)
	}
	h.Current += amount
	return h, nil
}

// Reset sets the counter back to zero.
func (h Hydration) Reset() Hydration {
	h.Current = 0
	return h
}

// Progress is the share of the goal reached, clamped to [0, 1].
func (h Hydration) Progress() float64 {
	return Progress(float64(h.Current), float64(h.Goal))
}

// Format renders amount for display. Milliliter amounts of a liter or more
// are shown in liters.
func (h Hydration) Format(amount int) string {
	if h.Unit == FluidOunces {
		return fmt.Sprintf("%d fl oz", amount)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%.1f L", float64(amount)/1000)
	}
	return fmt.Sprintf("%d ml", amount)
}
