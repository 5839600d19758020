package estimate

import (
	"context"
	"strings"

	"plate-go/internal/config"
	"plate-go/internal/plate"
)

// StaticEstimator answers text descriptions from a fixed table. It never
// recognizes images. Useful offline and in tests.
type StaticEstimator struct {
	foods []config.StaticFood
}

var _ plate.Estimator = (*StaticEstimator)(nil)

// NewStaticEstimator creates a StaticEstimator over foods.
func NewStaticEstimator(foods []config.StaticFood) *StaticEstimator {
	return &StaticEstimator{foods: foods}
}

// EstimateImage always reports no confident result.
func (s *StaticEstimator) EstimateImage(ctx context.Context, frame plate.Frame) (*plate.Estimate, error) {
	return nil, nil
}

// EstimateText matches description against names and aliases, first exactly
// and then as a substring. No match yields a nil Estimate.
func (s *StaticEstimator) EstimateText(ctx context.Context, description string) (*plate.Estimate, error) {
	q := normalize(description)
	if q == "" {
		return nil, nil
	}
	for _, f := range s.foods {
		for _, n := range names(f) {
			if n == q {
				return staticEstimate(f), nil
			}
		}
	}
	for _, f := range s.foods {
		for _, n := range names(f) {
			if n != "" && strings.Contains(q, n) {
				return staticEstimate(f), nil
			}
		}
	}
	return nil, nil
}

func names(f config.StaticFood) []string {
	out := []string{normalize(f.Name)}
	for _, a := range f.Aliases {
		out = append(out, normalize(a))
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func staticEstimate(f config.StaticFood) *plate.Estimate {
	return &plate.Estimate{
		Name:     f.Name,
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
	}
}
