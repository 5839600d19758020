package plate

import "context"

// Estimator is the external nutrition estimation service.
// A nil Estimate with a nil error means the service could not produce a
// confident result; the Tracker treats that the same as an error.
type Estimator interface {
	// EstimateImage estimates the food shown in frame.
	EstimateImage(ctx context.Context, frame Frame) (*Estimate, error)

	// EstimateText estimates the food described by description.
	EstimateText(ctx context.Context, description string) (*Estimate, error)
}
