package testutil

import (
	"testing"

	"plate-go/internal/plate"
)

// NewTestState returns an idle state with a 2400 kcal goal, a 10000 step goal
// and milliliter hydration defaults.
func NewTestState(t *testing.T) plate.State {
	t.Helper()
	h, err := plate.NewHydration(plate.Milliliters, 0, nil)
	if err != nil {
		t.Fatalf("NewHydration() error = %v", err)
	}
	s, err := plate.NewState(plate.Goals{DailyCalories: 2400, DailySteps: 10000}, h)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	return s
}

// TrackerDeps bundles the doubles behind a test Tracker.
type TrackerDeps struct {
	Camera    plate.Camera
	Estimator *ScriptedEstimator
	Clock     *StubClock
	IDs       *StubIDGenerator
}

// NewTestTracker creates a Tracker over initial with a fixed clock, sequential
// ids and the given camera and estimator.
func NewTestTracker(t *testing.T, initial plate.State, cam plate.Camera, est *ScriptedEstimator) (*plate.Tracker, TrackerDeps) {
	t.Helper()
	deps := TrackerDeps{
		Camera:    cam,
		Estimator: est,
		Clock:     FixedClock(),
		IDs:       NewStubIDGenerator(),
	}
	var estimator plate.Estimator
	if est != nil {
		estimator = est
	}
	tr := plate.NewTracker(initial, cam, estimator, plate.NewNopLogger(), deps.Clock, deps.IDs)
	t.Cleanup(tr.Close)
	return tr, deps
}
