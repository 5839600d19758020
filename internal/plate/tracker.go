package plate

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Tracker owns the session State and drives the food-entry flow.
// Every mutation happens under mu, so handlers running on different
// goroutines observe the same serialized sequence of events. Estimation
// calls run without the lock; the Analyzing phase keeps a second analysis
// from starting while one is in flight.
type Tracker struct {
	mu        sync.Mutex
	state     State
	stream    Stream
	camera    Camera
	estimator Estimator
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewTracker creates a Tracker starting from initial.
// camera may be nil when frames only arrive through SubmitImage.
func NewTracker(initial State, camera Camera, estimator Estimator, logger Logger, clock Clock, idgen IDGenerator) *Tracker {
	return &Tracker{
		state:     initial.Clone(),
		camera:    camera,
		estimator: estimator,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Summary derives the dashboard metrics from the current state.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summarize(t.state)
}

// Report builds a day report from the current state.
func (t *Tracker) Report() *DayReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return NewDayReport(t.state.Clone(), t.clock.Now())
}

// captureGuard rejects capture operations while an analysis or a draft is pending.
func (t *Tracker) captureGuard(op string) error {
	switch t.state.Phase {
	case PhaseAnalyzing:
		return fmt.Errorf("%s: %w", op, ErrAnalysisInFlight)
	case PhaseDraftPending:
		return fmt.Errorf("%s: %w", op, ErrDraftPending)
	}
	return nil
}

// releaseStream closes the camera device if one is held.
func (t *Tracker) releaseStream() {
	if t.stream == nil {
		return
	}
	if err := t.stream.Close(); err != nil {
		t.logger.Warn("releasing camera", "error", err)
	}
	t.stream = nil
	t.logger.Debug("camera released")
}

// StartCapture enters the capture view. ModeCamera acquires the camera
// device; if that fails the phase is left unchanged.
func (t *Tracker) StartCapture(ctx context.Context, mode CaptureMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.captureGuard("start capture"); err != nil {
		return err
	}

	switch mode {
	case ModeText:
		t.releaseStream()
	case ModeCamera:
		if t.stream == nil {
			if t.camera == nil {
				return fmt.Errorf("%w: no camera configured", ErrCameraUnavailable)
			}
			stream, err := t.camera.Open(ctx)
			if err != nil {
				t.logger.Warn("camera unavailable", "error", err)
				return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
			}
			t.stream = stream
			t.logger.Debug("camera acquired")
		}
	default:
		return fmt.Errorf("%w: unknown capture mode %q", ErrInvalidInput, mode)
	}

	t.state.Phase = PhaseCapturing
	t.state.Mode = mode
	return nil
}

// StopCapture releases the camera device. Leaving the capture view returns
// to Idle; during an analysis only the device is released and the pending
// estimation call completes as usual.
func (t *Tracker) StopCapture() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.releaseStream()
	if t.state.Phase == PhaseCapturing {
		t.state = t.state.idle()
	}
}

// CaptureFrame grabs a still frame from the open camera and estimates it.
func (t *Tracker) CaptureFrame(ctx context.Context) (*Draft, error) {
	frame, err := t.grabFrame(ctx)
	if err != nil {
		return nil, err
	}
	return t.analyze(ctx, ModeCamera, SourceCamera, func(ctx context.Context) (*Estimate, error) {
		return t.estimator.EstimateImage(ctx, frame)
	})
}

func (t *Tracker) grabFrame(ctx context.Context) (Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.captureGuard("capture frame"); err != nil {
		return Frame{}, err
	}
	if t.state.Phase != PhaseCapturing || t.stream == nil {
		return Frame{}, fmt.Errorf("capture frame in phase %s: %w", t.state.Phase, ErrInvalidTransition)
	}
	if err := t.requireEstimator(); err != nil {
		return Frame{}, err
	}

	frame, err := t.stream.Capture(ctx)
	if err != nil {
		t.releaseStream()
		t.state = t.state.idle()
		t.logger.Warn("camera capture failed", "error", err)
		return Frame{}, fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}

	t.enterAnalyzing(ModeCamera)
	return frame, nil
}

// SubmitImage estimates a frame captured outside the Tracker, such as an
// upload from the web client.
func (t *Tracker) SubmitImage(ctx context.Context, frame Frame) (*Draft, error) {
	if len(frame.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	if err := t.beginSubmit("submit image", ModeCamera); err != nil {
		return nil, err
	}
	return t.analyze(ctx, ModeCamera, SourceCamera, func(ctx context.Context) (*Estimate, error) {
		return t.estimator.EstimateImage(ctx, frame)
	})
}

// SubmitText estimates a free-text food description.
func (t *Tracker) SubmitText(ctx context.Context, description string) (*Draft, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: empty description", ErrInvalidInput)
	}
	if err := t.beginSubmit("submit text", ModeText); err != nil {
		return nil, err
	}
	return t.analyze(ctx, ModeText, SourceText, func(ctx context.Context) (*Estimate, error) {
		return t.estimator.EstimateText(ctx, description)
	})
}

func (t *Tracker) beginSubmit(op string, mode CaptureMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.captureGuard(op); err != nil {
		return err
	}
	if mode == ModeText && t.state.Phase == PhaseCapturing && t.state.Mode == ModeCamera {
		return fmt.Errorf("%s in phase %s/%s: %w", op, t.state.Phase, t.state.Mode, ErrInvalidTransition)
	}
	if err := t.requireEstimator(); err != nil {
		return err
	}
	t.enterAnalyzing(mode)
	return nil
}

func (t *Tracker) requireEstimator() error {
	if t.estimator == nil {
		return fmt.Errorf("%w: no estimator configured", ErrEstimationFailed)
	}
	return nil
}

func (t *Tracker) enterAnalyzing(mode CaptureMode) {
	t.state.Phase = PhaseAnalyzing
	t.state.Mode = mode
	t.state.Draft = nil
}

// analyze performs the estimation call outside the lock and commits its outcome.
// On failure the flow returns to the capture view if the camera is still
// held, otherwise to Idle.
func (t *Tracker) analyze(ctx context.Context, mode CaptureMode, source DraftSource, call func(context.Context) (*Estimate, error)) (*Draft, error) {
	est, err := call(ctx)
	if err == nil {
		err = est.validate()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		if mode == ModeCamera && t.stream != nil {
			t.state.Phase = PhaseCapturing
			t.state.Mode = ModeCamera
		} else {
			t.state = t.state.idle()
		}
		t.logger.Warn("estimation failed", "mode", string(mode), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailed, err)
	}

	t.releaseStream()
	d := newDraftFromEstimate(est, source)
	t.state = t.state.withDraft(d)
	t.logger.Info("draft created", "name", d.Name, "source", string(source), "calories", d.Calories)
	return &d, nil
}

// EditEntry opens a draft for an existing entry. Capturing is abandoned.
func (t *Tracker) EditEntry(id string) (*Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.captureGuard("edit entry"); err != nil {
		return nil, err
	}
	next, err := t.state.beginEdit(id)
	if err != nil {
		return nil, err
	}
	t.releaseStream()
	t.state = next
	d := *next.Draft
	return &d, nil
}

// SetServings changes the serving multiplier of the pending draft.
func (t *Tracker) SetServings(servings float64) (*Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.state.withServings(servings)
	if err != nil {
		return nil, err
	}
	t.state = next
	d := *next.Draft
	return &d, nil
}

// Revise corrects the name or macros of the pending draft.
func (t *Tracker) Revise(r DraftRevision) (*Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.state.revised(r)
	if err != nil {
		return nil, err
	}
	t.state = next
	d := *next.Draft
	return &d, nil
}

// Confirm writes the pending draft into the log under mealType.
func (t *Tracker) Confirm(mealType MealType) (FoodEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var id string
	if t.state.Draft != nil && !t.state.Draft.Editing() {
		id = t.idgen.New()
	}
	next, entry, err := t.state.confirm(mealType, id, t.clock.Now().UnixMilli())
	if err != nil {
		return FoodEntry{}, err
	}
	t.state = next

	if entry.ID == id {
		t.logger.Info("entry logged", "id", entry.ID, "name", entry.Name, "meal", string(entry.MealType), "calories", entry.Calories)
	} else {
		t.logger.Info("entry updated", "id", entry.ID, "name", entry.Name, "meal", string(entry.MealType), "calories", entry.Calories)
	}
	return entry, nil
}

// Discard drops the pending draft without touching the log.
func (t *Tracker) Discard() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Draft == nil {
		return ErrNoDraft
	}
	t.state = t.state.idle()
	t.logger.Debug("draft discarded")
	return nil
}

// Delete removes the entry an edit draft refers to and drops the draft.
func (t *Tracker) Delete() (FoodEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, removed, err := t.state.deleteEditing()
	if err != nil {
		return FoodEntry{}, err
	}
	t.state = next
	t.logger.Info("entry deleted", "id", removed.ID, "name", removed.Name)
	return removed, nil
}

// LogWater adds a preset amount of water.
func (t *Tracker) LogWater(amount int) (Hydration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, err := t.state.Hydration.Log(amount)
	if err != nil {
		return t.state.Hydration, err
	}
	t.state.Hydration = h
	t.logger.Debug("water logged", "amount", amount, "current", h.Current)
	return h, nil
}

// ResetWater sets the water counter to zero.
func (t *Tracker) ResetWater() Hydration {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Hydration = t.state.Hydration.Reset()
	return t.state.Hydration
}

// SetSteps records the current step count.
func (t *Tracker) SetSteps(steps int) error {
	if steps < 0 {
		return fmt.Errorf("%w: steps must not be negative", ErrInvalidInput)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Steps = steps
	return nil
}

// Close releases the camera device if it is still held.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseStream()
}
