package testutil

import (
	"context"
	"sync"

	"plate-go/internal/plate"
)

// EstimateResult is one scripted estimator answer.
type EstimateResult struct {
	Estimate *plate.Estimate
	Err      error
}

// Returns scripts a successful answer.
func Returns(name string, calories, protein, carbs, fat float64) EstimateResult {
	return EstimateResult{Estimate: &plate.Estimate{
		Name: name, Calories: calories, Protein: protein, Carbs: carbs, Fat: fat,
	}}
}

// Fails scripts an error.
func Fails(err error) EstimateResult {
	return EstimateResult{Err: err}
}

// NoResult scripts a nil estimate with no error.
func NoResult() EstimateResult {
	return EstimateResult{}
}

// ScriptedEstimator answers calls from a queue. An exhausted queue yields
// NoResult. Hold makes calls block so tests can observe an in-flight analysis.
type ScriptedEstimator struct {
	mu      sync.Mutex
	results []EstimateResult
	frames  []plate.Frame
	texts   []string
	gate    chan struct{}
	started chan struct{}
}

var _ plate.Estimator = (*ScriptedEstimator)(nil)

// NewScriptedEstimator creates an estimator that returns results in order.
func NewScriptedEstimator(results ...EstimateResult) *ScriptedEstimator {
	return &ScriptedEstimator{results: results}
}

// Push appends results to the queue.
func (s *ScriptedEstimator) Push(results ...EstimateResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
}

// Hold makes subsequent calls block until release is called. started
// receives once per call after the call has been recorded.
func (s *ScriptedEstimator) Hold() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gate = gate
	s.started = make(chan struct{}, 16)
	var once sync.Once
	return s.started, func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Frames returns the frames passed to EstimateImage.
func (s *ScriptedEstimator) Frames() []plate.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]plate.Frame(nil), s.frames...)
}

// Texts returns the descriptions passed to EstimateText.
func (s *ScriptedEstimator) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// Calls returns the number of estimation calls made.
func (s *ScriptedEstimator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) + len(s.texts)
}

func (s *ScriptedEstimator) EstimateImage(ctx context.Context, frame plate.Frame) (*plate.Estimate, error) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
	return s.next(ctx)
}

func (s *ScriptedEstimator) EstimateText(ctx context.Context, description string) (*plate.Estimate, error) {
	s.mu.Lock()
	s.texts = append(s.texts, description)
	s.mu.Unlock()
	return s.next(ctx)
}

func (s *ScriptedEstimator) next(ctx context.Context) (*plate.Estimate, error) {
	s.mu.Lock()
	var r EstimateResult
	if len(s.results) > 0 {
		r = s.results[0]
		s.results = s.results[1:]
	}
	gate, started := s.gate, s.started
	s.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.Estimate != nil {
		est := *r.Estimate
		return &est, r.Err
	}
	return nil, r.Err
}
