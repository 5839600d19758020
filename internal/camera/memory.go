package camera

import (
	"context"
	"fmt"
	"sync"

	"plate-go/internal/plate"
)

// MemoryCamera serves frames held in memory. It records how often the
// device was acquired and released, which makes it useful for testing.
// This implementation is safe for concurrent use.
type MemoryCamera struct {
	mu         sync.Mutex
	frames     []plate.Frame
	next       int
	openErr    error
	captureErr error
	opened     int
	closed     int
}

var _ plate.Camera = (*MemoryCamera)(nil)

// NewMemoryCamera creates a camera that returns frames in order, wrapping around.
func NewMemoryCamera(frames ...plate.Frame) *MemoryCamera {
	return &MemoryCamera{frames: frames}
}

// Deny makes subsequent Open calls fail with err, as a denied permission would.
func (c *MemoryCamera) Deny(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// FailCapture makes subsequent Capture calls fail with err.
func (c *MemoryCamera) FailCapture(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captureErr = err
}

// Open acquires the device.
func (c *MemoryCamera) Open(ctx context.Context) (plate.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opened++
	return &memoryStream{camera: c}, nil
}

// Held reports whether a stream is currently open.
func (c *MemoryCamera) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened > c.closed
}

// Opened returns the number of successful Open calls.
func (c *MemoryCamera) Opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

type memoryStream struct {
	camera *MemoryCamera
	closed bool
}

func (s *memoryStream) Capture(ctx context.Context) (plate.Frame, error) {
	c := s.camera
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return plate.Frame{}, fmt.Errorf("stream is closed")
	}
	if c.captureErr != nil {
		return plate.Frame{}, c.captureErr
	}
	if len(c.frames) == 0 {
		return plate.Frame{}, fmt.Errorf("no frames available")
	}
	f := c.frames[c.next]
	c.next = (c.next + 1) % len(c.frames)
	return f, nil
}

func (s *memoryStream) Close() error {
	c := s.camera
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	c.closed++
	return nil
}
