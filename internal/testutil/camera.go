package testutil

import (
	"plate-go/internal/camera"
	"plate-go/internal/plate"
)

// TestFrame is a small JPEG-tagged frame for tests.
var TestFrame = plate.Frame{Data: []byte("\xff\xd8\xff\xe0test-frame"), MIMEType: "image/jpeg"}

// NewTestCamera creates an in-memory camera serving TestFrame.
func NewTestCamera() *camera.MemoryCamera {
	return camera.NewMemoryCamera(TestFrame)
}
